package credentials

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
)

var tokenPattern = regexp.MustCompile(`(?i)(access_token|refresh_token|id_token|auth|token|session)`)

const (
	idbRowLimit   = 500
	idbValueLimit = 500
)

// IndexedDBMatch is one stored value that looks like it carries a token.
type IndexedDBMatch struct {
	DB     string `json:"db"`
	Table  string `json:"table"`
	Column string `json:"column"`
	Value  string `json:"value"`
}

// IndexedDBDump holds the token-like IndexedDB entries per origin and the token
// fields parsed out of JSON values.
type IndexedDBDump struct {
	Origins map[string][]IndexedDBMatch `json:"origins"`
	Tokens  map[string]string           `json:"tokens"`
}

func newIndexedDBDump() IndexedDBDump {
	return IndexedDBDump{Origins: map[string][]IndexedDBMatch{}, Tokens: map[string]string{}}
}

// Empty reports whether nothing matched.
func (d IndexedDBDump) Empty() bool { return len(d.Origins) == 0 && len(d.Tokens) == 0 }

// FirefoxIndexedDB scans the IndexedDB databases of Firefox profiles for token-like values.
type FirefoxIndexedDB struct {
	origins      []string
	profileGlobs []string
	logger       *zap.Logger
}

func NewFirefoxIndexedDB(origins, profileGlobs []string, logger *zap.Logger) *FirefoxIndexedDB {
	if len(origins) == 0 {
		origins = DefaultOrigins
	}
	if len(profileGlobs) == 0 {
		profileGlobs = DefaultFirefoxProfileGlobs
	}
	return &FirefoxIndexedDB{origins: origins, profileGlobs: profileGlobs, logger: logger.Named("firefox_idb")}
}

// Read returns the dump of the first profile with any match.
func (s *FirefoxIndexedDB) Read(ctx context.Context) (IndexedDBDump, error) {
	for _, profile := range FirefoxProfiles(s.profileGlobs) {
		if err := ctx.Err(); err != nil {
			return newIndexedDBDump(), err
		}
		dump, err := ReadProfileIndexedDB(ctx, profile, s.origins)
		if err != nil {
			s.logger.Debug("Could not read profile IndexedDB.", zap.String("profile", filepath.Base(profile)), zap.Error(err))
			continue
		}
		if !dump.Empty() {
			s.logger.Debug("IndexedDB tokens found.",
				zap.String("profile", filepath.Base(profile)),
				zap.Int("tokens", len(dump.Tokens)))
			return dump, nil
		}
	}
	return newIndexedDBDump(), nil
}

// OriginIndexedDBDir returns the IndexedDB directory of origin inside a profile,
// e.g. storage/default/https+++tinder.com/idb.
func OriginIndexedDBDir(profileDir, origin string) (string, error) {
	dir, err := originDir(profileDir, origin)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "idb"), nil
}

// ReadProfileIndexedDB scans every *.sqlite database under each origin's idb
// directory. Unreadable databases are skipped unless nothing could be read.
func ReadProfileIndexedDB(ctx context.Context, profileDir string, origins []string) (IndexedDBDump, error) {
	dump := newIndexedDBDump()
	var errs []error
	for _, origin := range origins {
		dir, err := OriginIndexedDBDir(profileDir, origin)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if _, err := os.Stat(dir); err != nil {
			continue
		}
		files, _ := filepath.Glob(filepath.Join(dir, "*.sqlite"))
		sort.Strings(files)
		for _, path := range files {
			matches, err := scanIndexedDB(ctx, path, dump.Tokens)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", filepath.Base(path), err))
				continue
			}
			if len(matches) > 0 {
				dump.Origins[origin] = append(dump.Origins[origin], matches...)
			}
		}
	}
	if dump.Empty() && len(errs) > 0 {
		return dump, errors.Join(errs...)
	}
	return dump, nil
}

func scanIndexedDB(ctx context.Context, path string, tokens map[string]string) ([]IndexedDBMatch, error) {
	db, err := sql.Open("sqlite", immutableURI(path))
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer db.Close()

	tables, err := listTables(ctx, db)
	if err != nil {
		return nil, err
	}
	var matches []IndexedDBMatch
	for _, table := range tables {
		found, err := scanTable(ctx, db, filepath.Base(path), table, tokens)
		if err != nil {
			continue
		}
		matches = append(matches, found...)
	}
	return matches, nil
}

func listTables(ctx context.Context, db *sql.DB) ([]string, error) {
	rows, err := db.QueryContext(ctx, "SELECT name FROM sqlite_master WHERE type='table'")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		tables = append(tables, name)
	}
	return tables, rows.Err()
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func scanTable(ctx context.Context, db *sql.DB, dbName, table string, tokens map[string]string) ([]IndexedDBMatch, error) {
	rows, err := db.QueryContext(ctx, "SELECT * FROM "+quoteIdent(table)+" LIMIT "+strconv.Itoa(idbRowLimit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	var matches []IndexedDBMatch
	values := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range values {
		ptrs[i] = &values[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return matches, err
		}
		for i, v := range values {
			text, ok := textValue(v)
			if !ok || text == "" || !tokenPattern.MatchString(text) {
				continue
			}
			matches = append(matches, IndexedDBMatch{
				DB:     dbName,
				Table:  table,
				Column: cols[i],
				Value:  truncate(text, idbValueLimit),
			})
			collectTokens(text, tokens)
		}
	}
	return matches, rows.Err()
}

// textValue returns text and blob columns as strings; other types are ignored.
func textValue(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case []byte:
		return strings.ToValidUTF8(string(t), ""), true
	default:
		return "", false
	}
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

// collectTokens copies token-named scalar fields from a JSON object, or from the
// objects of a JSON array, into tokens. Text that is not JSON is ignored.
func collectTokens(text string, tokens map[string]string) {
	var parsed any
	if err := json.Unmarshal([]byte(text), &parsed); err != nil {
		return
	}
	var objects []map[string]any
	switch p := parsed.(type) {
	case map[string]any:
		objects = append(objects, p)
	case []any:
		for _, item := range p {
			if obj, ok := item.(map[string]any); ok {
				objects = append(objects, obj)
			}
		}
	}
	for _, obj := range objects {
		for k, v := range obj {
			if !tokenPattern.MatchString(k) {
				continue
			}
			switch val := v.(type) {
			case string:
				tokens[k] = val
			case float64:
				tokens[k] = strconv.FormatFloat(val, 'f', -1, 64)
			}
		}
	}
}

// SaveIndexedDB writes the dump as indented JSON.
func SaveIndexedDB(path string, dump IndexedDBDump) error {
	if dump.Origins == nil {
		dump.Origins = map[string][]IndexedDBMatch{}
	}
	if dump.Tokens == nil {
		dump.Tokens = map[string]string{}
	}
	return writeJSON(path, dump)
}

package credentials

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/xkilldash9x/tinderscope/api/schemas"
)

// localStorageQueries are tried in order: the per-origin store of current Firefox
// releases, then the legacy shared webappsstore table.
var localStorageQueries = []string{
	"SELECT key, value FROM data",
	"SELECT key, value FROM webappsstore2",
}

// FirefoxLocalStorage reads per-origin local storage from Firefox profiles.
type FirefoxLocalStorage struct {
	origins      []string
	profileGlobs []string
	logger       *zap.Logger
}

// NewFirefoxLocalStorage creates a local storage source for origins.
func NewFirefoxLocalStorage(origins, profileGlobs []string, logger *zap.Logger) *FirefoxLocalStorage {
	if len(origins) == 0 {
		origins = DefaultOrigins
	}
	if len(profileGlobs) == 0 {
		profileGlobs = DefaultFirefoxProfileGlobs
	}
	return &FirefoxLocalStorage{origins: origins, profileGlobs: profileGlobs, logger: logger.Named("firefox_storage")}
}

func (s *FirefoxLocalStorage) Name() string { return "firefox_local_storage" }

// Read returns the local storage of the first profile that has any for the origins.
func (s *FirefoxLocalStorage) Read(ctx context.Context) (schemas.StorageState, error) {
	for _, profile := range FirefoxProfiles(s.profileGlobs) {
		items, err := ReadProfileLocalStorage(ctx, profile, s.origins)
		if err != nil {
			s.logger.Debug("Could not read profile local storage.", zap.String("profile", filepath.Base(profile)), zap.Error(err))
			continue
		}
		if len(items) > 0 {
			return schemas.StorageState{LocalStorage: items}, nil
		}
	}
	return schemas.StorageState{}, nil
}

// OriginStoragePath returns the local storage database of origin inside a profile,
// e.g. storage/default/https+++tinder.com/ls/data.sqlite.
func OriginStoragePath(profileDir, origin string) (string, error) {
	dir, err := originDir(profileDir, origin)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "ls", "data.sqlite"), nil
}

// originDir is the per-origin storage directory Firefox keeps under storage/default.
func originDir(profileDir, origin string) (string, error) {
	u, err := url.Parse(origin)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("credentials: bad origin %q", origin)
	}
	dir := u.Scheme + "+++" + strings.ReplaceAll(u.Host, ":", "+")
	return filepath.Join(profileDir, "storage", "default", dir), nil
}

// ReadProfileLocalStorage reads the local storage of every origin that has a
// database in profileDir. Origins without a database are skipped.
func ReadProfileLocalStorage(ctx context.Context, profileDir string, origins []string) (map[string]map[string]string, error) {
	out := make(map[string]map[string]string)
	var errs []error
	for _, origin := range origins {
		path, err := OriginStoragePath(profileDir, origin)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if _, err := os.Stat(path); err != nil {
			continue
		}
		items, err := readStorageDB(ctx, path)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", origin, err))
			continue
		}
		if len(items) > 0 {
			out[origin] = items
		}
	}
	if len(out) == 0 && len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return out, nil
}

// readStorageDB opens the database read-only and immutable so a running browser
// holding the file is not disturbed.
func readStorageDB(ctx context.Context, path string) (map[string]string, error) {
	db, err := sql.Open("sqlite", immutableURI(path))
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer db.Close()

	var lastErr error
	for _, q := range localStorageQueries {
		items, err := queryItems(ctx, db, q)
		if err != nil {
			lastErr = err
			continue
		}
		return items, nil
	}
	return nil, lastErr
}

func queryItems(ctx context.Context, db *sql.DB, query string) (map[string]string, error) {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make(map[string]string)
	for rows.Next() {
		var key string
		var value any
		if err := rows.Scan(&key, &value); err != nil {
			return nil, err
		}
		switch v := value.(type) {
		case []byte:
			items[key] = string(v)
		case string:
			items[key] = v
		case nil:
			items[key] = ""
		default:
			items[key] = fmt.Sprint(v)
		}
	}
	return items, rows.Err()
}

func immutableURI(path string) string {
	r := strings.NewReplacer("%", "%25", "?", "%3f", "#", "%23")
	return "file:" + r.Replace(filepath.ToSlash(path)) + "?mode=ro&immutable=1"
}

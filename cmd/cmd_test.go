package cmd

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/tinderscope/api/schemas"
	"github.com/xkilldash9x/tinderscope/internal/config"
	"github.com/xkilldash9x/tinderscope/internal/credentials"
	"github.com/xkilldash9x/tinderscope/internal/export"
	"github.com/xkilldash9x/tinderscope/internal/observability"
	"github.com/xkilldash9x/tinderscope/internal/orchestrator"
)

// writeConfig writes a config file that keeps logs out of the working directory.
func writeConfig(t *testing.T, dir, extra string) string {
	t.Helper()
	path := filepath.Join(dir, "config.yaml")
	body := "logger:\n  log_file: \"\"\n  level: error\n" + extra
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func runRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()
	observability.ResetForTest()
	t.Cleanup(observability.ResetForTest)

	root := NewRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRootCommand(t *testing.T) {
	t.Run("version flag", func(t *testing.T) {
		out, err := runRoot(t, "--version")
		require.NoError(t, err)
		assert.Equal(t, "tinderscope version dev\n", out)
	})

	t.Run("version command", func(t *testing.T) {
		out, err := runRoot(t, "version")
		require.NoError(t, err)
		assert.Equal(t, "tinderscope version dev\n", out)
	})

	t.Run("subcommands", func(t *testing.T) {
		names := map[string]bool{}
		for _, c := range NewRootCommand().Commands() {
			names[c.Name()] = true
		}
		for _, want := range []string{"scrape", "swipe", "cookies", "version"} {
			assert.True(t, names[want], want)
		}
	})

	t.Run("missing explicit config file", func(t *testing.T) {
		_, err := runRoot(t, "--config", filepath.Join(t.TempDir(), "absent.yaml"), "cookies")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "error reading config file")
	})

	t.Run("invalid config", func(t *testing.T) {
		cfgPath := writeConfig(t, t.TempDir(), "output:\n  format: xml\n")
		_, err := runRoot(t, "--config", cfgPath, "cookies")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid configuration")
	})

	t.Run("bad action", func(t *testing.T) {
		cfgPath := writeConfig(t, t.TempDir(), "")
		_, err := runRoot(t, "--config", cfgPath, "swipe", "--action", "maybe")
		assert.ErrorContains(t, err, `unknown action "maybe"`)
	})

	t.Run("scrape without credentials", func(t *testing.T) {
		dir := t.TempDir()
		cfgPath := writeConfig(t, dir, "session:\n  cookie_file: "+filepath.Join(dir, "c.json")+
			"\n  local_storage_file: "+filepath.Join(dir, "ls.json")+"\n")
		_, err := runRoot(t, "--config", cfgPath, "scrape")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "run `tinderscope cookies` first")
	})
}

func TestReadConfig(t *testing.T) {
	t.Run("defaults and env", func(t *testing.T) {
		t.Chdir(t.TempDir())
		t.Setenv("TINDERSCOPE_OUTPUT_FORMAT", "csv")
		t.Setenv("TINDERSCOPE_INTERACTION_RATE_PER_MINUTE", "4.5")

		v := viper.New()
		require.NoError(t, readConfig(v, ""))
		cfg, err := config.NewConfigFromViper(v)
		require.NoError(t, err)
		assert.Equal(t, "csv", cfg.Output().Format)
		assert.Equal(t, 4.5, cfg.Interaction().RatePerMinute)
		assert.Equal(t, "https://www.tinder.com/app/recs", cfg.Session().HomeURL)
	})

	t.Run("file", func(t *testing.T) {
		cfgPath := writeConfig(t, t.TempDir(), "extraction:\n  expand_runs: 5\n  exhaustive_images: true\n")
		v := viper.New()
		require.NoError(t, readConfig(v, cfgPath))
		cfg, err := config.NewConfigFromViper(v)
		require.NoError(t, err)
		assert.Equal(t, 5, cfg.Extraction().ExpandRuns)
		assert.True(t, cfg.Extraction().ExhaustiveImages)
		assert.Equal(t, "", cfg.Logger().LogFile)
	})
}

func TestConfigMapping(t *testing.T) {
	cfg := config.NewDefaultConfig()
	cfg.SessionCfg.HomeURL = "https://tinder.test/app/recs"
	cfg.ExtractionCfg.ReadyTimeout = 7 * time.Second
	cfg.ExtractionCfg.ExpandRuns = 2
	cfg.ExtractionCfg.ImageHostMarkers = []string{"images.test/"}
	cfg.InteractionCfg.ClickTimeout = 3 * time.Second
	cfg.InteractionCfg.RatePerMinute = 6
	cfg.SessionCfg.ReloadSettle = time.Second

	sc := scopeConfig(cfg)
	assert.Equal(t, "https://tinder.test/app/recs", sc.HomeURL)
	assert.Equal(t, 7*time.Second, sc.ReadyTimeout)
	assert.Equal(t, 2, sc.ExpandRuns)
	assert.NotNil(t, sc.Clock)

	ec := extractConfig(cfg)
	assert.Equal(t, []string{"images.test/"}, ec.HostMarkers)
	assert.False(t, ec.Exhaustive)

	ic := interactConfig(cfg)
	assert.Equal(t, "https://tinder.test/app/recs", ic.HomeURL)
	assert.Equal(t, 3*time.Second, ic.ClickTimeout)

	ac := authConfig(cfg)
	assert.Equal(t, "https://www.tinder.com/?lang=en", ac.LandingURL)
	assert.Equal(t, time.Second, ac.ReloadSettle)

	oc := orchestratorConfig(cfg)
	assert.Equal(t, 6.0, oc.RatePerMinute)
	assert.True(t, oc.OpenProfile)
	assert.Equal(t, sc.HomeURL, oc.Scope.HomeURL)
}

func TestParseAction(t *testing.T) {
	tests := []struct {
		in   string
		want schemas.InteractionAction
		err  bool
	}{
		{in: "like", want: schemas.ActionAccept},
		{in: " NOPE ", want: schemas.ActionReject},
		{in: "superlike", want: schemas.ActionSuperAccept},
		{in: "none", want: orchestrator.ActionNone},
		{in: "swipe", err: true},
		{in: "", err: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseAction(tt.in)
			if tt.err {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoadCredentials(t *testing.T) {
	dir := t.TempDir()
	cfg := config.NewDefaultConfig()
	cfg.SetSessionCookieFile(filepath.Join(dir, "cookies.json"))
	cfg.SetSessionLocalStorageFile(filepath.Join(dir, "storage.json"))

	_, err := loadCredentials(context.Background(), cfg)
	require.Error(t, err)

	require.NoError(t, credentials.SaveCookies(cfg.Session().CookieFile, []schemas.Cookie{{Name: "s", Value: "v", Domain: ".tinder.com", Path: "/"}}))
	state, err := loadCredentials(context.Background(), cfg)
	require.NoError(t, err, "a missing local storage file is tolerated when cookies exist")
	assert.Len(t, state.Cookies, 1)
}

func TestExportSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rows.csv")
	w, err := export.New(export.FormatTable, path)
	require.NoError(t, err)

	sink := exportSink{w: w}
	require.NoError(t, sink.SaveProfile(context.Background(), "run", &schemas.ExtractedProfile{ID: "p1", Name: "Ana"}))
	require.NoError(t, w.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[1], "p1,Ana,"))
}

func TestCookiesCommand(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	cookiePath := filepath.Join(dir, "cookies.json")
	storagePath := filepath.Join(dir, "storage.json")
	require.NoError(t, credentials.SaveCookies(cookiePath, []schemas.Cookie{
		{Name: "session", Value: "v", Domain: "tinder.com"},
		{Name: "other", Value: "x", Domain: "example.org"},
	}))
	require.NoError(t, credentials.SaveLocalStorage(storagePath, map[string]map[string]string{
		"https://tinder.com": {"token": "t"},
	}))

	cfgPath := writeConfig(t, dir, "credentials:\n  browser: firefox\n  firefox_profile_globs:\n    - "+filepath.Join(dir, "ff", "*")+"\n")
	out, err := runRoot(t, "--config", cfgPath, "cookies", "--cookie-file", cookiePath, "--local-storage-file", storagePath)
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote 1 cookies")

	cookies, err := credentials.LoadCookies(cookiePath)
	require.NoError(t, err)
	require.Len(t, cookies, 1)
	assert.Equal(t, ".tinder.com", cookies[0].Domain)
	assert.Equal(t, "/", cookies[0].Path)

	storage, err := credentials.LoadLocalStorage(storagePath)
	require.NoError(t, err)
	assert.Equal(t, "t", storage["https://tinder.com"]["token"])
}

func TestCookiesCommand_IndexedDB(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	profile := filepath.Join(dir, "ff", "abc.default-release")
	idbDir, err := credentials.OriginIndexedDBDir(profile, "https://tinder.com")
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(idbDir, 0o755))

	db, err := sql.Open("sqlite", filepath.Join(idbDir, "3647222921wleabcEoxlt-eengsairo.sqlite"))
	require.NoError(t, err)
	_, err = db.Exec("CREATE TABLE object_data (key BLOB, data BLOB)")
	require.NoError(t, err)
	_, err = db.Exec("INSERT INTO object_data VALUES (?, ?)", []byte("k"), []byte(`{"refresh_token":"r-9","access_token":"a-1"}`))
	require.NoError(t, err)
	require.NoError(t, db.Close())

	cookiePath := filepath.Join(dir, "cookies.json")
	require.NoError(t, credentials.SaveCookies(cookiePath, []schemas.Cookie{{Name: "s", Value: "v", Domain: "tinder.com"}}))
	idbPath := filepath.Join(dir, "idb.json")

	cfgPath := writeConfig(t, dir, "credentials:\n  browser: firefox\n  firefox_profile_globs:\n    - "+filepath.Join(dir, "ff", "*")+"\n")
	out, err := runRoot(t, "--config", cfgPath, "cookies",
		"--cookie-file", cookiePath,
		"--local-storage-file", filepath.Join(dir, "storage.json"),
		"--indexeddb-file", idbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "token keys: access_token, refresh_token")

	data, err := os.ReadFile(idbPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"refresh_token": "r-9"`)
	assert.Contains(t, string(data), `"https://tinder.com"`)
}

func TestLogClose(t *testing.T) {
	called := false
	logClose(zaptest.NewLogger(t), "thing", func() error {
		called = true
		return errors.New("already closed")
	})
	assert.True(t, called)
}

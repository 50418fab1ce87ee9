package observability

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/xkilldash9x/tinderscope/internal/config"
)

// lockedBuffer is a goroutine-safe zapcore.WriteSyncer.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) Sync() error { return nil }

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestInitialize(t *testing.T) {
	t.Run("console logger with colors", func(t *testing.T) {
		ResetForTest()
		t.Cleanup(ResetForTest)
		out := &lockedBuffer{}

		Initialize(config.LoggerConfig{
			Level:       "debug",
			Format:      "console",
			ServiceName: "tinderscope",
			Colors:      config.ColorConfig{Info: "green"},
		}, out)
		GetLogger().Named("extractor").Info("Profile extracted.")
		Sync()

		line := out.String()
		assert.Contains(t, line, colorMap["green"]+"INFO"+colorReset)
		assert.Contains(t, line, "tinderscope.extractor.")
		assert.Contains(t, line, "Profile extracted.")
	})

	t.Run("json logger", func(t *testing.T) {
		ResetForTest()
		t.Cleanup(ResetForTest)
		out := &lockedBuffer{}

		Initialize(config.LoggerConfig{Level: "info", Format: "json", ServiceName: "JSONTest"}, out)
		GetLogger().Warn("Credential source failed.", zap.String("source", "browser"))
		GetLogger().Debug("Filtered out by level.")
		Sync()

		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(out.String()), &entry), "exactly one JSON line is expected")
		assert.Equal(t, "warn", entry["level"])
		assert.Equal(t, "JSONTest", entry["logger"])
		assert.Equal(t, "Credential source failed.", entry["msg"])
		assert.Equal(t, "browser", entry["source"])
	})

	t.Run("log file receives json", func(t *testing.T) {
		ResetForTest()
		t.Cleanup(ResetForTest)
		path := filepath.Join(t.TempDir(), "tinderscope.log")

		Initialize(config.LoggerConfig{Level: "debug", Format: "console", LogFile: path, MaxSize: 1}, zapcore.AddSync(&bytes.Buffer{}))
		GetLogger().Error("This should go to the file.")
		Sync()

		content, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(content), `"msg":"This should go to the file."`)
	})

	t.Run("only initializes once", func(t *testing.T) {
		ResetForTest()
		t.Cleanup(ResetForTest)
		out := &lockedBuffer{}

		Initialize(config.LoggerConfig{Level: "info", Format: "json", ServiceName: "First"}, out)
		first := GetLogger()
		Initialize(config.LoggerConfig{Level: "debug", Format: "json", ServiceName: "Second"}, out)
		assert.Same(t, first, GetLogger())

		GetLogger().Info("test")
		Sync()
		assert.Contains(t, out.String(), "First")
		assert.NotContains(t, out.String(), "Second")
	})

	t.Run("invalid level falls back to info", func(t *testing.T) {
		ResetForTest()
		t.Cleanup(ResetForTest)
		out := &lockedBuffer{}

		Initialize(config.LoggerConfig{Level: "loud", Format: "json"}, out)
		GetLogger().Debug("hidden")
		GetLogger().Info("shown")
		Sync()
		assert.NotContains(t, out.String(), "hidden")
		assert.Contains(t, out.String(), "shown")
	})
}

func TestGetLogger(t *testing.T) {
	ResetForTest()
	t.Cleanup(ResetForTest)
	assert.NotNil(t, GetLogger(), "a fallback logger is returned before initialization")

	Initialize(config.LoggerConfig{Level: "info", Format: "json"}, &lockedBuffer{})
	assert.Same(t, globalLogger.Load(), GetLogger())
}

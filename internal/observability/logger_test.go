package observability

import (
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLoggerKeyValueFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := New(zap.New(core)).Named("scraper")

	logger.Info("Found period container", "period", "2024-03", "entries", 2)
	logger.Warn("Skipping entry", "reason", "no day prefix")

	require.Equal(t, 2, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "Found period container", entry.Message)
	assert.Equal(t, "scraper", entry.LoggerName)
	assert.Equal(t, "2024-03", entry.ContextMap()["period"])
	assert.EqualValues(t, 2, entry.ContextMap()["entries"])
	assert.Equal(t, zapcore.WarnLevel, logs.All()[1].Level)
}

func TestPackageImportsNothingInternal(t *testing.T) {
	files, err := filepath.Glob("*.go")
	require.NoError(t, err)

	fset := token.NewFileSet()
	for _, name := range files {
		f, err := parser.ParseFile(fset, name, nil, parser.ImportsOnly)
		require.NoError(t, err)
		for _, imp := range f.Imports {
			assert.False(t, strings.HasPrefix(strings.Trim(imp.Path.Value, `"`), "invader-notifier/"),
				"%s imports %s", name, imp.Path.Value)
		}
	}
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, parseLevel("debug"))
	assert.Equal(t, zapcore.WarnLevel, parseLevel("WARN"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("verbose"))
}

func TestNewLoggerWritesRotatedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notifier.log")
	logger := NewLogger(Options{
		Path:      path,
		Level:     "info",
		MaxSizeMB: 1,
	})

	logger.Info("Run finished", "sent", 3)
	logger.Debug("filtered out")
	logger.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"Run finished"`)
	assert.Contains(t, string(data), `"sent":3`)
	assert.NotContains(t, string(data), "filtered out")
}

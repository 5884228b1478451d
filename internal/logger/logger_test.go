package logger

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/dbsmedya/assetprof/internal/config"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected string // String representation of zapcore.Level
	}{
		{"debug", "debug"},
		{"info", "info"},
		{"", "info"}, // empty defaults to info
		{"warn", "warn"},
		{"error", "error"},
		{"unknown", "info"}, // unknown defaults to info
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			level := parseLevel(tt.input)
			if level.String() != tt.expected {
				t.Errorf("parseLevel(%q) = %v, expected %v", tt.input, level.String(), tt.expected)
			}
		})
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *config.LoggingConfig
		wantErr bool
	}{
		{
			name:    "json format info level",
			cfg:     &config.LoggingConfig{Level: "info", Format: "json", Output: "stdout"},
			wantErr: false,
		},
		{
			name:    "text format debug level",
			cfg:     &config.LoggingConfig{Level: "debug", Format: "text", Output: "stderr"},
			wantErr: false,
		},
		{
			name:    "file output",
			cfg:     &config.LoggingConfig{Level: "warn", Format: "json", Output: filepath.Join(t.TempDir(), "assetprof.log")},
			wantErr: false,
		},
		{
			name:    "unwritable file output",
			cfg:     &config.LoggingConfig{Level: "info", Format: "json", Output: filepath.Join(t.TempDir(), "missing", "dir", "x.log")},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := New(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("New() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if logger == nil && !tt.wantErr {
				t.Error("New() returned nil logger without error")
			}
			if logger != nil {
				_ = logger.Sync()
			}
		})
	}
}

func TestNewDefault(t *testing.T) {
	logger := NewDefault()
	if logger == nil {
		t.Fatal("NewDefault() returned nil")
	}
	logger.Info("test message")
}

func TestNewNop(t *testing.T) {
	logger := NewNop()
	require.NotNil(t, logger)
	logger.WithAnalyzer("mesh").Errorw("discarded", "k", 1)
	assert.NoError(t, logger.Sync())
}

func TestContextHelpers(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := FromZap(zap.New(core))

	logger.WithRun("run-1").WithAnalyzer("shader").WithShader("water.shader").Info("ranked")

	entries := logs.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "run-1", fields["run_id"])
	assert.Equal(t, "shader", fields["analyzer"])
	assert.Equal(t, "water.shader", fields["shader"])
}

func TestWithFields(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	logger := FromZap(zap.New(core))

	child := logger.WithFields(map[string]interface{}{
		"records": 12,
		"path":    "/tmp/project",
	})
	assert.NotSame(t, logger, child)

	child.Info("scanned")
	logger.Debug("below level")

	entries := logs.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.EqualValues(t, 12, fields["records"])
	assert.Equal(t, "/tmp/project", fields["path"])
}

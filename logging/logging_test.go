package logging

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Director != "logs" {
		t.Errorf("expected Director 'logs', got '%s'", cfg.Director)
	}
	if cfg.Level != "info" {
		t.Errorf("expected Level 'info', got '%s'", cfg.Level)
	}
	if cfg.Format != "json" {
		t.Errorf("expected Format 'json', got '%s'", cfg.Format)
	}
	if cfg.LogInFile {
		t.Error("expected LogInFile to be false by default")
	}
}

func TestConfigTransportLevel(t *testing.T) {
	tests := []struct {
		level    string
		expected zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"INFO", zapcore.InfoLevel},
		{"warn", zapcore.WarnLevel},
		{"Error", zapcore.ErrorLevel},
		{"dpanic", zapcore.DPanicLevel},
		{"panic", zapcore.PanicLevel},
		{"fatal", zapcore.FatalLevel},
		{"unknown", zapcore.DebugLevel},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			cfg := Config{Level: tt.level}
			if got := cfg.TransportLevel(); got != tt.expected {
				t.Errorf("TransportLevel() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestNewWithoutOutputsIsNop(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LogInTerminal = false
	cfg.LogInFile = false

	logger := New(cfg)
	if logger.Core().Enabled(zapcore.ErrorLevel) {
		t.Error("logger without outputs should be disabled")
	}
}

func TestNewWritesLevelFiles(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.Director = dir
	cfg.LogInTerminal = false
	cfg.LogInFile = true
	cfg.Compress = false
	t.Cleanup(func() { _ = CloseFiles() })

	logger := New(cfg)
	logger.Info("plugin registered", zap.String("plugin", "forum"))
	logger.Warn("hook failed")
	_ = logger.Sync()

	for _, name := range []string{"info.log", "warn.log"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("expected %s to exist: %v", name, err)
		}
	}
	if _, err := os.Stat(filepath.Join(dir, "debug.log")); err == nil {
		t.Error("debug.log should not exist at info level")
	}
}

func TestForPluginAddsField(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	base := zap.New(core)

	ForPlugin(base, "forum").Info("activated")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].LoggerName != "plugin" {
		t.Errorf("LoggerName = %q, want plugin", entries[0].LoggerName)
	}
	if got := entries[0].ContextMap()["plugin"]; got != "forum" {
		t.Errorf("plugin field = %v, want forum", got)
	}
}

func TestForPluginNilBase(t *testing.T) {
	if ForPlugin(nil, "forum") == nil {
		t.Fatal("ForPlugin(nil) should return a usable logger")
	}
}

func TestGlobalAndContext(t *testing.T) {
	if Global() == nil {
		t.Fatal("Global should never be nil")
	}

	core, logs := observer.New(zapcore.DebugLevel)
	custom := zap.New(core)

	ctx := ToContext(context.Background(), custom)
	FromContext(ctx).Debug("from context")
	if logs.Len() != 1 {
		t.Errorf("expected context logger to be used, got %d entries", logs.Len())
	}

	prev := Global()
	SetGlobal(custom)
	t.Cleanup(func() { SetGlobal(prev) })

	FromContext(context.Background()).Debug("from global")
	if logs.Len() != 2 {
		t.Errorf("expected global fallback to be used, got %d entries", logs.Len())
	}
}

package logger

import (
	"context"
	"path/filepath"
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestInit(t *testing.T) {
	cfg := LoggingConfig{
		Enabled: false,
		Level:   "info",
	}

	Init(cfg)

	log := Get(nil)
	if log == nil {
		t.Error("Get should not return nil")
	}

	// Sync may return an error on stderr, which is expected.
	_ = Sync()
}

func TestInit_FileLogging(t *testing.T) {
	cfg := LoggingConfig{
		Enabled:    true,
		Level:      "debug",
		Path:       filepath.Join(t.TempDir(), "logs", "sckillfeed.log"),
		MaxSize:    1,
		MaxBackups: 1,
		MaxAge:     1,
	}

	Init(cfg)

	log := Get(nil)
	if log == nil {
		t.Fatal("Get should not return nil")
	}
	log.Infof("file logging smoke line")
	_ = Sync()
}

func TestParseLevel(t *testing.T) {
	cases := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"info":    zapcore.InfoLevel,
		"warn":    zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"":        zapcore.InfoLevel,
		"verbose": zapcore.InfoLevel,
	}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Errorf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestGet(t *testing.T) {
	log := Get(nil)
	if log == nil {
		t.Error("Get(nil) should not return nil")
	}

	ctx := context.Background()
	log = Get(ctx)
	if log == nil {
		t.Error("Get(context) should not return nil")
	}
}

func TestWithContext(t *testing.T) {
	cfg := LoggingConfig{
		Enabled: false,
		Level:   "info",
	}
	Init(cfg)

	log := Get(nil)

	ctx := WithContext(context.Background(), log)

	retrievedLog := Get(ctx)
	if retrievedLog == nil {
		t.Error("Get should not return nil after WithContext")
	}
}

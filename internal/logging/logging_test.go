package logging

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    zapcore.Level
		wantErr bool
	}{
		{"", zapcore.InfoLevel, false},
		{"debug", zapcore.DebugLevel, false},
		{" WARN ", zapcore.WarnLevel, false},
		{"error", zapcore.ErrorLevel, false},
		{"chatty", zapcore.InfoLevel, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Fatalf("ParseLevel(%q) expected error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ParseLevel(%q) returned error: %v", tt.in, err)
		}
		if got != tt.want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNew_WritesToDataDirAndBridgesStdlib(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")
	prevGlobal := zap.L()
	prevOut := log.Writer()
	prevFlags := log.Flags()
	t.Cleanup(func() {
		zap.ReplaceGlobals(prevGlobal)
		log.SetOutput(prevOut)
		log.SetFlags(prevFlags)
	})

	logger, cleanup, err := New(dir, "info")
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Debug("hidden detail")
	logger.Info("order created", zap.String("id", "abc"))
	log.Print("from stdlib")
	cleanup()

	data, err := os.ReadFile(filepath.Join(dir, FileName))
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	text := string(data)
	if !strings.Contains(text, "order created") || !strings.Contains(text, `"id": "abc"`) {
		t.Fatalf("log missing structured entry:\n%s", text)
	}
	if !strings.Contains(text, "from stdlib") {
		t.Fatalf("stdlib log not bridged:\n%s", text)
	}
	if strings.Contains(text, "hidden detail") {
		t.Fatalf("debug entry written at info level:\n%s", text)
	}
}

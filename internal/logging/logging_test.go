package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"

	"github.com/wippyai/sgeproto/config"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.Log
		enabled zapcore.Level
		off     zapcore.Level
	}{
		{"console info", config.Log{Level: "info", Format: "console"}, zapcore.InfoLevel, zapcore.DebugLevel},
		{"json warn", config.Log{Level: "warn", Format: "json"}, zapcore.WarnLevel, zapcore.InfoLevel},
		{"default format", config.Log{Level: "debug"}, zapcore.DebugLevel, zapcore.DebugLevel - 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := New(tt.cfg)
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			if !l.Core().Enabled(tt.enabled) {
				t.Errorf("level %s should be enabled", tt.enabled)
			}
			if l.Core().Enabled(tt.off) {
				t.Errorf("level %s should be disabled", tt.off)
			}
		})
	}
}

func TestNewErrors(t *testing.T) {
	if _, err := New(config.Log{Level: "loud"}); err == nil {
		t.Error("unknown level should fail")
	}
	if _, err := New(config.Log{Level: "info", Format: "xml"}); err == nil {
		t.Error("unknown format should fail")
	}
}

package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"

	"map-viewer/internal/config"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    zapcore.Level
		wantErr bool
	}{
		{"debug", zapcore.DebugLevel, false},
		{"INFO", zapcore.InfoLevel, false},
		{"", zapcore.InfoLevel, false},
		{"warning", zapcore.WarnLevel, false},
		{" error ", zapcore.ErrorLevel, false},
		{"verbose", zapcore.InfoLevel, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) err = %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.LogConfig
		enabled zapcore.Level
		wantErr bool
	}{
		{"console debug", config.LogConfig{Level: "debug", Format: "console"}, zapcore.DebugLevel, false},
		{"json warn", config.LogConfig{Level: "warn", Format: "json"}, zapcore.WarnLevel, false},
		{"bad format", config.LogConfig{Level: "info", Format: "xml"}, 0, true},
		{"bad level", config.LogConfig{Level: "loud", Format: "json"}, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := New(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("New() err = %v", err)
			}
			if err != nil {
				return
			}
			core := logger.Core()
			if !core.Enabled(tt.enabled) {
				t.Errorf("level %v disabled", tt.enabled)
			}
			if core.Enabled(tt.enabled - 1) {
				t.Errorf("level %v enabled below threshold", tt.enabled-1)
			}
		})
	}
}

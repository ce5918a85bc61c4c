package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name   string
		config *Config
	}{
		{name: "default config", config: nil},
		{
			name: "debug level, buffer output",
			config: &Config{
				Level:  LevelDebug,
				Output: &bytes.Buffer{},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := NewLogger(tt.config)
			if logger == nil {
				t.Fatal("NewLogger() returned nil")
			}
		})
	}
}

func TestLoggerLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&Config{Level: LevelWarn, Output: &buf})

	logger.Debug("should be filtered")
	logger.Info("also filtered")
	if buf.Len() != 0 {
		t.Fatalf("expected no output below configured level, got: %s", buf.String())
	}

	logger.Warn("warn message", "pending", 3)
	output := buf.String()
	if !strings.Contains(output, "warn message") {
		t.Errorf("expected warn message in output, got: %s", output)
	}
	if !strings.Contains(output, "pending=3") {
		t.Errorf("expected pending=3 in output, got: %s", output)
	}
}

func TestLoggerDebugfFormatsArgs(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&Config{Level: LevelDebug, Output: &buf})

	logger.Debugf("drained %d of %d queues", 2, 4)
	output := buf.String()
	if !strings.Contains(output, "drained 2 of 4 queues") {
		t.Errorf("expected formatted message, got: %s", output)
	}
}

func TestWithComponent_TagsMessagesAndSharesLevel(t *testing.T) {
	var buf bytes.Buffer
	base := NewLogger(&Config{Level: LevelWarn, Output: &buf})
	reclaim := base.WithComponent("reclaim")

	reclaim.Debug("below configured level")
	if buf.Len() != 0 {
		t.Fatalf("expected WithComponent to inherit the parent's level filter, got: %s", buf.String())
	}

	reclaim.Warn("thread stopping")
	output := buf.String()
	if !strings.Contains(output, "reclaim: thread stopping") {
		t.Errorf("expected component-tagged output, got: %s", output)
	}

	buf.Reset()
	wake := base.WithComponent("wake")
	wake.Warn("channel woke")
	if got := buf.String(); !strings.Contains(got, "wake: channel woke") {
		t.Errorf("expected a different component tag for a different sub-logger, got: %s", got)
	}
}

func TestGlobalLoggerFunctions(t *testing.T) {
	var buf bytes.Buffer
	SetDefault(NewLogger(&Config{Level: LevelDebug, Output: &buf}))
	t.Cleanup(func() { SetDefault(NewLogger(nil)) })

	Debug("debug message", "key", "value")
	output := buf.String()
	if !strings.Contains(output, "debug message") {
		t.Errorf("expected debug message, got: %s", output)
	}
	if !strings.Contains(output, "key=value") {
		t.Errorf("expected key=value, got: %s", output)
	}

	buf.Reset()
	Error("error message")
	output = buf.String()
	if !strings.Contains(output, "error message") {
		t.Errorf("expected error message, got: %s", output)
	}
}

package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestNewJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Options{Level: "debug", Format: "json", Output: &buf})
	logger.Debug("hello", slog.String("k", "v"))

	out := buf.String()
	if !strings.Contains(out, `"msg":"hello"`) || !strings.Contains(out, `"k":"v"`) {
		t.Errorf("unexpected output: %s", out)
	}
}

func TestNewLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Options{Level: "warn", Format: "text", Output: &buf})
	logger.Info("dropped")
	logger.Warn("kept")

	out := buf.String()
	if strings.Contains(out, "dropped") {
		t.Error("info record should be filtered at warn level")
	}
	if !strings.Contains(out, "kept") {
		t.Error("warn record should pass at warn level")
	}
}

func TestNopDiscards(t *testing.T) {
	// Must not panic and must report disabled at every level.
	logger := Nop()
	logger.Error("ignored")
	if logger.Enabled(nil, slog.LevelError) { //nolint:staticcheck // nil context is fine for the nop handler
		t.Error("nop logger should be disabled")
	}
}

func TestWithComponentNilBase(t *testing.T) {
	logger := WithComponent(nil, "fetch")
	logger.Info("ignored") // must not panic
}

func TestErrorAttrNil(t *testing.T) {
	attr := Error(nil)
	if attr.Value.String() != "<nil>" {
		t.Errorf("Error(nil) = %v", attr.Value)
	}
}

package observability

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestSetupLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := SetupLogger(&buf, slog.LevelInfo)
	if logger == nil {
		t.Fatal("Expected logger to be non-nil")
	}

	logger.Info("hello", "key", "value")
	out := buf.String()
	if !strings.Contains(out, `"timestamp"`) {
		t.Errorf("Expected timestamp key in output, got %s", out)
	}
	if !strings.Contains(out, `"msg":"hello"`) {
		t.Errorf("Expected message in output, got %s", out)
	}
}

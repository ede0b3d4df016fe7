package shared

import (
	"bytes"
	"encoding/base64"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestGenerateState(t *testing.T) {
	a, err := GenerateState()
	if err != nil {
		t.Fatalf("GenerateState() error = %v", err)
	}
	b, _ := GenerateState()

	if a == b {
		t.Error("expected distinct state tokens")
	}
	if raw, err := base64.RawURLEncoding.DecodeString(a); err != nil || len(raw) != 24 {
		t.Errorf("expected 24 url-safe random bytes, got %q (%v)", a, err)
	}
}

func TestConfigureLogger(t *testing.T) {
	t.Run("JSON Format", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(&buf)
		if err := ConfigureLogger(logger, LoggingConfig{Level: "debug", Format: "json"}); err != nil {
			t.Fatalf("ConfigureLogger() error = %v", err)
		}

		logger.Debug("hello", "k", "v")
		if !strings.Contains(buf.String(), `"msg":"hello"`) {
			t.Errorf("expected JSON output, got %s", buf.String())
		}
		if logger.GetLevel() != log.DebugLevel {
			t.Errorf("expected debug level, got %v", logger.GetLevel())
		}
	})

	t.Run("Invalid Level", func(t *testing.T) {
		if err := ConfigureLogger(DiscardLogger(), LoggingConfig{Level: "loud"}); err == nil {
			t.Error("expected error for invalid level")
		}
	})

	t.Run("Invalid Format", func(t *testing.T) {
		if err := ConfigureLogger(DiscardLogger(), LoggingConfig{Format: "xml"}); err == nil {
			t.Error("expected error for invalid format")
		}
	})
}

func TestOpenBrowser(t *testing.T) {
	orig := getRuntime
	t.Cleanup(func() { getRuntime = orig })

	getRuntime = func() string { return "plan9" }
	if err := OpenBrowser("http://localhost"); err == nil {
		t.Error("expected error for unsupported platform")
	}
}

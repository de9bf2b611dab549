package logger

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"strings"
	"testing"
)

func captureStdOut(t *testing.T, fn func()) string {
	t.Helper()

	orig := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	os.Stdout = w
	defer func() { os.Stdout = orig }()

	fn()

	_ = w.Close()
	var buf bytes.Buffer
	_, _ = io.Copy(&buf, r)
	_ = r.Close()
	return buf.String()
}

func TestInit_DevStd_TextOutput(t *testing.T) {
	out := captureStdOut(t, func() {
		Init(Config{
			Service: "conversation-service",
			Version: "v0.0.1",
			Env:     EnvDev,
			Backend: BackendStd,
			Level:   slog.LevelDebug,
		})
		slog.Info("hello from dev")
	})

	if strings.Contains(out, "{") && strings.Contains(out, "}") {
		t.Fatalf("expected text output in dev/std, got JSON: %s", out)
	}
	if !strings.Contains(out, "hello from dev") {
		t.Fatalf("message missing: %s", out)
	}
	if !strings.Contains(out, "service=conversation-service") {
		t.Fatalf("service attr missing: %s", out)
	}
	if !strings.Contains(out, "env=dev") {
		t.Fatalf("env attr missing: %s", out)
	}
}

func TestInit_DefaultBackendPerEnv(t *testing.T) {
	out := captureStdOut(t, func() {
		Init(Config{Service: "demo", Env: EnvProd})
		slog.Info("hello from prod")
	})

	// zap backend кодирует в JSON
	if !strings.Contains(out, `"msg"`) && !strings.Contains(out, `"message"`) {
		t.Fatalf("expected JSON output in prod, got: %s", out)
	}
}

func TestL_InitsOnFirstUse(t *testing.T) {
	def = nil
	_ = captureStdOut(t, func() {
		if L() == nil {
			t.Fatal("L() returned nil")
		}
	})
}

package main

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Addr != ":8080" {
		t.Errorf("Addr = %q, want :8080", cfg.Addr)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want info", cfg.LogLevel)
	}
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("NSDUX_ADDR", "127.0.0.1:9000")
	t.Setenv("NSDUX_KEY", "secret")
	t.Setenv("NSDUX_LOG_LEVEL", "debug")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Addr != "127.0.0.1:9000" || cfg.Key != "secret" {
		t.Errorf("cfg = %+v", cfg)
	}
	level, err := cfg.Level()
	if err != nil || level != slog.LevelDebug {
		t.Errorf("Level() = %v, %v", level, err)
	}
}

func TestConfigLevelError(t *testing.T) {
	cfg := Config{LogLevel: "loud"}
	if _, err := cfg.Level(); err == nil || !strings.Contains(err.Error(), "NSDUX_LOG_LEVEL") {
		t.Errorf("Level() error = %v", err)
	}
}

func TestRunDemo(t *testing.T) {
	var buf bytes.Buffer
	if err := runDemo(&buf); err != nil {
		t.Fatalf("runDemo() error = %v", err)
	}

	want := "hello world\nhello hn\ndispatched greeter: setTarget\n"
	if buf.String() != want {
		t.Errorf("output = %q, want %q", buf.String(), want)
	}
}

func TestServer(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	e, err := newServer(Config{Key: "test"}, logger)
	if err != nil {
		t.Fatalf("newServer() error = %v", err)
	}

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusFound || rec.Header().Get("Location") != "/_nsdux/" {
		t.Errorf("GET / = %d %q", rec.Code, rec.Header().Get("Location"))
	}

	body := `{"type":"greeter: setTarget","payload":{"target":"server"}}`
	req := httptest.NewRequest(http.MethodPost, "/_nsdux/dispatch", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Nsdux-Request", "true")
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("POST dispatch = %d: %s", rec.Code, rec.Body.String())
	}

	var state map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &state); err != nil {
		t.Fatalf("response is not JSON: %v", err)
	}
	greeter, _ := state["greeter"].(map[string]any)
	if greeter["target"] != "server" {
		t.Errorf("greeter state = %v", greeter)
	}
	if _, ok := state["todos"].(map[string]any)["items"]; !ok {
		t.Errorf("todos state missing items: %v", state["todos"])
	}
}

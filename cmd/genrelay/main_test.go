package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gaspardpetit/genrelay/internal/config"
	"github.com/gaspardpetit/genrelay/internal/relay"
)

func TestVersionCommand(t *testing.T) {
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"version"})
	if err := root.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.HasPrefix(out.String(), "genrelay version=dev") {
		t.Fatalf("output %q", out.String())
	}
}

func testRelay(url string) *relay.Relay {
	cfg := &config.Config{UpstreamURL: url, APIKey: "k", Mode: config.ModeStateless}
	cfg.SetDefaults()
	return relay.New(cfg)
}

func TestAskPrintsGeneratedText(t *testing.T) {
	var got struct {
		Messages    []relay.ConversationTurn `json:"messages"`
		MaxTokens   int                      `json:"max_tokens"`
		Temperature float64                  `json:"temperature"`
	}
	up := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"Paris"}}]}`))
	}))
	defer up.Close()

	var out bytes.Buffer
	err := ask(context.Background(), &out, testRelay(up.URL), "capital of France?", askOptions{maxTokens: 50, temperature: 0.7})
	if err != nil {
		t.Fatalf("ask: %v", err)
	}
	if out.String() != "Generated Text: Paris\n" {
		t.Fatalf("output %q", out.String())
	}
	if got.MaxTokens != 50 || got.Temperature != 0.7 || len(got.Messages) != 2 || got.Messages[0].Role != relay.RoleSystem {
		t.Fatalf("upstream saw %+v", got)
	}
}

func TestAskReportsFailure(t *testing.T) {
	up := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer up.Close()

	var out bytes.Buffer
	err := ask(context.Background(), &out, testRelay(up.URL), "hi", askOptions{maxTokens: 50, temperature: 0.7})
	if !errors.Is(err, errAskFailed) {
		t.Fatalf("expected errAskFailed, got %v", err)
	}
	if !strings.HasPrefix(out.String(), "Error occurred: 403 Forbidden") {
		t.Fatalf("output %q", out.String())
	}
}

func TestServeRejectsInvalidConfig(t *testing.T) {
	t.Setenv("CONFIG_FILE", t.TempDir()+"/missing.yaml")
	t.Setenv("MODEL_ENDPOINT", "")
	t.Setenv("Model_ENDPOINT", "")
	t.Setenv("AZURE_API_KEY", "")
	root := newRootCmd()
	root.SetArgs([]string{"serve", "--port", "0"})
	if err := root.Execute(); err == nil || !strings.Contains(err.Error(), "MODEL_ENDPOINT") {
		t.Fatalf("expected missing endpoint error, got %v", err)
	}
}

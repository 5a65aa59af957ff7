package cmd

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/resume-matcher/internal/ai/gemini"
	"github.com/spigell/resume-matcher/internal/ai/openai"
	"github.com/spigell/resume-matcher/internal/matching"
)

func TestDecodeSettingsWeaklyTyped(t *testing.T) {
	var cfg gemini.Config
	err := decodeSettings(map[string]any{
		"model":        "text-embedding-004",
		"max-retries":  "4",
		"api-key-file": "/tmp/key",
	}, &cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Model != "text-embedding-004" || cfg.MaxRetries != 4 || cfg.APIKeyFile != "/tmp/key" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestDecodeSettingsEmpty(t *testing.T) {
	cfg := openai.Config{Model: "keep"}
	if err := decodeSettings(nil, &cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Model != "keep" {
		t.Fatalf("expected config untouched, got %+v", cfg)
	}
}

func TestNewEncoder(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *EncoderConfig
		want    string
		wantErr bool
	}{
		{name: "default", cfg: nil, want: "lexical"},
		{name: "lexical", cfg: &EncoderConfig{Kind: "Lexical", Lexical: &LexicalConfig{MinTokenLength: 3}}, want: "lexical"},
		{name: "unknown", cfg: &EncoderConfig{Kind: "bag-of-words"}, wantErr: true},
		{
			name: "unknown provider",
			cfg: &EncoderConfig{
				Kind:      "embedding",
				Embedding: &EmbeddingConfig{Provider: "cohere"},
			},
			wantErr: true,
		},
		{
			name: "openai with inline key",
			cfg: &EncoderConfig{
				Kind: "embedding",
				Embedding: &EmbeddingConfig{
					Provider: "openai",
					Settings: map[string]any{"api-key": "sk-test"},
				},
			},
			want: "embedding:openai",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enc, err := newEncoder(context.Background(), tt.cfg, zap.NewNop())
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got encoder %v", enc)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if enc.Name() != tt.want {
				t.Fatalf("expected %s encoder, got %s", tt.want, enc.Name())
			}
		})
	}
}

func TestNewEmbedderMissingKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	_, err := newEmbedder(context.Background(), &EmbeddingConfig{Provider: "openai"}, zap.NewNop())
	if err == nil || !strings.Contains(err.Error(), "OPENAI_API_KEY") {
		t.Fatalf("expected hint about OPENAI_API_KEY, got %v", err)
	}
}

func TestLoadDocumentsLogsPreview(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "resume.txt")
	if err := os.WriteFile(path, []byte(strings.Repeat("golang ", 100)), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	core, logs := observer.New(zap.InfoLevel)
	docs, err := loadDocuments("Resume", []string{path}, zap.New(core))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("expected one document, got %d", len(docs))
	}

	entries := logs.FilterMessage("Resume 1").All()
	if len(entries) != 1 {
		t.Fatalf("expected preview log entry, got %d", len(entries))
	}

	preview := entries[0].ContextMap()["preview"].(string)
	if len([]rune(preview)) > previewLength+3 {
		t.Fatalf("preview too long: %d", len(preview))
	}
}

func TestHandleAction(t *testing.T) {
	results := &matching.ResultSet{
		Encoder: "lexical",
		Items:   []matching.MatchResult{{CandidateIndex: 0, TargetIndex: 2, Score: 0.75}},
	}

	var out bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&out)

	if err := handleAction(cmd, PromptShowJSON, zap.NewNop(), results); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out.String(), `"job_description": 3`) {
		t.Fatalf("unexpected output: %s", out.String())
	}

	if err := handleAction(cmd, PromptExit, zap.NewNop(), results); !errors.Is(err, errExit) {
		t.Fatalf("expected errExit, got %v", err)
	}

	if err := handleAction(cmd, "unknown", zap.NewNop(), results); err == nil {
		t.Fatal("expected error for unknown action")
	}
}

func TestRedactedConfig(t *testing.T) {
	cfg := &Config{
		Encoder: &EncoderConfig{
			Embedding: &EmbeddingConfig{Settings: map[string]any{"api-key": "secret", "model": "m"}},
		},
	}

	redacted := redactedConfig(cfg)
	if redacted.Encoder.Embedding.Settings["api-key"] != "***" {
		t.Fatalf("api key not redacted: %+v", redacted.Encoder.Embedding.Settings)
	}
	if cfg.Encoder.Embedding.Settings["api-key"] != "secret" {
		t.Fatal("original config must stay untouched")
	}
}

package encoder

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"
)

type fakeProvider struct {
	vectors map[string][]float32
	fail    map[string]error
	batches [][]string
}

func (f *fakeProvider) Provider() string { return "fake" }

func (f *fakeProvider) Model() string { return "fake-model" }

func (f *fakeProvider) Embed(_ context.Context, texts []string) ([][]float32, error) {
	f.batches = append(f.batches, append([]string(nil), texts...))
	out := make([][]float32, 0, len(texts))
	for _, text := range texts {
		if err, ok := f.fail[text]; ok {
			return nil, err
		}
		v, ok := f.vectors[text]
		if !ok {
			v = []float32{1, 1, 1}
		}
		out = append(out, v)
	}
	return out, nil
}

func TestEmbeddingEncodePreservesOrder(t *testing.T) {
	provider := &fakeProvider{vectors: map[string][]float32{
		"go":     {1, 0, 0},
		"python": {0, 1, 0},
		"chef":   {0, 0, 1},
	}}

	e := NewEmbedding(provider, &EmbeddingConfig{BatchSize: 2}, zap.NewNop())

	vectors, err := e.Encode(context.Background(), []string{"go", "python", "chef"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i, axis := range []int{0, 1, 2} {
		if vectors[i][axis] != 1 {
			t.Fatalf("vector %d out of order: %v", i, vectors[i])
		}
	}

	if len(provider.batches) != 2 {
		t.Fatalf("expected 2 requests, got %d", len(provider.batches))
	}

	if IsBatchRelative(e) {
		t.Fatal("embedding encoder must not be batch relative")
	}
	if e.Name() != "embedding:fake" {
		t.Fatalf("unexpected name: %q", e.Name())
	}
}

func TestEmbeddingEncodeBlankTextsAsZeroVectors(t *testing.T) {
	provider := &fakeProvider{}
	e := NewEmbedding(provider, nil, nil)

	vectors, err := e.Encode(context.Background(), []string{"", "some text", "  \n"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(vectors[0]) != 3 || !vectors[0].IsZero() {
		t.Fatalf("expected zero vector of model dimension, got %v", vectors[0])
	}
	if !vectors[2].IsZero() {
		t.Fatalf("expected zero vector for whitespace text, got %v", vectors[2])
	}
	if vectors[1].IsZero() {
		t.Fatal("expected non-zero vector for text")
	}

	for _, batch := range provider.batches {
		for _, text := range batch {
			if strings.TrimSpace(text) == "" {
				t.Fatal("blank text must not be sent to the provider")
			}
		}
	}
}

func TestEmbeddingEncodeAllBlank(t *testing.T) {
	provider := &fakeProvider{}
	vectors, err := NewEmbedding(provider, nil, nil).Encode(context.Background(), []string{"", ""})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(provider.batches) != 0 {
		t.Fatalf("expected no provider calls, got %d", len(provider.batches))
	}
	if len(vectors) != 2 || len(vectors[0]) != 0 {
		t.Fatalf("unexpected vectors: %v", vectors)
	}
}

func TestEmbeddingEncodeTruncatesInput(t *testing.T) {
	provider := &fakeProvider{}
	e := NewEmbedding(provider, &EmbeddingConfig{MaxTokens: 3}, nil)

	if _, err := e.Encode(context.Background(), []string{"one two three four five"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := provider.batches[0][0]; got != "one two three" {
		t.Fatalf("expected truncated input, got %q", got)
	}
}

func TestEmbeddingEncodeReportsFailingIndex(t *testing.T) {
	boom := errors.New("boom")
	provider := &fakeProvider{fail: map[string]error{"bad": boom}}

	_, err := NewEmbedding(provider, nil, nil).Encode(context.Background(), []string{"", "good", "bad"})

	var textErr *TextError
	if !errors.As(err, &textErr) {
		t.Fatalf("expected TextError, got %v", err)
	}
	if textErr.Index != 2 {
		t.Fatalf("expected failing index 2, got %d", textErr.Index)
	}
	if !errors.Is(err, boom) {
		t.Fatalf("expected cause to be preserved")
	}
}

func TestEmbeddingEncodeDimensionMismatch(t *testing.T) {
	provider := &fakeProvider{vectors: map[string][]float32{
		"a": {1, 2},
		"b": {1, 2, 3},
	}}

	_, err := NewEmbedding(provider, nil, nil).Encode(context.Background(), []string{"a", "b"})
	if !errors.Is(err, ErrDimensionMismatch) {
		t.Fatalf("expected dimension mismatch, got %v", err)
	}
}

package encoder

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/spigell/resume-matcher/internal/ai"
	"github.com/spigell/resume-matcher/internal/logger"
)

const (
	// DefaultMaxTokens bounds the input passed to the model for one text.
	DefaultMaxTokens = 512
	defaultBatchSize = 1
)

// ErrDimensionMismatch is returned when a provider yields embeddings of different sizes.
var ErrDimensionMismatch = errors.New("embedding dimension mismatch")

// EmbeddingConfig tunes the Embedding encoder.
type EmbeddingConfig struct {
	MaxTokens         int
	BatchSize         int
	RequestsPerSecond float64
}

// Embedding encodes every text independently through a pretrained model.
// Its vectors are comparable across calls.
type Embedding struct {
	provider  ai.Embedder
	maxTokens int
	batchSize int
	limiter   *rate.Limiter
	logger    *zap.Logger
}

func NewEmbedding(provider ai.Embedder, cfg *EmbeddingConfig, log *zap.Logger) *Embedding {
	if cfg == nil {
		cfg = &EmbeddingConfig{}
	}

	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}

	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}

	return &Embedding{
		provider:  provider,
		maxTokens: maxTokens,
		batchSize: batchSize,
		limiter:   limiter,
		logger:    logger.WithCommonFields(log, provider.Provider(), provider.Model()),
	}
}

func (e *Embedding) Name() string {
	return "embedding:" + e.provider.Provider()
}

func (e *Embedding) BatchRelative() bool { return false }

// Encode embeds texts in requests of at most BatchSize texts. Blank texts are not
// sent to the provider and get a zero vector of the model dimension.
func (e *Embedding) Encode(ctx context.Context, texts []string) ([]Vector, error) {
	pending := make([]int, 0, len(texts))
	inputs := make([]string, len(texts))
	for i, text := range texts {
		inputs[i] = TruncateTokens(text, e.maxTokens)
		if strings.TrimSpace(inputs[i]) == "" {
			continue
		}
		pending = append(pending, i)
	}

	vectors := make([]Vector, len(texts))
	dim := -1

	for start := 0; start < len(pending); start += e.batchSize {
		end := min(start+e.batchSize, len(pending))
		chunk := pending[start:end]

		batch := make([]string, len(chunk))
		for i, idx := range chunk {
			batch[i] = inputs[idx]
		}

		if err := e.limiter.Wait(ctx); err != nil {
			return nil, &TextError{Index: chunk[0], Err: err}
		}

		raw, err := e.provider.Embed(ctx, batch)
		if err != nil {
			return nil, &TextError{Index: chunk[0], Err: err}
		}
		if len(raw) != len(chunk) {
			return nil, &TextError{
				Index: chunk[0],
				Err:   fmt.Errorf("provider returned %d embeddings for %d texts", len(raw), len(chunk)),
			}
		}

		for i, values := range raw {
			if dim == -1 {
				dim = len(values)
			}
			if len(values) != dim {
				return nil, &TextError{
					Index: chunk[i],
					Err:   fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(values), dim),
				}
			}
			v := make(Vector, len(values))
			for j, x := range values {
				v[j] = float64(x)
			}
			vectors[chunk[i]] = v
		}

		e.logger.Debug("embedded batch",
			zap.Int("first_index", chunk[0]),
			zap.Int("size", len(chunk)),
		)
	}

	if dim < 0 {
		dim = 0
	}
	for i := range vectors {
		if vectors[i] == nil {
			e.logger.Debug("blank text encoded as zero vector", zap.Int("index", i))
			vectors[i] = make(Vector, dim)
		}
	}

	return vectors, nil
}

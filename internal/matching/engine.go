package matching

import (
	"context"
	"errors"
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/resume-matcher/internal/encoder"
	"github.com/spigell/resume-matcher/internal/logger"
	"github.com/spigell/resume-matcher/internal/similarity"
)

// Engine ranks candidate documents against target documents.
//
// With a batch-relative encoder every candidate is re-fitted together with all
// targets, so fitting cost grows with candidates x targets. Encoders with
// independent vectors encode each corpus once per run.
type Engine struct {
	encoder encoder.Encoder
	workers int
	logger  *zap.Logger
}

type Option func(*Engine)

// WithWorkers sets how many independent encodings may run concurrently.
func WithWorkers(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.workers = n
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

func New(enc encoder.Encoder, opts ...Option) *Engine {
	e := &Engine{
		encoder: enc,
		workers: 1,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = logger.WithEncoder(e.logger, enc.Name())
	return e
}

// Encode converts texts with the active encoder.
func (e *Engine) Encode(ctx context.Context, texts []string) ([]encoder.Vector, error) {
	return e.encoder.Encode(ctx, texts)
}

// Similarity is the cosine similarity of a and b in [0, 1].
func Similarity(a, b encoder.Vector) float64 {
	return similarity.Cosine(a, b)
}

// FindBestMatches returns, for every candidate in order, the target with the
// highest similarity. Ties go to the lowest target index.
func (e *Engine) FindBestMatches(ctx context.Context, candidates, targets []string) (*ResultSet, error) {
	if len(candidates) == 0 {
		return nil, &EmptyCorpusError{Role: RoleCandidates}
	}
	if len(targets) == 0 {
		return nil, &EmptyCorpusError{Role: RoleTargets}
	}

	candidates = slices.Clone(candidates)
	targets = slices.Clone(targets)

	start := time.Now()

	var (
		items []MatchResult
		err   error
	)
	if encoder.IsBatchRelative(e.encoder) {
		items, err = e.matchRefitted(ctx, candidates, targets)
	} else {
		items, err = e.matchShared(ctx, candidates, targets)
	}
	if err != nil {
		return nil, err
	}

	e.logger.Info("matching completed",
		zap.Int("candidates", len(candidates)),
		zap.Int("targets", len(targets)),
		zap.Duration("elapsed", time.Since(start)),
	)

	return &ResultSet{Encoder: e.encoder.Name(), Items: items}, nil
}

func (e *Engine) matchRefitted(ctx context.Context, candidates, targets []string) ([]MatchResult, error) {
	items := make([]MatchResult, len(candidates))

	err := forEach(ctx, len(candidates), e.workers, func(ctx context.Context, i int) error {
		batch := make([]string, 0, len(targets)+1)
		batch = append(batch, candidates[i])
		batch = append(batch, targets...)

		vectors, err := e.encoder.Encode(ctx, batch)
		if err != nil {
			return refittedError(i, err)
		}
		if len(vectors) != len(batch) {
			return &EncodingError{Role: RoleCandidates, Index: i, Err: errVectorCount(len(vectors), len(batch))}
		}

		items[i] = e.reduce(i, vectors[0], vectors[1:])
		return nil
	})
	if err != nil {
		return nil, err
	}

	return items, nil
}

func (e *Engine) matchShared(ctx context.Context, candidates, targets []string) ([]MatchResult, error) {
	targetVectors, err := e.encoder.Encode(ctx, targets)
	if err != nil {
		return nil, sharedError(RoleTargets, 0, err)
	}
	if len(targetVectors) != len(targets) {
		return nil, &EncodingError{Role: RoleTargets, Err: errVectorCount(len(targetVectors), len(targets))}
	}

	chunks := chunkBounds(len(candidates), e.workers)
	candidateVectors := make([]encoder.Vector, len(candidates))

	err = forEach(ctx, len(chunks), e.workers, func(ctx context.Context, c int) error {
		lo, hi := chunks[c][0], chunks[c][1]
		vectors, err := e.encoder.Encode(ctx, candidates[lo:hi])
		if err != nil {
			return sharedError(RoleCandidates, lo, err)
		}
		if len(vectors) != hi-lo {
			return &EncodingError{Role: RoleCandidates, Index: lo, Err: errVectorCount(len(vectors), hi-lo)}
		}
		copy(candidateVectors[lo:hi], vectors)
		return nil
	})
	if err != nil {
		return nil, err
	}

	items := make([]MatchResult, len(candidates))
	for i, v := range candidateVectors {
		items[i] = e.reduce(i, v, targetVectors)
	}
	return items, nil
}

// reduce picks the first target reaching the maximum score.
func (e *Engine) reduce(candidate int, v encoder.Vector, targets []encoder.Vector) MatchResult {
	best, bestScore := 0, -1.0
	for j, t := range targets {
		if score := similarity.Cosine(v, t); score > bestScore {
			best, bestScore = j, score
		}
	}

	if v.IsZero() {
		e.logger.Debug("candidate has no scorable content", zap.Int("candidate", candidate+1))
	}

	e.logger.Debug("best match",
		zap.Int("candidate", candidate+1),
		zap.Int("target", best+1),
		zap.Float64("score", bestScore),
	)

	return MatchResult{CandidateIndex: candidate, TargetIndex: best, Score: bestScore}
}

// refittedError maps a failure in the [candidate, targets...] batch to the offending document.
func refittedError(candidate int, err error) error {
	var textErr *encoder.TextError
	if errors.As(err, &textErr) && textErr.Index > 0 {
		return &EncodingError{Role: RoleTargets, Index: textErr.Index - 1, Err: err}
	}
	return &EncodingError{Role: RoleCandidates, Index: candidate, Err: err}
}

func sharedError(role Role, offset int, err error) error {
	index := offset
	var textErr *encoder.TextError
	if errors.As(err, &textErr) {
		index += textErr.Index
	}
	return &EncodingError{Role: role, Index: index, Err: err}
}

// chunkBounds splits n items into at most parts contiguous [lo, hi) ranges.
func chunkBounds(n, parts int) [][2]int {
	if parts < 1 {
		parts = 1
	}
	parts = min(parts, n)
	size := (n + parts - 1) / parts

	bounds := make([][2]int, 0, parts)
	for lo := 0; lo < n; lo += size {
		bounds = append(bounds, [2]int{lo, min(lo+size, n)})
	}
	return bounds
}

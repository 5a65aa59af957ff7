package encoder

import (
	"context"
	"math"
	"sort"

	"go.uber.org/zap"
)

// Lexical is a TF-IDF encoder fitted jointly over every batch passed to Encode.
//
// Vectors are only comparable within the batch that produced them: the
// vocabulary and IDF weights change when other documents of the batch change,
// so the same pair of texts can score differently in different batches.
type Lexical struct {
	minTokenLength int
	stopWords      map[string]struct{}
	logger         *zap.Logger
}

// LexicalOption customizes a Lexical encoder.
type LexicalOption func(*Lexical)

// WithMinTokenLength sets the minimal token length in runes.
func WithMinTokenLength(n int) LexicalOption {
	return func(l *Lexical) {
		if n > 0 {
			l.minTokenLength = n
		}
	}
}

// WithStopWords replaces the built-in English stop words.
func WithStopWords(words []string) LexicalOption {
	return func(l *Lexical) {
		set := make(map[string]struct{}, len(words))
		for _, w := range words {
			set[w] = struct{}{}
		}
		l.stopWords = set
	}
}

// WithLexicalLogger attaches a logger.
func WithLexicalLogger(logger *zap.Logger) LexicalOption {
	return func(l *Lexical) {
		if logger != nil {
			l.logger = logger
		}
	}
}

func NewLexical(opts ...LexicalOption) *Lexical {
	l := &Lexical{
		minTokenLength: defaultMinTokenLength,
		stopWords:      EnglishStopWords(),
		logger:         zap.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Lexical) Name() string { return "lexical" }

func (l *Lexical) BatchRelative() bool { return true }

// Encode fits a vocabulary and smoothed IDF weights over texts and returns
// L2-normalized TF-IDF vectors. Texts without scorable tokens get a zero vector.
func (l *Lexical) Encode(ctx context.Context, texts []string) ([]Vector, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	counts := make([]map[string]int, len(texts))
	df := make(map[string]int)
	for i, text := range texts {
		tf := make(map[string]int)
		for _, token := range Tokenize(text, l.minTokenLength, l.stopWords) {
			tf[token]++
		}
		for token := range tf {
			df[token]++
		}
		counts[i] = tf
	}

	vocabulary := make([]string, 0, len(df))
	for token := range df {
		vocabulary = append(vocabulary, token)
	}
	sort.Strings(vocabulary)

	n := float64(len(texts))
	index := make(map[string]int, len(vocabulary))
	idf := make([]float64, len(vocabulary))
	for i, token := range vocabulary {
		index[token] = i
		idf[i] = math.Log((1+n)/(1+float64(df[token]))) + 1
	}

	vectors := make([]Vector, len(texts))
	for i, tf := range counts {
		v := make(Vector, len(vocabulary))
		var sum float64
		for token, count := range tf {
			j := index[token]
			v[j] = float64(count) * idf[j]
			sum += v[j] * v[j]
		}
		if sum > 0 {
			norm := math.Sqrt(sum)
			for j := range v {
				v[j] /= norm
			}
		} else {
			l.logger.Debug("text has no scorable tokens", zap.Int("index", i))
		}
		vectors[i] = v
	}

	l.logger.Debug("lexical batch fitted",
		zap.Int("documents", len(texts)),
		zap.Int("vocabulary", len(vocabulary)),
	)

	return vectors, nil
}

package encoder

import (
	"context"
	"fmt"
)

// Vector is a dense numeric representation of one document.
type Vector []float64

// IsZero reports whether the vector carries no magnitude.
func (v Vector) IsZero() bool {
	for _, x := range v {
		if x != 0 {
			return false
		}
	}
	return true
}

// Encoder converts an ordered batch of texts into vectors, one per text, in the same order.
type Encoder interface {
	Name() string
	Encode(ctx context.Context, texts []string) ([]Vector, error)
}

// BatchRelative is implemented by encoders whose vectors are only comparable
// within the batch that produced them.
type BatchRelative interface {
	BatchRelative() bool
}

// IsBatchRelative reports whether vectors from enc must be fitted jointly per comparison.
func IsBatchRelative(enc Encoder) bool {
	br, ok := enc.(BatchRelative)
	return ok && br.BatchRelative()
}

// TextError reports a failure to encode the text at Index of the batch.
// For providers that receive several texts per request, Index is the first text of the failed request.
type TextError struct {
	Index int
	Err   error
}

func (e *TextError) Error() string {
	return fmt.Sprintf("encode text %d: %v", e.Index, e.Err)
}

func (e *TextError) Unwrap() error { return e.Err }

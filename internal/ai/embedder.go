package ai

import "context"

// Embedder turns texts into dense embeddings using a pretrained model.
// Implementations return exactly one embedding per input text, in input order.
type Embedder interface {
	Provider() string
	Model() string
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

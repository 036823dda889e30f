package embedding

import "context"

// Embedder produces vector embeddings for texts. Implementations must be
// safe for concurrent use.
type Embedder interface {
	// Embed returns one vector per input text, in input order.
	Embed(ctx context.Context, texts []string) ([][]float64, error)
}

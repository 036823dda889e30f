package index

import (
	"context"
	"math"
	"sort"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/finsight-group/finrag-cli/internal/embedding"
	"github.com/finsight-group/finrag-cli/internal/model"
)

// Index is an in-memory vector index over page-text chunks, queried with
// brute-force cosine similarity. Chunks are never mutated after insertion;
// rebuilding means recreating them. The index is read-only at query time
// and safe for concurrent searches.
type Index struct {
	embedder embedding.Embedder
	chunks   []model.Chunk
}

// New creates an empty index that embeds queries with the given embedder.
func New(embedder embedding.Embedder) *Index {
	return &Index{embedder: embedder}
}

// Len returns the number of indexed chunks.
func (ix *Index) Len() int {
	return len(ix.chunks)
}

// Build creates one chunk per prepared page and embeds the chunk texts.
// Pages with empty text are kept at the document layer for traceability
// but carry no signal, so they are not indexed.
func (ix *Index) Build(ctx context.Context, pages []model.DocumentPage) error {
	var texts []string
	var kept []model.DocumentPage
	for _, p := range pages {
		if p.Text == "" {
			continue
		}
		texts = append(texts, p.Text)
		kept = append(kept, p)
	}
	if len(texts) == 0 {
		ix.chunks = nil
		return nil
	}

	vectors, err := ix.embedder.Embed(ctx, texts)
	if err != nil {
		return eris.Wrap(err, "index: embed chunks")
	}

	chunks := make([]model.Chunk, len(kept))
	for i, p := range kept {
		chunks[i] = model.Chunk{
			Text:      texts[i],
			Embedding: vectors[i],
			Source:    p.SourcePath,
			Page:      p.PageNumber,
		}
	}
	ix.chunks = chunks

	zap.L().Info("index built", zap.Int("chunks", len(chunks)), zap.Int("pages_skipped", len(pages)-len(kept)))
	return nil
}

// Search returns the k chunks most similar to the query, ordered by
// descending cosine similarity with ties broken by insertion order.
// Searching an empty index returns an empty result, never an error.
func (ix *Index) Search(ctx context.Context, query string, k int) ([]model.Chunk, error) {
	if len(ix.chunks) == 0 || k <= 0 {
		return nil, nil
	}

	vectors, err := ix.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, eris.Wrap(err, "index: embed query")
	}
	qv := vectors[0]

	scores := make([]float64, len(ix.chunks))
	for i, c := range ix.chunks {
		scores[i] = cosine(qv, c.Embedding)
	}

	order := make([]int, len(ix.chunks))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})

	if k > len(order) {
		k = len(order)
	}
	out := make([]model.Chunk, 0, k)
	for _, i := range order[:k] {
		out = append(out, ix.chunks[i])
	}
	return out, nil
}

func cosine(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

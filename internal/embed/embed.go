// Package embed wraps a Genkit embedder with the batching and truncation
// behavior the retrieval pipeline depends on.
package embed

import (
	"context"
	"fmt"

	"github.com/firebase/genkit/go/ai"

	"github.com/interviewvault/vault/internal/log"
)

// MaxTextLen is the per-text character cap applied before embedding.
// Longer texts are truncated, not rejected.
const MaxTextLen = 8000

// Client generates embedding vectors for chunks and queries.
// It is safe for concurrent use.
type Client struct {
	embedder ai.Embedder
	logger   log.Logger
}

// NewClient creates an embedding client.
func NewClient(embedder ai.Embedder, logger log.Logger) (*Client, error) {
	if embedder == nil {
		return nil, fmt.Errorf("embedder is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &Client{embedder: embedder, logger: logger}, nil
}

// Texts embeds a batch of texts in a single request. Each text is
// truncated to MaxTextLen before the call. The output always has one
// vector per input text, in input order. An empty batch returns an empty
// result without touching the model.
func (c *Client) Texts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	docs := make([]*ai.Document, 0, len(texts))
	for _, text := range texts {
		docs = append(docs, &ai.Document{
			Content: []*ai.Part{ai.NewTextPart(Truncate(text))},
		})
	}

	resp, err := c.embedder.Embed(ctx, &ai.EmbedRequest{Input: docs})
	if err != nil {
		return nil, fmt.Errorf("batch embedding failed: %w", err)
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("embedding count mismatch: got %d, want %d", len(resp.Embeddings), len(texts))
	}

	vectors := make([][]float32, 0, len(texts))
	for i, emb := range resp.Embeddings {
		if len(emb.Embedding) == 0 {
			return nil, fmt.Errorf("empty embedding returned for text %d", i)
		}
		vectors = append(vectors, emb.Embedding)
	}

	c.logger.Debug("embedded batch", "texts", len(texts), "dimension", len(vectors[0]))
	return vectors, nil
}

// Query embeds a single query string.
func (c *Client) Query(ctx context.Context, text string) ([]float32, error) {
	vectors, err := c.Texts(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// Truncate caps text at MaxTextLen characters.
func Truncate(text string) string {
	if len(text) > MaxTextLen {
		return text[:MaxTextLen]
	}
	return text
}

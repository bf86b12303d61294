// Package index provides the in-memory flat L2 vector index backing
// per-user retrieval, plus the cache that keys built indexes by user.
//
// Corpora are small (one user's applications, resume sections, and the
// static knowledge base), so exact linear search beats any approximate
// structure in both simplicity and recall.
package index

import (
	"fmt"
	"sort"

	"github.com/interviewvault/vault/internal/chunk"
)

// Hit is one search result.
type Hit struct {
	// Chunk is the stored chunk, with its kind and display metadata.
	Chunk chunk.Chunk

	// Distance is the squared L2 distance to the query. Lower is closer.
	Distance float32

	// Position is the chunk's position in the build input.
	Position int
}

// Index is an immutable flat L2 index over a set of chunks.
// Built once, searched many times; safe for concurrent reads.
type Index struct {
	vectors   [][]float32
	chunks    []chunk.Chunk
	dimension int
}

// Build constructs an index from parallel vector and chunk slices.
// Both may be empty (an empty index returns no hits), but lengths must
// match and all vectors must share one dimension.
func Build(vectors [][]float32, chunks []chunk.Chunk) (*Index, error) {
	if len(vectors) != len(chunks) {
		return nil, fmt.Errorf("vector/chunk count mismatch: %d vs %d", len(vectors), len(chunks))
	}

	idx := &Index{
		vectors: vectors,
		chunks:  chunks,
	}
	if len(vectors) > 0 {
		idx.dimension = len(vectors[0])
		if idx.dimension == 0 {
			return nil, fmt.Errorf("zero-dimension vector at position 0")
		}
		for i, v := range vectors {
			if len(v) != idx.dimension {
				return nil, fmt.Errorf("dimension mismatch at position %d: %d vs %d", i, len(v), idx.dimension)
			}
		}
	}

	return idx, nil
}

// Search returns the k nearest chunks by squared L2 distance, closest
// first. k is clamped to the index size; an empty index or non-positive k
// returns nil. Ties keep input order, so results are deterministic.
func (idx *Index) Search(query []float32, k int) []Hit {
	if idx == nil || len(idx.chunks) == 0 || k <= 0 {
		return nil
	}
	if len(query) != idx.dimension {
		return nil
	}
	if k > len(idx.chunks) {
		k = len(idx.chunks)
	}

	hits := make([]Hit, 0, len(idx.chunks))
	for i, v := range idx.vectors {
		hits = append(hits, Hit{
			Chunk:    idx.chunks[i],
			Distance: squaredL2(query, v),
			Position: i,
		})
	}

	sort.SliceStable(hits, func(a, b int) bool {
		return hits[a].Distance < hits[b].Distance
	})

	return hits[:k]
}

// Len returns the number of indexed chunks.
func (idx *Index) Len() int {
	if idx == nil {
		return 0
	}
	return len(idx.chunks)
}

// Dimension returns the vector dimension, 0 for an empty index.
func (idx *Index) Dimension() int {
	if idx == nil {
		return 0
	}
	return idx.dimension
}

func squaredL2(a, b []float32) float32 {
	var sum float32
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}

// Package retrieval composes the chunker, embedding client, and vector
// index into the per-user context retrieval service.
//
// Retrieval never fails a conversation: when embeddings or index builds
// are unavailable the service degrades to leading chunks of the user's
// data, logged as a warning, and the agent proceeds with that.
package retrieval

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/interviewvault/vault/internal/chunk"
	"github.com/interviewvault/vault/internal/embed"
	"github.com/interviewvault/vault/internal/index"
	"github.com/interviewvault/vault/internal/log"
)

// DefaultTopK is the chunk count retrieved when the caller passes no
// explicit value.
const DefaultTopK = 5

// contextPreamble heads every formatted retrieval block.
const contextPreamble = "## RETRIEVED CONTEXT (RAG)\n" +
	"The following information was retrieved as most relevant to the user's query:\n\n"

// UserData is everything retrievable about one user. A guest carries an
// empty UserID and no applications or resume.
type UserData struct {
	UserID       string
	Applications []chunk.Application
	ResumeText   string
}

// Service builds, caches, and searches per-user indexes.
// Safe for concurrent use.
type Service struct {
	embedder *embed.Client
	cache    *index.Cache
	static   []chunk.KnowledgeEntry
	timeout  time.Duration
	logger   log.Logger
}

// New creates a retrieval service. static is the compiled-in knowledge
// corpus included in every user's index; timeout caps embedding plus
// index-build work per request (zero means no cap).
func New(embedder *embed.Client, cache *index.Cache, static []chunk.KnowledgeEntry, timeout time.Duration, logger log.Logger) (*Service, error) {
	if embedder == nil {
		return nil, fmt.Errorf("embedding client is required")
	}
	if cache == nil {
		return nil, fmt.Errorf("index cache is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	return &Service{
		embedder: embedder,
		cache:    cache,
		static:   static,
		timeout:  timeout,
		logger:   logger,
	}, nil
}

// UserContext retrieves the topK chunks most relevant to query and
// formats them under the retrieval preamble. On retrieval failure it
// degrades to the leading chunks of the user's data instead of erroring.
// Returns "" when the user has no data at all.
func (s *Service) UserContext(ctx context.Context, data UserData, query string, topK int) string {
	if topK <= 0 {
		topK = DefaultTopK
	}

	chunks := s.chunksFor(data)
	if len(chunks) == 0 {
		return ""
	}

	hits, err := s.Search(ctx, data, query, topK)
	if err != nil {
		s.logger.Warn("retrieval degraded, using leading chunks",
			"user_id", data.UserID, "error", err)
		if topK > len(chunks) {
			topK = len(chunks)
		}
		return formatContext(chunks[:topK])
	}

	retrieved := make([]chunk.Chunk, 0, len(hits))
	for _, h := range hits {
		retrieved = append(retrieved, h.Chunk)
	}
	return formatContext(retrieved)
}

// Search embeds the query and returns the topK nearest chunks from the
// user's index, building and caching it first if needed. Unlike
// UserContext this surfaces errors, so tool callers can report them.
func (s *Service) Search(ctx context.Context, data UserData, query string, topK int) ([]index.Hit, error) {
	if topK <= 0 {
		topK = DefaultTopK
	}

	idx, err := s.getOrBuild(ctx, data)
	if err != nil {
		return nil, err
	}

	queryVec, err := s.embedder.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	return idx.Search(queryVec, topK), nil
}

// Invalidate drops the user's cached index. Call after any write to the
// user's applications or resume.
func (s *Service) Invalidate(userID string) {
	s.cache.Invalidate(userID)
}

// getOrBuild returns the cached index for the user or builds a fresh one.
// Guest indexes are built per request and never cached.
func (s *Service) getOrBuild(ctx context.Context, data UserData) (*index.Index, error) {
	if idx, ok := s.cache.Get(data.UserID); ok {
		s.logger.Debug("using cached index", "user_id", data.UserID, "chunks", idx.Len())
		return idx, nil
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	chunks := s.chunksFor(data)
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	vectors, err := s.embedder.Texts(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embedding %d chunks: %w", len(chunks), err)
	}

	idx, err := index.Build(vectors, chunks)
	if err != nil {
		return nil, fmt.Errorf("building index: %w", err)
	}

	s.cache.Put(data.UserID, idx)
	s.logger.Debug("built user index", "user_id", data.UserID, "chunks", idx.Len(), "dimension", idx.Dimension())
	return idx, nil
}

// chunksFor assembles all chunk sources for a user in stable order:
// applications, resume, static knowledge.
func (s *Service) chunksFor(data UserData) []chunk.Chunk {
	var chunks []chunk.Chunk
	chunks = append(chunks, chunk.Applications(data.Applications)...)
	chunks = append(chunks, chunk.Resume(data.ResumeText, chunk.DefaultResumeChunkSize)...)
	chunks = append(chunks, chunk.StaticKnowledge(s.static)...)
	return chunks
}

func formatContext(chunks []chunk.Chunk) string {
	if len(chunks) == 0 {
		return ""
	}
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	return contextPreamble + strings.Join(texts, "\n\n")
}

package retrieval

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/core/api"

	"github.com/interviewvault/vault/internal/chunk"
	"github.com/interviewvault/vault/internal/embed"
	"github.com/interviewvault/vault/internal/index"
	"github.com/interviewvault/vault/internal/log"
)

// mockEmbedder maps texts to 2-d vectors so nearest-neighbor results are
// predictable: texts mentioning "Globex" land at (1,0), everything else
// at (0,1). Queries go through the same mapping.
type mockEmbedder struct {
	calls int
	err   error
}

func (*mockEmbedder) Name() string            { return "mock-embedder" }
func (*mockEmbedder) Register(_ api.Registry) {}

func (m *mockEmbedder) Embed(_ context.Context, req *ai.EmbedRequest) (*ai.EmbedResponse, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	resp := &ai.EmbedResponse{}
	for _, doc := range req.Input {
		text := doc.Content[0].Text
		vec := []float32{0, 1}
		if strings.Contains(text, "Globex") {
			vec = []float32{1, 0}
		}
		resp.Embeddings = append(resp.Embeddings, &ai.Embedding{Embedding: vec})
	}
	return resp, nil
}

func newService(t *testing.T, m *mockEmbedder, static []chunk.KnowledgeEntry) *Service {
	t.Helper()
	client, err := embed.NewClient(m, log.NewNop())
	if err != nil {
		t.Fatalf("embed.NewClient() error: %v", err)
	}
	svc, err := New(client, index.NewCache(log.NewNop()), static, time.Second, log.NewNop())
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return svc
}

func testUser() UserData {
	return UserData{
		UserID: "u1",
		Applications: []chunk.Application{
			{Company: "Globex", JobTitle: "Data Analyst", Status: "Applied", AppliedDate: "2026-01-15"},
			{Company: "Initech", JobTitle: "BI Developer", Status: "Rejected", AppliedDate: "2026-02-01"},
		},
		ResumeText: "SKILLS\n\nSQL, Python, Tableau and five years of dashboard work.",
	}
}

func TestNew(t *testing.T) {
	client, _ := embed.NewClient(&mockEmbedder{}, log.NewNop())
	cache := index.NewCache(log.NewNop())

	tests := []struct {
		name    string
		fn      func() (*Service, error)
		wantErr bool
	}{
		{name: "nil embedder", fn: func() (*Service, error) { return New(nil, cache, nil, 0, log.NewNop()) }, wantErr: true},
		{name: "nil cache", fn: func() (*Service, error) { return New(client, nil, nil, 0, log.NewNop()) }, wantErr: true},
		{name: "nil logger", fn: func() (*Service, error) { return New(client, cache, nil, 0, nil) }, wantErr: true},
		{name: "valid", fn: func() (*Service, error) { return New(client, cache, nil, 0, log.NewNop()) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.fn()
			if (err != nil) != tt.wantErr {
				t.Errorf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestUserContext(t *testing.T) {
	t.Run("no data returns empty string", func(t *testing.T) {
		svc := newService(t, &mockEmbedder{}, nil)
		got := svc.UserContext(context.Background(), UserData{UserID: "u1"}, "anything", 3)
		if got != "" {
			t.Errorf("UserContext() = %q, want empty", got)
		}
	})

	t.Run("relevant chunk retrieved with preamble", func(t *testing.T) {
		svc := newService(t, &mockEmbedder{}, nil)
		got := svc.UserContext(context.Background(), testUser(), "What about Globex?", 1)

		if !strings.HasPrefix(got, "## RETRIEVED CONTEXT (RAG)\n") {
			t.Errorf("missing preamble: %q", got)
		}
		if !strings.Contains(got, "Globex") {
			t.Errorf("most relevant chunk missing: %q", got)
		}
	})

	t.Run("degrades to leading chunks on embedder failure", func(t *testing.T) {
		m := &mockEmbedder{err: errors.New("embedding service down")}
		svc := newService(t, m, nil)

		got := svc.UserContext(context.Background(), testUser(), "question", 1)
		if !strings.HasPrefix(got, "## RETRIEVED CONTEXT (RAG)\n") {
			t.Errorf("degraded context missing preamble: %q", got)
		}
		if !strings.Contains(got, "APPLICATION: Globex") {
			t.Errorf("degraded context missing leading chunk: %q", got)
		}
	})

	t.Run("static knowledge included for guests", func(t *testing.T) {
		static := []chunk.KnowledgeEntry{{
			Kind: chunk.KindProductInfo,
			Body: "## About\n" + strings.Repeat("Interview Vault tracks applications. ", 3),
		}}
		svc := newService(t, &mockEmbedder{}, static)

		got := svc.UserContext(context.Background(), UserData{}, "what is this product", 5)
		if !strings.Contains(got, "PRODUCT INFO - About") {
			t.Errorf("guest context missing static knowledge: %q", got)
		}
	})
}

func TestSearchCaching(t *testing.T) {
	t.Run("authenticated user index built once", func(t *testing.T) {
		m := &mockEmbedder{}
		svc := newService(t, m, nil)
		user := testUser()

		if _, err := svc.Search(context.Background(), user, "q1", 2); err != nil {
			t.Fatalf("Search() error: %v", err)
		}
		afterFirst := m.calls

		if _, err := svc.Search(context.Background(), user, "q2", 2); err != nil {
			t.Fatalf("Search() error: %v", err)
		}
		// Second search should only embed the query, not rebuild.
		if m.calls != afterFirst+1 {
			t.Errorf("embed calls = %d after second search, want %d", m.calls, afterFirst+1)
		}
	})

	t.Run("invalidate forces rebuild", func(t *testing.T) {
		m := &mockEmbedder{}
		svc := newService(t, m, nil)
		user := testUser()

		if _, err := svc.Search(context.Background(), user, "q1", 2); err != nil {
			t.Fatalf("Search() error: %v", err)
		}
		svc.Invalidate(user.UserID)

		before := m.calls
		if _, err := svc.Search(context.Background(), user, "q2", 2); err != nil {
			t.Fatalf("Search() error: %v", err)
		}
		// Rebuild embeds the chunk batch plus the query.
		if m.calls != before+2 {
			t.Errorf("embed calls = %d after invalidated search, want %d", m.calls, before+2)
		}
	})

	t.Run("guest index rebuilt per request", func(t *testing.T) {
		m := &mockEmbedder{}
		svc := newService(t, m, nil)
		guest := testUser()
		guest.UserID = ""

		if _, err := svc.Search(context.Background(), guest, "q1", 2); err != nil {
			t.Fatalf("Search() error: %v", err)
		}
		before := m.calls
		if _, err := svc.Search(context.Background(), guest, "q2", 2); err != nil {
			t.Fatalf("Search() error: %v", err)
		}
		if m.calls != before+2 {
			t.Errorf("embed calls = %d, want rebuild (batch + query) for guest", m.calls)
		}
	})
}

func TestSearchTopKClamp(t *testing.T) {
	svc := newService(t, &mockEmbedder{}, nil)

	hits, err := svc.Search(context.Background(), testUser(), "Globex", 100)
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}
	// testUser yields 2 application chunks + 1 resume chunk.
	if len(hits) > 3 {
		t.Errorf("got %d hits, want at most 3", len(hits))
	}

	hits, err = svc.Search(context.Background(), testUser(), "Globex", 0)
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}
	if len(hits) == 0 {
		t.Error("Search with topK=0 should fall back to default, got no hits")
	}
}

package agent

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/firebase/genkit/go/ai"

	"github.com/interviewvault/vault/internal/chunk"
	"github.com/interviewvault/vault/internal/config"
	"github.com/interviewvault/vault/internal/log"
	"github.com/interviewvault/vault/internal/profile"
	"github.com/interviewvault/vault/internal/retrieval"
	"github.com/interviewvault/vault/internal/websearch"
)

// mockGenerator records reasoning calls and returns a canned answer.
type mockGenerator struct {
	mu      sync.Mutex
	out     string
	err     error
	systems []string
	prompts []string
}

func (m *mockGenerator) Generate(_ context.Context, system, prompt string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.systems = append(m.systems, system)
	m.prompts = append(m.prompts, prompt)
	return m.out, m.err
}

func (m *mockGenerator) lastPrompt() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.prompts) == 0 {
		return ""
	}
	return m.prompts[len(m.prompts)-1]
}

// searchServer is a fake Tavily endpoint that records every query it
// receives, in arrival order.
type searchServer struct {
	srv     *httptest.Server
	mu      sync.Mutex
	queries []string
}

func newSearchServer(t *testing.T, payload string) *searchServer {
	t.Helper()
	s := &searchServer{}
	s.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		var body map[string]any
		_ = json.Unmarshal(data, &body)
		query, _ := body["query"].(string)

		s.mu.Lock()
		s.queries = append(s.queries, query)
		s.mu.Unlock()

		_, _ = w.Write([]byte(payload))
	}))
	t.Cleanup(s.srv.Close)
	return s
}

func (s *searchServer) recorded() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.queries...)
}

const searchPayload = `{"answer":"Summary of findings.","results":[
	{"title":"Glassdoor","url":"https://glassdoor.com/a","content":"₹18 LPA reported"},
	{"title":"Levels","url":"https://levels.fyi/b","content":"₹22 LPA reported"}]}`

func newTestToolkit(t *testing.T, baseURL, apiKey string, gen Generator) *Toolkit {
	t.Helper()
	search, err := websearch.NewClient(websearch.Config{
		APIKey:        apiKey,
		BaseURL:       baseURL,
		Timeout:       time.Second,
		MaxResults:    5,
		RatePerSecond: 100,
		Burst:         100,
	}, log.NewNop())
	if err != nil {
		t.Fatalf("websearch.NewClient() error: %v", err)
	}

	tk, err := NewToolkit(search, gen,
		[]string{"glassdoor.com", "linkedin.com"}, config.DefaultSalaryPolicy(), log.NewNop())
	if err != nil {
		t.Fatalf("NewToolkit() error: %v", err)
	}
	return tk
}

func testRequest() Request {
	return Request{
		Query: "question",
		User: retrieval.UserData{
			UserID: "u1",
			Applications: []chunk.Application{
				{Company: "Globex", JobTitle: "Data Analyst", Status: "Applied", AppliedDate: "2026-01-15"},
				{Company: "Initech", JobTitle: "BI Developer", Status: "Rejected", AppliedDate: "2026-02-01"},
			},
			ResumeText: "SKILLS\n\nSQL, Python, Tableau dashboards.",
		},
		Profile: profile.Profile{
			ExperienceYears: 6,
			Skills:          []string{"SQL", "Python", "Tableau"},
			JobTitle:        "Senior BI Developer",
			JobTitles:       []string{"Senior BI Developer", "Data Analyst"},
			Location:        "India",
		},
		UserName: "Priya",
	}
}

func TestParseToolCall(t *testing.T) {
	tests := []struct {
		name  string
		req   *ai.ToolRequest
		check func(t *testing.T, call ToolCall)
	}{
		{
			name: "internal lookup",
			req:  &ai.ToolRequest{Name: ToolInternalLookup, Input: map[string]any{"company_name": "Globex"}},
			check: func(t *testing.T, call ToolCall) {
				c, ok := call.(*InternalLookupCall)
				if !ok || c.Company != "Globex" {
					t.Errorf("parsed %#v, want InternalLookupCall{Globex}", call)
				}
			},
		},
		{
			name: "web search",
			req:  &ai.ToolRequest{Name: ToolWebSearch, Input: map[string]any{"query": "Google interview process"}},
			check: func(t *testing.T, call ToolCall) {
				c, ok := call.(*WebSearchCall)
				if !ok || c.Query != "Google interview process" {
					t.Errorf("parsed %#v, want WebSearchCall", call)
				}
			},
		},
		{
			name: "job site search",
			req:  &ai.ToolRequest{Name: ToolJobSiteSearch, Input: map[string]any{"query": "TCS reviews", "sites": []any{"glassdoor.com"}}},
			check: func(t *testing.T, call ToolCall) {
				c, ok := call.(*JobSiteSearchCall)
				if !ok || len(c.Sites) != 1 {
					t.Errorf("parsed %#v, want JobSiteSearchCall with one site", call)
				}
			},
		},
		{
			name: "salary analysis",
			req:  &ai.ToolRequest{Name: ToolSalaryAnalysis, Input: map[string]any{"role": "BI Developer", "company": "Globex"}},
			check: func(t *testing.T, call ToolCall) {
				c, ok := call.(*SalaryAnalysisCall)
				if !ok || c.Role != "BI Developer" || c.Company != "Globex" {
					t.Errorf("parsed %#v, want SalaryAnalysisCall", call)
				}
			},
		},
		{
			name: "compare companies",
			req:  &ai.ToolRequest{Name: ToolCompareCompanies, Input: map[string]any{"companies": []any{"Google", "Microsoft"}}},
			check: func(t *testing.T, call ToolCall) {
				c, ok := call.(*CompareCompaniesCall)
				if !ok || len(c.Companies) != 2 {
					t.Errorf("parsed %#v, want CompareCompaniesCall with two companies", call)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			call, err := parseToolCall(tt.req)
			if err != nil {
				t.Fatalf("parseToolCall() error: %v", err)
			}
			tt.check(t, call)
		})
	}

	t.Run("unknown tool", func(t *testing.T) {
		_, err := parseToolCall(&ai.ToolRequest{Name: "delete_everything", Input: map[string]any{}})
		if err == nil {
			t.Error("parseToolCall(unknown) error = nil, want non-nil")
		}
	})
}

func TestEnhanceWebQuery(t *testing.T) {
	now := time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC)

	t.Run("experienced user gets qualifier and location", func(t *testing.T) {
		p := profile.Profile{ExperienceYears: 6, Location: "India"}
		got := enhanceWebQuery(p, "data analyst trends", now)

		if !strings.Contains(got, "experienced professional lateral hire mid-senior level") {
			t.Errorf("enhanced = %q, missing experience qualifier", got)
		}
		if !strings.Contains(got, "India") {
			t.Errorf("enhanced = %q, missing location", got)
		}
		if !strings.Contains(got, "job salary career March 2026") {
			t.Errorf("enhanced = %q, missing career anchor and date", got)
		}
	})

	t.Run("location already in query is not repeated", func(t *testing.T) {
		p := profile.Profile{ExperienceYears: 1, Location: "Berlin"}
		got := enhanceWebQuery(p, "jobs in berlin", now)
		if strings.Contains(got, "Berlin") {
			t.Errorf("enhanced = %q, location appended despite being in query", got)
		}
	})

	t.Run("junior user gets no qualifier", func(t *testing.T) {
		p := profile.Profile{ExperienceYears: 1}
		got := enhanceWebQuery(p, "how to write a resume", now)
		if strings.Contains(got, "entry level fresher") {
			t.Errorf("enhanced = %q, qualifier must not be added below 2 years", got)
		}
	})
}

func TestInternalLookup(t *testing.T) {
	tk := newTestToolkit(t, "http://localhost:1", "k", &mockGenerator{})
	req := testRequest()

	lookup := func(r Request, company string) Result {
		t.Helper()
		return tk.Execute(context.Background(), r, &ai.ToolRequest{
			Name:  ToolInternalLookup,
			Ref:   "r1",
			Input: map[string]any{"company_name": company},
		})
	}

	t.Run("exact company name matches", func(t *testing.T) {
		res := lookup(req, "Globex")

		if res.Name != ToolInternalLookup || res.Ref != "r1" {
			t.Errorf("Result name/ref = %q/%q", res.Name, res.Ref)
		}
		if !strings.Contains(res.Output, "Found 1 application(s) for 'Globex'") {
			t.Errorf("Output = %q, want found header", res.Output)
		}
		if !strings.Contains(res.Output, "Job Title: **Data Analyst**") ||
			!strings.Contains(res.Output, "Status: Applied") {
			t.Errorf("Output = %q, want application details", res.Output)
		}
	})

	t.Run("match is case-insensitive substring", func(t *testing.T) {
		res := lookup(req, "globex technologies")
		if !strings.Contains(res.Output, "Data Analyst") {
			t.Errorf("Output = %q, want Globex application via substring", res.Output)
		}
	})

	t.Run("word-level match finds partial names", func(t *testing.T) {
		res := lookup(req, "the initech job")
		if !strings.Contains(res.Output, "BI Developer") {
			t.Errorf("Output = %q, want Initech application via word match", res.Output)
		}
	})

	t.Run("unknown company lists known ones", func(t *testing.T) {
		res := lookup(req, "Hooli")
		if !strings.Contains(res.Output, "No application found for 'Hooli'") {
			t.Errorf("Output = %q, want not-found message", res.Output)
		}
		if !strings.Contains(res.Output, "Globex") || !strings.Contains(res.Output, "Initech") {
			t.Errorf("Output = %q, want known companies listed", res.Output)
		}
	})

	t.Run("at most three applications formatted", func(t *testing.T) {
		many := req
		many.User.Applications = []chunk.Application{
			{Company: "Acme North", JobTitle: "A"},
			{Company: "Acme South", JobTitle: "B"},
			{Company: "Acme East", JobTitle: "C"},
			{Company: "Acme West", JobTitle: "D"},
		}
		res := lookup(many, "acme")
		if !strings.Contains(res.Output, "**Application 3:**") {
			t.Errorf("Output = %q, want three formatted applications", res.Output)
		}
		if strings.Contains(res.Output, "**Application 4:**") {
			t.Errorf("Output = %q, fourth application must be dropped", res.Output)
		}
	})

	t.Run("missing fields get placeholders", func(t *testing.T) {
		sparse := req
		sparse.User.Applications = []chunk.Application{{Company: "Globex"}}
		res := lookup(sparse, "Globex")
		if !strings.Contains(res.Output, "Job Title: **Not specified**") ||
			!strings.Contains(res.Output, "Status: Unknown") {
			t.Errorf("Output = %q, want placeholder fields", res.Output)
		}
	})

	t.Run("no applications answers from them alone", func(t *testing.T) {
		guest := Request{Query: "show me my applications"}
		res := lookup(guest, "my applications")
		if !strings.Contains(res.Output, "No applications found.") {
			t.Errorf("Output = %q, want no-applications message", res.Output)
		}
		// The static corpus must never leak in as the user's own data.
		if strings.Contains(res.Output, "PRODUCT INFO") || strings.Contains(res.Output, "POLICY") {
			t.Errorf("Output = %q, static knowledge leaked into application lookup", res.Output)
		}
	})
}

func TestSnippetRuneBoundary(t *testing.T) {
	s := strings.Repeat("x", 199) + "₹18 LPA"

	got := snippet(s, 200)
	if !strings.HasSuffix(got, "x...") {
		t.Errorf("snippet() = %q, want truncation before the multi-byte rune", got)
	}
	if !utf8.ValidString(got) {
		t.Errorf("snippet() produced invalid UTF-8: %q", got)
	}

	if got := snippet("short", 200); got != "short" {
		t.Errorf("snippet(short) = %q, want unchanged", got)
	}
}

func TestWebSearchTool(t *testing.T) {
	t.Run("formats results and collects citations", func(t *testing.T) {
		srv := newSearchServer(t, searchPayload)
		tk := newTestToolkit(t, srv.srv.URL, "k", &mockGenerator{})

		res := tk.Execute(context.Background(), testRequest(), &ai.ToolRequest{
			Name:  ToolWebSearch,
			Input: map[string]any{"query": "Google interview process"},
		})

		if !strings.Contains(res.Output, "## Web Search Results") {
			t.Errorf("Output = %q, missing header", res.Output)
		}
		if !strings.Contains(res.Output, "**AI Summary:** Summary of findings.") {
			t.Errorf("Output = %q, missing answer line", res.Output)
		}
		if len(res.Citations) != 2 {
			t.Errorf("got %d citations, want 2", len(res.Citations))
		}

		queries := srv.recorded()
		if len(queries) != 1 || !strings.Contains(queries[0], "job salary career") {
			t.Errorf("recorded queries = %v, want enhanced query", queries)
		}
	})

	t.Run("missing API key degrades to unavailable message", func(t *testing.T) {
		tk := newTestToolkit(t, "http://localhost:1", "", &mockGenerator{})
		res := tk.Execute(context.Background(), testRequest(), &ai.ToolRequest{
			Name:  ToolWebSearch,
			Input: map[string]any{"query": "anything"},
		})
		if res.Output != "Web search is currently unavailable." {
			t.Errorf("Output = %q, want unavailable message", res.Output)
		}
	})
}

func TestJobSiteSearchTool(t *testing.T) {
	srv := newSearchServer(t, searchPayload)
	tk := newTestToolkit(t, srv.srv.URL, "k", &mockGenerator{})

	res := tk.Execute(context.Background(), testRequest(), &ai.ToolRequest{
		Name:  ToolJobSiteSearch,
		Input: map[string]any{"query": "TCS reviews"},
	})

	if !strings.Contains(res.Output, "## Job Sites Search Results") {
		t.Errorf("Output = %q, missing header", res.Output)
	}

	queries := srv.recorded()
	if len(queries) != 1 {
		t.Fatalf("recorded %d queries, want 1", len(queries))
	}
	// Default site filter plus profile enhancement.
	if !strings.Contains(queries[0], "site:glassdoor.com") {
		t.Errorf("query = %q, missing default site filter", queries[0])
	}
	if !strings.Contains(queries[0], "India") {
		t.Errorf("query = %q, missing user location", queries[0])
	}
}

func TestSalaryAnalysisTool(t *testing.T) {
	t.Run("two searches plus seeded reasoning call", func(t *testing.T) {
		srv := newSearchServer(t, searchPayload)
		gen := &mockGenerator{out: "DEEP ANALYSIS"}
		tk := newTestToolkit(t, srv.srv.URL, "k", gen)

		res := tk.Execute(context.Background(), testRequest(), &ai.ToolRequest{
			Name:  ToolSalaryAnalysis,
			Input: map[string]any{"role": "Senior BI Developer", "company": "Globex"},
		})

		if res.Output != "DEEP ANALYSIS" {
			t.Errorf("Output = %q, want generator answer", res.Output)
		}
		if len(res.Citations) != 4 {
			t.Errorf("got %d citations, want 4 (two per search)", len(res.Citations))
		}

		queries := srv.recorded()
		if len(queries) != 2 {
			t.Fatalf("recorded %d queries, want 2", len(queries))
		}
		joined := strings.Join(queries, " | ")
		if !strings.Contains(joined, "salary India 6 years experience") {
			t.Errorf("queries = %v, missing market query", queries)
		}
		if !strings.Contains(joined, "salary compensation package benefits") {
			t.Errorf("queries = %v, missing company query", queries)
		}

		prompt := gen.lastPrompt()
		if !strings.Contains(prompt, "₹18-22 LPA") {
			t.Errorf("prompt missing calibration band for 6 YOE:\n%s", prompt)
		}
		if !strings.Contains(prompt, "₹18 LPA reported") {
			t.Errorf("prompt missing market search data:\n%s", prompt)
		}
		if !strings.Contains(prompt, "max +30% total") {
			t.Errorf("prompt missing skill premium cap:\n%s", prompt)
		}
	})

	t.Run("location falls back to default market", func(t *testing.T) {
		srv := newSearchServer(t, searchPayload)
		gen := &mockGenerator{out: "ok"}
		tk := newTestToolkit(t, srv.srv.URL, "k", gen)

		req := testRequest()
		req.Profile.Location = ""
		tk.Execute(context.Background(), req, &ai.ToolRequest{
			Name:  ToolSalaryAnalysis,
			Input: map[string]any{"role": "Analyst", "company": "Initech"},
		})

		if !strings.Contains(gen.lastPrompt(), "India") {
			t.Error("prompt should fall back to the default market location")
		}
	})

	t.Run("missing role or company rejected in output", func(t *testing.T) {
		tk := newTestToolkit(t, "http://localhost:1", "k", &mockGenerator{})
		res := tk.Execute(context.Background(), testRequest(), &ai.ToolRequest{
			Name:  ToolSalaryAnalysis,
			Input: map[string]any{"role": "Analyst"},
		})
		if !strings.Contains(res.Output, "needs both a role and a company") {
			t.Errorf("Output = %q, want validation message", res.Output)
		}
	})
}

func TestCompareCompaniesTool(t *testing.T) {
	t.Run("caps at four companies with default aspects", func(t *testing.T) {
		srv := newSearchServer(t, searchPayload)
		gen := &mockGenerator{out: "COMPARISON"}
		tk := newTestToolkit(t, srv.srv.URL, "k", gen)

		res := tk.Execute(context.Background(), testRequest(), &ai.ToolRequest{
			Name: ToolCompareCompanies,
			Input: map[string]any{
				"companies": []any{"Google", "Microsoft", "Amazon", "Meta", "Netflix"},
			},
		})

		if res.Output != "COMPARISON" {
			t.Errorf("Output = %q, want generator answer", res.Output)
		}

		queries := srv.recorded()
		if len(queries) != 4 {
			t.Fatalf("recorded %d queries, want 4 (fifth company dropped)", len(queries))
		}
		for _, q := range queries {
			if !strings.Contains(q, "salary work-life balance growth opportunities") {
				t.Errorf("query = %q, missing default aspects", q)
			}
			if !strings.Contains(q, "employee review") {
				t.Errorf("query = %q, missing review anchor", q)
			}
		}

		prompt := gen.lastPrompt()
		if !strings.Contains(prompt, "=== GOOGLE ===") {
			t.Errorf("prompt missing company section:\n%s", prompt)
		}
		if strings.Contains(prompt, "=== NETFLIX ===") {
			t.Errorf("prompt includes dropped company:\n%s", prompt)
		}
	})

	t.Run("no companies given", func(t *testing.T) {
		tk := newTestToolkit(t, "http://localhost:1", "k", &mockGenerator{})
		res := tk.Execute(context.Background(), testRequest(), &ai.ToolRequest{
			Name:  ToolCompareCompanies,
			Input: map[string]any{"companies": []any{}},
		})
		if !strings.Contains(res.Output, "at least one company") {
			t.Errorf("Output = %q, want validation message", res.Output)
		}
	})
}

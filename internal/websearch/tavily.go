// Package websearch provides the Tavily search client used by the web
// and job-site tools.
//
// Tavily is a plain JSON-over-HTTP API, so the client is a thin wrapper:
// request timeout, client-side rate limiting, response size limit, and a
// typed response. A missing API key surfaces as ErrMissingAPIKey at call
// time so the rest of the system can run without web search configured.
package websearch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/time/rate"

	"github.com/interviewvault/vault/internal/log"
)

// ErrMissingAPIKey indicates no Tavily API key is configured.
var ErrMissingAPIKey = errors.New("missing Tavily API key")

// Search depths supported by the API.
const (
	DepthBasic    = "basic"
	DepthAdvanced = "advanced"
)

// maxResponseBytes bounds the response body read (1 MB is far beyond any
// legitimate search response).
const maxResponseBytes = 1 << 20

// snippetCap bounds per-result content passed onward to the model.
const snippetCap = 500

// maxSiteFilter bounds the number of site: clauses in a job-site query.
const maxSiteFilter = 4

// Config holds client settings.
type Config struct {
	APIKey        string
	BaseURL       string
	Timeout       time.Duration
	MaxResults    int
	RatePerSecond float64
	Burst         int
}

// Result is one search hit.
type Result struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Content string `json:"content"`
}

// Response is a completed search.
type Response struct {
	// Answer is Tavily's own synthesized summary, empty when unavailable.
	Answer  string   `json:"answer"`
	Results []Result `json:"results"`
}

// Client calls the Tavily search API. Safe for concurrent use.
type Client struct {
	cfg        Config
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     log.Logger
}

// NewClient creates a Tavily client. The API key may be empty; searches
// then fail with ErrMissingAPIKey, which tools report as degraded results.
func NewClient(cfg Config, logger log.Logger) (*Client, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = 5
	}
	if cfg.RatePerSecond <= 0 {
		cfg.RatePerSecond = 2
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 5
	}

	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(rate.Limit(cfg.RatePerSecond), cfg.Burst),
		logger:     logger,
	}, nil
}

type searchRequest struct {
	APIKey        string `json:"api_key"`
	Query         string `json:"query"`
	SearchDepth   string `json:"search_depth"`
	MaxResults    int    `json:"max_results"`
	IncludeAnswer bool   `json:"include_answer"`
}

// Search performs a general web search at basic depth.
func (c *Client) Search(ctx context.Context, query string, maxResults int) (*Response, error) {
	return c.search(ctx, query, DepthBasic, maxResults)
}

// SearchJobSites searches with a site: OR-filter restricting results to
// job platforms, at advanced depth. An empty site list is rejected; the
// caller owns the default list.
func (c *Client) SearchJobSites(ctx context.Context, query string, sites []string, maxResults int) (*Response, error) {
	if len(sites) == 0 {
		return nil, fmt.Errorf("at least one job site is required")
	}
	if len(sites) > maxSiteFilter {
		sites = sites[:maxSiteFilter]
	}

	clauses := make([]string, 0, len(sites))
	for _, site := range sites {
		clauses = append(clauses, "site:"+site)
	}
	enhanced := fmt.Sprintf("%s (%s)", query, strings.Join(clauses, " OR "))

	return c.search(ctx, enhanced, DepthAdvanced, maxResults)
}

func (c *Client) search(ctx context.Context, query, depth string, maxResults int) (*Response, error) {
	if c.cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	if maxResults <= 0 || maxResults > c.cfg.MaxResults {
		maxResults = c.cfg.MaxResults
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	body, err := json.Marshal(searchRequest{
		APIKey:        c.cfg.APIKey,
		Query:         query,
		SearchDepth:   depth,
		MaxResults:    maxResults,
		IncludeAnswer: true,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal search request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/search", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("reading search response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search returned status %d: %s", resp.StatusCode, truncateForLog(data))
	}

	var parsed Response
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("parsing search response: %w", err)
	}

	if len(parsed.Results) > maxResults {
		parsed.Results = parsed.Results[:maxResults]
	}
	for i := range parsed.Results {
		if len(parsed.Results[i].Content) > snippetCap {
			// Back up to a rune boundary so a multi-byte character is
			// never split mid-sequence.
			cut := snippetCap
			for cut > 0 && !utf8.RuneStart(parsed.Results[i].Content[cut]) {
				cut--
			}
			parsed.Results[i].Content = parsed.Results[i].Content[:cut]
		}
	}

	c.logger.Debug("search completed", "depth", depth, "results", len(parsed.Results), "has_answer", parsed.Answer != "")
	return &parsed, nil
}

func truncateForLog(data []byte) string {
	const limit = 200
	if len(data) > limit {
		return string(data[:limit]) + "..."
	}
	return string(data)
}

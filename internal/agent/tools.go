package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/firebase/genkit/go/ai"

	"github.com/interviewvault/vault/internal/chunk"
	"github.com/interviewvault/vault/internal/config"
	"github.com/interviewvault/vault/internal/log"
	"github.com/interviewvault/vault/internal/profile"
	"github.com/interviewvault/vault/internal/websearch"
)

// Tool names as exposed to the planner.
const (
	ToolInternalLookup   = "internal_lookup"
	ToolWebSearch        = "general_web_search"
	ToolJobSiteSearch    = "job_site_search"
	ToolSalaryAnalysis   = "salary_analysis"
	ToolCompareCompanies = "compare_companies"
)

var errUnknownTool = errors.New("unknown tool")

// jobSiteMaxResults is fixed for job site searches; the planner does not
// tune it.
const jobSiteMaxResults = 5

// ToolCall is the closed set of calls the planner may issue. Dispatch is a
// single type switch in Execute, so a new tool means a new variant here,
// a parse branch, and a switch arm; nothing is looked up by name at
// execution time.
type ToolCall interface {
	toolName() string
}

// InternalLookupCall looks up the user's tracked applications by company
// name.
type InternalLookupCall struct {
	Company string `json:"company_name" jsonschema_description:"Company name to look up among the user's tracked applications, e.g. 'Google' or 'TCS'"`
}

// WebSearchCall is a general career web search.
type WebSearchCall struct {
	Query      string `json:"query" jsonschema_description:"The search query"`
	MaxResults int    `json:"max_results,omitempty" jsonschema_description:"Maximum number of results (default 5)"`
}

// JobSiteSearchCall searches job platforms only.
type JobSiteSearchCall struct {
	Query string   `json:"query" jsonschema_description:"The search query, e.g. 'Google software engineer salary' or 'TCS interview reviews'"`
	Sites []string `json:"sites,omitempty" jsonschema_description:"Job sites to restrict the search to, e.g. ['glassdoor.com', 'levels.fyi']"`
}

// SalaryAnalysisCall runs the deep salary reasoning tool.
type SalaryAnalysisCall struct {
	Role            string `json:"role" jsonschema_description:"The role being considered, e.g. 'Senior Data Engineer'"`
	Company         string `json:"company" jsonschema_description:"Target company name, e.g. 'Google', 'TCS'"`
	Location        string `json:"location,omitempty" jsonschema_description:"Job market location; defaults to the user's location"`
	YearsExperience int    `json:"years_experience,omitempty" jsonschema_description:"Years of experience to analyze for; defaults to the user's"`
	JobDescription  string `json:"job_description,omitempty" jsonschema_description:"Job requirements to match the user's skills against"`
}

// CompareCompaniesCall compares up to four companies.
type CompareCompaniesCall struct {
	Companies []string `json:"companies" jsonschema_description:"Company names to compare, e.g. ['Google', 'Microsoft']"`
	Aspects   []string `json:"aspects,omitempty" jsonschema_description:"Aspects to focus on (default: salary, work-life balance, growth opportunities, interview process, culture)"`
}

func (InternalLookupCall) toolName() string   { return ToolInternalLookup }
func (WebSearchCall) toolName() string        { return ToolWebSearch }
func (JobSiteSearchCall) toolName() string    { return ToolJobSiteSearch }
func (SalaryAnalysisCall) toolName() string   { return ToolSalaryAnalysis }
func (CompareCompaniesCall) toolName() string { return ToolCompareCompanies }

// parseToolCall converts a raw tool request into its typed variant via a
// JSON round trip of the request input.
func parseToolCall(req *ai.ToolRequest) (ToolCall, error) {
	raw, err := json.Marshal(req.Input)
	if err != nil {
		return nil, fmt.Errorf("encoding input for %s: %w", req.Name, err)
	}

	decode := func(call ToolCall) (ToolCall, error) {
		if err := json.Unmarshal(raw, call); err != nil {
			return nil, fmt.Errorf("decoding input for %s: %w", req.Name, err)
		}
		return call, nil
	}

	switch req.Name {
	case ToolInternalLookup:
		return decode(&InternalLookupCall{})
	case ToolWebSearch:
		return decode(&WebSearchCall{})
	case ToolJobSiteSearch:
		return decode(&JobSiteSearchCall{})
	case ToolSalaryAnalysis:
		return decode(&SalaryAnalysisCall{})
	case ToolCompareCompanies:
		return decode(&CompareCompaniesCall{})
	default:
		return nil, fmt.Errorf("%w: %s", errUnknownTool, req.Name)
	}
}

// Result is one executed tool's product. Failures are expressed in Output
// text so the planner can react; they never abort the loop.
type Result struct {
	Name      string
	Ref       string
	Output    string
	Citations []Citation
}

// Generator runs a single system+prompt LLM call. The salary and
// comparison tools use it for their reasoning step.
type Generator interface {
	Generate(ctx context.Context, system, prompt string) (string, error)
}

// Toolkit executes tool calls against the search client and the
// reasoning model. Safe for concurrent use.
type Toolkit struct {
	search    *websearch.Client
	generator Generator
	jobSites  []string
	policy    config.SalaryPolicy
	logger    log.Logger
}

// NewToolkit wires the tool executor. jobSites is the default site filter
// for job platform searches.
func NewToolkit(search *websearch.Client, generator Generator, jobSites []string, policy config.SalaryPolicy, logger log.Logger) (*Toolkit, error) {
	if search == nil {
		return nil, fmt.Errorf("search client is required")
	}
	if generator == nil {
		return nil, fmt.Errorf("generator is required")
	}
	if len(jobSites) == 0 {
		return nil, fmt.Errorf("at least one job site is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	return &Toolkit{
		search:    search,
		generator: generator,
		jobSites:  jobSites,
		policy:    policy,
		logger:    logger,
	}, nil
}

// Execute parses and runs one tool request. The returned Result always
// carries the request's name and ref so the caller can thread it back to
// the planner.
func (t *Toolkit) Execute(ctx context.Context, req Request, tr *ai.ToolRequest) Result {
	call, err := parseToolCall(tr)
	if err != nil {
		t.logger.Warn("tool request rejected", "tool", tr.Name, "error", err)
		return Result{
			Name:   tr.Name,
			Ref:    tr.Ref,
			Output: fmt.Sprintf("Tool call could not be executed: %v", err),
		}
	}

	var res Result
	switch c := call.(type) {
	case *InternalLookupCall:
		res = t.internalLookup(req, *c)
	case *WebSearchCall:
		res = t.webSearch(ctx, req, *c)
	case *JobSiteSearchCall:
		res = t.jobSiteSearch(ctx, req, *c)
	case *SalaryAnalysisCall:
		res = t.salaryAnalysis(ctx, req, *c)
	case *CompareCompaniesCall:
		res = t.compareCompanies(ctx, req, *c)
	}
	res.Name = tr.Name
	res.Ref = tr.Ref
	return res
}

// internalLookup answers from the user's tracked applications only. It is
// a name match, not retrieval: matching against the static corpus here
// would surface product and policy text as the user's own data.
func (t *Toolkit) internalLookup(req Request, call InternalLookupCall) Result {
	name := strings.TrimSpace(call.Company)
	apps := req.User.Applications

	if len(apps) == 0 {
		return Result{Output: fmt.Sprintf(
			"No applications found. User hasn't applied to %s or no application data available.", name)}
	}

	nameLower := strings.ToLower(name)
	var matches []chunk.Application
	for _, app := range apps {
		company := strings.ToLower(app.Company)
		if company == "" {
			continue
		}
		if strings.Contains(company, nameLower) || strings.Contains(nameLower, company) {
			matches = append(matches, app)
		}
	}

	// Second pass: any sufficiently long word of the query appearing in
	// a company name counts, so "google india" still finds "Google".
	if len(matches) == 0 {
		for _, app := range apps {
			company := strings.ToLower(app.Company)
			for _, word := range strings.Fields(nameLower) {
				if len(word) > 2 && strings.Contains(company, word) {
					matches = append(matches, app)
					break
				}
			}
		}
	}

	if len(matches) == 0 {
		known := make([]string, 0, 5)
		for _, app := range apps {
			if app.Company == "" {
				continue
			}
			known = append(known, app.Company)
			if len(known) == 5 {
				break
			}
		}
		return Result{Output: fmt.Sprintf(
			"No application found for '%s'. User has applied to: %s", name, strings.Join(known, ", "))}
	}

	if len(matches) > 3 {
		matches = matches[:3]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d application(s) for '%s':\n\n", len(matches), name)
	for i, app := range matches {
		fmt.Fprintf(&b, "**Application %d:**\n", i+1)
		fmt.Fprintf(&b, "• Job Title: **%s**\n", valueOr(app.JobTitle, "Not specified"))
		fmt.Fprintf(&b, "• Company: %s\n", valueOr(app.Company, "Unknown"))
		fmt.Fprintf(&b, "• Location: %s\n", valueOr(app.Location, "Not specified"))
		fmt.Fprintf(&b, "• Status: %s\n\n", valueOr(app.Status, "Unknown"))
	}
	return Result{Output: strings.TrimSpace(b.String())}
}

func valueOr(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}

func (t *Toolkit) webSearch(ctx context.Context, req Request, call WebSearchCall) Result {
	enhanced := enhanceWebQuery(req.Profile, call.Query, time.Now())

	resp, err := t.search.Search(ctx, enhanced, call.MaxResults)
	if err != nil {
		t.logger.Warn("web search failed", "error", err)
		return Result{Output: "Web search is currently unavailable."}
	}

	output, citations := formatSearch("## Web Search Results", "AI Summary", resp)
	if output == "" {
		return Result{Output: "No results found for this search query."}
	}
	return Result{Output: output, Citations: citations}
}

func (t *Toolkit) jobSiteSearch(ctx context.Context, req Request, call JobSiteSearchCall) Result {
	enhanced := call.Query
	if req.Profile.ExperienceYears >= 2 {
		enhanced += " " + profile.Qualifier(req.Profile.ExperienceYears)
	}
	if req.Profile.Location != "" {
		enhanced += " " + req.Profile.Location
	}

	sites := call.Sites
	if len(sites) == 0 {
		sites = t.jobSites
	}

	resp, err := t.search.SearchJobSites(ctx, enhanced, sites, jobSiteMaxResults)
	if err != nil {
		t.logger.Warn("job site search failed", "error", err)
		return Result{Output: "Job site search is currently unavailable."}
	}

	output, citations := formatSearch("## Job Sites Search Results", "Summary", resp)
	if output == "" {
		return Result{Output: "No job site results found for this query."}
	}
	return Result{Output: output, Citations: citations}
}

// enhanceWebQuery appends the user's search qualifier, location, a career
// anchor (keeps generic engines away from unrelated topics), and the
// current month so results skew recent.
func enhanceWebQuery(p profile.Profile, query string, now time.Time) string {
	enhanced := query
	if p.ExperienceYears >= 2 {
		enhanced += " " + profile.Qualifier(p.ExperienceYears)
	}
	if p.Location != "" && !strings.Contains(strings.ToLower(query), strings.ToLower(p.Location)) {
		enhanced += " " + p.Location
	}
	enhanced += " job salary career " + now.Format("January 2006")
	return enhanced
}

// formatSearch renders a search response for the planner and extracts
// citations. Returns "" when there is nothing to show.
func formatSearch(header, answerLabel string, resp *websearch.Response) (string, []Citation) {
	if resp.Answer == "" && len(resp.Results) == 0 {
		return "", nil
	}

	var b strings.Builder
	b.WriteString(header + "\n\n")
	if resp.Answer != "" {
		fmt.Fprintf(&b, "**%s:** %s\n\n", answerLabel, resp.Answer)
	}

	var citations []Citation
	for i, r := range resp.Results {
		fmt.Fprintf(&b, "%d. **%s**\n   %s\n\n", i+1, r.Title, snippet(r.Content, 200))
		if r.URL != "" {
			title := r.Title
			if title == "" {
				title = "Source"
			}
			citations = append(citations, Citation{Title: title, URL: r.URL})
		}
	}
	return b.String(), citations
}

// snippet truncates to at most n bytes without splitting a multi-byte
// rune, backing up to the previous rune boundary when needed.
func snippet(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := n
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}

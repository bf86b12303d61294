package agent

import (
	"context"
	"errors"
	"fmt"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"

	"github.com/interviewvault/vault/internal/config"
	"github.com/interviewvault/vault/internal/log"
)

// errToolNotDirect guards the registered tool handlers. The loop always
// requests tool calls back instead of letting the framework run them, so
// a handler actually firing means the generate options are wrong.
var errToolNotDirect = errors.New("tool must be executed by the agent loop")

// GenkitPlanner is the production Planner: genkit.Generate with the tool
// set bound and tool requests returned to the loop instead of auto-run.
type GenkitPlanner struct {
	g         *genkit.Genkit
	modelName string
	genConfig map[string]any
	toolRefs  []ai.ToolRef
	logger    log.Logger
}

// NewGenkitPlanner registers the tool schemas and builds the planner.
func NewGenkitPlanner(g *genkit.Genkit, cfg *config.Config, logger log.Logger) (*GenkitPlanner, error) {
	if g == nil {
		return nil, fmt.Errorf("genkit instance is required")
	}
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	return &GenkitPlanner{
		g:         g,
		modelName: cfg.FullModelName(),
		genConfig: map[string]any{
			"temperature":     cfg.Temperature,
			"maxOutputTokens": cfg.MaxTokens,
		},
		toolRefs: defineTools(g),
		logger:   logger,
	}, nil
}

// Plan runs one planning call. Tool requests come back on the response
// rather than being executed by the framework.
func (p *GenkitPlanner) Plan(ctx context.Context, messages []*ai.Message) (*ai.ModelResponse, error) {
	resp, err := genkit.Generate(ctx, p.g,
		ai.WithModelName(p.modelName),
		ai.WithMessages(messages...),
		ai.WithTools(p.toolRefs...),
		ai.WithReturnToolRequests(true),
		ai.WithConfig(p.genConfig),
	)
	if err != nil {
		return nil, fmt.Errorf("planning generation: %w", err)
	}
	return resp, nil
}

// Synthesize runs the final call with no tools bound, so the model can
// only answer with what it already has.
func (p *GenkitPlanner) Synthesize(ctx context.Context, messages []*ai.Message) (string, error) {
	resp, err := genkit.Generate(ctx, p.g,
		ai.WithModelName(p.modelName),
		ai.WithMessages(messages...),
		ai.WithConfig(p.genConfig),
	)
	if err != nil {
		return "", fmt.Errorf("synthesis generation: %w", err)
	}
	return resp.Text(), nil
}

// defineTools registers the tool set so the model sees the schemas. The
// handlers are sentinels: with tool requests returned to the loop they
// never run.
func defineTools(g *genkit.Genkit) []ai.ToolRef {
	lookup := genkit.DefineTool(
		g,
		ToolInternalLookup,
		"Look up the user's own tracked job applications by company name. "+
			"Use this FIRST when the user mentions a company or application they applied for; "+
			"it returns the actual job title, company, location, and status, not a guess.",
		func(_ *ai.ToolContext, _ InternalLookupCall) (string, error) {
			return "", errToolNotDirect
		},
	)

	web := genkit.DefineTool(
		g,
		ToolWebSearch,
		"General web search for career information: company details, interview processes, "+
			"career advice, and job market trends.",
		func(_ *ai.ToolContext, _ WebSearchCall) (string, error) {
			return "", errToolNotDirect
		},
	)

	jobSites := genkit.DefineTool(
		g,
		ToolJobSiteSearch,
		"Search job platforms like Glassdoor, LinkedIn, and levels.fyi for company reviews, "+
			"salary data, interview experiences, and job listings.",
		func(_ *ai.ToolContext, _ JobSiteSearchCall) (string, error) {
			return "", errToolNotDirect
		},
	)

	salary := genkit.DefineTool(
		g,
		ToolSalaryAnalysis,
		"Deep salary analysis for a specific role and company, personalized to the user's "+
			"skills and experience. Use for any question about expected salary, negotiation, "+
			"or fair compensation. If the user mentioned a specific application, call "+
			ToolInternalLookup+" first to get the actual job title.",
		func(_ *ai.ToolContext, _ SalaryAnalysisCall) (string, error) {
			return "", errToolNotDirect
		},
	)

	compare := genkit.DefineTool(
		g,
		ToolCompareCompanies,
		"Compare up to four companies on salary, work-life balance, growth, interview "+
			"process, and culture. Use when the user is deciding between offers or employers.",
		func(_ *ai.ToolContext, _ CompareCompaniesCall) (string, error) {
			return "", errToolNotDirect
		},
	)

	return []ai.ToolRef{lookup, web, jobSites, salary, compare}
}

// GenkitGenerator is the production Generator for the salary and
// comparison reasoning calls.
type GenkitGenerator struct {
	g         *genkit.Genkit
	modelName string
	genConfig map[string]any
}

// NewGenkitGenerator builds a generator bound to the configured model.
func NewGenkitGenerator(g *genkit.Genkit, cfg *config.Config) (*GenkitGenerator, error) {
	if g == nil {
		return nil, fmt.Errorf("genkit instance is required")
	}
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	return &GenkitGenerator{
		g:         g,
		modelName: cfg.FullModelName(),
		genConfig: map[string]any{
			"temperature":     cfg.Temperature,
			"maxOutputTokens": cfg.MaxTokens,
		},
	}, nil
}

// Generate runs one system+prompt call and returns the text.
func (r *GenkitGenerator) Generate(ctx context.Context, system, prompt string) (string, error) {
	resp, err := genkit.Generate(ctx, r.g,
		ai.WithModelName(r.modelName),
		ai.WithSystem(system),
		ai.WithPrompt(prompt),
		ai.WithConfig(r.genConfig),
	)
	if err != nil {
		return "", fmt.Errorf("generation: %w", err)
	}
	return resp.Text(), nil
}

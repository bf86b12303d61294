// Package agent runs the bounded planning loop: an LLM plans, tool calls
// are executed concurrently, results are fed back, until the model answers
// directly or the iteration ceiling forces a final synthesis.
//
// The loop never returns an error to the caller. Planning failures and an
// exhausted ceiling both degrade to fallback answers, because the user is
// mid-conversation and a stack trace helps nobody there.
package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/firebase/genkit/go/ai"
	"golang.org/x/sync/errgroup"

	"github.com/interviewvault/vault/internal/log"
)

// defaultMaxIterations bounds the planning loop when the caller passes no
// explicit ceiling.
const defaultMaxIterations = 3

// Fallback answers. The first covers planning failures, the second covers
// a model that produced no usable text.
const (
	planningFallback = "I encountered an error while processing your request. Please try again."
	emptyFallback    = "I couldn't generate a response. Please try again."
)

// Planner is the loop's view of the LLM. Plan runs one planning call with
// tool definitions bound; Synthesize runs one final call without tools.
type Planner interface {
	Plan(ctx context.Context, messages []*ai.Message) (*ai.ModelResponse, error)
	Synthesize(ctx context.Context, messages []*ai.Message) (string, error)
}

// Agent is the planning loop. Safe for concurrent use; all per-request
// state lives in Run.
type Agent struct {
	planner       Planner
	toolkit       *Toolkit
	maxIterations int
	logger        log.Logger
}

// New creates an agent. maxIterations <= 0 selects the default ceiling.
func New(planner Planner, toolkit *Toolkit, maxIterations int, logger log.Logger) (*Agent, error) {
	if planner == nil {
		return nil, fmt.Errorf("planner is required")
	}
	if toolkit == nil {
		return nil, fmt.Errorf("toolkit is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if maxIterations <= 0 {
		maxIterations = defaultMaxIterations
	}

	return &Agent{
		planner:       planner,
		toolkit:       toolkit,
		maxIterations: maxIterations,
		logger:        logger,
	}, nil
}

// Run answers one request. The outcome always carries an answer; failures
// surface as fallback text plus whatever citations were gathered.
func (a *Agent) Run(ctx context.Context, req Request) Outcome {
	st := newState(systemPrompt(req, time.Now()), req)

	for st.iteration < a.maxIterations {
		st.iteration++

		resp, err := a.planner.Plan(ctx, st.messages)
		if err != nil {
			a.logger.Error("planning call failed", "iteration", st.iteration, "error", err)
			return a.outcome(st, a.salvage(st))
		}

		requests := resp.ToolRequests()
		if len(requests) == 0 {
			answer := strings.TrimSpace(resp.Text())
			if answer == "" {
				a.logger.Warn("planner returned empty answer", "iteration", st.iteration)
				answer = emptyFallback
			}
			if len(st.usedTools) == 0 {
				st.steps = append(st.steps, "Provided direct answer (no tools needed)")
			} else {
				st.steps = append(st.steps, "Composed final answer from tool results")
			}
			a.logger.Debug("direct answer", "iteration", st.iteration, "tools_used", len(st.usedTools))
			return a.outcome(st, answer)
		}

		st.messages = append(st.messages, resp.Message)
		a.executeAll(ctx, req, st, requests)
	}

	// Ceiling hit: one synthesis pass over everything gathered so far,
	// without tools, so the model cannot loop further.
	a.logger.Debug("iteration ceiling reached, synthesizing", "iterations", st.iteration)
	st.steps = append(st.steps, "Iteration limit reached, synthesizing final answer")
	answer, err := a.planner.Synthesize(ctx, st.messages)
	if err != nil {
		a.logger.Error("synthesis call failed", "error", err)
		return a.outcome(st, a.salvage(st))
	}
	answer = strings.TrimSpace(answer)
	if answer == "" {
		answer = emptyFallback
	}
	return a.outcome(st, answer)
}

// executeAll runs every tool request concurrently and appends the
// responses in issue order, so transcripts are deterministic regardless
// of which search returns first.
func (a *Agent) executeAll(ctx context.Context, req Request, st *state, requests []*ai.ToolRequest) {
	results := make([]Result, len(requests))

	g, gctx := errgroup.WithContext(ctx)
	for i, tr := range requests {
		g.Go(func() error {
			results[i] = a.toolkit.Execute(gctx, req, tr)
			return nil
		})
	}
	_ = g.Wait()

	for _, tr := range requests {
		st.steps = append(st.steps, "Decided to use: "+tr.Name)
	}
	for _, res := range results {
		st.usedTools = append(st.usedTools, res.Name)
		st.steps = append(st.steps, "Tool result received: "+res.Name)
		st.toolOutputs = append(st.toolOutputs, res.Output)
		st.citations = append(st.citations, res.Citations...)
		st.messages = append(st.messages, &ai.Message{
			Role: ai.RoleTool,
			Content: []*ai.Part{ai.NewToolResponsePart(&ai.ToolResponse{
				Name:   res.Name,
				Ref:    res.Ref,
				Output: res.Output,
			})},
		})
	}
}

// salvage builds a best-effort answer from tool results already collected
// when a model call fails mid-loop. With nothing collected it falls back
// to the generic apology.
func (a *Agent) salvage(st *state) string {
	if len(st.toolOutputs) == 0 {
		return planningFallback
	}
	st.steps = append(st.steps, "Recovered with a summary of collected tool results")
	return "I ran into a problem while finishing my reasoning, but here is what I found so far:\n\n" +
		strings.Join(st.toolOutputs, "\n\n")
}

func (a *Agent) outcome(st *state, answer string) Outcome {
	return Outcome{
		Answer:     answer,
		Citations:  st.citations,
		Iterations: st.iteration,
		UsedTools:  st.usedTools,
		Steps:      st.steps,
	}
}

// Package chat orchestrates one conversational turn: load the user's
// data, extract their profile, retrieve context, run the agent loop, and
// assemble the final response.
package chat

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/firebase/genkit/go/ai"
	"github.com/google/uuid"

	"github.com/interviewvault/vault/internal/agent"
	"github.com/interviewvault/vault/internal/log"
	"github.com/interviewvault/vault/internal/profile"
	"github.com/interviewvault/vault/internal/retrieval"
)

// Fetcher loads a user's applications and resume. Implementations decide
// where that data lives; the chat service only needs it per turn.
type Fetcher interface {
	Fetch(ctx context.Context, userID string) (retrieval.UserData, error)
}

// Retriever is the chat service's view of the retrieval layer.
type Retriever interface {
	UserContext(ctx context.Context, data retrieval.UserData, query string, topK int) string
	Invalidate(userID string)
}

// Runner is the chat service's view of the agent loop.
type Runner interface {
	Run(ctx context.Context, req agent.Request) agent.Outcome
}

// Request is one user turn.
type Request struct {
	// UserID is empty for guests.
	UserID string

	// UserName is the display name for greetings.
	UserName string

	// ConversationID groups turns; a new one is minted when empty.
	ConversationID string

	// Message is the user's question.
	Message string

	// History holds prior turns of this conversation, oldest first.
	History []*ai.Message

	// MessageCount is how many messages the user sent before this one.
	// The first turn gets the "Hi" greeting, later turns get "Sure".
	MessageCount int
}

// Response is the assembled answer for one turn.
type Response struct {
	ConversationID string           `json:"conversation_id"`
	Answer         string           `json:"answer"`
	Citations      []agent.Citation `json:"citations,omitempty"`
	Iterations     int              `json:"iterations"`
	UsedTools      []string         `json:"used_tools,omitempty"`
	ReasoningSteps []string         `json:"reasoning_steps,omitempty"`
}

// Service answers conversational turns. Safe for concurrent use.
type Service struct {
	retriever Retriever
	runner    Runner
	fetcher   Fetcher
	refiner   profile.Refiner
	topK      int
	logger    log.Logger
}

// New wires the chat service. fetcher and refiner may be nil: without a
// fetcher every user is treated as having no stored data, and without a
// refiner profiles stay at the regex stage.
func New(retriever Retriever, runner Runner, fetcher Fetcher, refiner profile.Refiner, topK int, logger log.Logger) (*Service, error) {
	if retriever == nil {
		return nil, fmt.Errorf("retriever is required")
	}
	if runner == nil {
		return nil, fmt.Errorf("agent runner is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if topK <= 0 {
		topK = retrieval.DefaultTopK
	}

	return &Service{
		retriever: retriever,
		runner:    runner,
		fetcher:   fetcher,
		refiner:   refiner,
		topK:      topK,
		logger:    logger,
	}, nil
}

// Answer runs one full turn. A data fetch failure degrades to an
// empty-data conversation rather than erroring; only an empty message is
// rejected.
func (s *Service) Answer(ctx context.Context, req Request) (*Response, error) {
	if strings.TrimSpace(req.Message) == "" {
		return nil, fmt.Errorf("message is required")
	}

	conversationID := req.ConversationID
	if conversationID == "" {
		conversationID = uuid.NewString()
	}

	authenticated := req.UserID != ""
	data := retrieval.UserData{UserID: req.UserID}
	if authenticated && s.fetcher != nil {
		fetched, err := s.fetcher.Fetch(ctx, req.UserID)
		if err != nil {
			s.logger.Warn("user data fetch failed, continuing without data",
				"user_id", req.UserID, "error", err)
		} else {
			data = fetched
			data.UserID = req.UserID
		}
	}

	p := profile.Extract(data.ResumeText)
	profile.Refine(ctx, &p, s.refiner, data.ResumeText, data.Applications)

	retrieved := s.retriever.UserContext(ctx, data, req.Message, s.topK)

	outcome := s.runner.Run(ctx, agent.Request{
		Query:            req.Message,
		History:          req.History,
		User:             data,
		Profile:          p,
		UserName:         req.UserName,
		RetrievedContext: retrieved,
	})

	s.logger.Info("turn answered",
		"conversation_id", conversationID,
		"authenticated", authenticated,
		"iterations", outcome.Iterations,
		"tools", outcome.UsedTools)

	return &Response{
		ConversationID: conversationID,
		Answer:         assemble(outcome.Answer, req.UserName, authenticated, req.MessageCount == 0),
		Citations:      filterCitations(outcome.Citations),
		Iterations:     outcome.Iterations,
		UsedTools:      outcome.UsedTools,
		ReasoningSteps: append(startSteps(req.Message, p), outcome.Steps...),
	}, nil
}

// startSteps seeds the reasoning trace with the query and the extracted
// profile, so the user sees what the agent knew going in.
func startSteps(query string, p profile.Profile) []string {
	const queryCap = 60
	if len(query) > queryCap {
		cut := queryCap
		for cut > 0 && !utf8.RuneStart(query[cut]) {
			cut--
		}
		query = query[:cut] + "..."
	}

	skills := "Not detected"
	if len(p.Skills) > 0 {
		shown := p.Skills
		if len(shown) > 5 {
			shown = shown[:5]
		}
		skills = strings.Join(shown, ", ")
	}
	roles := "Not detected"
	if len(p.JobTitles) > 0 {
		roles = strings.Join(p.JobTitles, ", ")
	}
	location := p.Location
	if location == "" {
		location = "Not detected"
	}

	return []string{
		"Agent started: " + query,
		fmt.Sprintf("Experience: %d years", p.ExperienceYears),
		"Skills: " + skills,
		"Roles: " + roles,
		"Location: " + location,
	}
}

// Invalidate drops the user's cached index. Call after any write to
// their applications or resume.
func (s *Service) Invalidate(userID string) {
	s.retriever.Invalidate(userID)
}

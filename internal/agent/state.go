package agent

import (
	"github.com/firebase/genkit/go/ai"

	"github.com/interviewvault/vault/internal/profile"
	"github.com/interviewvault/vault/internal/retrieval"
)

// Citation is a source reference collected from tool results.
type Citation struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// Request is one question for the agent.
type Request struct {
	// Query is the user's message.
	Query string

	// History holds prior conversation messages, oldest first.
	History []*ai.Message

	// User is the requester's retrievable data (empty for guests).
	User retrieval.UserData

	// Profile is the extracted career profile.
	Profile profile.Profile

	// UserName is the display name used in the system prompt.
	UserName string

	// RetrievedContext is the formatted retrieval block, possibly empty.
	RetrievedContext string
}

// Outcome is the agent's final product for one request. Steps is the
// loop's reasoning trace in decision order, surfaced to the user so they
// can see how the answer was produced.
type Outcome struct {
	Answer     string
	Citations  []Citation
	Iterations int
	UsedTools  []string
	Steps      []string
}

// state carries the loop's working data. It is an explicit value owned by
// one Run call; nothing here is shared between requests.
type state struct {
	messages    []*ai.Message
	citations   []Citation
	usedTools   []string
	steps       []string
	toolOutputs []string
	iteration   int
}

func newState(systemPrompt string, req Request) *state {
	msgs := make([]*ai.Message, 0, len(req.History)+2)
	msgs = append(msgs, &ai.Message{
		Role:    ai.RoleSystem,
		Content: []*ai.Part{ai.NewTextPart(systemPrompt)},
	})
	msgs = append(msgs, req.History...)
	msgs = append(msgs, ai.NewUserMessage(ai.NewTextPart(req.Query)))

	return &state{messages: msgs}
}

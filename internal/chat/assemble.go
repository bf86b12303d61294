package chat

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/interviewvault/vault/internal/agent"
)

// maxCitations caps the citation list shown with an answer.
const maxCitations = 5

// greetingRe matches a leading greeting the model produced on its own,
// like "Hi Priya," or "Sure **Priya**!". It is stripped so the mandatory
// greeting is never doubled.
var greetingRe = regexp.MustCompile(`(?is)^\s*(?:hi|hello|hey|sure|absolutely|greetings|welcome)\b.*?[,.!]\s*`)

// guestNudge is appended to guest answers that do not already point at
// signing up.
const guestNudge = "\n\nWant to unlock more features? Sign up or log in to access " +
	"personalized job tracking, AI-powered skill analysis, and interview preparation tools!"

// careerKeywords marks a citation as relevant when any of them appears in
// its URL or title. Web searches pick up generic news and health articles;
// those never cite well in a career answer.
var careerKeywords = []string{
	"salary", "job", "career", "hire", "interview", "resume",
	"developer", "engineer", "analyst", "manager", "role",
	"company", "work", "employ", "pay", "compensation", "ctc",
	"lpa", "package", "offer", "position", "talent", "recruit",
}

// assemble applies the greeting rules. Authenticated users always get the
// mandatory greeting with their bolded name: "Hi" on the first message of
// a conversation, "Sure" afterwards. Guests get no greeting but a signup
// nudge when the answer lacks one.
func assemble(answer, userName string, authenticated, firstMessage bool) string {
	if authenticated && userName != "" {
		clean := strings.TrimSpace(greetingRe.ReplaceAllString(strings.TrimSpace(answer), ""))
		prefix := "Sure"
		if firstMessage {
			prefix = "Hi"
		}
		return fmt.Sprintf("%s **%s**,\n\n%s", prefix, userName, clean)
	}

	lower := strings.ToLower(answer)
	if !strings.Contains(lower, "sign up") && !strings.Contains(lower, "log in") {
		answer += guestNudge
	}
	return answer
}

// filterCitations drops citations without a URL, deduplicates by URL
// case-insensitively, keeps only career-relevant sources, and caps the
// list.
func filterCitations(citations []agent.Citation) []agent.Citation {
	seen := make(map[string]struct{})
	var out []agent.Citation
	for _, c := range citations {
		url := strings.ToLower(c.URL)
		if url == "" {
			continue
		}
		if _, dup := seen[url]; dup {
			continue
		}
		if !careerRelevant(c) {
			continue
		}
		seen[url] = struct{}{}
		out = append(out, c)
		if len(out) == maxCitations {
			break
		}
	}
	return out
}

func careerRelevant(c agent.Citation) bool {
	combined := strings.ToLower(c.URL) + " " + strings.ToLower(c.Title)
	for _, kw := range careerKeywords {
		if strings.Contains(combined, kw) {
			return true
		}
	}
	return false
}

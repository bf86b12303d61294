package app

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/interviewvault/vault/internal/agent"
	"github.com/interviewvault/vault/internal/log"
)

// llmRefiner is the production profile.Refiner: two small JSON-only LLM
// calls. Parsing is defensive; any failure is returned to the caller,
// which keeps the regex-stage profile.
type llmRefiner struct {
	generator agent.Generator
	logger    log.Logger
}

func newLLMRefiner(generator agent.Generator, logger log.Logger) *llmRefiner {
	return &llmRefiner{generator: generator, logger: logger}
}

const locationSystem = "You are a location extractor. Respond ONLY with valid JSON."

func (r *llmRefiner) Location(ctx context.Context, text string) (string, []string, error) {
	if len(text) > 1500 {
		text = text[:1500]
	}

	prompt := fmt.Sprintf(`Analyze the following text to extract the user's location.

TEXT:
%s

Respond with ONLY a JSON object:
{"country": "India", "cities": ["Bangalore", "Mumbai"]}

Or if unknown:
{"country": null, "cities": []}`, text)

	out, err := r.generator.Generate(ctx, locationSystem, prompt)
	if err != nil {
		return "", nil, fmt.Errorf("location refinement: %w", err)
	}

	var parsed struct {
		Country string   `json:"country"`
		Cities  []string `json:"cities"`
	}
	if err := json.Unmarshal([]byte(stripJSONFences(out)), &parsed); err != nil {
		return "", nil, fmt.Errorf("parsing location response: %w", err)
	}
	return parsed.Country, parsed.Cities, nil
}

const rolesSystem = "You are a career analyst. Infer job roles from skills and responsibilities, " +
	"NOT from job titles. Respond ONLY with valid JSON."

func (r *llmRefiner) Roles(ctx context.Context, text string, skills []string) (string, []string, error) {
	if len(text) > 2000 {
		text = text[:2000]
	}
	skillsStr := "Not specified"
	if len(skills) > 0 {
		if len(skills) > 10 {
			skills = skills[:10]
		}
		skillsStr = strings.Join(skills, ", ")
	}

	prompt := fmt.Sprintf(`Analyze this resume text and infer the user's ACTUAL job roles based on their skills and responsibilities.

RESUME TEXT:
%s

DETECTED SKILLS: %s

IMPORTANT:
- Do NOT use the job title mentioned in the resume literally
- Analyze the RESPONSIBILITIES and SKILLS to determine what roles fit best
- Provide market-relevant job titles that match their actual work

Respond with ONLY a JSON object:
{"primary_role": "Senior Power BI Developer", "matching_roles": ["Senior BI Developer", "Senior Data Analyst", "Business Intelligence Engineer"]}

The matching_roles should be 4-5 roles that match their actual skills and experience.`, text, skillsStr)

	out, err := r.generator.Generate(ctx, rolesSystem, prompt)
	if err != nil {
		return "", nil, fmt.Errorf("role refinement: %w", err)
	}

	var parsed struct {
		PrimaryRole   string   `json:"primary_role"`
		MatchingRoles []string `json:"matching_roles"`
	}
	if err := json.Unmarshal([]byte(stripJSONFences(out)), &parsed); err != nil {
		return "", nil, fmt.Errorf("parsing roles response: %w", err)
	}
	if parsed.PrimaryRole == "" && len(parsed.MatchingRoles) > 0 {
		parsed.PrimaryRole = parsed.MatchingRoles[0]
	}
	return parsed.PrimaryRole, parsed.MatchingRoles, nil
}

// stripJSONFences tolerates models that wrap JSON in markdown code
// fences despite the JSON-only instruction.
func stripJSONFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimPrefix(s, "json")
		if i := strings.LastIndex(s, "```"); i >= 0 {
			s = s[:i]
		}
	}
	return strings.TrimSpace(s)
}

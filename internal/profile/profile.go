// Package profile extracts a user's career profile from resume text.
//
// Extraction is two-stage. Stage one is deterministic: regexes pull years
// of experience and candidate skills straight from the text. Stage two
// refines location and roles through an LLM behind the Refiner interface;
// any refinement failure degrades to the stage-one result, never to an
// error the caller has to handle.
package profile

import (
	"context"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/interviewvault/vault/internal/chunk"
)

// maxSkills caps the ranked skill list.
const maxSkills = 15

// Profile is the extracted career context fed to the agent's system
// prompt and the salary tools.
type Profile struct {
	ExperienceYears int
	Skills          []string
	JobTitle        string
	JobTitles       []string
	Location        string
	Cities          []string
}

// Refiner upgrades a regex-extracted profile using an LLM. Implementations
// must return JSON-derived values or an error; the caller treats every
// error as "keep the stage-one result".
type Refiner interface {
	// Location infers the user's country and cities from resume and
	// application text.
	Location(ctx context.Context, text string) (country string, cities []string, err error)

	// Roles infers market-relevant job titles from resume responsibilities
	// and detected skills, not from literal resume titles.
	Roles(ctx context.Context, text string, skills []string) (primary string, roles []string, err error)
}

var expPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(\d+)\+?\s*years?\s*(?:of\s*)?(?:experience|exp)`),
	regexp.MustCompile(`(?:experience|exp)(?:\s*:)?\s*(\d+)\+?\s*years?`),
	regexp.MustCompile(`(\d+)\s*years?\s*(?:in|of)\s*`),
}

var (
	acronymPattern   = regexp.MustCompile(`\b[A-Z]{2,6}\b`)
	camelCasePattern = regexp.MustCompile(`\b[A-Z][a-z]+[A-Z][a-zA-Z]*\b`)
	skillsHeaderRe   = regexp.MustCompile(`(?i)(?:skills?|technologies?|tools?|expertise)\s*[:\-]?\s*`)
	skillSplitRe     = regexp.MustCompile("[,;|•·\n]+")
)

// stopWords excludes common English tokens that the acronym pattern picks
// up in prose.
var stopWords = map[string]struct{}{
	"THE": {}, "AND": {}, "FOR": {}, "WITH": {}, "FROM": {}, "THAT": {},
	"THIS": {}, "ARE": {}, "WAS": {}, "HAS": {}, "HAVE": {}, "BEEN": {},
	"WERE": {}, "WILL": {}, "CAN": {}, "ALL": {}, "ANY": {}, "NOT": {},
	"BUT": {}, "USE": {}, "USED": {}, "USING": {}, "WORK": {}, "YEAR": {},
	"YEARS": {}, "NEW": {}, "ALSO": {}, "MORE": {}, "TEAM": {},
}

// Extract runs the deterministic stage over resume text. It never fails;
// absent signals produce zero values ("Professional", no skills fallback).
func Extract(resumeText string) Profile {
	p := Profile{
		JobTitle: "Professional",
		Skills:   []string{},
	}
	if strings.TrimSpace(resumeText) == "" {
		return p
	}

	p.ExperienceYears = extractYears(resumeText)
	p.Skills = extractSkills(resumeText)
	return p
}

// Refine runs the LLM stage in place. Each refinement failure keeps the
// corresponding stage-one values. A nil refiner is a no-op.
func Refine(ctx context.Context, p *Profile, r Refiner, resumeText string, apps []chunk.Application) {
	if r == nil || p == nil {
		return
	}

	if text := locationText(resumeText, apps); text != "" {
		if country, cities, err := r.Location(ctx, text); err == nil && country != "" {
			p.Location = country
			p.Cities = cities
		}
	}

	if text := roleText(resumeText); text != "" {
		if primary, roles, err := r.Roles(ctx, text, p.Skills); err == nil && primary != "" {
			p.JobTitle = primary
			if len(roles) > 5 {
				roles = roles[:5]
			}
			p.JobTitles = roles
		}
	}
}

// Qualifier maps years of experience to the search qualifier appended to
// job-site queries.
func Qualifier(years int) string {
	switch {
	case years >= 10:
		return "senior experienced professional lateral hire"
	case years >= 5:
		return "experienced professional lateral hire mid-senior level"
	case years >= 2:
		return "experienced professional lateral hire"
	default:
		return "entry level fresher"
	}
}

func extractYears(resumeText string) int {
	lower := strings.ToLower(resumeText)
	for _, pattern := range expPatterns {
		if m := pattern.FindStringSubmatch(lower); m != nil {
			if years, err := strconv.Atoi(m[1]); err == nil {
				return years
			}
		}
	}
	return 0
}

func extractSkills(resumeText string) []string {
	var candidates []string
	for _, a := range acronymPattern.FindAllString(resumeText, -1) {
		candidates = append(candidates, strings.ToUpper(a))
	}
	candidates = append(candidates, camelCasePattern.FindAllString(resumeText, -1)...)
	candidates = append(candidates, skillsSectionTokens(resumeText)...)

	// Frequency-rank with first-seen order breaking ties, so repeated runs
	// over the same resume agree.
	counts := make(map[string]int)
	firstSeen := make(map[string]int)
	for i, c := range candidates {
		c = strings.TrimSpace(c)
		if len(c) < 2 {
			continue
		}
		if _, stop := stopWords[strings.ToUpper(c)]; stop {
			continue
		}
		if _, ok := counts[c]; !ok {
			firstSeen[c] = i
		}
		counts[c]++
	}

	skills := make([]string, 0, len(counts))
	for s := range counts {
		skills = append(skills, s)
	}
	sort.Slice(skills, func(a, b int) bool {
		if counts[skills[a]] != counts[skills[b]] {
			return counts[skills[a]] > counts[skills[b]]
		}
		return firstSeen[skills[a]] < firstSeen[skills[b]]
	})

	if len(skills) > maxSkills {
		skills = skills[:maxSkills]
	}
	if len(skills) == 0 {
		return []string{"Technical Skills"}
	}
	return skills
}

// skillsSectionTokens finds a "Skills:"-style header and tokenizes the
// text through its continuation lines. A continuation line is one that
// does not open with an uppercase letter (those start new sections).
func skillsSectionTokens(resumeText string) []string {
	loc := skillsHeaderRe.FindStringIndex(resumeText)
	if loc == nil {
		return nil
	}

	rest := resumeText[loc[1]:]
	lines := strings.Split(rest, "\n")
	section := lines[0]
	for _, line := range lines[1:] {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			break
		}
		first := rune(trimmed[0])
		if first >= 'A' && first <= 'Z' {
			break
		}
		section += "\n" + line
	}

	var tokens []string
	for _, tok := range skillSplitRe.Split(section, -1) {
		tok = strings.TrimSpace(tok)
		if len(tok) > 1 && len(tok) < 30 {
			tokens = append(tokens, tok)
		}
	}
	return tokens
}

// locationText gathers the text the location refiner sees: leading resume
// text plus locations from the first few applications.
func locationText(resumeText string, apps []chunk.Application) string {
	var b strings.Builder
	if resumeText != "" {
		if len(resumeText) > 2000 {
			resumeText = resumeText[:2000]
		}
		b.WriteString(resumeText)
		b.WriteString(" ")
	}
	for i, app := range apps {
		if i >= 5 {
			break
		}
		if app.Location != "" {
			b.WriteString(app.Location)
			b.WriteString(" ")
		}
	}
	return strings.TrimSpace(b.String())
}

func roleText(resumeText string) string {
	if len(resumeText) > 3000 {
		return resumeText[:3000]
	}
	return strings.TrimSpace(resumeText)
}

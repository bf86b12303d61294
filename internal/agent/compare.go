package agent

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"
)

// maxCompareCompanies caps a single comparison.
const maxCompareCompanies = 4

// compareMaxResults keeps per-company searches small; four companies at
// three results each is already twelve snippets for one prompt.
const compareMaxResults = 3

var compareSites = []string{"glassdoor.com", "ambitionbox.com", "linkedin.com"}

var defaultAspects = []string{
	"salary", "work-life balance", "growth opportunities", "interview process", "culture",
}

const compareSystem = "You are a career advisor. " +
	"Provide balanced, data-driven company comparisons. Use ratings and tables for clarity."

// compareCompanies runs one job-site search per company concurrently,
// then a single synthesis call over the gathered data.
func (t *Toolkit) compareCompanies(ctx context.Context, req Request, call CompareCompaniesCall) Result {
	companies := call.Companies
	if len(companies) == 0 {
		return Result{Output: "Company comparison needs at least one company name."}
	}
	if len(companies) > maxCompareCompanies {
		companies = companies[:maxCompareCompanies]
	}

	aspects := call.Aspects
	if len(aspects) == 0 {
		aspects = defaultAspects
	}

	role := req.Profile.JobTitle
	if role == "" {
		role = "Professional"
	}
	location := req.Profile.Location
	if location == "" {
		location = defaultMarket
	}

	// Fan out one search per company; sections keeps issue order so the
	// prompt lists companies as the planner named them.
	queryAspects := strings.Join(aspects[:min(3, len(aspects))], " ")
	sections := make([]string, len(companies))
	citationsPer := make([][]Citation, len(companies))

	g, gctx := errgroup.WithContext(ctx)
	for i, company := range companies {
		g.Go(func() error {
			query := fmt.Sprintf("%s %s %s %s employee review", company, role, location, queryAspects)
			resp, err := t.search.SearchJobSites(gctx, query, compareSites, compareMaxResults)
			if err != nil {
				t.logger.Warn("company comparison search failed", "company", company, "error", err)
			}

			data, cites := searchDataLines(resp, 200)
			if data == "" {
				data = "Limited data available"
			}
			sections[i] = fmt.Sprintf("=== %s ===\n%s", strings.ToUpper(company), data)
			citationsPer[i] = cites
			return nil
		})
	}
	_ = g.Wait()

	var citations []Citation
	for _, cites := range citationsPer {
		citations = append(citations, cites...)
	}

	prompt := comparePrompt(req, companies, aspects, role, location, sections)

	comparison, err := t.generator.Generate(ctx, compareSystem, prompt)
	if err != nil {
		t.logger.Warn("company comparison reasoning failed", "companies", companies, "error", err)
		return Result{Output: fmt.Sprintf("Error comparing companies: %v", err)}
	}

	return Result{Output: comparison, Citations: citations}
}

func comparePrompt(req Request, companies, aspects []string, role, location string, sections []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are a career advisor helping a %d-year experienced professional in %s compare companies.\n\n",
		req.Profile.ExperienceYears, location)

	b.WriteString("USER PROFILE:\n")
	fmt.Fprintf(&b, "- Experience: %d years\n", req.Profile.ExperienceYears)
	fmt.Fprintf(&b, "- Skills: %s\n", strings.Join(firstN(req.Profile.Skills, 10), ", "))
	fmt.Fprintf(&b, "- Target Role: %s\n\n", role)

	fmt.Fprintf(&b, "COMPANIES TO COMPARE: %s\n", strings.Join(companies, ", "))
	fmt.Fprintf(&b, "COMPARISON ASPECTS: %s\n\n", strings.Join(aspects, ", "))

	b.WriteString("DATA COLLECTED:\n")
	b.WriteString(strings.Join(sections, "\n\n"))
	b.WriteString("\n\n")

	b.WriteString("Provide a COMPREHENSIVE comparison in this format:\n\n")
	fmt.Fprintf(&b, "**COMPANY COMPARISON: %s**\n\n", strings.Join(firstN(companies, 3), " vs "))
	b.WriteString("**QUICK COMPARISON TABLE:**\n")
	fmt.Fprintf(&b, "A markdown table with one column per company (%s) and rows for: ", strings.Join(companies, ", "))
	b.WriteString("Salary Range, Work-Life Balance, Growth Opportunities, Interview Difficulty, Culture Rating.\n\n")
	fmt.Fprintf(&b, "**SALARY COMPARISON (For %s, %d YOE):**\n", role, req.Profile.ExperienceYears)
	b.WriteString("[Detailed salary ranges for each company]\n\n")
	b.WriteString("**COMPANY-BY-COMPANY ANALYSIS:**\n")
	b.WriteString("[Brief pros and cons for each company]\n\n")
	b.WriteString("**RECOMMENDATION FOR YOUR PROFILE:**\n")
	fmt.Fprintf(&b, "Based on the user's skills (%s) and experience:\n", strings.Join(firstN(req.Profile.Skills, 5), ", "))
	b.WriteString("[Which company is the best fit and why]\n\n")
	b.WriteString("**DECISION FACTORS:**\n")
	b.WriteString("[Key points to consider for this decision]")

	return b.String()
}

func firstN[T any](s []T, n int) []T {
	if len(s) > n {
		return s[:n]
	}
	return s
}

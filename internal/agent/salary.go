package agent

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/interviewvault/vault/internal/config"
	"github.com/interviewvault/vault/internal/profile"
	"github.com/interviewvault/vault/internal/websearch"
)

// defaultMarket anchors salary analysis when neither the call nor the
// profile names a location.
const defaultMarket = "India"

// Site filters for the two salary searches. The market search favors
// aggregate data sources; the company search favors review sites.
var (
	marketSalarySites  = []string{"glassdoor.com", "levels.fyi", "ambitionbox.com", "payscale.com"}
	companySalarySites = []string{"glassdoor.com", "linkedin.com", "levels.fyi", "ambitionbox.com"}
)

const salarySystem = "You are an expert salary negotiation consultant. " +
	"Provide detailed, data-driven salary analysis. Always use specific numbers and percentages. " +
	"Be comprehensive but structured."

// salaryAnalysis runs two concurrent job-site searches (market-wide and
// company-specific), then a single reasoning call seeded with the salary
// policy table.
func (t *Toolkit) salaryAnalysis(ctx context.Context, req Request, call SalaryAnalysisCall) Result {
	if call.Role == "" || call.Company == "" {
		return Result{Output: "Salary analysis needs both a role and a company."}
	}

	years := req.Profile.ExperienceYears
	if call.YearsExperience > 0 {
		years = call.YearsExperience
	}
	location := call.Location
	if location == "" {
		location = req.Profile.Location
	}
	if location == "" {
		location = defaultMarket
	}

	marketQuery := fmt.Sprintf("%s salary %s %d years experience %s",
		call.Role, location, years, profile.Qualifier(years))
	companyQuery := fmt.Sprintf("%s %s salary compensation package benefits %s",
		call.Company, call.Role, location)

	var marketResp, companyResp *websearch.Response
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		r, err := t.search.SearchJobSites(gctx, marketQuery, marketSalarySites, jobSiteMaxResults)
		if err != nil {
			t.logger.Warn("market salary search failed", "error", err)
			return nil
		}
		marketResp = r
		return nil
	})
	g.Go(func() error {
		r, err := t.search.SearchJobSites(gctx, companyQuery, companySalarySites, jobSiteMaxResults)
		if err != nil {
			t.logger.Warn("company salary search failed", "error", err)
			return nil
		}
		companyResp = r
		return nil
	})
	_ = g.Wait()

	marketData, marketCites := searchDataLines(marketResp, 300)
	companyData, companyCites := searchDataLines(companyResp, 300)
	if marketData == "" {
		marketData = "No market data found"
	}
	if companyData == "" {
		companyData = "No company-specific data found"
	}

	prompt := salaryPrompt(call, req.Profile, years, location, marketData, companyData, t.policy)

	analysis, err := t.generator.Generate(ctx, salarySystem, prompt)
	if err != nil {
		t.logger.Warn("salary reasoning failed", "role", call.Role, "company", call.Company, "error", err)
		return Result{Output: fmt.Sprintf("Error performing salary analysis: %v", err)}
	}

	return Result{
		Output:    analysis,
		Citations: append(marketCites, companyCites...),
	}
}

func salaryPrompt(call SalaryAnalysisCall, p profile.Profile, years int, location, marketData, companyData string, policy config.SalaryPolicy) string {
	skills := "Not extracted"
	if len(p.Skills) > 0 {
		skills = strings.Join(p.Skills, ", ")
	}
	titles := call.Role
	if len(p.JobTitles) > 0 {
		titles = strings.Join(p.JobTitles, ", ")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You are an expert salary negotiation consultant with deep knowledge of the %s job market.\n\n", location)
	b.WriteString("PERFORM A COMPREHENSIVE SALARY ANALYSIS:\n\n")

	b.WriteString("USER PROFILE (From Resume)\n")
	fmt.Fprintf(&b, "- Experience: %d years\n", years)
	fmt.Fprintf(&b, "- Skills: %s\n", skills)
	fmt.Fprintf(&b, "- Target Roles: %s\n", titles)
	fmt.Fprintf(&b, "- Location: %s\n", location)
	fmt.Fprintf(&b, "- Target Position: %s at %s\n\n", call.Role, call.Company)

	b.WriteString("MARKET SALARY DATA (From Web Search)\n")
	b.WriteString(marketData + "\n\n")
	b.WriteString("COMPANY-SPECIFIC DATA (From Web Search)\n")
	b.WriteString(companyData + "\n\n")

	if call.JobDescription != "" {
		fmt.Fprintf(&b, "JOB DESCRIPTION PROVIDED: %s\n\n", snippet(call.JobDescription, 500))
	}

	b.WriteString(policyGuidance(policy, years))

	b.WriteString("CRITICAL: Cross-check your final numbers against the MARKET DATA above.\n")
	b.WriteString("If your estimate exceeds the competitive range for this experience level at a non-top-tier company, reconsider.\n\n")

	b.WriteString("ANALYZE AND PROVIDE DETAILED OUTPUT in this format:\n\n")
	fmt.Fprintf(&b, "**SALARY ANALYSIS: %s at %s**\n\n", call.Role, call.Company)
	b.WriteString("**YOUR MARKET FITNESS SCORE:** XX/100\n")
	b.WriteString("(Based on skills match, experience level, and market demand)\n\n")
	b.WriteString("**SKILL MATCH ANALYSIS:**\n")
	b.WriteString("**Strong Match:** [Skills that match well]\n")
	b.WriteString("**Gaps:** [Any skill gaps]\n")
	b.WriteString("**Recommendation:** [How to improve]\n\n")
	fmt.Fprintf(&b, "**MARKET RATE RANGE (%s, %d YOE):**\n", location, years)
	b.WriteString("- 25th Percentile (Entry) / 50th (Market) / 75th (Competitive) / 90th (Top)\n\n")
	fmt.Fprintf(&b, "**%s ADJUSTMENT:**\n", strings.ToUpper(call.Company))
	fmt.Fprintf(&b, "[Is %s above/below/at market rate? By how much?]\n\n", call.Company)
	b.WriteString("**YOUR RECOMMENDED ASK:**\n")
	b.WriteString("- Minimum (safe floor), Target (fair ask), Stretch (with competing offers)\n\n")
	b.WriteString("**NEGOTIATION TIPS FOR YOUR PROFILE:**\n")
	fmt.Fprintf(&b, "[Three specific tips: your strengths, market conditions, %s]\n\n", call.Company)
	b.WriteString("**IMPORTANT CONSIDERATIONS:**\n")
	fmt.Fprintf(&b, "[Notes about %s, market trends, or timing]\n\n", call.Company)

	b.WriteString("FORMATTING RULES:\n")
	b.WriteString("- Bold headings and subheadings\n")
	b.WriteString("- Bold salary amounts and role titles\n")
	b.WriteString("- Do NOT bold regular description text, tips content, or explanations\n")

	return b.String()
}

// policyGuidance renders the calibration table the reasoning call must
// stay inside: per-tier baselines, company multipliers, and the
// anti-inflation rules.
func policyGuidance(policy config.SalaryPolicy, years int) string {
	var b strings.Builder
	b.WriteString("SALARY CALIBRATION - REALISTIC RANGES (DO NOT OVER-INFLATE!)\n")
	b.WriteString("Be REALISTIC, not optimistic. Use these as the BASELINE:\n\n")

	for _, band := range policy.Bands {
		if band.MaxYears == 0 {
			fmt.Fprintf(&b, "For %d+ years experience:\n", band.MinYears)
		} else {
			fmt.Fprintf(&b, "For %d-%d years experience:\n", band.MinYears, band.MaxYears)
		}
		fmt.Fprintf(&b, "- Conservative (safe floor): %s\n", band.Conservative)
		fmt.Fprintf(&b, "- Market Average (fair ask): %s\n", band.Market)
		fmt.Fprintf(&b, "- Competitive (top tier): %s\n", band.Competitive)
		fmt.Fprintf(&b, "- Exceptional (top product companies only): %s\n\n", band.Exceptional)
	}

	if band, ok := policy.BandForYears(years); ok {
		fmt.Fprintf(&b, "This user has %d YOE, so their baseline market range is %s.\n\n", years, band.Market)
	}

	if len(policy.Tiers) > 0 {
		b.WriteString("Company tier multipliers (apply to the base ranges above):\n")
		for _, tier := range policy.Tiers {
			fmt.Fprintf(&b, "- %s: %.2g-%.2gx", tier.Name, tier.MinMultiplier, tier.MaxMultiplier)
			if tier.Note != "" {
				fmt.Fprintf(&b, " (%s)", tier.Note)
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	b.WriteString("ANTI-INFLATION CHECK:\n")
	b.WriteString("- Do NOT suggest top-tier ranges for companies outside the top tier\n")
	fmt.Fprintf(&b, "- Do NOT apply all skill premiums cumulatively (max +%d%% total)\n", int(policy.MaxSkillPremium*100))
	b.WriteString("- Be conservative: better to under-promise than disappoint\n")
	b.WriteString("- The web search data should GUIDE your estimates, not inflate them\n\n")

	return b.String()
}

// searchDataLines flattens a search response into "- title: content" lines
// for a reasoning prompt, and collects citations.
func searchDataLines(resp *websearch.Response, contentCap int) (string, []Citation) {
	if resp == nil {
		return "", nil
	}

	var lines []string
	if resp.Answer != "" {
		lines = append(lines, "- Summary: "+snippet(resp.Answer, contentCap))
	}

	var citations []Citation
	for _, r := range resp.Results {
		if r.Content != "" {
			title := r.Title
			if title == "" {
				title = "N/A"
			}
			lines = append(lines, fmt.Sprintf("- %s: %s", title, snippet(r.Content, contentCap)))
		}
		if r.URL != "" {
			title := r.Title
			if title == "" {
				title = "Source"
			}
			citations = append(citations, Citation{Title: title, URL: r.URL})
		}
	}
	return strings.Join(lines, "\n"), citations
}

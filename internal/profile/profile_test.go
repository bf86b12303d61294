package profile

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/interviewvault/vault/internal/chunk"
)

func TestExtractYears(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int
	}{
		{name: "years of experience", text: "I have 6 years of experience in BI.", want: 6},
		{name: "plus suffix", text: "8+ years experience with data pipelines", want: 8},
		{name: "experience colon prefix", text: "Experience: 4 years in analytics", want: 4},
		{name: "years in domain", text: "Spent 3 years in consulting before that", want: 3},
		{name: "no signal", text: "Passionate about dashboards", want: 0},
		{name: "empty", text: "", want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Extract(tt.text)
			if got.ExperienceYears != tt.want {
				t.Errorf("ExperienceYears = %d, want %d", got.ExperienceYears, tt.want)
			}
		})
	}
}

func TestExtractSkills(t *testing.T) {
	t.Run("acronyms and camel case detected", func(t *testing.T) {
		text := "Built ETL jobs with SQL and PySpark. SQL tuning, AWS deployments."
		got := Extract(text)

		for _, want := range []string{"SQL", "ETL", "AWS", "PySpark"} {
			if !slices.Contains(got.Skills, want) {
				t.Errorf("Skills = %v, missing %q", got.Skills, want)
			}
		}
	})

	t.Run("repeated skills rank first", func(t *testing.T) {
		text := "SQL pipelines. SQL models. SQL tuning. One AWS deployment."
		got := Extract(text)
		if len(got.Skills) == 0 || got.Skills[0] != "SQL" {
			t.Errorf("Skills = %v, want SQL ranked first", got.Skills)
		}
	})

	t.Run("stop words excluded", func(t *testing.T) {
		text := "THE team AND ALL WORK WITH NEW SQL"
		got := Extract(text)
		for _, banned := range []string{"THE", "AND", "ALL", "WORK", "NEW", "TEAM", "WITH"} {
			if slices.Contains(got.Skills, banned) {
				t.Errorf("Skills = %v, must not contain stop word %q", got.Skills, banned)
			}
		}
		if !slices.Contains(got.Skills, "SQL") {
			t.Errorf("Skills = %v, want SQL", got.Skills)
		}
	})

	t.Run("skills section tokens extracted", func(t *testing.T) {
		text := "Skills: Power BI, Tableau, data modeling\nmore dashboards and reports\nEDUCATION\nSome school"
		got := Extract(text)
		if !slices.Contains(got.Skills, "Power BI") {
			t.Errorf("Skills = %v, want %q from skills section", got.Skills, "Power BI")
		}
	})

	t.Run("no skills falls back to placeholder", func(t *testing.T) {
		got := Extract("a b c")
		if len(got.Skills) != 1 || got.Skills[0] != "Technical Skills" {
			t.Errorf("Skills = %v, want fallback placeholder", got.Skills)
		}
	})

	t.Run("capped at fifteen", func(t *testing.T) {
		text := "AAA BBB CCC DDD EEE FFF GGG HHH III JJJ KKK LLL MMM NNN OOO PPP QQQ"
		got := Extract(text)
		if len(got.Skills) > maxSkills {
			t.Errorf("len(Skills) = %d, want <= %d", len(got.Skills), maxSkills)
		}
	})

	t.Run("deterministic", func(t *testing.T) {
		text := "SQL and ETL with PySpark, AWS, GCP. Skills: Power BI, Tableau"
		a := Extract(text)
		b := Extract(text)
		if !slices.Equal(a.Skills, b.Skills) {
			t.Errorf("Extract not deterministic: %v vs %v", a.Skills, b.Skills)
		}
	})
}

// mockRefiner returns canned values or errors per call.
type mockRefiner struct {
	country    string
	cities     []string
	locErr     error
	primary    string
	roles      []string
	rolesErr   error
	locCalls   int
	rolesCalls int
}

func (m *mockRefiner) Location(_ context.Context, _ string) (string, []string, error) {
	m.locCalls++
	return m.country, m.cities, m.locErr
}

func (m *mockRefiner) Roles(_ context.Context, _ string, _ []string) (string, []string, error) {
	m.rolesCalls++
	return m.primary, m.roles, m.rolesErr
}

func TestRefine(t *testing.T) {
	resume := "6 years of experience with SQL and Power BI dashboards."

	t.Run("successful refinement overrides defaults", func(t *testing.T) {
		p := Extract(resume)
		r := &mockRefiner{
			country: "India",
			cities:  []string{"Bengaluru"},
			primary: "Senior BI Developer",
			roles:   []string{"Senior BI Developer", "Data Analyst"},
		}
		Refine(context.Background(), &p, r, resume, nil)

		if p.Location != "India" || len(p.Cities) != 1 {
			t.Errorf("Location = %q/%v, want India/[Bengaluru]", p.Location, p.Cities)
		}
		if p.JobTitle != "Senior BI Developer" {
			t.Errorf("JobTitle = %q, want Senior BI Developer", p.JobTitle)
		}
	})

	t.Run("refiner errors keep stage-one values", func(t *testing.T) {
		p := Extract(resume)
		r := &mockRefiner{
			locErr:   errors.New("model unavailable"),
			rolesErr: errors.New("model unavailable"),
		}
		Refine(context.Background(), &p, r, resume, nil)

		if p.Location != "" {
			t.Errorf("Location = %q, want empty after failed refinement", p.Location)
		}
		if p.JobTitle != "Professional" {
			t.Errorf("JobTitle = %q, want Professional after failed refinement", p.JobTitle)
		}
	})

	t.Run("roles capped at five", func(t *testing.T) {
		p := Extract(resume)
		r := &mockRefiner{
			primary: "BI Developer",
			roles:   []string{"a", "b", "c", "d", "e", "f", "g"},
		}
		Refine(context.Background(), &p, r, resume, nil)
		if len(p.JobTitles) != 5 {
			t.Errorf("len(JobTitles) = %d, want 5", len(p.JobTitles))
		}
	})

	t.Run("nil refiner is a no-op", func(t *testing.T) {
		p := Extract(resume)
		Refine(context.Background(), &p, nil, resume, nil)
		if p.JobTitle != "Professional" {
			t.Errorf("JobTitle = %q, want untouched default", p.JobTitle)
		}
	})

	t.Run("empty resume skips refiner calls", func(t *testing.T) {
		p := Extract("")
		r := &mockRefiner{}
		Refine(context.Background(), &p, r, "", nil)
		if r.locCalls != 0 || r.rolesCalls != 0 {
			t.Errorf("refiner called (%d, %d) times on empty input, want 0", r.locCalls, r.rolesCalls)
		}
	})

	t.Run("application locations feed location text", func(t *testing.T) {
		p := Extract("")
		r := &mockRefiner{country: "India"}
		apps := []chunk.Application{{Company: "Globex", Location: "Mumbai"}}
		Refine(context.Background(), &p, r, "", apps)
		if r.locCalls != 1 {
			t.Errorf("locCalls = %d, want 1 (application location present)", r.locCalls)
		}
		if p.Location != "India" {
			t.Errorf("Location = %q, want India", p.Location)
		}
	})
}

func TestQualifier(t *testing.T) {
	tests := []struct {
		years int
		want  string
	}{
		{years: 15, want: "senior experienced professional lateral hire"},
		{years: 10, want: "senior experienced professional lateral hire"},
		{years: 9, want: "experienced professional lateral hire mid-senior level"},
		{years: 5, want: "experienced professional lateral hire mid-senior level"},
		{years: 4, want: "experienced professional lateral hire"},
		{years: 2, want: "experienced professional lateral hire"},
		{years: 1, want: "entry level fresher"},
		{years: 0, want: "entry level fresher"},
	}

	for _, tt := range tests {
		if got := Qualifier(tt.years); got != tt.want {
			t.Errorf("Qualifier(%d) = %q, want %q", tt.years, got, tt.want)
		}
	}
}

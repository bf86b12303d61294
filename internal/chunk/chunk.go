// Package chunk converts user data into searchable chunks.
//
// Three sources feed the per-user index: job applications (one chunk
// each), resume text (split on section headers), and the static
// product/policy corpus (split on "##" subsections). Chunking is pure
// and deterministic so index builds are reproducible.
package chunk

import (
	"fmt"
	"strings"
)

// DefaultResumeChunkSize is the target chunk budget for resume sections.
const DefaultResumeChunkSize = 500

// staticChunkCap bounds product/policy chunk content.
const staticChunkCap = 800

// minStaticFragment filters out tiny "##" fragments with no retrieval value.
const minStaticFragment = 50

// Kind tags a chunk with its source.
type Kind string

const (
	KindApplication   Kind = "application"
	KindResumeSection Kind = "resume_section"
	KindProductInfo   Kind = "product_info"
	KindPolicy        Kind = "policy"
)

// Chunk is one retrievable fragment: the text that gets embedded plus
// the kind and display metadata of its source. Text is always non-empty.
type Chunk struct {
	Text     string
	Kind     Kind
	Metadata map[string]string
}

// Application is one tracked job application.
type Application struct {
	Company     string
	JobTitle    string
	Status      string
	AppliedDate string
	HRName      string
	HREmail     string
	HRPhone     string
	Location    string
	Industry    string
	ATSScore    string
}

// KnowledgeEntry is one static knowledge document. Body may contain "##"
// subsection headers; each subsection becomes its own chunk. Kind must be
// KindProductInfo or KindPolicy.
type KnowledgeEntry struct {
	Kind Kind
	Body string
}

// resumeSections are the headers recognized as chunk boundaries. Matching
// is case-insensitive against short lines only, so body text mentioning
// "skills" does not start a new section.
var resumeSections = []string{
	"WORK EXPERIENCE", "PROFESSIONAL EXPERIENCE", "EXPERIENCE",
	"EDUCATION", "TECHNICAL SKILLS", "SKILLS", "PROJECTS",
	"CERTIFICATIONS", "ACHIEVEMENTS", "SUMMARY", "OBJECTIVE",
}

// Applications converts each application into one searchable chunk.
// Zero-value applications are skipped. Metadata carries only the fields
// present on the record.
func Applications(apps []Application) []Chunk {
	chunks := make([]Chunk, 0, len(apps))

	for _, app := range apps {
		if app == (Application{}) {
			continue
		}

		company := app.Company
		if company == "" {
			company = "Unknown Company"
		}
		title := app.JobTitle
		if title == "" {
			title = "Unknown Position"
		}
		status := app.Status
		if status == "" {
			status = "Unknown"
		}
		applied := app.AppliedDate
		if applied == "" {
			applied = "Unknown date"
		}

		var hrInfo string
		if app.HRName != "" || app.HREmail != "" || app.HRPhone != "" {
			var parts []string
			if app.HRName != "" {
				parts = append(parts, "HR Contact: "+app.HRName)
			}
			if app.HREmail != "" {
				parts = append(parts, "Email: "+app.HREmail)
			}
			if app.HRPhone != "" {
				parts = append(parts, "Phone: "+app.HRPhone)
			}
			hrInfo = ". " + strings.Join(parts, ", ")
		}

		var extra []string
		if app.Location != "" {
			extra = append(extra, "Location: "+app.Location)
		}
		if app.Industry != "" {
			extra = append(extra, "Industry: "+app.Industry)
		}
		if app.ATSScore != "" {
			extra = append(extra, "ATS Score: "+app.ATSScore)
		}
		var extraStr string
		if len(extra) > 0 {
			extraStr = ". " + strings.Join(extra, ", ")
		}

		meta := map[string]string{
			"company":   company,
			"job_title": title,
			"status":    status,
		}
		if app.AppliedDate != "" {
			meta["applied_date"] = app.AppliedDate
		}
		if app.HRName != "" {
			meta["hr_name"] = app.HRName
		}
		if app.HREmail != "" {
			meta["hr_email"] = app.HREmail
		}
		if app.HRPhone != "" {
			meta["hr_phone"] = app.HRPhone
		}
		if app.Location != "" {
			meta["location"] = app.Location
		}
		if app.Industry != "" {
			meta["industry"] = app.Industry
		}
		if app.ATSScore != "" {
			meta["ats_score"] = app.ATSScore
		}

		chunks = append(chunks, Chunk{
			Text: fmt.Sprintf(
				"APPLICATION: %s - %s. Status: %s. Applied on: %s%s%s",
				company, title, status, applied, hrInfo, extraStr),
			Kind:     KindApplication,
			Metadata: meta,
		})
	}

	return chunks
}

// Resume splits resume text into semantic chunks using section headers as
// natural boundaries, with chunkSize as the accumulation budget. Text
// before any recognized header lands in the GENERAL section. A chunkSize
// of zero or less uses DefaultResumeChunkSize.
func Resume(text string, chunkSize int) []Chunk {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if chunkSize <= 0 {
		chunkSize = DefaultResumeChunkSize
	}

	var chunks []Chunk
	current := ""
	section := "GENERAL"

	flush := func() {
		if trimmed := strings.TrimSpace(current); trimmed != "" {
			chunks = append(chunks, Chunk{
				Text:     "RESUME - " + section + ": " + trimmed,
				Kind:     KindResumeSection,
				Metadata: map[string]string{"section": section},
			})
		}
		current = ""
	}

	for _, para := range strings.Split(text, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}

		// Short lines containing a known header open a new section.
		upper := strings.ToUpper(para)
		for _, pattern := range resumeSections {
			if strings.Contains(upper, pattern) && len(para) < 50 {
				flush()
				section = pattern
				break
			}
		}

		if len(current)+len(para) < chunkSize {
			current += " " + para
		} else {
			flush()
			current = para
		}
	}
	flush()

	return chunks
}

// StaticKnowledge chunks the static product/policy corpus. Entry bodies
// split on "##" subsection markers; fragments shorter than 50 chars are
// skipped and content is capped at 800 chars per chunk.
func StaticKnowledge(entries []KnowledgeEntry) []Chunk {
	var chunks []Chunk

	for _, entry := range entries {
		prefix := "PRODUCT INFO"
		defaultTitle := "Product Info"
		kind := KindProductInfo
		if entry.Kind == KindPolicy {
			prefix = "POLICY"
			defaultTitle = "Policy"
			kind = KindPolicy
		}

		for _, section := range strings.Split(entry.Body, "##") {
			section = strings.TrimSpace(section)
			if len(section) <= minStaticFragment {
				continue
			}

			title := defaultTitle
			content := section
			if line, rest, found := strings.Cut(section, "\n"); found {
				if t := strings.TrimSpace(line); t != "" {
					title = t
				}
				content = strings.TrimSpace(rest)
				if content == "" {
					content = section
				}
			}

			if len(content) > staticChunkCap {
				content = content[:staticChunkCap]
			}
			chunks = append(chunks, Chunk{
				Text:     prefix + " - " + title + ": " + content,
				Kind:     kind,
				Metadata: map[string]string{"title": title},
			})
		}
	}

	return chunks
}

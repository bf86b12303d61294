package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/interviewvault/vault/internal/chunk"
	"github.com/interviewvault/vault/internal/retrieval"
)

// userDataFile is the on-disk format for --data. It mirrors the export
// shape of the tracking app: an applications array plus free resume text.
type userDataFile struct {
	Applications []applicationRecord `json:"applications"`
	ResumeText   string              `json:"resume_text"`
}

type applicationRecord struct {
	Company     string `json:"company"`
	JobTitle    string `json:"job_title"`
	Status      string `json:"status"`
	AppliedDate string `json:"applied_date"`
	HRName      string `json:"hr_name"`
	HREmail     string `json:"hr_email"`
	HRPhone     string `json:"hr_phone"`
	Location    string `json:"location"`
	Industry    string `json:"industry"`
	ATSScore    string `json:"ats_score"`
}

// fileFetcher serves one user's data from a JSON file. The file is
// parsed once at construction so malformed input fails the command
// instead of degrading the first answer.
type fileFetcher struct {
	applications []chunk.Application
	resumeText   string
}

func newFileFetcher(path string) (*fileFetcher, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var file userDataFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	apps := make([]chunk.Application, 0, len(file.Applications))
	for _, rec := range file.Applications {
		apps = append(apps, chunk.Application{
			Company:     rec.Company,
			JobTitle:    rec.JobTitle,
			Status:      rec.Status,
			AppliedDate: rec.AppliedDate,
			HRName:      rec.HRName,
			HREmail:     rec.HREmail,
			HRPhone:     rec.HRPhone,
			Location:    rec.Location,
			Industry:    rec.Industry,
			ATSScore:    rec.ATSScore,
		})
	}

	return &fileFetcher{applications: apps, resumeText: file.ResumeText}, nil
}

func (f *fileFetcher) Fetch(_ context.Context, userID string) (retrieval.UserData, error) {
	return retrieval.UserData{
		UserID:       userID,
		Applications: f.applications,
		ResumeText:   f.resumeText,
	}, nil
}

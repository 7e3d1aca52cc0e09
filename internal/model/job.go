// Package model defines the core domain types for the enrichment pipeline.
package model

import "time"

// JobPosting is one job posting awaiting enrichment. Postings are read fresh
// from the store at the start of a run and treated as immutable afterwards.
type JobPosting struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	Company       string     `json:"company"`
	City          string     `json:"city,omitempty"`
	Region        string     `json:"region,omitempty"`
	Country       string     `json:"country,omitempty"`
	SalaryRaw     string     `json:"salary_raw,omitempty"`
	EmploymentRaw string     `json:"employment_raw,omitempty"`
	Description   string     `json:"description"`
	Source        string     `json:"source,omitempty"`
	PostedAt      *time.Time `json:"posted_at,omitempty"`
}

// LocationText joins the raw location fields into a single display string.
func (j JobPosting) LocationText() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{j.City, j.Region, j.Country} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += ", "
		}
		out += p
	}
	return out
}

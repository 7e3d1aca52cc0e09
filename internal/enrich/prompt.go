package enrich

import (
	"fmt"
	"strings"

	"github.com/jobsift/enrich-cli/internal/model"
)

// DefaultDescriptionBudget is the per-posting character budget applied to
// descriptions when building a batch prompt.
const DefaultDescriptionBudget = 1500

const systemInstruction = `You are a job-posting analyst. You will receive a numbered list of job postings. For EACH posting, extract the following fields:
- summary: one or two sentences describing the role
- skills: list of required skills
- location: normalized location string, or null
- seniority_level: one of intern, junior, mid, senior, executive, or null
- remote_type: one of remote, hybrid, onsite, or null
- min_salary, max_salary: numeric annualized bounds, or null
- salary_period: one of year, month, week, day, hour, or null
- salary_currency: one of USD, CAD, EUR, GBP, or null

Respond with a JSON array containing exactly one object per posting, in the same order as the input. Use null for any field you cannot determine. Do not include any text outside the JSON.`

// BuildBatchPrompt renders one combined user prompt enumerating every unit in
// the batch. Descriptions are truncated to descriptionBudget characters to
// bound prompt size.
func BuildBatchPrompt(units []model.JobPosting, descriptionBudget int) string {
	if descriptionBudget <= 0 {
		descriptionBudget = DefaultDescriptionBudget
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Extract structured fields from the following %d job postings.\n", len(units))

	for i, u := range units {
		fmt.Fprintf(&b, "\n--- Job %d ---\n", i+1)
		fmt.Fprintf(&b, "Title: %s\n", u.Title)
		if u.Company != "" {
			fmt.Fprintf(&b, "Company: %s\n", u.Company)
		}
		if loc := u.LocationText(); loc != "" {
			fmt.Fprintf(&b, "Location: %s\n", loc)
		}
		if u.SalaryRaw != "" {
			fmt.Fprintf(&b, "Salary: %s\n", u.SalaryRaw)
		}
		if u.EmploymentRaw != "" {
			fmt.Fprintf(&b, "Employment: %s\n", u.EmploymentRaw)
		}
		fmt.Fprintf(&b, "Description: %s\n", truncate(u.Description, descriptionBudget))
	}

	return b.String()
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}

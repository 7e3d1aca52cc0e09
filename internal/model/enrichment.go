package model

// Allowed values for the enum-typed enrichment fields. A field outside its
// allow-list is coerced to nil at parse time, never stored.
var (
	SeniorityLevels = []string{"intern", "junior", "mid", "senior", "executive"}
	RemoteTypes     = []string{"remote", "hybrid", "onsite"}
	SalaryPeriods   = []string{"year", "month", "week", "day", "hour"}
	SalaryCurrencies = []string{"USD", "CAD", "EUR", "GBP"}
)

// Enrichment holds the LLM-derived fields for a single job posting. Every
// field is nullable: nil means "not extracted", and the store's merge keeps
// previously extracted values when a later run yields nil.
type Enrichment struct {
	Summary        *string  `json:"summary"`
	Skills         []string `json:"skills"`
	Location       *string  `json:"location"`
	SeniorityLevel *string  `json:"seniority_level"`
	RemoteType     *string  `json:"remote_type"`
	MinSalary      *float64 `json:"min_salary"`
	MaxSalary      *float64 `json:"max_salary"`
	SalaryPeriod   *string  `json:"salary_period"`
	SalaryCurrency *string  `json:"salary_currency"`
}

// HasData reports whether at least one field was extracted. Postings whose
// enrichment is wholly empty are left untouched so a later run retries them.
func (e Enrichment) HasData() bool {
	return e.Summary != nil ||
		len(e.Skills) > 0 ||
		e.Location != nil ||
		e.SeniorityLevel != nil ||
		e.RemoteType != nil ||
		e.MinSalary != nil ||
		e.MaxSalary != nil ||
		e.SalaryPeriod != nil ||
		e.SalaryCurrency != nil
}

// RunStats accumulates per-run counters across all batches of one invocation.
type RunStats struct {
	Processed int `json:"processed"`
	Enriched  int `json:"enriched"`
	Errors    int `json:"errors"`
}

// Add merges another stats value into s.
func (s *RunStats) Add(other RunStats) {
	s.Processed += other.Processed
	s.Enriched += other.Enriched
	s.Errors += other.Errors
}

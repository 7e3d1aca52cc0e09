package enrich

import (
	"encoding/json"
	"slices"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/jobsift/enrich-cli/internal/model"
)

// ParseResults decodes a provider response into exactly expected enrichments.
// It never fails: malformed content degrades to all-null entries, extras
// beyond expected are discarded, and shortfalls are padded so the positional
// unit-to-result contract holds regardless of provider misbehavior.
func ParseResults(raw string, expected int) []model.Enrichment {
	results := make([]model.Enrichment, expected)

	entries := decodeEntries(cleanJSON(raw))
	if len(entries) != expected {
		zap.L().Warn("provider returned unexpected result count",
			zap.Int("expected", expected),
			zap.Int("got", len(entries)),
		)
	}
	for i := 0; i < expected && i < len(entries); i++ {
		results[i] = normalizeEntry(entries[i])
	}
	return results
}

// cleanJSON strips a fenced code block wrapper, if present, from a model
// response so the payload can be decoded directly.
func cleanJSON(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// decodeEntries accepts a bare array, {"jobs":[...]}, or {"results":[...]};
// anything else decodes to nothing.
func decodeEntries(s string) []map[string]any {
	var arr []map[string]any
	if err := json.Unmarshal([]byte(s), &arr); err == nil {
		return arr
	}

	var obj struct {
		Jobs    []map[string]any `json:"jobs"`
		Results []map[string]any `json:"results"`
	}
	if err := json.Unmarshal([]byte(s), &obj); err == nil {
		if obj.Jobs != nil {
			return obj.Jobs
		}
		if obj.Results != nil {
			return obj.Results
		}
	}
	return nil
}

func normalizeEntry(m map[string]any) model.Enrichment {
	var e model.Enrichment

	e.Summary = stringField(m, "summary")
	e.Skills = skillsField(m)
	e.Location = stringField(m, "location")
	e.SeniorityLevel = enumField(m, "seniority_level", "seniorityLevel", model.SeniorityLevels, strings.ToLower)
	e.RemoteType = enumField(m, "remote_type", "remoteType", model.RemoteTypes, strings.ToLower)
	e.MinSalary = salaryField(m, "min_salary", "minSalary")
	e.MaxSalary = salaryField(m, "max_salary", "maxSalary")
	e.SalaryPeriod = enumField(m, "salary_period", "salaryPeriod", model.SalaryPeriods, strings.ToLower)
	e.SalaryCurrency = enumField(m, "salary_currency", "salaryCurrency", model.SalaryCurrencies, strings.ToUpper)

	return e
}

// lookup returns the first present key, tolerating camelCase variants.
func lookup(m map[string]any, keys ...string) (any, bool) {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			return v, true
		}
	}
	return nil, false
}

func stringField(m map[string]any, keys ...string) *string {
	v, ok := lookup(m, keys...)
	if !ok {
		return nil
	}
	s, ok := v.(string)
	if !ok {
		return nil
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func skillsField(m map[string]any) []string {
	v, ok := lookup(m, "skills")
	if !ok {
		return nil
	}
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	var skills []string
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			continue
		}
		s = strings.TrimSpace(s)
		if s != "" {
			skills = append(skills, s)
		}
	}
	return skills
}

// enumField case-folds the value and rejects anything outside the allow-list.
func enumField(m map[string]any, key, altKey string, allowed []string, fold func(string) string) *string {
	v, ok := lookup(m, key, altKey)
	if !ok {
		return nil
	}
	s, ok := v.(string)
	if !ok {
		return nil
	}
	s = fold(strings.TrimSpace(s))
	if s == "" {
		return nil
	}
	if !slices.Contains(allowed, s) {
		zap.L().Warn("dropping enum value outside allow-list",
			zap.String("field", key),
			zap.String("value", s),
		)
		return nil
	}
	return &s
}

// salaryField coerces numbers, integers, and numeric strings (with currency
// symbols and thousands separators stripped); anything else becomes nil.
func salaryField(m map[string]any, key, altKey string) *float64 {
	v, ok := lookup(m, key, altKey)
	if !ok {
		return nil
	}
	switch n := v.(type) {
	case float64:
		return &n
	case int:
		f := float64(n)
		return &f
	case string:
		cleaned := strings.NewReplacer("$", "", ",", "", " ", "").Replace(n)
		if cleaned == "" {
			return nil
		}
		f, err := strconv.ParseFloat(cleaned, 64)
		if err != nil {
			return nil
		}
		return &f
	default:
		return nil
	}
}

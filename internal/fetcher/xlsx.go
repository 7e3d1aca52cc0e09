// Package fetcher parses job-posting backlog exports for import into the
// store.
package fetcher

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/jobsift/enrich-cli/internal/model"
)

// XLSXOptions configures the XLSX parser.
type XLSXOptions struct {
	SheetIndex int    // default 0
	SheetName  string // if set, overrides SheetIndex

	// Source stamps every parsed posting, overriding any source column.
	Source string
}

// ReadPostingsXLSX reads a backlog export and maps its rows onto postings.
// The first row must be a header; unrecognized columns are ignored. Rows
// without a title are skipped, and rows without an id get a generated one.
func ReadPostingsXLSX(path string, opts XLSXOptions) ([]model.JobPosting, error) {
	rows, err := readRows(path, opts)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, eris.New("xlsx: file has no header row")
	}

	cols := mapColumns(rows[0])
	var postings []model.JobPosting
	for _, row := range rows[1:] {
		p, ok := rowToPosting(row, cols, opts.Source)
		if !ok {
			continue
		}
		postings = append(postings, p)
	}
	return postings, nil
}

func readRows(path string, opts XLSXOptions) ([][]string, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "xlsx: open file")
	}

	sheet, err := getSheet(f, opts)
	if err != nil {
		return nil, err
	}

	var rows [][]string
	for _, row := range sheet.Rows {
		cells := make([]string, len(row.Cells))
		for j, cell := range row.Cells {
			cells[j] = cell.String()
		}
		rows = append(rows, cells)
	}
	return rows, nil
}

func getSheet(f *xlsx.File, opts XLSXOptions) (*xlsx.Sheet, error) {
	if opts.SheetName != "" {
		sheet, ok := f.Sheet[opts.SheetName]
		if !ok {
			return nil, eris.Errorf("xlsx: sheet %q not found", opts.SheetName)
		}
		return sheet, nil
	}

	if opts.SheetIndex >= len(f.Sheets) {
		return nil, eris.Errorf("xlsx: sheet index %d out of range (file has %d sheets)", opts.SheetIndex, len(f.Sheets))
	}

	return f.Sheets[opts.SheetIndex], nil
}

// columnAliases maps the posting field to accepted header names.
var columnAliases = map[string][]string{
	"id":          {"id", "job_id", "jobid"},
	"title":       {"title", "job_title", "position"},
	"company":     {"company", "employer", "company_name"},
	"city":        {"city"},
	"region":      {"region", "state", "province"},
	"country":     {"country"},
	"salary":      {"salary", "salary_raw", "pay", "compensation"},
	"employment":  {"employment", "employment_type", "job_type"},
	"description": {"description", "job_description", "details"},
	"source":      {"source", "board"},
	"posted_at":   {"posted_at", "posted", "date", "date_posted"},
}

func mapColumns(header []string) map[string]int {
	cols := make(map[string]int)
	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(name))
		for field, aliases := range columnAliases {
			for _, alias := range aliases {
				if name == alias {
					cols[field] = i
				}
			}
		}
	}
	return cols
}

func rowToPosting(row []string, cols map[string]int, source string) (model.JobPosting, bool) {
	cell := func(field string) string {
		i, ok := cols[field]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	title := cell("title")
	if title == "" {
		return model.JobPosting{}, false
	}

	id := cell("id")
	if id == "" {
		id = uuid.New().String()
	}
	if source == "" {
		source = cell("source")
	}

	p := model.JobPosting{
		ID:            id,
		Title:         title,
		Company:       cell("company"),
		City:          cell("city"),
		Region:        cell("region"),
		Country:       cell("country"),
		SalaryRaw:     cell("salary"),
		EmploymentRaw: cell("employment"),
		Description:   cell("description"),
		Source:        source,
	}

	if raw := cell("posted_at"); raw != "" {
		if ts, err := parseDate(raw); err == nil {
			p.PostedAt = &ts
		}
	}
	return p, true
}

func parseDate(raw string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02", "2006-01-02 15:04:05", "1/2/2006"} {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, eris.Errorf("fetcher: unrecognized date %q", raw)
}

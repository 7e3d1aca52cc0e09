package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/jobsift/enrich-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite. It keeps local
// development and tests free of a Postgres dependency.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS job_postings (
	id             TEXT PRIMARY KEY,
	title          TEXT NOT NULL,
	company        TEXT NOT NULL DEFAULT '',
	city           TEXT NOT NULL DEFAULT '',
	region         TEXT NOT NULL DEFAULT '',
	country        TEXT NOT NULL DEFAULT '',
	salary_raw     TEXT NOT NULL DEFAULT '',
	employment_raw TEXT NOT NULL DEFAULT '',
	description    TEXT NOT NULL DEFAULT '',
	source         TEXT NOT NULL DEFAULT '',
	posted_at      DATETIME,
	created_at     DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS job_enrichments (
	job_id          TEXT PRIMARY KEY REFERENCES job_postings(id),
	summary         TEXT,
	skills          TEXT,
	location        TEXT,
	seniority_level TEXT,
	remote_type     TEXT,
	min_salary      REAL,
	max_salary      REAL,
	salary_period   TEXT,
	salary_currency TEXT,
	updated_at      DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_job_postings_source ON job_postings(source);
CREATE INDEX IF NOT EXISTS idx_job_postings_posted_at ON job_postings(posted_at DESC);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) FetchPending(ctx context.Context, limit int, source string) ([]model.JobPosting, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT p.id, p.title, p.company, p.city, p.region, p.country,
		       p.salary_raw, p.employment_raw, p.description, p.source, p.posted_at
		FROM job_postings p
		LEFT JOIN job_enrichments e ON e.job_id = p.id
		WHERE e.job_id IS NULL AND (? = '' OR p.source = ?)
		ORDER BY p.posted_at IS NULL, p.posted_at DESC, p.created_at DESC
		LIMIT ?`,
		source, source, limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: fetch pending")
	}
	defer rows.Close()

	var postings []model.JobPosting
	for rows.Next() {
		var p model.JobPosting
		if err := rows.Scan(&p.ID, &p.Title, &p.Company, &p.City, &p.Region, &p.Country,
			&p.SalaryRaw, &p.EmploymentRaw, &p.Description, &p.Source, &p.PostedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan posting")
		}
		postings = append(postings, p)
	}
	return postings, eris.Wrap(rows.Err(), "sqlite: fetch pending iterate")
}

func (s *SQLiteStore) CountPending(ctx context.Context, source string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT count(*)
		FROM job_postings p
		LEFT JOIN job_enrichments e ON e.job_id = p.id
		WHERE e.job_id IS NULL AND (? = '' OR p.source = ?)`,
		source, source,
	).Scan(&n)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: count pending")
	}
	return n, nil
}

func (s *SQLiteStore) UpsertEnrichment(ctx context.Context, jobID string, e model.Enrichment) error {
	skills, err := marshalSkills(e.Skills)
	if err != nil {
		return err
	}
	var skillsText any
	if b, ok := skills.([]byte); ok {
		skillsText = string(b)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO job_enrichments
			(job_id, summary, skills, location, seniority_level, remote_type,
			 min_salary, max_salary, salary_period, salary_currency, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, datetime('now'))
		ON CONFLICT (job_id) DO UPDATE SET
			summary         = COALESCE(excluded.summary, summary),
			skills          = COALESCE(excluded.skills, skills),
			location        = COALESCE(excluded.location, location),
			seniority_level = COALESCE(excluded.seniority_level, seniority_level),
			remote_type     = COALESCE(excluded.remote_type, remote_type),
			min_salary      = COALESCE(excluded.min_salary, min_salary),
			max_salary      = COALESCE(excluded.max_salary, max_salary),
			salary_period   = COALESCE(excluded.salary_period, salary_period),
			salary_currency = COALESCE(excluded.salary_currency, salary_currency),
			updated_at      = datetime('now')`,
		jobID, e.Summary, skillsText, e.Location, e.SeniorityLevel, e.RemoteType,
		e.MinSalary, e.MaxSalary, e.SalaryPeriod, e.SalaryCurrency,
	)
	return eris.Wrap(err, "sqlite: upsert enrichment")
}

func (s *SQLiteStore) GetEnrichment(ctx context.Context, jobID string) (*model.Enrichment, error) {
	var e model.Enrichment
	var skills sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT summary, skills, location, seniority_level, remote_type,
		       min_salary, max_salary, salary_period, salary_currency
		FROM job_enrichments WHERE job_id = ?`,
		jobID,
	).Scan(
		&e.Summary, &skills, &e.Location, &e.SeniorityLevel, &e.RemoteType,
		&e.MinSalary, &e.MaxSalary, &e.SalaryPeriod, &e.SalaryCurrency,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get enrichment")
	}
	if skills.Valid && skills.String != "" {
		if err := json.Unmarshal([]byte(skills.String), &e.Skills); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal skills")
		}
	}
	return &e, nil
}

func (s *SQLiteStore) InsertPostings(ctx context.Context, postings []model.JobPosting) (int, error) {
	inserted := 0
	for _, p := range postings {
		res, err := s.db.ExecContext(ctx, `
			INSERT INTO job_postings
				(id, title, company, city, region, country, salary_raw, employment_raw,
				 description, source, posted_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (id) DO NOTHING`,
			p.ID, p.Title, p.Company, p.City, p.Region, p.Country,
			p.SalaryRaw, p.EmploymentRaw, p.Description, p.Source, p.PostedAt,
		)
		if err != nil {
			return inserted, eris.Wrapf(err, "sqlite: insert posting %s", p.ID)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return inserted, eris.Wrap(err, "sqlite: rows affected")
		}
		inserted += int(n)
	}
	return inserted, nil
}

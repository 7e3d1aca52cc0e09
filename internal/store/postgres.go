package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/jobsift/enrich-cli/internal/model"
)

// Pool is the subset of pgxpool.Pool used by the store; pgxmock satisfies it.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool Pool
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

const postgresMigration = `
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
	posted_at      TIMESTAMPTZ,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS job_enrichments (
	job_id          TEXT PRIMARY KEY REFERENCES job_postings(id),
	summary         TEXT,
	skills          JSONB,
	location        TEXT,
	seniority_level TEXT,
	remote_type     TEXT,
	min_salary      DOUBLE PRECISION,
	max_salary      DOUBLE PRECISION,
	salary_period   TEXT,
	salary_currency TEXT,
	updated_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_job_postings_source ON job_postings(source);
CREATE INDEX IF NOT EXISTS idx_job_postings_posted_at ON job_postings(posted_at DESC);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

const fetchPendingSQL = `
SELECT p.id, p.title, p.company, p.city, p.region, p.country,
       p.salary_raw, p.employment_raw, p.description, p.source, p.posted_at
FROM job_postings p
LEFT JOIN job_enrichments e ON e.job_id = p.id
WHERE e.job_id IS NULL AND ($1 = '' OR p.source = $1)
ORDER BY p.posted_at DESC NULLS LAST, p.created_at DESC
LIMIT $2`

func (s *PostgresStore) FetchPending(ctx context.Context, limit int, source string) ([]model.JobPosting, error) {
	rows, err := s.pool.Query(ctx, fetchPendingSQL, source, limit)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: fetch pending")
	}
	defer rows.Close()

	var postings []model.JobPosting
	for rows.Next() {
		var p model.JobPosting
		if err := rows.Scan(&p.ID, &p.Title, &p.Company, &p.City, &p.Region, &p.Country,
			&p.SalaryRaw, &p.EmploymentRaw, &p.Description, &p.Source, &p.PostedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan posting")
		}
		postings = append(postings, p)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: fetch pending rows")
	}
	return postings, nil
}

const countPendingSQL = `
SELECT count(*)
FROM job_postings p
LEFT JOIN job_enrichments e ON e.job_id = p.id
WHERE e.job_id IS NULL AND ($1 = '' OR p.source = $1)`

func (s *PostgresStore) CountPending(ctx context.Context, source string) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx, countPendingSQL, source).Scan(&n); err != nil {
		return 0, eris.Wrap(err, "postgres: count pending")
	}
	return n, nil
}

const upsertEnrichmentSQL = `
INSERT INTO job_enrichments
	(job_id, summary, skills, location, seniority_level, remote_type,
	 min_salary, max_salary, salary_period, salary_currency, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, now())
ON CONFLICT (job_id) DO UPDATE SET
	summary         = COALESCE(EXCLUDED.summary, job_enrichments.summary),
	skills          = COALESCE(EXCLUDED.skills, job_enrichments.skills),
	location        = COALESCE(EXCLUDED.location, job_enrichments.location),
	seniority_level = COALESCE(EXCLUDED.seniority_level, job_enrichments.seniority_level),
	remote_type     = COALESCE(EXCLUDED.remote_type, job_enrichments.remote_type),
	min_salary      = COALESCE(EXCLUDED.min_salary, job_enrichments.min_salary),
	max_salary      = COALESCE(EXCLUDED.max_salary, job_enrichments.max_salary),
	salary_period   = COALESCE(EXCLUDED.salary_period, job_enrichments.salary_period),
	salary_currency = COALESCE(EXCLUDED.salary_currency, job_enrichments.salary_currency),
	updated_at      = now()`

func (s *PostgresStore) UpsertEnrichment(ctx context.Context, jobID string, e model.Enrichment) error {
	skills, err := marshalSkills(e.Skills)
	if err != nil {
		return err
	}

	_, err = s.pool.Exec(ctx, upsertEnrichmentSQL,
		jobID, e.Summary, skills, e.Location, e.SeniorityLevel, e.RemoteType,
		e.MinSalary, e.MaxSalary, e.SalaryPeriod, e.SalaryCurrency,
	)
	return eris.Wrap(err, "postgres: upsert enrichment")
}

const getEnrichmentSQL = `
SELECT summary, skills, location, seniority_level, remote_type,
       min_salary, max_salary, salary_period, salary_currency
FROM job_enrichments WHERE job_id = $1`

func (s *PostgresStore) GetEnrichment(ctx context.Context, jobID string) (*model.Enrichment, error) {
	var e model.Enrichment
	var skills []byte
	err := s.pool.QueryRow(ctx, getEnrichmentSQL, jobID).Scan(
		&e.Summary, &skills, &e.Location, &e.SeniorityLevel, &e.RemoteType,
		&e.MinSalary, &e.MaxSalary, &e.SalaryPeriod, &e.SalaryCurrency,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get enrichment")
	}
	if len(skills) > 0 {
		if err := json.Unmarshal(skills, &e.Skills); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal skills")
		}
	}
	return &e, nil
}

const insertPostingSQL = `
INSERT INTO job_postings
	(id, title, company, city, region, country, salary_raw, employment_raw,
	 description, source, posted_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
ON CONFLICT (id) DO NOTHING`

func (s *PostgresStore) InsertPostings(ctx context.Context, postings []model.JobPosting) (int, error) {
	inserted := 0
	for _, p := range postings {
		tag, err := s.pool.Exec(ctx, insertPostingSQL,
			p.ID, p.Title, p.Company, p.City, p.Region, p.Country,
			p.SalaryRaw, p.EmploymentRaw, p.Description, p.Source, p.PostedAt,
		)
		if err != nil {
			return inserted, eris.Wrapf(err, "postgres: insert posting %s", p.ID)
		}
		inserted += int(tag.RowsAffected())
	}
	return inserted, nil
}

// marshalSkills encodes a non-empty skill list as JSON; empty lists become
// NULL so the merge keeps previously extracted skills.
func marshalSkills(skills []string) (any, error) {
	if len(skills) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(skills)
	if err != nil {
		return nil, eris.Wrap(err, "store: marshal skills")
	}
	return b, nil
}

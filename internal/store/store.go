// Package store persists job postings and their enrichments.
package store

import (
	"context"

	"github.com/jobsift/enrich-cli/internal/model"
)

// Store defines the persistence interface consumed by the enrichment pipeline.
type Store interface {
	// FetchPending returns up to limit postings that have no enrichment row
	// yet, newest first. A non-empty source scopes the fetch to postings from
	// that job board.
	FetchPending(ctx context.Context, limit int, source string) ([]model.JobPosting, error)

	// CountPending returns the number of postings awaiting enrichment.
	CountPending(ctx context.Context, source string) (int, error)

	// UpsertEnrichment inserts or merges an enrichment keyed by posting ID.
	// On conflict each column is replaced only when the incoming value is
	// non-null, so a later partial success never erases an earlier field.
	UpsertEnrichment(ctx context.Context, jobID string, e model.Enrichment) error

	// GetEnrichment returns the stored enrichment for a posting, or nil if
	// none exists.
	GetEnrichment(ctx context.Context, jobID string) (*model.Enrichment, error)

	// InsertPostings adds postings to the backlog, skipping IDs that already
	// exist. Returns the number inserted.
	InsertPostings(ctx context.Context, postings []model.JobPosting) (int, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

var (
	_ Store = (*PostgresStore)(nil)
	_ Store = (*SQLiteStore)(nil)
)

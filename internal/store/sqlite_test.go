package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jobsift/enrich-cli/internal/model"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func seedPostings(t *testing.T, st *SQLiteStore, postings ...model.JobPosting) {
	t.Helper()
	n, err := st.InsertPostings(context.Background(), postings)
	require.NoError(t, err)
	require.Equal(t, len(postings), n)
}

func TestSQLite_InsertPostings_SkipsExisting(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	n, err := st.InsertPostings(ctx, []model.JobPosting{
		{ID: "job-1", Title: "Engineer", Source: "indeed"},
		{ID: "job-2", Title: "Analyst", Source: "indeed"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	// Re-importing the same batch inserts nothing new.
	n, err = st.InsertPostings(ctx, []model.JobPosting{
		{ID: "job-1", Title: "Engineer", Source: "indeed"},
		{ID: "job-3", Title: "Designer", Source: "linkedin"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestSQLite_FetchPending_ExcludesEnriched(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	seedPostings(t, st,
		model.JobPosting{ID: "job-1", Title: "Engineer", Source: "indeed"},
		model.JobPosting{ID: "job-2", Title: "Analyst", Source: "indeed"},
	)

	summary := "done"
	require.NoError(t, st.UpsertEnrichment(ctx, "job-1", model.Enrichment{Summary: &summary}))

	pending, err := st.FetchPending(ctx, 10, "")
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "job-2", pending[0].ID)
}

func TestSQLite_FetchPending_SourceFilterAndLimit(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	seedPostings(t, st,
		model.JobPosting{ID: "job-1", Title: "A", Source: "indeed"},
		model.JobPosting{ID: "job-2", Title: "B", Source: "linkedin"},
		model.JobPosting{ID: "job-3", Title: "C", Source: "indeed"},
	)

	pending, err := st.FetchPending(ctx, 10, "indeed")
	require.NoError(t, err)
	assert.Len(t, pending, 2)
	for _, p := range pending {
		assert.Equal(t, "indeed", p.Source)
	}

	pending, err = st.FetchPending(ctx, 1, "indeed")
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}

func TestSQLite_FetchPending_NewestFirst(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	older := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	newer := time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC)
	seedPostings(t, st,
		model.JobPosting{ID: "job-old", Title: "Old", PostedAt: &older},
		model.JobPosting{ID: "job-undated", Title: "Undated"},
		model.JobPosting{ID: "job-new", Title: "New", PostedAt: &newer},
	)

	pending, err := st.FetchPending(ctx, 10, "")
	require.NoError(t, err)
	require.Len(t, pending, 3)
	assert.Equal(t, "job-new", pending[0].ID)
	assert.Equal(t, "job-old", pending[1].ID)
	assert.Equal(t, "job-undated", pending[2].ID)
}

func TestSQLite_CountPending(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	seedPostings(t, st,
		model.JobPosting{ID: "job-1", Title: "A", Source: "indeed"},
		model.JobPosting{ID: "job-2", Title: "B", Source: "linkedin"},
	)

	n, err := st.CountPending(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = st.CountPending(ctx, "linkedin")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	summary := "done"
	require.NoError(t, st.UpsertEnrichment(ctx, "job-2", model.Enrichment{Summary: &summary}))

	n, err = st.CountPending(ctx, "linkedin")
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestSQLite_UpsertEnrichment_MergePreservesExistingFields(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	seedPostings(t, st, model.JobPosting{ID: "job-1", Title: "Engineer"})

	summary := "first pass"
	seniority := "senior"
	require.NoError(t, st.UpsertEnrichment(ctx, "job-1", model.Enrichment{
		Summary:        &summary,
		SeniorityLevel: &seniority,
		Skills:         []string{"go"},
	}))

	// A later partial result with null summary must not erase the first one.
	remote := "remote"
	require.NoError(t, st.UpsertEnrichment(ctx, "job-1", model.Enrichment{
		RemoteType: &remote,
	}))

	got, err := st.GetEnrichment(ctx, "job-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "first pass", *got.Summary)
	assert.Equal(t, "senior", *got.SeniorityLevel)
	assert.Equal(t, []string{"go"}, got.Skills)
	assert.Equal(t, "remote", *got.RemoteType)
}

func TestSQLite_UpsertEnrichment_NonNullOverwrites(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	seedPostings(t, st, model.JobPosting{ID: "job-1", Title: "Engineer"})

	minA, maxA := 100000.0, 120000.0
	require.NoError(t, st.UpsertEnrichment(ctx, "job-1", model.Enrichment{
		MinSalary: &minA, MaxSalary: &maxA,
	}))

	minB := 110000.0
	require.NoError(t, st.UpsertEnrichment(ctx, "job-1", model.Enrichment{
		MinSalary: &minB,
	}))

	got, err := st.GetEnrichment(ctx, "job-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 110000.0, *got.MinSalary)
	assert.Equal(t, 120000.0, *got.MaxSalary)
}

func TestSQLite_GetEnrichment_Missing(t *testing.T) {
	st := newTestSQLiteStore(t)

	got, err := st.GetEnrichment(context.Background(), "nonexistent")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSQLite_UpsertEnrichment_Idempotent(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	seedPostings(t, st, model.JobPosting{ID: "job-1", Title: "Engineer"})

	summary := "stable"
	e := model.Enrichment{Summary: &summary, Skills: []string{"sql", "go"}}
	require.NoError(t, st.UpsertEnrichment(ctx, "job-1", e))
	require.NoError(t, st.UpsertEnrichment(ctx, "job-1", e))

	got, err := st.GetEnrichment(ctx, "job-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "stable", *got.Summary)
	assert.Equal(t, []string{"sql", "go"}, got.Skills)
}

package enrich

import (
	"context"
	"strconv"
	"sync"

	"github.com/jobsift/enrich-cli/internal/model"
	"github.com/jobsift/enrich-cli/pkg/llm"
)

// fakeLLM records every request and answers via fn.
type fakeLLM struct {
	mu    sync.Mutex
	calls []llm.ChatCompletionRequest
	fn    func(req llm.ChatCompletionRequest) (*llm.ChatCompletionResponse, error)
}

func (f *fakeLLM) ChatCompletion(_ context.Context, req llm.ChatCompletionRequest) (*llm.ChatCompletionResponse, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	f.mu.Unlock()
	return f.fn(req)
}

func (f *fakeLLM) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func textResponse(s string) *llm.ChatCompletionResponse {
	return &llm.ChatCompletionResponse{
		Choices: []llm.Choice{{Message: llm.Message{Role: "assistant", Content: s}}},
	}
}

// fakeCaller stands in for EnrichmentClient in runner tests.
type fakeCaller struct {
	mu    sync.Mutex
	calls int
	fn    func(prompt string, n int) (string, error)
}

func (f *fakeCaller) Call(_ context.Context, prompt string, n int) (string, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return f.fn(prompt, n)
}

// fakeStore implements store.Store with in-memory upserts and a pluggable
// fetch function.
type fakeStore struct {
	mu        sync.Mutex
	upserts   map[string]model.Enrichment
	fetchFn   func(limit int, source string) ([]model.JobPosting, error)
	upsertErr func(jobID string) error
}

func newFakeStore() *fakeStore {
	return &fakeStore{upserts: make(map[string]model.Enrichment)}
}

func (f *fakeStore) FetchPending(_ context.Context, limit int, source string) ([]model.JobPosting, error) {
	if f.fetchFn == nil {
		return nil, nil
	}
	return f.fetchFn(limit, source)
}

func (f *fakeStore) CountPending(context.Context, string) (int, error) { return 0, nil }

func (f *fakeStore) UpsertEnrichment(_ context.Context, jobID string, e model.Enrichment) error {
	if f.upsertErr != nil {
		if err := f.upsertErr(jobID); err != nil {
			return err
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserts[jobID] = e
	return nil
}

func (f *fakeStore) GetEnrichment(_ context.Context, jobID string) (*model.Enrichment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if e, ok := f.upserts[jobID]; ok {
		return &e, nil
	}
	return nil, nil
}

func (f *fakeStore) InsertPostings(_ context.Context, postings []model.JobPosting) (int, error) {
	return len(postings), nil
}

func (f *fakeStore) Migrate(context.Context) error { return nil }
func (f *fakeStore) Close() error                  { return nil }

func (f *fakeStore) upsertCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.upserts)
}

// makeUnits builds n postings with sequential IDs.
func makeUnits(n int) []model.JobPosting {
	units := make([]model.JobPosting, n)
	for i := range units {
		units[i] = model.JobPosting{
			ID:          "job-" + strconv.Itoa(i),
			Title:       "Engineer " + strconv.Itoa(i),
			Company:     "Acme",
			Description: "Build things.",
		}
	}
	return units
}

// fullResults renders a provider response with n complete entries.
func fullResults(n int) string {
	out := "["
	for i := 0; i < n; i++ {
		if i > 0 {
			out += ","
		}
		out += `{"summary":"A role","skills":["go"],"seniority_level":"mid"}`
	}
	return out + "]"
}

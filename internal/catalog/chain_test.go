package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/refscout/refscout/internal/cache"
	"github.com/refscout/refscout/internal/model"
)

// stubCatalog returns scripted results per call
type stubCatalog struct {
	name    string
	records []model.CandidateRecord
	errs    []error // consumed one per call, nil entries mean success
	calls   int
}

func (s *stubCatalog) Name() string { return s.name }

func (s *stubCatalog) Search(ctx context.Context, q Query) ([]model.CandidateRecord, error) {
	call := s.calls
	s.calls++
	if call < len(s.errs) && s.errs[call] != nil {
		return nil, s.errs[call]
	}
	return s.records, nil
}

func record(id, source string) model.CandidateRecord {
	return model.CandidateRecord{ID: id, Source: source, Title: "T", Year: 2020}
}

func retryConfig() model.RetryConfig {
	return model.RetryConfig{MaxAttempts: 2, BaseDelay: time.Millisecond}
}

func TestChainUsesPrimaryFirst(t *testing.T) {
	primary := &stubCatalog{name: "openalex", records: []model.CandidateRecord{record("a", "openalex")}}
	secondary := &stubCatalog{name: "semanticscholar", records: []model.CandidateRecord{record("b", "semanticscholar")}}

	chain := NewChain([]Provider{primary, secondary}, nil, retryConfig(), time.Hour, false)

	records := chain.Search(context.Background(), Query{Title: "T"})

	if len(records) != 1 || records[0].ID != "a" {
		t.Fatalf("expected the primary record, got %+v", records)
	}
	if secondary.calls != 0 {
		t.Error("secondary should not be consulted when the primary hits")
	}
}

func TestChainFallsBackOnEmptyPrimary(t *testing.T) {
	primary := &stubCatalog{name: "openalex"}
	secondary := &stubCatalog{name: "semanticscholar", records: []model.CandidateRecord{record("b", "semanticscholar")}}

	chain := NewChain([]Provider{primary, secondary}, nil, retryConfig(), time.Hour, false)

	records := chain.Search(context.Background(), Query{Title: "T"})

	if len(records) != 1 || records[0].ID != "b" {
		t.Fatalf("expected the fallback record, got %+v", records)
	}
}

func TestChainRetriesTransientFailure(t *testing.T) {
	primary := &stubCatalog{
		name:    "openalex",
		records: []model.CandidateRecord{record("a", "openalex")},
		errs:    []error{ErrRateLimited},
	}

	chain := NewChain([]Provider{primary}, nil, retryConfig(), time.Hour, false)

	records := chain.Search(context.Background(), Query{Title: "T"})

	if len(records) != 1 {
		t.Fatalf("expected the retry to succeed, got %+v", records)
	}
	if primary.calls != 2 {
		t.Errorf("expected 2 attempts, got %d", primary.calls)
	}
}

func TestChainGivesUpAfterMaxAttempts(t *testing.T) {
	primary := &stubCatalog{
		name: "openalex",
		errs: []error{ErrRateLimited, ErrRateLimited},
	}
	secondary := &stubCatalog{name: "semanticscholar", records: []model.CandidateRecord{record("b", "semanticscholar")}}

	chain := NewChain([]Provider{primary, secondary}, nil, retryConfig(), time.Hour, false)

	records := chain.Search(context.Background(), Query{Title: "T"})

	if primary.calls != 2 {
		t.Errorf("expected the primary to be tried twice, got %d", primary.calls)
	}
	if len(records) != 1 || records[0].ID != "b" {
		t.Fatalf("expected the fallback record after retries, got %+v", records)
	}
}

func TestChainEmptyEverywhereIsNotAnError(t *testing.T) {
	primary := &stubCatalog{name: "openalex"}
	secondary := &stubCatalog{name: "semanticscholar"}

	chain := NewChain([]Provider{primary, secondary}, nil, retryConfig(), time.Hour, false)

	records := chain.Search(context.Background(), Query{Title: "Unfindable"})

	if records != nil {
		t.Errorf("expected nil records, got %+v", records)
	}
}

func TestChainCachesResults(t *testing.T) {
	primary := &stubCatalog{name: "openalex", records: []model.CandidateRecord{record("a", "openalex")}}
	store := cache.NewMemoryCache(time.Hour)

	chain := NewChain([]Provider{primary}, store, retryConfig(), time.Hour, false)

	q := Query{Title: "T", Year: 2020}
	first := chain.Search(context.Background(), q)
	second := chain.Search(context.Background(), q)

	if primary.calls != 1 {
		t.Errorf("second search should be served from cache, got %d calls", primary.calls)
	}
	if len(first) != 1 || len(second) != 1 || first[0].ID != second[0].ID {
		t.Errorf("cached result mismatch: %+v vs %+v", first, second)
	}
}

func TestChainCachesMisses(t *testing.T) {
	primary := &stubCatalog{name: "openalex"}
	secondary := &stubCatalog{name: "semanticscholar", records: []model.CandidateRecord{record("b", "semanticscholar")}}
	store := cache.NewMemoryCache(time.Hour)

	chain := NewChain([]Provider{primary, secondary}, store, retryConfig(), time.Hour, false)

	q := Query{Title: "T"}
	chain.Search(context.Background(), q)
	records := chain.Search(context.Background(), q)

	if primary.calls != 1 {
		t.Errorf("a cached miss must not requery the primary, got %d calls", primary.calls)
	}
	if len(records) != 1 || records[0].ID != "b" {
		t.Fatalf("expected the fallback record on both searches, got %+v", records)
	}
}

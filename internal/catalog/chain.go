package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/refscout/refscout/internal/cache"
	"github.com/refscout/refscout/internal/model"
)

// Chain runs a query through an ordered list of providers, falling back to
// the next one when a provider yields nothing or keeps failing. Adding a
// provider is appending to the list; the orchestration does not change.
type Chain struct {
	providers   []Provider
	cache       cache.Cache // nil disables caching
	maxAttempts int
	baseDelay   time.Duration
	cacheTTL    time.Duration
	verbose     bool
}

// NewChain creates a fallback chain over the given providers, consulted in
// order. cache may be nil.
func NewChain(providers []Provider, c cache.Cache, retry model.RetryConfig, cacheTTL time.Duration, verbose bool) *Chain {
	maxAttempts := retry.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	return &Chain{
		providers:   providers,
		cache:       c,
		maxAttempts: maxAttempts,
		baseDelay:   retry.BaseDelay,
		cacheTTL:    cacheTTL,
		verbose:     verbose,
	}
}

// Search resolves a query against the provider chain. It never returns an
// error: transient failures are retried once, persistent failures are
// logged and treated as zero candidates, and an empty result simply means
// the reference is unresolved.
func (c *Chain) Search(ctx context.Context, q Query) []model.CandidateRecord {
	for _, provider := range c.providers {
		if records, found := c.cached(provider.Name(), q); found {
			if len(records) > 0 {
				return records
			}
			continue // cached miss: fall through to the next provider
		}

		records, ok := c.searchProvider(ctx, provider, q)
		if ok {
			// Confirmed answers only; a failure is not a miss
			c.store(provider.Name(), q, records)
		}
		if len(records) > 0 {
			return records
		}
	}
	return nil
}

// searchProvider runs one provider with retry-on-transient semantics.
// ok reports whether the provider produced an answer at all, so callers
// can tell a confirmed miss from a failure.
func (c *Chain) searchProvider(ctx context.Context, provider Provider, q Query) ([]model.CandidateRecord, bool) {
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		records, err := provider.Search(ctx, q)
		if err == nil {
			return records, true
		}

		if IsTransient(err) && attempt < c.maxAttempts {
			if c.verbose {
				fmt.Fprintf(os.Stderr, "Warning: %s transient failure (attempt %d): %v\n",
					provider.Name(), attempt, err)
			}
			if !sleepCtx(ctx, c.baseDelay*time.Duration(attempt)) {
				return nil, false
			}
			continue
		}

		if c.verbose {
			fmt.Fprintf(os.Stderr, "Warning: %s search failed: %v\n", provider.Name(), err)
		}
		return nil, false
	}
	return nil, false
}

// cached looks up a previous result for this provider+query.
func (c *Chain) cached(provider string, q Query) ([]model.CandidateRecord, bool) {
	if c.cache == nil {
		return nil, false
	}
	data, found := c.cache.Get(c.key(provider, q))
	if !found {
		return nil, false
	}
	var records []model.CandidateRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, false
	}
	return records, true
}

// store caches a search result, including empty ones: a confirmed miss is
// as cacheable as a hit.
func (c *Chain) store(provider string, q Query, records []model.CandidateRecord) {
	if c.cache == nil {
		return
	}
	data, err := json.Marshal(records)
	if err != nil {
		return
	}
	_ = c.cache.Set(c.key(provider, q), data, c.cacheTTL)
}

func (c *Chain) key(provider string, q Query) string {
	return cache.Key(fmt.Sprintf("%s|%s|%d|%s|%s", provider, q.Title, q.Year, q.FirstAuthor, q.WorkType))
}

// sleepCtx sleeps for d unless the context is cancelled first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}

// Package catalog looks up bibliographic references in external scholarly
// catalogs. Providers share one capability interface so the fallback chain
// does not care which catalog it is talking to.
package catalog

import (
	"context"

	"github.com/refscout/refscout/internal/model"
)

// Query carries the structured-guess fields a provider can search on.
// Any field may be zero; providers degrade their query accordingly.
type Query struct {
	Title       string
	Year        int // 0 = unknown
	FirstAuthor string
	WorkType    model.WorkType
}

// Provider defines the interface for catalog providers.
//
// Search returns zero or more candidate records in provider ranking order.
// An empty result with a nil error means "no match found", a valid
// outcome, distinct from a transient failure (see errors.go).
type Provider interface {
	// Name returns the provider name
	Name() string

	// Search runs the provider's staged query ladder for one reference
	Search(ctx context.Context, q Query) ([]model.CandidateRecord, error)
}

// Limiter gates outbound requests per provider. worker.Limiter satisfies it.
type Limiter interface {
	Wait(ctx context.Context, key string) error
}

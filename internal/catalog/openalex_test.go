package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/refscout/refscout/internal/model"
)

// nopLimiter never blocks
type nopLimiter struct{}

func (nopLimiter) Wait(ctx context.Context, key string) error { return nil }

func newOpenAlexTestClient(baseURL, mailto string) *OpenAlexClient {
	return NewOpenAlexClient(model.OpenAlexConfig{
		BaseURL: baseURL,
		Mailto:  mailto,
		PerPage: 10,
	}, 5*time.Second, nopLimiter{})
}

const openAlexHit = `{
	"results": [{
		"id": "https://openalex.org/W2963403868",
		"title": "Attention is all you need",
		"publication_year": 2017,
		"type": "proceedings-article",
		"authorships": [
			{"author": {"display_name": "Ashish Vaswani"}, "institutions": [{"display_name": "Google Brain"}]},
			{"author": {"display_name": "Illia Polosukhin"}, "institutions": []}
		]
	}]
}`

func TestOpenAlexSearchMapsWorks(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/works") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("mailto"); got != "dev@example.org" {
			t.Errorf("expected mailto param, got %q", got)
		}
		if got := r.URL.Query().Get("per_page"); got != "10" {
			t.Errorf("expected per_page=10, got %q", got)
		}
		if filter := r.URL.Query().Get("filter"); !strings.Contains(filter, "title.search:") {
			t.Errorf("first stage should use a title filter, got %q", filter)
		}
		fmt.Fprint(w, openAlexHit)
	}))
	defer server.Close()

	client := newOpenAlexTestClient(server.URL, "dev@example.org")

	records, err := client.Search(context.Background(), Query{Title: "Attention is all you need"})
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}

	rec := records[0]
	if rec.Source != "openalex" {
		t.Errorf("unexpected source %q", rec.Source)
	}
	if rec.Title != "Attention is all you need" || rec.Year != 2017 {
		t.Errorf("unexpected record: %+v", rec)
	}
	if rec.WorkType != model.WorkTypeProceedings {
		t.Errorf("unexpected work type %q", rec.WorkType)
	}
	if len(rec.Authors) != 2 || rec.Authors[0].Affiliations[0] != "Google Brain" {
		t.Errorf("unexpected authors: %+v", rec.Authors)
	}
}

func TestOpenAlexQueryLadderRelaxes(t *testing.T) {
	var requests []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests = append(requests, r.URL.RawQuery)
		if len(requests) < 4 {
			fmt.Fprint(w, `{"results": []}`)
			return
		}
		fmt.Fprint(w, openAlexHit)
	}))
	defer server.Close()

	client := newOpenAlexTestClient(server.URL, "")

	records, err := client.Search(context.Background(), Query{
		Title:       "Attention is all you need",
		Year:        2017,
		FirstAuthor: "Ashish Vaswani",
		WorkType:    model.WorkTypeProceedings,
	})
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected the final stage to produce a record, got %d", len(records))
	}
	if len(requests) != 4 {
		t.Fatalf("expected 4 ladder stages, got %d", len(requests))
	}

	// Stage 1a carries the type filter, 1b drops it
	if !strings.Contains(requests[0], "type%3Aproceedings-article") {
		t.Errorf("stage 1a should filter by type: %s", requests[0])
	}
	if strings.Contains(requests[1], "type%3A") {
		t.Errorf("stage 1b should drop the type filter: %s", requests[1])
	}

	// Stage 2a switches to keyword search with a year window, 2b drops it
	if !strings.Contains(requests[2], "search=") || !strings.Contains(requests[2], "from_publication_date%3A2014-01-01") {
		t.Errorf("stage 2a should use keyword search with a year window: %s", requests[2])
	}
	if !strings.Contains(requests[2], "Vaswani") {
		t.Errorf("stage 2a should include the first-author surname: %s", requests[2])
	}
	if strings.Contains(requests[3], "publication_date") {
		t.Errorf("stage 2b should drop the year window: %s", requests[3])
	}
}

func TestOpenAlexRateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := newOpenAlexTestClient(server.URL, "")

	records, err := client.Search(context.Background(), Query{Title: "Anything"})
	if len(records) != 0 {
		t.Errorf("expected no records, got %d", len(records))
	}
	if !errors.Is(err, ErrRateLimited) {
		t.Errorf("expected ErrRateLimited, got %v", err)
	}
}

func TestOpenAlexServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := newOpenAlexTestClient(server.URL, "")

	_, err := client.Search(context.Background(), Query{Title: "Anything"})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusInternalServerError {
		t.Errorf("unexpected status %d", apiErr.StatusCode)
	}
	if !IsTransient(err) {
		t.Error("5xx responses should be transient")
	}
}

func TestOpenAlexEmptyTitleSkipsNetwork(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected for an empty title")
	}))
	defer server.Close()

	client := newOpenAlexTestClient(server.URL, "")

	records, err := client.Search(context.Background(), Query{})
	if err != nil || records != nil {
		t.Errorf("expected nil, nil for an empty title, got %v, %v", records, err)
	}
}

func TestNormalizeTitle(t *testing.T) {
	got := normalizeTitle("BERT: Pre-training of   Deep Bidirectional Transformers!")
	want := "BERT Pre training of Deep Bidirectional Transformers"
	if got != want {
		t.Errorf("normalizeTitle = %q, want %q", got, want)
	}
}

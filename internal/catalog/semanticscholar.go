package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/refscout/refscout/internal/model"
)

// s2Fields is the field selection for paper search; affiliations are the
// whole point of this lookup.
const s2Fields = "title,year,authors.name,authors.affiliations"

// SemanticScholarClient is the fallback catalog provider.
type SemanticScholarClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	perPage    int
	limiter    Limiter
}

// NewSemanticScholarClient creates a client for the Semantic Scholar
// graph API.
func NewSemanticScholarClient(cfg model.SemanticScholarConfig, timeout time.Duration, limiter Limiter) *SemanticScholarClient {
	perPage := cfg.PerPage
	if perPage <= 0 {
		perPage = 5
	}
	return &SemanticScholarClient{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		perPage:    perPage,
		limiter:    limiter,
	}
}

// Name returns the provider name
func (c *SemanticScholarClient) Name() string {
	return "semanticscholar"
}

// Search queries paper search by title, first with the year constraint,
// then without it when the constrained query finds nothing.
func (c *SemanticScholarClient) Search(ctx context.Context, q Query) ([]model.CandidateRecord, error) {
	if q.Title == "" {
		return nil, nil
	}

	cleanTitle := normalizeTitle(q.Title)
	var lastTransient error

	params := url.Values{
		"query":  {cleanTitle},
		"limit":  {fmt.Sprint(c.perPage)},
		"fields": {s2Fields},
	}
	if q.Year > 0 {
		params.Set("year", fmt.Sprint(q.Year))
	}

	papers, err := c.get(ctx, params)
	if err != nil {
		lastTransient = rememberTransient(lastTransient, err)
	}
	if len(papers) > 0 {
		return c.mapPapers(papers), nil
	}

	// Relax the year constraint
	if q.Year > 0 {
		params.Del("year")
		papers, err = c.get(ctx, params)
		if err != nil {
			lastTransient = rememberTransient(lastTransient, err)
		}
		if len(papers) > 0 {
			return c.mapPapers(papers), nil
		}
	}

	return nil, lastTransient
}

// s2Paper mirrors the fields consumed from a paper search result.
type s2Paper struct {
	PaperID string `json:"paperId"`
	Title   string `json:"title"`
	Year    int    `json:"year"`
	Authors []struct {
		Name         string   `json:"name"`
		Affiliations []string `json:"affiliations"`
	} `json:"authors"`
}

// get issues one paper search query against the API.
func (c *SemanticScholarClient) get(ctx context.Context, params url.Values) ([]s2Paper, error) {
	if err := c.limiter.Wait(ctx, c.Name()); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	reqURL := c.baseURL + "/paper/search?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", "refscout/0.1")
	if c.apiKey != "" {
		req.Header.Set("x-api-key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetworkError, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("%w: status %d", ErrRateLimited, resp.StatusCode)
	}
	if resp.StatusCode >= 400 {
		return nil, &APIError{
			Provider:   c.Name(),
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("HTTP %d", resp.StatusCode),
		}
	}

	var payload struct {
		Data []s2Paper `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: decoding papers: %v", ErrInvalidResponse, err)
	}

	return payload.Data, nil
}

// mapPapers converts paper results to candidate records. The search
// endpoint does not return a publication type, so WorkType stays unknown
// and the selector's type signal is neutral for these candidates.
func (c *SemanticScholarClient) mapPapers(papers []s2Paper) []model.CandidateRecord {
	records := make([]model.CandidateRecord, len(papers))
	for i, p := range papers {
		authors := make([]model.CandidateAuthor, 0, len(p.Authors))
		for _, a := range p.Authors {
			var affs []string
			for _, aff := range a.Affiliations {
				if aff != "" {
					affs = append(affs, aff)
				}
			}
			authors = append(authors, model.CandidateAuthor{
				Name:         a.Name,
				Affiliations: affs,
			})
		}
		records[i] = model.CandidateRecord{
			ID:       p.PaperID,
			Source:   c.Name(),
			Title:    p.Title,
			Year:     p.Year,
			WorkType: model.WorkTypeUnknown,
			Authors:  authors,
		}
	}
	return records
}

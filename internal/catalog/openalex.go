package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/refscout/refscout/internal/model"
)

// nonWord matches characters stripped from titles before querying.
var nonWord = regexp.MustCompile(`[^\w\s]`)

// OpenAlexClient is the primary catalog provider.
type OpenAlexClient struct {
	httpClient *http.Client
	baseURL    string
	mailto     string
	perPage    int
	limiter    Limiter
}

// NewOpenAlexClient creates a client for the OpenAlex works API.
func NewOpenAlexClient(cfg model.OpenAlexConfig, timeout time.Duration, limiter Limiter) *OpenAlexClient {
	perPage := cfg.PerPage
	if perPage <= 0 {
		perPage = 10
	}
	return &OpenAlexClient{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		mailto:     cfg.Mailto,
		perPage:    perPage,
		limiter:    limiter,
	}
}

// Name returns the provider name
func (c *OpenAlexClient) Name() string {
	return "openalex"
}

// Search runs a four-stage query ladder, most precise first:
//
//	1a. title filter + work type filter
//	1b. title filter only (when 1a had a type filter and found nothing)
//	2a. keyword search + first-author surname, publication year window
//	2b. keyword search without the year window
//
// The first stage with hits wins. A transient failure in one stage does
// not stop the ladder; it is reported only if every stage comes up empty.
func (c *OpenAlexClient) Search(ctx context.Context, q Query) ([]model.CandidateRecord, error) {
	if q.Title == "" {
		return nil, nil
	}

	cleanTitle := normalizeTitle(q.Title)
	var lastTransient error

	// Stage 1a: title filter + type
	filter := "title.search:" + cleanTitle
	if q.WorkType != "" && q.WorkType != model.WorkTypeUnknown {
		filter += ",type:" + string(q.WorkType)
	}
	works, err := c.get(ctx, url.Values{
		"filter":   {filter},
		"sort":     {"cited_by_count:desc"},
		"per_page": {fmt.Sprint(c.perPage)},
	})
	if err != nil {
		lastTransient = rememberTransient(lastTransient, err)
	}
	if len(works) > 0 {
		return c.mapWorks(works), nil
	}

	// Stage 1b: drop the type filter
	if q.WorkType != "" && q.WorkType != model.WorkTypeUnknown {
		works, err = c.get(ctx, url.Values{
			"filter":   {"title.search:" + cleanTitle},
			"sort":     {"cited_by_count:desc"},
			"per_page": {fmt.Sprint(c.perPage)},
		})
		if err != nil {
			lastTransient = rememberTransient(lastTransient, err)
		}
		if len(works) > 0 {
			return c.mapWorks(works), nil
		}
	}

	// Stage 2a: broad keyword search with a year window
	search := cleanTitle
	if surname := model.Surname(q.FirstAuthor); surname != "" {
		search += " " + surname
	}
	params := url.Values{
		"search":   {search},
		"per_page": {fmt.Sprint(c.perPage)},
	}
	if q.Year > 0 {
		params.Set("filter", fmt.Sprintf(
			"from_publication_date:%d-01-01,to_publication_date:%d-12-31",
			q.Year-3, q.Year+3))
	}
	works, err = c.get(ctx, params)
	if err != nil {
		lastTransient = rememberTransient(lastTransient, err)
	}
	if len(works) > 0 {
		return c.mapWorks(works), nil
	}

	// Stage 2b: keyword search without the year window
	if q.Year > 0 {
		params.Del("filter")
		works, err = c.get(ctx, params)
		if err != nil {
			lastTransient = rememberTransient(lastTransient, err)
		}
		if len(works) > 0 {
			return c.mapWorks(works), nil
		}
	}

	return nil, lastTransient
}

// openAlexWork mirrors the fields consumed from an OpenAlex works result.
type openAlexWork struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	PublicationYear int    `json:"publication_year"`
	Type            string `json:"type"`
	Authorships     []struct {
		Author struct {
			DisplayName string `json:"display_name"`
		} `json:"author"`
		Institutions []struct {
			DisplayName string `json:"display_name"`
		} `json:"institutions"`
	} `json:"authorships"`
}

// get issues one works query against the API.
func (c *OpenAlexClient) get(ctx context.Context, params url.Values) ([]openAlexWork, error) {
	if err := c.limiter.Wait(ctx, c.Name()); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	if c.mailto != "" {
		params.Set("mailto", c.mailto)
	}

	reqURL := c.baseURL + "/works?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
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
		Results []openAlexWork `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: decoding works: %v", ErrInvalidResponse, err)
	}

	return payload.Results, nil
}

// mapWorks converts OpenAlex works to candidate records.
func (c *OpenAlexClient) mapWorks(works []openAlexWork) []model.CandidateRecord {
	records := make([]model.CandidateRecord, len(works))
	for i, w := range works {
		authors := make([]model.CandidateAuthor, 0, len(w.Authorships))
		for _, a := range w.Authorships {
			var affs []string
			for _, inst := range a.Institutions {
				if inst.DisplayName != "" {
					affs = append(affs, inst.DisplayName)
				}
			}
			authors = append(authors, model.CandidateAuthor{
				Name:         a.Author.DisplayName,
				Affiliations: affs,
			})
		}
		records[i] = model.CandidateRecord{
			ID:       w.ID,
			Source:   c.Name(),
			Title:    w.Title,
			Year:     w.PublicationYear,
			WorkType: model.NormalizeWorkType(w.Type),
			Authors:  authors,
		}
	}
	return records
}

// normalizeTitle strips punctuation and collapses whitespace.
func normalizeTitle(title string) string {
	cleaned := nonWord.ReplaceAllString(title, " ")
	return strings.Join(strings.Fields(cleaned), " ")
}

// rememberTransient keeps the first transient error seen across stages.
func rememberTransient(prev, err error) error {
	if prev != nil {
		return prev
	}
	if IsTransient(err) {
		return err
	}
	return prev
}

package pipeline

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

const (
	fetchUserAgent = "refscout/0.1"
	maxPDFBytes    = 50 << 20 // 50 MB
)

// Fetcher downloads remote PDFs to a temporary file so the extractor can
// treat URL and local-path inputs identically.
type Fetcher struct {
	httpClient *http.Client
}

// NewFetcher creates a new Fetcher with the given timeout
func NewFetcher(timeout time.Duration) *Fetcher {
	return &Fetcher{
		httpClient: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("stopped after 3 redirects")
				}
				return nil
			},
		},
	}
}

// Fetch downloads the PDF at rawURL and returns the local path plus a
// cleanup function that removes it.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (string, func(), error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", fetchUserAgent)
	req.Header.Set("Accept", "application/pdf,*/*;q=0.8")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return "", nil, fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", nil, fmt.Errorf("unexpected status: %d %s", resp.StatusCode, resp.Status)
	}

	tmp, err := os.CreateTemp("", "refscout-*.pdf")
	if err != nil {
		return "", nil, fmt.Errorf("create temp file: %w", err)
	}
	cleanup := func() { _ = os.Remove(tmp.Name()) }

	n, err := io.Copy(tmp, io.LimitReader(resp.Body, maxPDFBytes+1))
	closeErr := tmp.Close()

	switch {
	case err != nil:
		cleanup()
		return "", nil, fmt.Errorf("download body: %w", err)
	case closeErr != nil:
		cleanup()
		return "", nil, fmt.Errorf("close temp file: %w", closeErr)
	case n > maxPDFBytes:
		cleanup()
		return "", nil, fmt.Errorf("document exceeds %d bytes", int64(maxPDFBytes))
	}

	return tmp.Name(), cleanup, nil
}

package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/refscout/refscout/internal/model"
)

const parseSystem = "You are a precise bibliographic parser. " +
	"Always answer with a single JSON object and nothing else."

const parsePromptTemplate = `Parse this bibliography reference into structured fields.

Reference:
%s

Respond with exactly this JSON shape:
{"title": "...", "year": "1984", "authors": ["A. Author"], "emails": []}

Rules:
- "title" is the title of the work, without surrounding quotes.
- "year" is the four-digit publication year as a string, or "null" if unsure.
- "authors" is a JSON array of author names in the order they appear.
- "emails" is a JSON array of email addresses found in the reference (empty if none).`

const inferTypeSystem = "You classify bibliographic references. " +
	"Answer with a single label and nothing else."

const inferTypePromptTemplate = `What kind of work does this reference cite?

Reference:
%s

Answer with exactly one of: "book", "journal-article", "proceedings-article", "book-chapter", "unknown".`

// yearPattern matches a plausible publication year (1500-2099).
var yearPattern = regexp.MustCompile(`\b(1[5-9]\d{2}|20\d{2})\b`)

// Extractor turns raw reference text into a StructuredGuess using an LLM
// provider. Every failure degrades to an empty guess so the pipeline can
// keep going on raw-text fallbacks alone.
type Extractor struct {
	provider Provider
	config   Config
	verbose  bool
}

// NewExtractor creates an extractor backed by the configured provider.
// Provider may be nil, in which case every extraction yields DefaultGuess.
func NewExtractor(provider Provider, config Config, verbose bool) *Extractor {
	return &Extractor{
		provider: provider,
		config:   config,
		verbose:  verbose,
	}
}

// DefaultGuess is the documented all-empty guess used when extraction
// fails or no provider is configured.
func DefaultGuess() model.StructuredGuess {
	return model.StructuredGuess{WorkType: model.WorkTypeUnknown}
}

// Extract parses a reference and infers its work type. It never returns an
// error: extraction failure is an expected condition, handled by degrading
// the guess rather than aborting the reference.
func (e *Extractor) Extract(ctx context.Context, refText string) model.StructuredGuess {
	if e.provider == nil {
		return DefaultGuess()
	}

	guess := e.parseReference(ctx, refText)
	guess.WorkType = e.inferWorkType(ctx, refText)
	return guess
}

// parseReference asks the model for title/year/authors/emails.
func (e *Extractor) parseReference(ctx context.Context, refText string) model.StructuredGuess {
	resp, err := e.provider.Complete(ctx, CompletionRequest{
		System:    parseSystem,
		Prompt:    fmt.Sprintf(parsePromptTemplate, refText),
		Model:     e.config.Model,
		MaxTokens: e.config.MaxTokens,
	})
	if err != nil {
		if e.verbose {
			fmt.Fprintf(os.Stderr, "Warning: reference parse failed: %v\n", err)
		}
		return DefaultGuess()
	}

	var parsed struct {
		Title   string   `json:"title"`
		Year    string   `json:"year"`
		Authors []string `json:"authors"`
		Emails  []string `json:"emails"`
	}
	if err := json.Unmarshal([]byte(extractJSONObject(resp.Text)), &parsed); err != nil {
		if e.verbose {
			fmt.Fprintf(os.Stderr, "Warning: unparseable LLM output: %v\n", err)
		}
		return DefaultGuess()
	}

	guess := DefaultGuess()
	guess.Title = strings.TrimSpace(parsed.Title)
	guess.Year = parseYear(parsed.Year)
	for _, a := range parsed.Authors {
		if a = strings.TrimSpace(a); a != "" {
			guess.Authors = append(guess.Authors, a)
		}
	}
	for _, m := range parsed.Emails {
		if m = strings.TrimSpace(m); m != "" {
			guess.Emails = append(guess.Emails, m)
		}
	}
	return guess
}

// inferWorkType asks the model for a type label and normalizes it.
func (e *Extractor) inferWorkType(ctx context.Context, refText string) model.WorkType {
	resp, err := e.provider.Complete(ctx, CompletionRequest{
		System:    inferTypeSystem,
		Prompt:    fmt.Sprintf(inferTypePromptTemplate, refText),
		Model:     e.config.Model,
		MaxTokens: 16,
	})
	if err != nil {
		if e.verbose {
			fmt.Fprintf(os.Stderr, "Warning: work type inference failed: %v\n", err)
		}
		return model.WorkTypeUnknown
	}

	return model.NormalizeWorkType(strings.Trim(resp.Text, `"' `))
}

// parseYear extracts a plausible four-digit year from the model's answer.
// Returns 0 when the answer is "null", empty, or contains no year.
func parseYear(raw string) int {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.EqualFold(raw, "null") {
		return 0
	}
	m := yearPattern.FindString(raw)
	if m == "" {
		return 0
	}
	year := 0
	for _, d := range m {
		year = year*10 + int(d-'0')
	}
	return year
}

// extractJSONObject pulls the outermost JSON object out of a completion
// that may be wrapped in markdown fences or prose.
func extractJSONObject(text string) string {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return text
	}
	return text[start : end+1]
}

package llm

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/refscout/refscout/internal/model"
)

// MockProvider implements the Provider interface for testing
type MockProvider struct {
	name      string
	available bool
	// responses are returned in call order
	responses []string
	err       error
	calls     int
}

func (m *MockProvider) Name() string {
	return m.name
}

func (m *MockProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	if m.err != nil {
		return nil, m.err
	}
	text := ""
	if m.calls < len(m.responses) {
		text = m.responses[m.calls]
	}
	m.calls++
	return &CompletionResponse{Text: text, Model: "mock"}, nil
}

func (m *MockProvider) IsAvailable(ctx context.Context) bool {
	return m.available
}

func TestExtractor_Extract_FullParse(t *testing.T) {
	provider := &MockProvider{
		name: "mock",
		responses: []string{
			`{"title": "Attention Is All You Need", "year": "2017", "authors": ["A. Vaswani", "N. Shazeer"], "emails": ["vaswani@example.com"]}`,
			`proceedings-article`,
		},
	}

	e := NewExtractor(provider, DefaultConfig(), false)
	guess := e.Extract(context.Background(), "[Vas '17] A. Vaswani et al. Attention is all you need. NeurIPS 2017.")

	if guess.Title != "Attention Is All You Need" {
		t.Errorf("Unexpected title: %q", guess.Title)
	}
	if guess.Year != 2017 {
		t.Errorf("Expected year 2017, got %d", guess.Year)
	}
	if len(guess.Authors) != 2 || guess.Authors[0] != "A. Vaswani" {
		t.Errorf("Unexpected authors: %v", guess.Authors)
	}
	if len(guess.Emails) != 1 || guess.Emails[0] != "vaswani@example.com" {
		t.Errorf("Unexpected emails: %v", guess.Emails)
	}
	if guess.WorkType != model.WorkTypeProceedings {
		t.Errorf("Expected proceedings-article, got %s", guess.WorkType)
	}
}

func TestExtractor_Extract_FencedJSON(t *testing.T) {
	provider := &MockProvider{
		name: "mock",
		responses: []string{
			"```json\n{\"title\": \"Literate Programming\", \"year\": \"1984\", \"authors\": [\"D. Knuth\"], \"emails\": []}\n```",
			`"journal article"`,
		},
	}

	e := NewExtractor(provider, DefaultConfig(), false)
	guess := e.Extract(context.Background(), "[Knuth '84] ...")

	if guess.Title != "Literate Programming" {
		t.Errorf("Fenced JSON should still parse, got title %q", guess.Title)
	}
	if guess.WorkType != model.WorkTypeArticle {
		t.Errorf("Quoted label should normalize, got %s", guess.WorkType)
	}
}

func TestExtractor_Extract_ProviderError(t *testing.T) {
	provider := &MockProvider{
		name: "mock",
		err:  errors.New("connection refused"),
	}

	e := NewExtractor(provider, DefaultConfig(), false)
	guess := e.Extract(context.Background(), "[Hill '79] ...")

	if !guess.Empty() {
		t.Errorf("Expected empty guess on provider error, got %+v", guess)
	}
	if guess.WorkType != model.WorkTypeUnknown {
		t.Errorf("Expected unknown work type on provider error, got %s", guess.WorkType)
	}
}

func TestExtractor_Extract_UnparseableOutput(t *testing.T) {
	provider := &MockProvider{
		name:      "mock",
		responses: []string{"Sorry, I cannot parse that reference.", "unknown"},
	}

	e := NewExtractor(provider, DefaultConfig(), false)
	guess := e.Extract(context.Background(), "[Hill '79] ...")

	if !guess.Empty() {
		t.Errorf("Expected empty guess for unparseable output, got %+v", guess)
	}
}

func TestExtractor_Extract_NilProvider(t *testing.T) {
	e := NewExtractor(nil, DefaultConfig(), false)
	guess := e.Extract(context.Background(), "[Hill '79] ...")

	if !guess.Empty() || guess.WorkType != model.WorkTypeUnknown {
		t.Errorf("Nil provider should yield the default guess, got %+v", guess)
	}
}

func TestParseYear(t *testing.T) {
	tests := []struct {
		raw  string
		want int
	}{
		{"2017", 2017},
		{"null", 0},
		{"", 0},
		{"published in 1984.", 1984},
		{"circa 1490s", 0}, // no word boundary inside "1490s"
		{"12", 0},
		{"3017", 0},
	}

	for _, tt := range tests {
		got := parseYear(tt.raw)
		if got != tt.want {
			t.Errorf("parseYear(%q) = %d, want %d", tt.raw, got, tt.want)
		}
	}
}

func TestExtractJSONObject(t *testing.T) {
	in := "Here you go:\n```json\n{\"title\": \"X\"}\n```\nanything else"
	out := extractJSONObject(in)
	if !strings.HasPrefix(out, "{") || !strings.HasSuffix(out, "}") {
		t.Errorf("Expected bare JSON object, got %q", out)
	}
}

package model

import "strings"

// RawReference is one reference string as it appeared in the source PDF.
// Index is its position in the bibliography (0-based) and is what keeps
// output rows in document order no matter how processing is scheduled.
type RawReference struct {
	Index int
	Text  string
}

// StructuredGuess is the LLM's best-effort parse of a raw reference.
// Every field may be empty; downstream stages treat it as low-confidence
// evidence, never as authoritative.
type StructuredGuess struct {
	Title    string
	Year     int // 0 = unknown
	Authors  []string
	Emails   []string
	WorkType WorkType
}

// Empty reports whether the guess carries no usable signal at all.
func (g StructuredGuess) Empty() bool {
	return g.Title == "" && g.Year == 0 && len(g.Authors) == 0 && len(g.Emails) == 0
}

// FirstAuthor returns the first parsed author name, or "".
func (g StructuredGuess) FirstAuthor() string {
	if len(g.Authors) == 0 {
		return ""
	}
	return g.Authors[0]
}

// WorkType classifies a scholarly work using OpenAlex type vocabulary.
type WorkType string

const (
	WorkTypeUnknown     WorkType = "unknown"
	WorkTypeBook        WorkType = "book"
	WorkTypeArticle     WorkType = "journal-article"
	WorkTypeProceedings WorkType = "proceedings-article"
	WorkTypeChapter     WorkType = "book-chapter"
)

// workTypeAliases maps the free-form labels an LLM tends to emit onto the
// canonical vocabulary.
var workTypeAliases = map[string]WorkType{
	"book":                WorkTypeBook,
	"books":               WorkTypeBook,
	"journal-article":     WorkTypeArticle,
	"journal article":     WorkTypeArticle,
	"article":             WorkTypeArticle,
	"paper":               WorkTypeArticle,
	"proceedings-article": WorkTypeProceedings,
	"conference paper":    WorkTypeProceedings,
	"conference-paper":    WorkTypeProceedings,
	"book-chapter":        WorkTypeChapter,
	"chapter":             WorkTypeChapter,
}

// NormalizeWorkType maps a free-form type label to a WorkType.
// Unrecognized labels become WorkTypeUnknown.
func NormalizeWorkType(raw string) WorkType {
	key := strings.ToLower(strings.TrimSpace(raw))
	if wt, ok := workTypeAliases[key]; ok {
		return wt
	}
	if wt, ok := workTypeAliases[strings.ReplaceAll(key, " ", "-")]; ok {
		return wt
	}
	return WorkTypeUnknown
}

// Surname extracts the last name token from a free-form author name.
// Handles both "First Last" and "Last, First" forms.
func Surname(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	if idx := strings.Index(name, ","); idx >= 0 {
		name = name[:idx]
	}
	var b strings.Builder
	for _, r := range name {
		if r == '-' || r == '\'' || r == ' ' ||
			(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || r >= 0x80 {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}
	tokens := strings.Fields(b.String())
	if len(tokens) == 0 {
		return ""
	}
	return tokens[len(tokens)-1]
}

package pdfref

import (
	"strings"

	"github.com/refscout/refscout/internal/model"
)

// minReferenceLength filters out stray bracket fragments (page numbers,
// inline citation markers) that survive the split.
const minReferenceLength = 30

// SplitReferences segments bibliography text into ordered raw references.
// Banner lines ("Bibliography", horizontal rules) are dropped, then the
// text is split before every line that starts with '[', the entry marker
// in "[Hill '79] ..." style bibliographies.
func SplitReferences(rawText string) []model.RawReference {
	var kept []string
	for _, line := range strings.Split(rawText, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "Bibliography") || strings.HasPrefix(trimmed, "———") {
			continue
		}
		kept = append(kept, line)
	}
	cleaned := strings.Join(kept, "\n")

	var refs []model.RawReference
	for _, part := range splitBeforeBracketLines(cleaned) {
		part = strings.TrimSpace(part)
		if !strings.HasPrefix(part, "[") || len(part) <= minReferenceLength {
			continue
		}
		refs = append(refs, model.RawReference{Index: len(refs), Text: part})
	}
	return refs
}

// splitBeforeBracketLines splits text before every '[' that begins a line,
// keeping the bracket with the segment that follows it.
func splitBeforeBracketLines(text string) []string {
	var idxs []int
	for i := 0; i < len(text); i++ {
		if text[i] == '[' && (i == 0 || text[i-1] == '\n') {
			idxs = append(idxs, i)
		}
	}
	if len(idxs) == 0 {
		return []string{text}
	}

	var parts []string
	prev := 0
	for _, i := range idxs {
		if i > prev {
			parts = append(parts, text[prev:i])
		}
		prev = i
	}
	parts = append(parts, text[prev:])
	return parts
}

package reconcile

import (
	"regexp"
	"strings"

	"github.com/refscout/refscout/internal/model"
)

const titleFallbackLength = 120

var emailPattern = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)

// Reconciler merges catalog records, extraction guesses and the raw
// reference text into one output row. Field precedence is fixed: catalog
// beats guess, guess beats raw-text fallback, and missing stays an
// explicit empty string.
type Reconciler struct{}

// NewReconciler creates a new reconciler
func NewReconciler() *Reconciler {
	return &Reconciler{}
}

// Row builds the output row for one reference. decision.Chosen may be
// nil; the row then degrades to extraction data with a note saying so.
func (r *Reconciler) Row(ref model.RawReference, guess model.StructuredGuess, decision model.MatchDecision) model.OutputRow {
	row := model.OutputRow{
		ReferenceRaw: ref.Text,
	}

	var notes []string

	if decision.Chosen != nil {
		chosen := decision.Chosen

		row.PaperTitle = chosen.Title
		row.Year = chosen.Year

		first := chosen.FirstAuthor()
		last := chosen.LastAuthor()
		row.FirstAuthorName = first.Name
		row.FirstAuthorAffiliation = joinDistinct(first.Affiliations)
		row.LastAuthorName = last.Name
		row.LastAuthorAffiliation = joinDistinct(last.Affiliations)
	} else {
		notes = append(notes, "unresolved: no catalog match, using parsed data")
	}

	// Guess fills whatever the catalog left blank
	if row.PaperTitle == "" {
		row.PaperTitle = guess.Title
	}
	if row.Year == 0 {
		row.Year = guess.Year
	}
	if row.FirstAuthorName == "" {
		row.FirstAuthorName = guess.FirstAuthor()
	}
	// A lone parsed author fills the first column only; first and last
	// coincide only when a catalog record confirms it.
	if row.LastAuthorName == "" && len(guess.Authors) > 1 {
		row.LastAuthorName = guess.Authors[len(guess.Authors)-1]
	}

	// Raw-text fallbacks for whatever is still missing
	if row.PaperTitle == "" {
		row.PaperTitle = titleFallback(ref.Text)
		notes = append(notes, "title is a raw-text excerpt")
	}

	emails := guess.Emails
	if len(emails) == 0 {
		emails = emailPattern.FindAllString(ref.Text, -1)
	}
	// Extracted emails cannot be attributed to a specific author, so both
	// author columns carry the full set.
	joined := joinDistinct(emails)
	row.FirstAuthorEmails = joined
	row.LastAuthorEmails = joined

	if decision.Rationale != "" {
		notes = append(notes, decision.Rationale)
	}
	row.Notes = strings.Join(notes, "; ")

	return row
}

// titleFallback returns a short excerpt of the raw reference for rows
// where no title could be recovered at all.
func titleFallback(raw string) string {
	text := strings.Join(strings.Fields(raw), " ")
	if text == "" {
		return ""
	}
	if len(text) <= titleFallbackLength {
		return text
	}

	cut := text[:titleFallbackLength]
	if idx := strings.LastIndex(cut, " "); idx > 0 {
		cut = cut[:idx]
	}
	return cut + "..."
}

// joinDistinct joins values with "; ", dropping blanks and duplicates
// while preserving first-seen order.
func joinDistinct(values []string) string {
	seen := make(map[string]bool, len(values))
	var kept []string

	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		kept = append(kept, v)
	}

	return strings.Join(kept, "; ")
}

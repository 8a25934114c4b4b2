package model

// OutputRow is the reconciled record written to the report, one per input
// reference. Every field is populated with the best available evidence or
// left as an explicit empty string, never dropped.
type OutputRow struct {
	PaperTitle             string
	Year                   int // 0 renders as empty
	FirstAuthorName        string
	FirstAuthorAffiliation string // ordered, de-duplicated, semicolon-joined
	FirstAuthorEmails      string
	LastAuthorName         string
	LastAuthorAffiliation  string
	LastAuthorEmails       string
	ReferenceRaw           string
	Notes                  string
}

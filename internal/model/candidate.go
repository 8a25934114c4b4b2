package model

// CandidateAuthor is one author on a catalog record, with whatever
// affiliations the catalog knows about, in catalog order.
type CandidateAuthor struct {
	Name         string
	Affiliations []string
}

// CandidateRecord is one external catalog hit for a reference. Candidates
// are ephemeral: they exist only within a single resolution attempt.
type CandidateRecord struct {
	ID       string // catalog-specific identifier (OpenAlex work ID, S2 paper ID)
	Source   string // provider name that returned this record
	Title    string
	Year     int // 0 = unknown
	WorkType WorkType
	Authors  []CandidateAuthor
}

// FirstAuthor returns the first author, or a zero CandidateAuthor.
func (c CandidateRecord) FirstAuthor() CandidateAuthor {
	if len(c.Authors) == 0 {
		return CandidateAuthor{}
	}
	return c.Authors[0]
}

// LastAuthor returns the final author. With a single author, first and
// last coincide.
func (c CandidateRecord) LastAuthor() CandidateAuthor {
	if len(c.Authors) == 0 {
		return CandidateAuthor{}
	}
	return c.Authors[len(c.Authors)-1]
}

// MatchDecision is the Match Selector's verdict for one reference.
// Invariant: Rejected implies Chosen == nil; a reference is never
// force-matched.
type MatchDecision struct {
	Chosen    *CandidateRecord
	Rationale string
	Rejected  bool
}

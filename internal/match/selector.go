package match

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/refscout/refscout/internal/model"
)

// Signal weights. Title dominates: a catalog record with the wrong title
// is the wrong work no matter how well the rest lines up.
const (
	weightTitle   = 0.55
	weightAuthors = 0.25
	weightYear    = 0.12
	weightType    = 0.08
)

var nonWordPattern = regexp.MustCompile(`[^\p{L}\p{N}\s]+`)

// Selector picks the best catalog candidate for an extracted reference.
// It is pure: same guess and candidates always yield the same decision.
type Selector struct {
	config model.MatchConfig
}

// NewSelector creates a new selector
func NewSelector(config model.MatchConfig) *Selector {
	return &Selector{config: config}
}

type scoredCandidate struct {
	candidate model.CandidateRecord
	position  int
	score     float64
	title     float64
	authors   float64
	year      float64
	workType  float64
	typeMatch bool
}

// Select scores every candidate against the guess and returns a decision.
// Candidates whose title similarity falls below the reject floor with no
// author overlap are discarded outright, whatever their combined score.
func (s *Selector) Select(guess model.StructuredGuess, candidates []model.CandidateRecord) model.MatchDecision {
	if len(candidates) == 0 {
		return model.MatchDecision{
			Rejected:  true,
			Rationale: "no catalog candidates returned",
		}
	}

	scored := make([]scoredCandidate, 0, len(candidates))
	floored := 0

	for i, candidate := range candidates {
		sc := s.score(guess, candidate, i)

		if sc.title < s.config.RejectFloor && sc.authors == 0 {
			floored++
			continue
		}

		scored = append(scored, sc)
	}

	if len(scored) == 0 {
		return model.MatchDecision{
			Rejected: true,
			Rationale: fmt.Sprintf("all %d candidates below title floor %.2f with no author overlap",
				floored, s.config.RejectFloor),
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].score != scored[j].score {
			return scored[i].score > scored[j].score
		}
		if scored[i].typeMatch != scored[j].typeMatch {
			return scored[i].typeMatch
		}
		return scored[i].position < scored[j].position
	})

	best := scored[0]

	if best.score < s.config.AcceptThreshold {
		return model.MatchDecision{
			Rejected: true,
			Rationale: fmt.Sprintf("best candidate %q scored %.2f, below accept threshold %.2f",
				best.candidate.Title, best.score, s.config.AcceptThreshold),
		}
	}

	chosen := best.candidate
	return model.MatchDecision{
		Chosen: &chosen,
		Rationale: fmt.Sprintf("matched %s record (score %.2f: title %.2f, authors %.2f, year %.2f, type %.2f)",
			chosen.Source, best.score, best.title, best.authors, best.year, best.workType),
	}
}

// score computes the weighted signal combination for one candidate
func (s *Selector) score(guess model.StructuredGuess, candidate model.CandidateRecord, position int) scoredCandidate {
	title := titleSimilarity(guess.Title, candidate.Title)
	authors := authorOverlap(guess.Authors, candidate.Authors)
	year := s.yearProximity(guess.Year, candidate.Year)
	workType, typeMatch := typeConsistency(guess.WorkType, candidate.WorkType)

	total := weightTitle*title + weightAuthors*authors + weightYear*year + weightType*workType

	return scoredCandidate{
		candidate: candidate,
		position:  position,
		score:     total,
		title:     title,
		authors:   authors,
		year:      year,
		workType:  workType,
		typeMatch: typeMatch,
	}
}

// titleSimilarity computes token overlap between two titles (Dice
// coefficient over normalized token sets).
func titleSimilarity(a, b string) float64 {
	tokensA := tokenize(a)
	tokensB := tokenize(b)

	if len(tokensA) == 0 || len(tokensB) == 0 {
		return 0
	}

	setA := make(map[string]bool, len(tokensA))
	for _, tok := range tokensA {
		setA[tok] = true
	}
	setB := make(map[string]bool, len(tokensB))
	for _, tok := range tokensB {
		setB[tok] = true
	}

	common := 0
	for tok := range setA {
		if setB[tok] {
			common++
		}
	}

	return 2 * float64(common) / float64(len(setA)+len(setB))
}

// authorOverlap computes the fraction of guessed author surnames that
// appear among the candidate's authors.
func authorOverlap(guessed []string, candidates []model.CandidateAuthor) float64 {
	if len(guessed) == 0 || len(candidates) == 0 {
		return 0
	}

	candidateSurnames := make(map[string]bool, len(candidates))
	for _, author := range candidates {
		if surname := model.Surname(author.Name); surname != "" {
			candidateSurnames[strings.ToLower(surname)] = true
		}
	}

	if len(candidateSurnames) == 0 {
		return 0
	}

	matched := 0
	counted := 0
	for _, name := range guessed {
		surname := model.Surname(name)
		if surname == "" {
			continue
		}
		counted++
		if candidateSurnames[strings.ToLower(surname)] {
			matched++
		}
	}

	if counted == 0 {
		return 0
	}

	return float64(matched) / float64(counted)
}

// yearProximity scores publication-year agreement. Unknown years on
// either side are neutral rather than penalized: extraction often fails
// to find a year that the catalog record carries.
func (s *Selector) yearProximity(guessed, candidate int) float64 {
	if guessed == 0 || candidate == 0 {
		return 0.5
	}

	diff := guessed - candidate
	if diff < 0 {
		diff = -diff
	}

	switch {
	case diff == 0:
		return 1.0
	case diff == 1:
		return 0.75
	case diff <= s.config.YearTolerance:
		return 0.5
	default:
		return 0
	}
}

// typeConsistency scores work-type agreement. Only an explicit conflict
// (both sides known and different) scores zero.
func typeConsistency(guessed, candidate model.WorkType) (float64, bool) {
	if guessed == "" || guessed == model.WorkTypeUnknown ||
		candidate == "" || candidate == model.WorkTypeUnknown {
		return 1.0, false
	}

	if guessed == candidate {
		return 1.0, true
	}

	return 0, false
}

// tokenize lowercases, strips punctuation and splits on whitespace
func tokenize(s string) []string {
	cleaned := nonWordPattern.ReplaceAllString(strings.ToLower(s), " ")
	return strings.Fields(cleaned)
}

package dialogue

import (
	"math"
	"sort"

	"go-insure/internal/retrieval"
	"go-insure/internal/session"
)

const shownLimit = 2

type candidate struct {
	doc   retrieval.Document
	score int
}

// scoreCandidate rates a document against the profile. A criterion is
// skipped when either side lacks the number it needs.
func scoreCandidate(doc retrieval.Document, s *session.Session) int {
	score := 0
	if premium, ok := doc.Number("premium"); ok && s.Budget > 0 {
		if premium <= float64(s.Budget) {
			score += 10
		} else {
			score -= 5
		}
	}
	if cover, ok := documentCoverage(doc); ok && s.Coverage > 0 {
		want := float64(s.Coverage)
		switch {
		case math.Abs(cover-want) <= want*0.10:
			score += 10
		case cover >= want:
			score += 5
		}
	}
	if s.PolicyTerm > 0 {
		min, okMin := doc.Number("policy_term_min")
		max, okMax := doc.Number("policy_term_max")
		term := float64(s.PolicyTerm)
		if okMin && okMax && term >= min && term <= max {
			score += 10
		}
	}
	return score
}

func documentCoverage(doc retrieval.Document) (float64, bool) {
	if v, ok := doc.Number("coverage_amount"); ok {
		return v, true
	}
	return doc.Number("sum_assured")
}

// rankDocuments orders docs by descending score, keeping retrieval order on
// ties, and returns at most limit of them.
func rankDocuments(docs []retrieval.Document, s *session.Session, limit int) []retrieval.Document {
	cands := make([]candidate, len(docs))
	for i, d := range docs {
		cands[i] = candidate{doc: d, score: scoreCandidate(d, s)}
	}
	sort.SliceStable(cands, func(i, j int) bool { return cands[i].score > cands[j].score })
	if len(cands) > limit {
		cands = cands[:limit]
	}
	out := make([]retrieval.Document, len(cands))
	for i, c := range cands {
		out[i] = c.doc
	}
	return out
}

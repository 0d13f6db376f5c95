// Package risk converts similarity search results into a bounded risk score.
package risk

import (
	"sort"

	"trulogo-server-go/internal/domain/index"
	"trulogo-server-go/internal/domain/mark"
	"trulogo-server-go/internal/utils"
)

// similarityKnee is the point above which the score jumps onto the
// escalated branch. The discontinuity is intentional: anything more than
// 20% similar must never read as reassuringly low risk.
const similarityKnee = 0.20

// escalationFloor is the minimum score forced by an unsafe safety result.
const escalationFloor = 85

// SimilarityFromDistance normalizes a namespace distance in [0,2] to a
// similarity in [0,1]; out-of-range inputs are clamped.
func SimilarityFromDistance(distance float64) float64 {
	return utils.Clamp(1-distance/2, 0, 1)
}

// Scorer derives the aggregate risk score from the nearest match. Only the
// top match drives the score; the rest of the list is annotated for display
// and otherwise ignored.
type Scorer struct{}

func NewScorer() *Scorer {
	return &Scorer{}
}

// Score computes the risk assessment for a set of matches and a safety
// result. The returned match slice is a copy sorted ascending by distance,
// each entry annotated with its display similarity.
func (s *Scorer) Score(matches []index.Match, safetyResult mark.SafetyResult) (mark.RiskAssessment, []index.Match) {
	annotated := append([]index.Match(nil), matches...)
	if !sort.SliceIsSorted(annotated, func(i, j int) bool { return annotated[i].Distance < annotated[j].Distance }) {
		sort.Slice(annotated, func(i, j int) bool { return annotated[i].Distance < annotated[j].Distance })
	}

	for i := range annotated {
		// Display similarity is only clamped at zero, matching the raw
		// per-match figures users compare against the aggregate.
		sim := 1 - annotated[i].Distance/2
		if sim < 0 {
			sim = 0
		}
		annotated[i].Similarity = sim
	}

	similarity := 0.0
	if len(annotated) > 0 {
		similarity = SimilarityFromDistance(annotated[0].Distance)
	}

	var score float64
	if similarity > similarityKnee {
		score = 50 + ((similarity-similarityKnee)/(1-similarityKnee))*50
	} else {
		score = similarity * 100
	}

	if !safetyResult.IsSafe() && score < escalationFloor {
		score = escalationFloor
	}

	score = utils.Round2(utils.Clamp(score, 0, 100))
	return mark.NewRiskAssessment(score), annotated
}

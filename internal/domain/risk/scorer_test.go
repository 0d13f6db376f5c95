package risk

import (
	"math"
	"testing"

	"trulogo-server-go/internal/domain/index"
	"trulogo-server-go/internal/domain/mark"
)

var safe = mark.SafetyResult{}

var unsafeResult = mark.SafetyResult{Flags: []mark.SafetyFlag{
	{Type: "content", Severity: mark.SeverityHigh, Message: "restricted"},
}}

func scoreFor(t *testing.T, distance float64, safety mark.SafetyResult) float64 {
	t.Helper()
	scorer := NewScorer()
	assessment, _ := scorer.Score([]index.Match{{Key: "m", Distance: distance}}, safety)
	return assessment.Score
}

func TestSimilarityFromDistance(t *testing.T) {
	cases := []struct {
		distance, want float64
	}{
		{distance: 0, want: 1},
		{distance: 0.3, want: 0.85},
		{distance: 1, want: 0.5},
		{distance: 2, want: 0},
		{distance: 2.5, want: 0}, // clamped
		{distance: -0.5, want: 1},
	}
	for _, tc := range cases {
		if got := SimilarityFromDistance(tc.distance); math.Abs(got-tc.want) > 1e-9 {
			t.Fatalf("SimilarityFromDistance(%v) = %v, want %v", tc.distance, got, tc.want)
		}
	}
}

func TestScoreKneeBoundary(t *testing.T) {
	// similarity 0.20 exactly stays on the raw branch: 0.20*100 = 20... the
	// raw branch maps linearly into 0-25 only via distances; s=0.20 comes
	// from distance 1.6.
	if got := scoreFor(t, 1.6, safe); got != 20 {
		t.Fatalf("s=0.20 raw branch: got %v, want 20", got)
	}

	// Just above the knee jumps onto the escalated branch (>50).
	got := scoreFor(t, 1.59, safe) // s = 0.205
	if got <= 50 {
		t.Fatalf("s just above 0.20 must escalate past 50, got %v", got)
	}

	// similarity 0.25 maps to 25 on the raw branch... 0.25 > knee so it is
	// escalated; the raw band tops out at s=0.20.
	if got := scoreFor(t, 1.7, safe); got != 15 {
		t.Fatalf("s=0.15 raw branch: got %v, want 15", got)
	}
}

func TestScorePerfectSimilarity(t *testing.T) {
	if got := scoreFor(t, 0, safe); got != 100 {
		t.Fatalf("s=1.0 should score 100, got %v", got)
	}
}

func TestScoreKnownPoint(t *testing.T) {
	// distance 0.3 -> s=0.85 -> 50 + ((0.85-0.20)/0.80)*50 = 90.625,
	// rounded to 90.63 for reporting.
	got := scoreFor(t, 0.3, safe)
	if got != 90.63 {
		t.Fatalf("distance 0.3: got %v, want 90.63", got)
	}
}

func TestScoreMonotonicInSimilarity(t *testing.T) {
	scorer := NewScorer()
	prev := -1.0
	for d := 2.0; d >= 0; d -= 0.01 {
		assessment, _ := scorer.Score([]index.Match{{Distance: d}}, safe)
		if assessment.Score < prev {
			t.Fatalf("score decreased as similarity rose: distance %v score %v prev %v", d, assessment.Score, prev)
		}
		prev = assessment.Score
	}
}

func TestScoreNoMatches(t *testing.T) {
	scorer := NewScorer()
	assessment, annotated := scorer.Score(nil, safe)
	if assessment.Score != 0 {
		t.Fatalf("no matches must score 0, got %v", assessment.Score)
	}
	if assessment.Level != mark.RiskLow {
		t.Fatalf("no matches must be Low, got %s", assessment.Level)
	}
	if len(annotated) != 0 {
		t.Fatalf("expected no annotated matches")
	}
}

func TestScoreSafetyEscalation(t *testing.T) {
	// A High severity flag forces at least 85 regardless of similarity.
	if got := scoreFor(t, 2.0, unsafeResult); got != 85 {
		t.Fatalf("unsafe with zero similarity: got %v, want 85", got)
	}

	// But it never lowers an already higher score.
	if got := scoreFor(t, 0, unsafeResult); got != 100 {
		t.Fatalf("unsafe with s=1.0: got %v, want 100", got)
	}

	scorer := NewScorer()
	assessment, _ := scorer.Score(nil, unsafeResult)
	if assessment.Score != 85 {
		t.Fatalf("unsafe with no matches: got %v, want 85", assessment.Score)
	}
}

func TestScoreSortsUnsortedMatches(t *testing.T) {
	scorer := NewScorer()
	assessment, annotated := scorer.Score([]index.Match{
		{Key: "far", Distance: 1.8},
		{Key: "near", Distance: 0.3},
	}, safe)

	if annotated[0].Key != "near" {
		t.Fatalf("matches must be sorted ascending before use: %+v", annotated)
	}
	if assessment.Score != 90.63 {
		t.Fatalf("score must come from nearest match, got %v", assessment.Score)
	}
}

func TestScoreAnnotatesPerMatchSimilarity(t *testing.T) {
	scorer := NewScorer()
	_, annotated := scorer.Score([]index.Match{
		{Key: "near", Distance: 0.3},
		{Key: "far", Distance: 1.9},
	}, safe)

	if math.Abs(annotated[0].Similarity-0.85) > 1e-9 {
		t.Fatalf("near similarity = %v, want 0.85", annotated[0].Similarity)
	}
	if math.Abs(annotated[1].Similarity-0.05) > 1e-9 {
		t.Fatalf("far similarity = %v, want 0.05", annotated[1].Similarity)
	}
}

func TestScoreDoesNotMutateInput(t *testing.T) {
	scorer := NewScorer()
	input := []index.Match{{Key: "b", Distance: 1.0}, {Key: "a", Distance: 0.2}}
	scorer.Score(input, safe)
	if input[0].Key != "b" || input[0].Similarity != 0 {
		t.Fatalf("input slice was mutated: %+v", input)
	}
}

package confidence

import (
	"strings"

	"github.com/hanrgy/docs-bot/internal/config"
)

// Inputs are the observable signals scoring draws on. Every factor is
// monotone non-decreasing in these, so adding sources or citations with
// the answer held fixed can never lower the score.
type Inputs struct {
	DistinctDocuments int
	TopFusedScore     float64
	CitationCount     int
	Answer            string
}

var uncertaintyPhrases = []string{
	"i don't know", "i'm not sure", "unclear", "might be",
	"possibly", "perhaps", "could be", "not enough information",
}

// maxFusedScore is the fused score of a chunk ranked first in both
// sub-rankings, the scale's natural ceiling.
var maxFusedScore = 2.0 / float64(config.RRFConstant+1)

// Score averages four capped factors and subtracts a hedging penalty.
// Result is clamped to [0, 1].
func Score(in Inputs) float64 {
	factors := []float64{
		capped(float64(in.DistinctDocuments) / 3.0),
		capped(in.TopFusedScore / maxFusedScore),
		capped(float64(in.CitationCount) / 2.0),
		capped(float64(len(in.Answer)) / 200.0),
	}

	sum := 0.0
	for _, f := range factors {
		sum += f
	}
	score := sum/float64(len(factors)) - uncertaintyPenalty(in.Answer)

	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

// Band buckets a score for presentation. Boundaries are inclusive at the
// lower edge of each band.
func Band(score float64) string {
	switch {
	case score >= config.ConfidenceHighBand:
		return "high"
	case score >= config.ConfidenceMediumBand:
		return "medium"
	default:
		return "low"
	}
}

func uncertaintyPenalty(answer string) float64 {
	lower := strings.ToLower(answer)
	penalty := 0.0
	for _, phrase := range uncertaintyPhrases {
		if strings.Contains(lower, phrase) {
			penalty += 0.2
		}
	}
	return penalty
}

func capped(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < 0 {
		return 0
	}
	return v
}

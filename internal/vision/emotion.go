package vision

import "github.com/desertthunder/pixtape/internal/models"

// EmotionThreshold is the aggregate score an emotion must exceed to be dominant.
const EmotionThreshold = 0.5

var likelihoodScores = map[string]float64{
	"VERY_UNLIKELY": 0,
	"UNLIKELY":      0.25,
	"POSSIBLE":      0.5,
	"LIKELY":        0.75,
	"VERY_LIKELY":   1,
}

// LikelihoodScore maps a vision likelihood ("VERY_UNLIKELY" … "VERY_LIKELY") to a score.
// "UNKNOWN" and unrecognized values score 0.
func LikelihoodScore(likelihood string) float64 {
	return likelihoodScores[likelihood]
}

// AggregateEmotion sums per-face vectors and returns the strongest emotion, or [models.EmotionNone]
// when no emotion totals more than [EmotionThreshold].
func AggregateEmotion(vectors []models.EmotionVector) models.Emotion {
	var totals [len(models.Emotions)]float64
	for _, v := range vectors {
		for i, e := range models.Emotions {
			totals[i] += v.Get(e)
		}
	}

	best, bestScore := models.EmotionNone, 0.0
	for i, e := range models.Emotions {
		if totals[i] > bestScore {
			best, bestScore = e, totals[i]
		}
	}

	if bestScore > EmotionThreshold {
		return best
	}
	return models.EmotionNone
}

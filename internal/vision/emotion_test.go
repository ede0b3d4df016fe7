package vision

import (
	"testing"

	"github.com/desertthunder/pixtape/internal/models"
)

func TestLikelihoodScore(t *testing.T) {
	tc := map[string]float64{
		"VERY_UNLIKELY": 0,
		"UNLIKELY":      0.25,
		"POSSIBLE":      0.5,
		"LIKELY":        0.75,
		"VERY_LIKELY":   1,
		"UNKNOWN":       0,
		"":              0,
	}
	for in, want := range tc {
		if got := LikelihoodScore(in); got != want {
			t.Errorf("LikelihoodScore(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestAggregateEmotion(t *testing.T) {
	tc := []struct {
		name    string
		vectors []models.EmotionVector
		want    models.Emotion
	}{
		{name: "no faces", vectors: nil, want: models.EmotionNone},
		{name: "single joyful face", vectors: []models.EmotionVector{{Joy: 1}}, want: models.EmotionJoy},
		{name: "below threshold", vectors: []models.EmotionVector{{Joy: 0.25}}, want: models.EmotionNone},
		{name: "exactly threshold is not enough", vectors: []models.EmotionVector{{Sorrow: 0.5}}, want: models.EmotionNone},
		{
			name:    "sums across faces",
			vectors: []models.EmotionVector{{Anger: 0.25}, {Anger: 0.5}},
			want:    models.EmotionAnger,
		},
		{
			name:    "strongest total wins",
			vectors: []models.EmotionVector{{Joy: 0.75, Surprise: 0.5}, {Surprise: 0.5}},
			want:    models.EmotionSurprise,
		},
		{
			name:    "tie goes to earlier emotion",
			vectors: []models.EmotionVector{{Sorrow: 0.75, Surprise: 0.75}},
			want:    models.EmotionSorrow,
		},
		{
			name:    "joy beats everything on a four-way tie",
			vectors: []models.EmotionVector{{Joy: 1, Sorrow: 1, Anger: 1, Surprise: 1}},
			want:    models.EmotionJoy,
		},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if got := AggregateEmotion(tt.vectors); got != tt.want {
				t.Errorf("AggregateEmotion() = %s, want %s", got, tt.want)
			}
		})
	}
}

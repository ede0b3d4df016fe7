package vision

import (
	"encoding/json"
	"slices"
	"testing"
	"time"

	"github.com/desertthunder/pixtape/internal/models"
)

const sampleAnnotation = `{
  "labelAnnotations": [
    {"description": "Sky", "score": 0.97},
    {"description": "Beach", "score": 0.93},
    {"description": "Smile", "score": 0.88}
  ],
  "imagePropertiesAnnotation": {
    "dominantColors": {
      "colors": [
        {"color": {"red": 30, "green": 144.4, "blue": 255}, "score": 0.4, "pixelFraction": 0.3},
        {"color": {"red": 250, "green": 250, "blue": 245}, "score": 0.2, "pixelFraction": 0.2},
        {"color": {"red": 255, "green": 215}, "score": 0.1, "pixelFraction": 0.1},
        {"color": {"red": 10, "green": 10, "blue": 10}, "score": 0.05, "pixelFraction": 0.1},
        {"color": {"red": 0, "green": 100, "blue": 0}, "score": 0.05, "pixelFraction": 0.1},
        {"color": {"red": 200, "green": 0, "blue": 0}, "score": 0.01, "pixelFraction": 0.01}
      ]
    }
  },
  "faceAnnotations": [
    {"joyLikelihood": "VERY_LIKELY", "sorrowLikelihood": "VERY_UNLIKELY", "angerLikelihood": "VERY_UNLIKELY", "surpriseLikelihood": "UNLIKELY"},
    {"joyLikelihood": "LIKELY", "sorrowLikelihood": "UNKNOWN", "angerLikelihood": "VERY_UNLIKELY", "surpriseLikelihood": "POSSIBLE"}
  ]
}`

func TestBuildAnalysis(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	t.Run("Full Annotation", func(t *testing.T) {
		var a Annotation
		if err := json.Unmarshal([]byte(sampleAnnotation), &a); err != nil {
			t.Fatalf("failed to decode sample: %v", err)
		}

		result := BuildAnalysis("img-1", &a, now)

		if result.ImageID != "img-1" || !result.CreatedAt.Equal(now) {
			t.Errorf("unexpected identity fields: %+v", result)
		}
		if len(result.Labels) != 3 || result.Labels[0].Description != "Sky" {
			t.Errorf("unexpected labels: %+v", result.Labels)
		}
		if len(result.Colors) != MaxColors || len(result.ColorNames) != MaxColors {
			t.Fatalf("expected %d colors, got %d/%d", MaxColors, len(result.Colors), len(result.ColorNames))
		}
		if result.Colors[0].Hex != "#1e90ff" || result.Colors[0].Green != 144 {
			t.Errorf("unexpected first color: %+v", result.Colors[0])
		}
		if result.Colors[2].Blue != 0 || result.ColorNames[2] != "yellow" {
			t.Errorf("omitted channel should decode as zero: %+v %s", result.Colors[2], result.ColorNames[2])
		}

		wantNames := []string{"blue", "white", "yellow", "black", "dark green"}
		if !slices.Equal(result.ColorNames, wantNames) {
			t.Errorf("ColorNames = %v, want %v", result.ColorNames, wantNames)
		}

		if len(result.Emotions) != 2 || result.Emotions[1].Surprise != 0.5 {
			t.Errorf("unexpected emotions: %+v", result.Emotions)
		}
		if result.DominantEmotion != models.EmotionJoy {
			t.Errorf("DominantEmotion = %s, want joy", result.DominantEmotion)
		}

		wantKeywords := []string{"Sky", "Beach", "Smile", "blue", "white", "happy", "upbeat", "cheerful"}
		if !slices.Equal(result.Keywords, wantKeywords) {
			t.Errorf("Keywords = %v, want %v", result.Keywords, wantKeywords)
		}
	})

	t.Run("Label Cap", func(t *testing.T) {
		var a Annotation
		for i := 0; i < MaxLabels+3; i++ {
			a.LabelAnnotations = append(a.LabelAnnotations, LabelAnnotation{Description: string(rune('a' + i)), Score: 0.5})
		}
		if got := BuildAnalysis("x", &a, now); len(got.Labels) != MaxLabels {
			t.Errorf("expected %d labels, got %d", MaxLabels, len(got.Labels))
		}
	})

	t.Run("Nil Annotation", func(t *testing.T) {
		result := BuildAnalysis("empty", nil, now)
		if result.DominantEmotion != models.EmotionNone {
			t.Errorf("expected no dominant emotion, got %s", result.DominantEmotion)
		}
		if result.Keywords == nil || len(result.Keywords) != 0 {
			t.Errorf("expected empty non-nil keywords, got %#v", result.Keywords)
		}
	})

	t.Run("No Faces", func(t *testing.T) {
		a := &Annotation{LabelAnnotations: []LabelAnnotation{{Description: "Tree", Score: 0.9}}}
		result := BuildAnalysis("tree", a, now)
		if len(result.Emotions) != 0 || result.DominantEmotion != models.EmotionNone {
			t.Errorf("unexpected emotion data: %+v", result)
		}
		if !slices.Equal(result.Keywords, []string{"Tree"}) {
			t.Errorf("Keywords = %v", result.Keywords)
		}
	})
}

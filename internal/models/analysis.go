package models

import "time"

// Emotion names a facial emotion tracked by the vision API.
type Emotion string

const (
	EmotionJoy      Emotion = "joy"
	EmotionSorrow   Emotion = "sorrow"
	EmotionAnger    Emotion = "anger"
	EmotionSurprise Emotion = "surprise"
	EmotionNone     Emotion = "none"
)

// Emotions lists the tracked emotions in canonical order. Aggregation ties resolve to the earliest entry.
var Emotions = [...]Emotion{EmotionJoy, EmotionSorrow, EmotionAnger, EmotionSurprise}

// Label is a vision label with its confidence score in [0,1].
type Label struct {
	Description string  `json:"description"`
	Score       float64 `json:"score"`
}

// Color is a dominant image color. Hex is always derived from the rounded channels.
type Color struct {
	Red           int     `json:"red"`
	Green         int     `json:"green"`
	Blue          int     `json:"blue"`
	Score         float64 `json:"score"`
	PixelFraction float64 `json:"pixelFraction"`
	Hex           string  `json:"hex"`
}

// EmotionVector holds likelihood scores (0, 0.25, 0.5, 0.75 or 1) for a single face.
type EmotionVector struct {
	Joy      float64 `json:"joy"`
	Sorrow   float64 `json:"sorrow"`
	Anger    float64 `json:"anger"`
	Surprise float64 `json:"surprise"`
}

// Get returns the score for e, or 0 for an untracked emotion.
func (v EmotionVector) Get(e Emotion) float64 {
	switch e {
	case EmotionJoy:
		return v.Joy
	case EmotionSorrow:
		return v.Sorrow
	case EmotionAnger:
		return v.Anger
	case EmotionSurprise:
		return v.Surprise
	}
	return 0
}

// AnalysisResult is everything derived from a single vision call.
//
// ColorNames is aligned index-for-index with Colors. Keywords are unique and keep insertion order.
type AnalysisResult struct {
	ImageID         string          `json:"imageId"`
	Labels          []Label         `json:"labels"`
	Colors          []Color         `json:"colors"`
	ColorNames      []string        `json:"colorNames"`
	Emotions        []EmotionVector `json:"emotions"`
	DominantEmotion Emotion         `json:"dominantEmotion"`
	Keywords        []string        `json:"keywords"`
	CreatedAt       time.Time       `json:"createdAt"`
}

package vision

import (
	"time"

	"github.com/desertthunder/pixtape/internal/models"
)

const (
	// MaxLabels is the number of labels requested from and kept from the vision API.
	MaxLabels = 10
	// MaxColors is the number of dominant colors kept per image.
	MaxColors = 5
	// MaxFaces is the number of faces requested from the vision API.
	MaxFaces = 10
)

// Annotation is the subset of a Cloud Vision AnnotateImageResponse used by the pipeline.
type Annotation struct {
	LabelAnnotations          []LabelAnnotation `json:"labelAnnotations"`
	ImagePropertiesAnnotation *ImageProperties  `json:"imagePropertiesAnnotation,omitempty"`
	FaceAnnotations           []FaceAnnotation  `json:"faceAnnotations"`
}

// LabelAnnotation is a detected label with its confidence.
type LabelAnnotation struct {
	Description string  `json:"description"`
	Score       float64 `json:"score"`
}

// ImageProperties holds the dominant colors of an image.
type ImageProperties struct {
	DominantColors struct {
		Colors []ColorInfo `json:"colors"`
	} `json:"dominantColors"`
}

// ColorInfo channels are floats on the wire and omitted when zero.
type ColorInfo struct {
	Color struct {
		Red   float64 `json:"red"`
		Green float64 `json:"green"`
		Blue  float64 `json:"blue"`
	} `json:"color"`
	Score         float64 `json:"score"`
	PixelFraction float64 `json:"pixelFraction"`
}

// FaceAnnotation carries the emotion likelihoods of one detected face.
type FaceAnnotation struct {
	JoyLikelihood      string `json:"joyLikelihood"`
	SorrowLikelihood   string `json:"sorrowLikelihood"`
	AngerLikelihood    string `json:"angerLikelihood"`
	SurpriseLikelihood string `json:"surpriseLikelihood"`
}

// Vector converts the face's likelihoods to scores.
func (f FaceAnnotation) Vector() models.EmotionVector {
	return models.EmotionVector{
		Joy:      LikelihoodScore(f.JoyLikelihood),
		Sorrow:   LikelihoodScore(f.SorrowLikelihood),
		Anger:    LikelihoodScore(f.AngerLikelihood),
		Surprise: LikelihoodScore(f.SurpriseLikelihood),
	}
}

// BuildAnalysis derives the analysis result for imageID from a vision annotation. A nil annotation
// produces an empty result with no dominant emotion.
func BuildAnalysis(imageID string, a *Annotation, now time.Time) *models.AnalysisResult {
	result := &models.AnalysisResult{
		ImageID:         imageID,
		Labels:          []models.Label{},
		Colors:          []models.Color{},
		ColorNames:      []string{},
		Emotions:        []models.EmotionVector{},
		DominantEmotion: models.EmotionNone,
		CreatedAt:       now,
	}
	if a == nil {
		result.Keywords = []string{}
		return result
	}

	for i, l := range a.LabelAnnotations {
		if i == MaxLabels {
			break
		}
		result.Labels = append(result.Labels, models.Label{Description: l.Description, Score: l.Score})
	}

	if a.ImagePropertiesAnnotation != nil {
		for i, c := range a.ImagePropertiesAnnotation.DominantColors.Colors {
			if i == MaxColors {
				break
			}
			r, g, b := c.Color.Red, c.Color.Green, c.Color.Blue
			result.Colors = append(result.Colors, models.Color{
				Red:           channel(r),
				Green:         channel(g),
				Blue:          channel(b),
				Score:         c.Score,
				PixelFraction: c.PixelFraction,
				Hex:           HexFromRGB(r, g, b),
			})
			result.ColorNames = append(result.ColorNames, ClassifyColor(r, g, b))
		}
	}

	for _, f := range a.FaceAnnotations {
		result.Emotions = append(result.Emotions, f.Vector())
	}

	result.DominantEmotion = AggregateEmotion(result.Emotions)
	result.Keywords = SynthesizeKeywords(result.Labels, result.ColorNames, result.DominantEmotion)
	return result
}

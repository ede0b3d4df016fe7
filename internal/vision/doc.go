// Package vision turns raw image annotations into an [models.AnalysisResult].
//
// Everything here is pure and total: every input maps to an output and nothing returns an error.
//
// # Colors
//
// [ClassifyColor] names an RGB triple by bucketing it in HSB space. Near-equal channels are treated
// as grayscale first; the remaining colors are split into eight hue ranges, each with a light and a
// dark variant chosen by brightness. [HexFromRGB] and [ParseHex] convert between channels and "#rrggbb".
//
// # Emotions
//
// Face annotations carry a five-point likelihood per emotion. [AggregateEmotion] sums the vectors of
// every face and keeps the strongest emotion when its total exceeds [EmotionThreshold].
// Ties go to the earliest emotion in [models.Emotions].
//
// # Keywords
//
// [SynthesizeKeywords] concatenates label descriptions, the first two color names and the mood words
// for the dominant emotion, dropping duplicates.
package vision

package vision

import "github.com/desertthunder/pixtape/internal/models"

// maxKeywordColors caps how many color names feed the keyword list.
const maxKeywordColors = 2

var moodWords = map[models.Emotion][]string{
	models.EmotionJoy:      {"happy", "upbeat", "cheerful"},
	models.EmotionSorrow:   {"sad", "melancholic", "emotional"},
	models.EmotionAnger:    {"intense", "powerful", "angry"},
	models.EmotionSurprise: {"exciting", "energetic", "surprising"},
}

// MoodWords returns the mood vocabulary for e. [models.EmotionNone] has none.
func MoodWords(e models.Emotion) []string {
	return append([]string(nil), moodWords[e]...)
}

// SynthesizeKeywords joins label descriptions (in the given order), at most the first two color
// names and the mood words for emotion, keeping the first occurrence of each word.
func SynthesizeKeywords(labels []models.Label, colorNames []string, emotion models.Emotion) []string {
	if len(colorNames) > maxKeywordColors {
		colorNames = colorNames[:maxKeywordColors]
	}

	seen := make(map[string]struct{})
	keywords := make([]string, 0, len(labels)+len(colorNames)+3)
	add := func(word string) {
		if _, dup := seen[word]; dup {
			return
		}
		seen[word] = struct{}{}
		keywords = append(keywords, word)
	}

	for _, l := range labels {
		add(l.Description)
	}
	for _, c := range colorNames {
		add(c)
	}
	for _, w := range moodWords[emotion] {
		add(w)
	}
	return keywords
}

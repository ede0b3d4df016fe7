package models

import "testing"

func TestRecommendationNormalize(t *testing.T) {
	got := Recommendation{Title: "Golden Hour"}.Normalize()

	if got.Title != "Golden Hour" {
		t.Errorf("expected title to be kept, got %s", got.Title)
	}
	if got.Artist != DefaultArtist || got.Mood != DefaultMood || got.Reason != DefaultReason {
		t.Errorf("expected defaults for missing fields, got %+v", got)
	}
}

func TestEmotionVectorGet(t *testing.T) {
	v := EmotionVector{Joy: 1, Sorrow: 0.25, Anger: 0.5, Surprise: 0.75}

	tc := map[Emotion]float64{
		EmotionJoy:      1,
		EmotionSorrow:   0.25,
		EmotionAnger:    0.5,
		EmotionSurprise: 0.75,
		EmotionNone:     0,
	}
	for e, want := range tc {
		if got := v.Get(e); got != want {
			t.Errorf("Get(%s) = %v, want %v", e, got, want)
		}
	}
}

func TestCredentialClone(t *testing.T) {
	orig := &Credential{SubjectID: "u1", AccessToken: "a"}
	cp := orig.Clone()
	cp.AccessToken = "b"

	if orig.AccessToken != "a" {
		t.Error("clone should not alias the original")
	}
	if (*Credential)(nil).Clone() != nil {
		t.Error("clone of nil should be nil")
	}
	if p := orig.Profile(); p.ID != "u1" {
		t.Errorf("expected profile id u1, got %s", p.ID)
	}
}

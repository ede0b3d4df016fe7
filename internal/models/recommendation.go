package models

// Defaults applied to incomplete recommendations returned by the language model.
const (
	DefaultTitle  = "Unknown Title"
	DefaultArtist = "Unknown Artist"
	DefaultMood   = "neutral"
	DefaultReason = "Matches the mood of your photo"
)

// Recommendation is a song suggested for an analyzed image.
//
// SpotifyURI is empty until the track has been resolved against the catalog.
type Recommendation struct {
	Title      string `json:"title"`
	Artist     string `json:"artist"`
	Mood       string `json:"mood"`
	Reason     string `json:"reason"`
	SpotifyID  string `json:"spotifyId,omitempty"`
	SpotifyURI string `json:"spotifyUri,omitempty"`
	PreviewURL string `json:"previewUrl,omitempty"`
}

// Normalize fills missing fields with their defaults.
func (r Recommendation) Normalize() Recommendation {
	if r.Title == "" {
		r.Title = DefaultTitle
	}
	if r.Artist == "" {
		r.Artist = DefaultArtist
	}
	if r.Mood == "" {
		r.Mood = DefaultMood
	}
	if r.Reason == "" {
		r.Reason = DefaultReason
	}
	return r
}

// Playlist is a playlist created on the music service.
type Playlist struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	URL        string `json:"url"`
	TrackCount int    `json:"trackCount"`
}

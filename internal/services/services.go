package services

import (
	"context"
	"fmt"

	"github.com/desertthunder/pixtape/internal/models"
	"github.com/desertthunder/pixtape/internal/shared"
	"github.com/desertthunder/pixtape/internal/vision"
	"golang.org/x/oauth2"
)

// VisionClient labels images.
type VisionClient interface {
	Annotate(ctx context.Context, image []byte) (*vision.Annotation, error)
}

// LLMClient suggests songs for an analyzed image.
type LLMClient interface {
	Recommend(ctx context.Context, analysis *models.AnalysisResult) ([]models.Recommendation, error)
}

// MusicService defines the music provider operations used by the web server.
type MusicService interface {
	// Name returns the name of the service (e.g., "Spotify")
	Name() string

	// OAuthConfig returns the OAuth2 client configuration, used for token refresh.
	OAuthConfig() *oauth2.Config

	// AuthURL returns the provider's consent page URL carrying state.
	AuthURL(state string) string

	// Exchange trades an authorization code for a token.
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)

	// UserProfile returns the profile of the token's owner.
	UserProfile(ctx context.Context, accessToken string) (*models.Profile, error)

	// SearchTrack returns the best match for title and artist or [shared.ErrTrackNotFound].
	SearchTrack(ctx context.Context, accessToken, title, artist string) (*Track, error)

	// CreatePlaylist creates an empty playlist owned by userID.
	CreatePlaylist(ctx context.Context, accessToken, userID string, p PlaylistInput) (*models.Playlist, error)

	// AddTracks appends track URIs to a playlist.
	AddTracks(ctx context.Context, accessToken, playlistID string, uris []string) error
}

// Track is a catalog track returned by a search.
type Track struct {
	ID         string
	Title      string
	Artist     string
	URI        string
	PreviewURL string
}

// PlaylistInput describes a playlist to create.
type PlaylistInput struct {
	Name        string
	Description string
	Public      bool
}

// UpstreamError is returned when an external API answers with a non-2xx status.
type UpstreamError struct {
	Service    string
	StatusCode int
	Message    string
}

func (e *UpstreamError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s API error: status %d", e.Service, e.StatusCode)
	}
	return fmt.Sprintf("%s API error: status %d: %s", e.Service, e.StatusCode, e.Message)
}

func (e *UpstreamError) Unwrap() error { return shared.ErrAPIRequest }

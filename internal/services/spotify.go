// Spotify Web API implementation of [MusicService]
//
// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/desertthunder/pixtape/internal/models"
	"github.com/desertthunder/pixtape/internal/shared"
	"golang.org/x/oauth2"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"

	// MaxTracksPerRequest is the Web API limit for adding items to a playlist.
	MaxTracksPerRequest = 100
)

// SpotifyScopes are requested at login.
var SpotifyScopes = []string{
	"user-read-private",
	"user-read-email",
	"playlist-modify-public",
	"playlist-modify-private",
}

type externalURLs struct {
	Spotify string `json:"spotify"`
}

// SpotifyUser is the part of a Spotify user profile kept in the session.
type SpotifyUser struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
}

// SpotifyTrack represents a Spotify track search result.
type SpotifyTrack struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Artists    []SpotifyArtist `json:"artists"`
	PreviewURL string          `json:"preview_url"`
	URI        string          `json:"uri"`
}

// SpotifyArtist represents a Spotify artist.
type SpotifyArtist struct {
	Name string `json:"name"`
}

// SpotifyPlaylist represents a created Spotify playlist.
type SpotifyPlaylist struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	ExternalURLs externalURLs `json:"external_urls"`
}

type searchResponse struct {
	Tracks struct {
		Items []SpotifyTrack `json:"items"`
	} `json:"tracks"`
}

// SpotifyService implements [MusicService] for the Spotify Web API.
type SpotifyService struct {
	config  *oauth2.Config
	baseURL string
	client  *http.Client
	t       *transport
}

// NewSpotifyService creates a Spotify service from client credentials. A nil client uses a 30 second timeout.
func NewSpotifyService(c shared.SpotifyConfig, client *http.Client) (*SpotifyService, error) {
	if c.ClientID == "" {
		return nil, fmt.Errorf("%w: spotify client_id", shared.ErrMissingCredentials)
	}
	if c.ClientSecret == "" {
		return nil, fmt.Errorf("%w: spotify client_secret", shared.ErrMissingCredentials)
	}

	redirectURI := c.RedirectURI
	if redirectURI == "" {
		redirectURI = "http://localhost:3000/auth/callback"
	}

	config := &oauth2.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		RedirectURL:  redirectURI,
		Scopes:       SpotifyScopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:   spotifyAuthURL,
			TokenURL:  spotifyTokenURL,
			AuthStyle: oauth2.AuthStyleInHeader,
		},
	}

	t := newTransport("spotify", client, 0)
	return &SpotifyService{config: config, baseURL: spotifyBaseURL, client: t.http, t: t}, nil
}

func (s *SpotifyService) Name() string {
	return "Spotify"
}

func (s *SpotifyService) OAuthConfig() *oauth2.Config {
	return s.config
}

// AuthURL returns the OAuth2 authorization URL for user login.
func (s *SpotifyService) AuthURL(state string) string {
	return s.config.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// Exchange trades an authorization code for an access and refresh token.
func (s *SpotifyService) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	if code == "" {
		return nil, fmt.Errorf("%w: authorization code", shared.ErrMissingArgument)
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, s.client)
	token, err := s.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to exchange auth code: %v", shared.ErrAuthFailed, err)
	}
	return token, nil
}

// doRequest performs an authenticated HTTP request to the Spotify API.
func (s *SpotifyService) doRequest(ctx context.Context, accessToken, method, endpoint string, body any, result any) error {
	if accessToken == "" {
		return shared.ErrNotAuthenticated
	}

	reader, err := jsonBody(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+accessToken)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return s.t.do(req, result)
}

// UserProfile retrieves the profile of the token's owner.
func (s *SpotifyService) UserProfile(ctx context.Context, accessToken string) (*models.Profile, error) {
	var user SpotifyUser
	if err := s.doRequest(ctx, accessToken, http.MethodGet, "/me", nil, &user); err != nil {
		return nil, err
	}
	if user.ID == "" {
		return nil, fmt.Errorf("%w: profile without id", shared.ErrParseFailure)
	}
	return &models.Profile{ID: user.ID, DisplayName: user.DisplayName, Email: user.Email}, nil
}

// SearchTrack returns the first search result for title by artist.
func (s *SpotifyService) SearchTrack(ctx context.Context, accessToken, title, artist string) (*Track, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("%w: track title", shared.ErrMissingArgument)
	}

	q := "track:" + title
	if artist = strings.TrimSpace(artist); artist != "" && artist != models.DefaultArtist {
		q += " artist:" + artist
	}

	params := url.Values{}
	params.Set("q", q)
	params.Set("type", "track")
	params.Set("limit", "1")

	var resp searchResponse
	if err := s.doRequest(ctx, accessToken, http.MethodGet, "/search?"+params.Encode(), nil, &resp); err != nil {
		return nil, err
	}
	if len(resp.Tracks.Items) == 0 {
		return nil, fmt.Errorf("%w: %s by %s", shared.ErrTrackNotFound, title, artist)
	}

	st := resp.Tracks.Items[0]
	track := &Track{ID: st.ID, Title: st.Name, URI: st.URI, PreviewURL: st.PreviewURL}
	if len(st.Artists) > 0 {
		track.Artist = st.Artists[0].Name
	}
	return track, nil
}

// CreatePlaylist creates an empty playlist for userID.
func (s *SpotifyService) CreatePlaylist(ctx context.Context, accessToken, userID string, p PlaylistInput) (*models.Playlist, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user id", shared.ErrMissingArgument)
	}
	if strings.TrimSpace(p.Name) == "" {
		return nil, fmt.Errorf("%w: playlist name", shared.ErrMissingArgument)
	}

	body := map[string]any{
		"name":        p.Name,
		"description": p.Description,
		"public":      p.Public,
	}

	var sp SpotifyPlaylist
	endpoint := fmt.Sprintf("/users/%s/playlists", url.PathEscape(userID))
	if err := s.doRequest(ctx, accessToken, http.MethodPost, endpoint, body, &sp); err != nil {
		return nil, err
	}

	return &models.Playlist{ID: sp.ID, Name: sp.Name, URL: sp.ExternalURLs.Spotify}, nil
}

// AddTracks appends uris to a playlist, [MaxTracksPerRequest] at a time.
func (s *SpotifyService) AddTracks(ctx context.Context, accessToken, playlistID string, uris []string) error {
	if playlistID == "" {
		return fmt.Errorf("%w: playlist id", shared.ErrMissingArgument)
	}

	endpoint := fmt.Sprintf("/playlists/%s/tracks", url.PathEscape(playlistID))
	for start := 0; start < len(uris); start += MaxTracksPerRequest {
		end := min(start+MaxTracksPerRequest, len(uris))
		body := map[string][]string{"uris": uris[start:end]}
		if err := s.doRequest(ctx, accessToken, http.MethodPost, endpoint, body, nil); err != nil {
			return fmt.Errorf("failed to add tracks %d-%d: %w", start, end, err)
		}
	}
	return nil
}

// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/pixtape/internal/models"
	"github.com/desertthunder/pixtape/internal/services"
	"github.com/desertthunder/pixtape/internal/shared"
	"github.com/desertthunder/pixtape/internal/vision"
	"golang.org/x/oauth2"
)

// MockVision is a test double for [services.VisionClient]
type MockVision struct {
	Annotation *vision.Annotation
	Err        error
	Calls      int
}

func (m *MockVision) Annotate(ctx context.Context, image []byte) (*vision.Annotation, error) {
	m.Calls++
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Annotation == nil {
		return &vision.Annotation{}, nil
	}
	return m.Annotation, nil
}

// MockLLM is a test double for [services.LLMClient]
type MockLLM struct {
	Recommendations []models.Recommendation
	Err             error
	Calls           int
}

func (m *MockLLM) Recommend(ctx context.Context, analysis *models.AnalysisResult) ([]models.Recommendation, error) {
	m.Calls++
	if m.Err != nil {
		return nil, m.Err
	}
	return append([]models.Recommendation(nil), m.Recommendations...), nil
}

// MockMusic is a test double for [services.MusicService]. Tracks maps song titles to search results;
// titles that are not present are reported as not found.
type MockMusic struct {
	mu sync.Mutex

	Token     *oauth2.Token
	Profile   *models.Profile
	Tracks    map[string]*services.Track
	Playlist  *models.Playlist
	Err       error
	Added     []string
	LastToken string
}

func (m *MockMusic) Name() string { return "mock" }

func (m *MockMusic) OAuthConfig() *oauth2.Config {
	return &oauth2.Config{ClientID: "mock", Endpoint: oauth2.Endpoint{AuthURL: "https://music.test/authorize", TokenURL: "https://music.test/token"}}
}

func (m *MockMusic) AuthURL(state string) string {
	return m.OAuthConfig().AuthCodeURL(state)
}

func (m *MockMusic) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Token == nil {
		return &oauth2.Token{AccessToken: "access-" + code, RefreshToken: "refresh-" + code, Expiry: time.Now().Add(time.Hour)}, nil
	}
	return m.Token, nil
}

func (m *MockMusic) UserProfile(ctx context.Context, accessToken string) (*models.Profile, error) {
	m.record(accessToken)
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Profile == nil {
		return &models.Profile{ID: "mock-user", DisplayName: "Mock User"}, nil
	}
	return m.Profile, nil
}

func (m *MockMusic) SearchTrack(ctx context.Context, accessToken, title, artist string) (*services.Track, error) {
	m.record(accessToken)
	if m.Err != nil {
		return nil, m.Err
	}
	if t, ok := m.Tracks[title]; ok {
		return t, nil
	}
	return nil, shared.ErrTrackNotFound
}

func (m *MockMusic) CreatePlaylist(ctx context.Context, accessToken, userID string, p services.PlaylistInput) (*models.Playlist, error) {
	m.record(accessToken)
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Playlist == nil {
		return &models.Playlist{ID: "mock-playlist", Name: p.Name}, nil
	}
	return m.Playlist, nil
}

func (m *MockMusic) AddTracks(ctx context.Context, accessToken, playlistID string, uris []string) error {
	m.record(accessToken)
	if m.Err != nil {
		return m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Added = append(m.Added, uris...)
	return nil
}

func (m *MockMusic) record(token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastToken = token
}

// FixedClock returns a clock function that always reports t.
func FixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}

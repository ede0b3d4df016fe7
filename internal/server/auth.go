package server

import (
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/pixtape/internal/auth"
	"github.com/desertthunder/pixtape/internal/models"
	"github.com/desertthunder/pixtape/internal/services"
	"github.com/desertthunder/pixtape/internal/shared"
)

// Error codes passed to the browser client as ?auth_error=.
const (
	authErrStateMismatch  = "state_mismatch"
	authErrMissingCode    = "missing_code"
	authErrExchangeFailed = "token_exchange_failed"
	authErrProfileFailed  = "profile_failed"
	authErrSessionFailed  = "session_failed"
)

// AuthHandler runs the OAuth2 authorization code flow against the music service and manages the
// resulting browser session.
//
// Implements the [Handler] interface for registration with a [Router].
type AuthHandler struct {
	music    services.MusicService
	resolver *auth.Resolver
	logger   *log.Logger
	now      func() time.Time
}

// NewAuthHandler creates an [AuthHandler].
func NewAuthHandler(music services.MusicService, resolver *auth.Resolver, logger *log.Logger, now func() time.Time) *AuthHandler {
	if now == nil {
		now = time.Now
	}
	return &AuthHandler{music: music, resolver: resolver, logger: logger, now: now}
}

// Routes returns the HTTP routes this handler serves.
func (h *AuthHandler) Routes() []string {
	return []string{"GET /auth/login", "GET /auth/callback", "POST /auth/logout"}
}

func (h *AuthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/auth/login":
		h.login(w, r)
	case "/auth/callback":
		h.callback(w, r)
	case "/auth/logout":
		h.logout(w, r)
	default:
		http.NotFound(w, r)
	}
}

// login stores a random state in a signed cookie and redirects to the provider's consent page.
func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	state, err := shared.GenerateState()
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if err := h.resolver.SetState(w, state); err != nil {
		writeError(w, h.logger, err)
		return
	}
	http.Redirect(w, r, h.music.AuthURL(state), http.StatusFound)
}

// callback validates state, exchanges the code, fetches the profile and starts a session.
// Every outcome redirects to the browser client.
func (h *AuthHandler) callback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	ctx := r.Context()

	if errParam := q.Get("error"); errParam != "" {
		h.logger.Warn("authorization denied", "error", errParam, "description", q.Get("error_description"))
		h.finish(w, r, "auth_error", errParam)
		return
	}

	if err := h.resolver.CheckState(w, r, q.Get("state")); err != nil {
		h.logger.Warn("oauth state check failed", "error", err)
		h.finish(w, r, "auth_error", authErrStateMismatch)
		return
	}

	code := q.Get("code")
	if code == "" {
		h.finish(w, r, "auth_error", authErrMissingCode)
		return
	}

	token, err := h.music.Exchange(ctx, code)
	if err != nil {
		h.logger.Error("token exchange failed", "error", err)
		h.finish(w, r, "auth_error", authErrExchangeFailed)
		return
	}

	profile, err := h.music.UserProfile(ctx, token.AccessToken)
	if err != nil {
		h.logger.Error("failed to fetch user profile", "error", err)
		h.finish(w, r, "auth_error", authErrProfileFailed)
		return
	}

	expiresAt := token.Expiry
	if expiresAt.IsZero() {
		expiresAt = h.now().Add(auth.DefaultTokenLifetime)
	}

	cred := &models.Credential{
		SubjectID:    profile.ID,
		DisplayName:  profile.DisplayName,
		Email:        profile.Email,
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ExpiresAt:    expiresAt,
	}

	if _, err := h.resolver.Login(ctx, w, cred); err != nil {
		h.logger.Error("failed to start session", "error", err)
		h.finish(w, r, "auth_error", authErrSessionFailed)
		return
	}

	h.logger.Info("user logged in", "subject", profile.ID)
	h.finish(w, r, "auth_status", "success")
}

func (h *AuthHandler) logout(w http.ResponseWriter, r *http.Request) {
	if err := h.resolver.Logout(w, r); err != nil && !errors.Is(err, shared.ErrSessionNotFound) {
		h.logger.Warn("failed to delete session", "error", err)
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "logged_out"})
}

func (h *AuthHandler) finish(w http.ResponseWriter, r *http.Request, key, value string) {
	http.Redirect(w, r, "/?"+url.Values{key: {value}}.Encode(), http.StatusFound)
}

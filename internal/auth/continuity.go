package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/pixtape/internal/metrics"
	"github.com/desertthunder/pixtape/internal/models"
	"github.com/desertthunder/pixtape/internal/shared"
	"github.com/gorilla/securecookie"
)

const (
	SessionCookie  = "pixtape_session"
	IdentityCookie = "pixtape_uid"
	StateCookie    = "pixtape_oauth_state"

	DefaultSessionMaxAge = 30 * 24 * time.Hour
	stateMaxAge          = 10 * time.Minute
)

// Resolution is the outcome of resolving a request's session.
type Resolution struct {
	SessionID  string
	Credential *models.Credential
	// Recovered is set when the session was rebuilt from the identity hint and a new session
	// cookie has to be issued.
	Recovered bool
}

// Resolver maps requests to credentials and manages the session, identity and OAuth state cookies.
type Resolver struct {
	store     SessionStore
	codec     *securecookie.SecureCookie
	allowHint bool
	secure    bool
	maxAge    time.Duration
	logger    *log.Logger
}

// ResolverOpts configures a [Resolver]. Nil keys are replaced with random ones, which invalidates
// signed cookies on every restart.
type ResolverOpts struct {
	Store             SessionStore
	HashKey           []byte
	BlockKey          []byte
	AllowIdentityHint bool
	Secure            bool
	MaxAge            time.Duration
	Logger            *log.Logger
}

// NewResolver creates a [Resolver].
func NewResolver(opts ResolverOpts) *Resolver {
	if opts.HashKey == nil {
		opts.HashKey = securecookie.GenerateRandomKey(64)
	}
	if opts.BlockKey == nil {
		opts.BlockKey = securecookie.GenerateRandomKey(32)
	}
	if opts.MaxAge <= 0 {
		opts.MaxAge = DefaultSessionMaxAge
	}
	if opts.Logger == nil {
		opts.Logger = shared.DiscardLogger()
	}

	codec := securecookie.New(opts.HashKey, opts.BlockKey)
	codec.MaxAge(int(opts.MaxAge.Seconds()))

	return &Resolver{
		store:     opts.Store,
		codec:     codec,
		allowHint: opts.AllowIdentityHint,
		secure:    opts.Secure,
		maxAge:    opts.MaxAge,
		logger:    opts.Logger,
	}
}

// Resolve finds the credential for r: first through the signed session cookie, then, when enabled,
// through the identity hint. Returns [shared.ErrNotAuthenticated] when neither matches.
func (s *Resolver) Resolve(r *http.Request) (*Resolution, error) {
	ctx := r.Context()

	if sid, ok := s.sessionID(r); ok {
		cred, err := s.store.Get(ctx, sid)
		switch {
		case err == nil:
			metrics.SessionResolutions.WithLabelValues("session").Inc()
			return &Resolution{SessionID: sid, Credential: cred}, nil
		case !errors.Is(err, shared.ErrSessionNotFound):
			return nil, fmt.Errorf("failed to load session: %w", err)
		}
	}

	if !s.allowHint {
		metrics.SessionResolutions.WithLabelValues("none").Inc()
		return nil, shared.ErrNotAuthenticated
	}

	hint, err := r.Cookie(IdentityCookie)
	if err != nil || hint.Value == "" {
		metrics.SessionResolutions.WithLabelValues("none").Inc()
		return nil, shared.ErrNotAuthenticated
	}

	res, err := s.recover(ctx, hint.Value)
	if errors.Is(err, shared.ErrSessionNotFound) {
		metrics.SessionResolutions.WithLabelValues("none").Inc()
		return nil, shared.ErrNotAuthenticated
	}
	return res, err
}

// recover moves the subject's latest credential to a fresh session ID. The old ID is dropped so
// repeated hint-only requests do not accumulate sessions.
func (s *Resolver) recover(ctx context.Context, subjectID string) (*Resolution, error) {
	oldID, cred, err := s.store.FindBySubject(ctx, subjectID)
	if err != nil {
		return nil, err
	}

	sid := shared.GenerateID()
	if err := s.store.Set(ctx, sid, cred); err != nil {
		return nil, fmt.Errorf("failed to store recovered session: %w", err)
	}
	if err := s.store.Delete(ctx, oldID); err != nil {
		s.logger.Warn("failed to drop replaced session", "subject", subjectID, "error", err)
	}

	s.logger.Warn("recovered session from identity hint", "subject", subjectID)
	metrics.SessionResolutions.WithLabelValues("identity_hint").Inc()
	return &Resolution{SessionID: sid, Credential: cred, Recovered: true}, nil
}

// Login stores cred under a new session and sets the session and identity cookies.
func (s *Resolver) Login(ctx context.Context, w http.ResponseWriter, cred *models.Credential) (string, error) {
	sid := shared.GenerateID()
	if err := s.store.Set(ctx, sid, cred); err != nil {
		return "", fmt.Errorf("failed to store session: %w", err)
	}
	if err := s.Issue(w, sid, cred.SubjectID); err != nil {
		return "", err
	}
	return sid, nil
}

// Issue writes the signed session cookie for sessionID and the identity hint for subjectID.
func (s *Resolver) Issue(w http.ResponseWriter, sessionID, subjectID string) error {
	encoded, err := s.codec.Encode(SessionCookie, sessionID)
	if err != nil {
		return fmt.Errorf("failed to encode session cookie: %w", err)
	}
	http.SetCookie(w, s.cookie(SessionCookie, encoded, s.maxAge))
	http.SetCookie(w, s.cookie(IdentityCookie, subjectID, s.maxAge))
	return nil
}

// Logout deletes every session of the request's subject and clears both cookies. The subject
// comes from the session, or from the identity hint when hint recovery is enabled.
func (s *Resolver) Logout(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	var (
		errs    []error
		subject string
	)
	if sid, ok := s.sessionID(r); ok {
		if cred, err := s.store.Get(ctx, sid); err == nil {
			subject = cred.SubjectID
		}
		errs = append(errs, s.store.Delete(ctx, sid))
	}
	if subject == "" && s.allowHint {
		if hint, err := r.Cookie(IdentityCookie); err == nil {
			subject = hint.Value
		}
	}
	if subject != "" {
		errs = append(errs, s.store.DeleteBySubject(ctx, subject))
	}

	http.SetCookie(w, s.cookie(SessionCookie, "", -1))
	http.SetCookie(w, s.cookie(IdentityCookie, "", -1))
	return errors.Join(errs...)
}

// SetState stores the OAuth state in a short-lived signed cookie.
func (s *Resolver) SetState(w http.ResponseWriter, state string) error {
	encoded, err := s.codec.Encode(StateCookie, state)
	if err != nil {
		return fmt.Errorf("failed to encode state cookie: %w", err)
	}
	http.SetCookie(w, s.cookie(StateCookie, encoded, stateMaxAge))
	return nil
}

// CheckState compares state with the value stored by [Resolver.SetState] and clears the cookie.
func (s *Resolver) CheckState(w http.ResponseWriter, r *http.Request, state string) error {
	http.SetCookie(w, s.cookie(StateCookie, "", -1))

	c, err := r.Cookie(StateCookie)
	if err != nil {
		return shared.ErrStateMismatch
	}
	var stored string
	if err := s.codec.Decode(StateCookie, c.Value, &stored); err != nil || stored == "" || stored != state {
		return shared.ErrStateMismatch
	}
	return nil
}

func (s *Resolver) sessionID(r *http.Request) (string, bool) {
	c, err := r.Cookie(SessionCookie)
	if err != nil {
		return "", false
	}
	var sid string
	if err := s.codec.Decode(SessionCookie, c.Value, &sid); err != nil {
		s.logger.Debug("ignoring undecodable session cookie", "error", err)
		return "", false
	}
	return sid, sid != ""
}

// cookie builds a cookie; a negative maxAge deletes it.
func (s *Resolver) cookie(name, value string, maxAge time.Duration) *http.Cookie {
	c := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	}
	if maxAge < 0 {
		c.MaxAge = -1
	} else {
		c.MaxAge = int(maxAge.Seconds())
	}
	return c
}

package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/pixtape/internal/metrics"
	"github.com/desertthunder/pixtape/internal/models"
	"github.com/desertthunder/pixtape/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"
)

const (
	// DefaultRefreshSkew is how long before expiry a credential starts refreshing.
	DefaultRefreshSkew = 5 * time.Minute
	// DefaultTokenLifetime is assumed when the token endpoint omits expires_in.
	DefaultTokenLifetime = time.Hour
)

// TokenState is the refresh state of a credential.
type TokenState int

const (
	TokenValid TokenState = iota
	TokenExpiring
)

func (s TokenState) String() string {
	if s == TokenExpiring {
		return "expiring"
	}
	return "valid"
}

// Refreshed is the result of a refresh_token grant. RefreshToken is empty when the provider did not rotate it.
type Refreshed struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    time.Duration
}

// Refresher performs a refresh_token grant against the token endpoint.
type Refresher interface {
	Refresh(ctx context.Context, refreshToken string) (*Refreshed, error)
}

// OAuthRefresher implements [Refresher] with an [oauth2.Config].
type OAuthRefresher struct {
	config *oauth2.Config
}

// NewOAuthRefresher creates a [Refresher] for config's token endpoint.
func NewOAuthRefresher(config *oauth2.Config) *OAuthRefresher {
	return &OAuthRefresher{config: config}
}

func (r *OAuthRefresher) Refresh(ctx context.Context, refreshToken string) (*Refreshed, error) {
	tok, err := r.config.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken}).Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrRefreshFailed, err)
	}

	out := &Refreshed{AccessToken: tok.AccessToken, ExpiresIn: DefaultTokenLifetime}
	// the oauth2 token source carries the old refresh token forward when none is returned
	if tok.RefreshToken != refreshToken {
		out.RefreshToken = tok.RefreshToken
	}
	if !tok.Expiry.IsZero() {
		out.ExpiresIn = time.Until(tok.Expiry).Round(time.Second)
	}
	return out, nil
}

// TokenManager keeps session credentials fresh.
type TokenManager struct {
	refresher Refresher
	store     SessionStore
	skew      time.Duration
	now       func() time.Time
	logger    *log.Logger
	inflight  singleflight.Group
}

// TokenManagerOpts configures a [TokenManager]. Zero values select defaults.
type TokenManagerOpts struct {
	Refresher Refresher
	Store     SessionStore
	Skew      time.Duration
	Now       func() time.Time
	Logger    *log.Logger
}

// NewTokenManager creates a [TokenManager].
func NewTokenManager(opts TokenManagerOpts) *TokenManager {
	if opts.Skew <= 0 {
		opts.Skew = DefaultRefreshSkew
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = shared.DiscardLogger()
	}
	return &TokenManager{
		refresher: opts.Refresher,
		store:     opts.Store,
		skew:      opts.Skew,
		now:       opts.Now,
		logger:    opts.Logger,
	}
}

// State reports whether cred is due for a refresh.
func (m *TokenManager) State(cred *models.Credential) TokenState {
	if !m.now().Before(cred.ExpiresAt.Add(-m.skew)) {
		return TokenExpiring
	}
	return TokenValid
}

// EnsureFresh returns cred unchanged while it is valid. An expiring credential is refreshed and the
// result stored under sessionID before returning. On any refresh problem the original credential is
// returned as-is.
//
// Concurrent calls for the same session share one exchange.
func (m *TokenManager) EnsureFresh(ctx context.Context, sessionID string, cred *models.Credential) *models.Credential {
	if m.State(cred) == TokenValid {
		return cred
	}

	logger := m.logger.With("subject", cred.SubjectID)
	if cred.RefreshToken == "" || m.refresher == nil {
		logger.Warn("access token expiring without refresh token, continuing with stale token")
		metrics.TokenRefreshes.WithLabelValues("no_refresh_token").Inc()
		return cred
	}

	key := sessionID
	if key == "" {
		key = "subject:" + cred.SubjectID
	}
	detached := context.WithoutCancel(ctx)
	v, err, _ := m.inflight.Do(key, func() (any, error) {
		return m.refresh(detached, sessionID, cred, logger)
	})
	if err != nil {
		logger.Warn("token refresh failed, continuing with stale token", "error", err)
		metrics.TokenRefreshes.WithLabelValues("failed").Inc()
		return cred
	}
	return v.(*models.Credential).Clone()
}

func (m *TokenManager) refresh(ctx context.Context, sessionID string, cred *models.Credential, logger *log.Logger) (*models.Credential, error) {
	res, err := m.refresher.Refresh(ctx, cred.RefreshToken)
	if err != nil {
		return nil, err
	}
	if res.AccessToken == "" {
		return nil, fmt.Errorf("%w: empty access token", shared.ErrRefreshFailed)
	}

	lifetime := res.ExpiresIn
	if lifetime <= 0 {
		lifetime = DefaultTokenLifetime
	}

	updated := cred.Clone()
	updated.AccessToken = res.AccessToken
	if res.RefreshToken != "" {
		updated.RefreshToken = res.RefreshToken
	}
	updated.ExpiresAt = m.now().Add(lifetime)

	if sessionID != "" && m.store != nil {
		if err := m.store.Set(ctx, sessionID, updated); err != nil {
			logger.Error("failed to persist refreshed credential; session will go stale", "error", err)
			metrics.TokenRefreshes.WithLabelValues("persist_failed").Inc()
			return updated, nil
		}
	}

	logger.Debug("refreshed access token", "expires_at", updated.ExpiresAt)
	metrics.TokenRefreshes.WithLabelValues("success").Inc()
	return updated, nil
}

package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/pixtape/internal/auth"
	"github.com/desertthunder/pixtape/internal/metrics"
	"github.com/desertthunder/pixtape/internal/models"
	"github.com/desertthunder/pixtape/internal/shared"
	"github.com/go-chi/chi/v5/middleware"
)

// RequestLogger logs each request and records its duration.
func RequestLogger(logger *log.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			duration := time.Since(start)

			route := r.Pattern
			if route == "" {
				route = "unmatched"
			}
			metrics.HTTPRequestDuration.WithLabelValues(r.Method, route, strconv.Itoa(status)).Observe(duration.Seconds())

			logger.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", status,
				"bytes", ww.BytesWritten(),
				"duration", duration.String(),
				"ip", r.RemoteAddr,
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}

type sessionKey struct{}

// Session is the authenticated session attached to a request context.
type Session struct {
	ID         string
	Credential *models.Credential
}

// SessionFrom returns the session stored by [Sessions], if any.
func SessionFrom(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(sessionKey{}).(*Session)
	return s, ok
}

// Sessions resolves the caller's session and keeps its access token fresh. Required routes answer
// 401 when no session matches; optional routes continue anonymously.
func Sessions(resolver *auth.Resolver, tokens *auth.TokenManager, required bool, logger *log.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			res, err := resolver.Resolve(r)
			if err != nil {
				if !errors.Is(err, shared.ErrNotAuthenticated) {
					logger.Error("session lookup failed", "error", err)
				}
				if required {
					writeError(w, logger, shared.ErrNotAuthenticated)
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			if res.Recovered {
				if err := resolver.Issue(w, res.SessionID, res.Credential.SubjectID); err != nil {
					logger.Error("failed to reissue session cookie", "error", err)
				}
			}

			cred := res.Credential
			if tokens != nil {
				cred = tokens.EnsureFresh(r.Context(), res.SessionID, cred)
			}

			ctx := context.WithValue(r.Context(), sessionKey{}, &Session{ID: res.SessionID, Credential: cred})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

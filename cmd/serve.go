package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/desertthunder/pixtape/internal/auth"
	"github.com/desertthunder/pixtape/internal/cache"
	"github.com/desertthunder/pixtape/internal/metrics"
	"github.com/desertthunder/pixtape/internal/models"
	"github.com/desertthunder/pixtape/internal/repositories"
	"github.com/desertthunder/pixtape/internal/server"
	"github.com/desertthunder/pixtape/internal/services"
	"github.com/desertthunder/pixtape/internal/shared"
	"github.com/desertthunder/pixtape/internal/web"
	"github.com/urfave/cli/v3"
)

// Serve runs the web service until the process is interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}

	deps, cleanup, err := r.buildDeps(ctx, config)
	if err != nil {
		return err
	}
	defer cleanup()

	srv, err := server.New(config.Server, server.NewRouter(deps), r.logger)
	if err != nil {
		return err
	}

	if cmd.Bool("open") {
		url := config.Server.BaseURL
		if url == "" {
			url = "http://" + srv.Addr()
		}
		time.AfterFunc(500*time.Millisecond, func() {
			if err := shared.OpenBrowser(url); err != nil {
				r.logger.Warn("could not open browser", "url", url, "error", err)
			}
		})
	}

	return srv.Run(ctx)
}

// buildDeps wires the web service from config. Missing upstream credentials disable the affected
// features instead of failing startup.
func (r *Runner) buildDeps(ctx context.Context, config *shared.Config) (server.Deps, func(), error) {
	cleanup := func() {}
	deps := server.Deps{
		Logger:         r.logger,
		MaxUploadBytes: config.Server.MaxUploadBytes(),
	}

	ttl, err := shared.ParseDuration(config.Cache.TTL, 0)
	if err != nil {
		return deps, cleanup, err
	}
	deps.Images = cache.NewLRU[*models.Image](cacheOptions("images", 64, ttl))
	deps.Analyses = cache.NewLRU[*models.AnalysisResult](cacheOptions("analyses", config.Cache.Size, ttl))
	deps.Recommendations = cache.NewLRU[[]models.Recommendation](cacheOptions("recommendations", config.Cache.Size, ttl))

	store, closeStore, err := r.sessionStore(ctx, config, &deps)
	if err != nil {
		return deps, cleanup, err
	}
	cleanup = closeStore

	hashKey, blockKey, err := config.Session.Keys()
	if err != nil {
		return deps, cleanup, err
	}
	if hashKey == nil {
		r.logger.Warn("no session keys configured, sessions will not survive a restart")
	}
	maxAge, err := shared.ParseDuration(config.Session.MaxAge, auth.DefaultSessionMaxAge)
	if err != nil {
		return deps, cleanup, err
	}
	skew, err := shared.ParseDuration(config.Session.RefreshSkew, auth.DefaultRefreshSkew)
	if err != nil {
		return deps, cleanup, err
	}

	deps.Resolver = auth.NewResolver(auth.ResolverOpts{
		Store:             store,
		HashKey:           hashKey,
		BlockKey:          blockKey,
		AllowIdentityHint: config.Session.AllowIdentityHint,
		Secure:            config.Session.SecureCookies,
		MaxAge:            maxAge,
		Logger:            shared.WithLogger(r.logger, "component", "sessions"),
	})

	tokens := auth.TokenManagerOpts{
		Store:  store,
		Skew:   skew,
		Logger: shared.WithLogger(r.logger, "component", "tokens"),
	}

	client := &http.Client{Timeout: 30 * time.Second}

	if config.Credentials.Spotify.Valid() {
		spotify, err := services.NewSpotifyService(config.Credentials.Spotify, client)
		if err != nil {
			return deps, cleanup, err
		}
		deps.Music = spotify
		tokens.Refresher = auth.NewOAuthRefresher(spotify.OAuthConfig())
	} else {
		r.logger.Warn("spotify credentials missing, login and playlists are disabled")
	}
	deps.Tokens = auth.NewTokenManager(tokens)

	if v, err := services.NewGoogleVisionClient(config.Credentials.Vision, client); err == nil {
		deps.Vision = v
	} else if errors.Is(err, shared.ErrMissingCredentials) {
		r.logger.Warn("vision api key missing, image analysis is disabled")
	} else {
		return deps, cleanup, err
	}

	if l, err := services.NewChatClient(config.Credentials.LLM, client, shared.WithLogger(r.logger, "component", "llm")); err == nil {
		deps.LLM = l
	} else if errors.Is(err, shared.ErrMissingCredentials) {
		r.logger.Warn("llm api key missing, recommendations are disabled")
	} else {
		return deps, cleanup, err
	}

	index, err := web.Index(web.PageData{LoginEnabled: deps.Music != nil, MaxUploadMB: deps.MaxUploadBytes >> 20})
	if err != nil {
		return deps, cleanup, fmt.Errorf("failed to render index: %w", err)
	}
	deps.Index = index
	deps.Assets = web.Assets()

	return deps, cleanup, nil
}

// sessionStore opens the configured session backend. The sqlite backend also provides the shared
// track match cache.
func (r *Runner) sessionStore(ctx context.Context, config *shared.Config, deps *server.Deps) (auth.SessionStore, func(), error) {
	switch config.Session.Backend {
	case "", "memory":
		return auth.NewMemoryStore(), func() {}, nil
	case "sqlite":
		db, err := shared.OpenDatabase(ctx, config.Database)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open session database: %w", err)
		}
		deps.Tracks = repositories.NewTrackRepository(db)
		r.logger.Info("using sqlite session store", "path", config.Database.Path)
		return repositories.NewSessionRepository(db), func() { db.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("%w: session.backend %q", shared.ErrInvalidConfig, config.Session.Backend)
	}
}

func cacheOptions(name string, size int, ttl time.Duration) cache.Options {
	evictions := metrics.CacheEvictions.WithLabelValues(name)
	return cache.Options{
		Size:    size,
		TTL:     ttl,
		OnEvict: func(string) { evictions.Inc() },
	}
}

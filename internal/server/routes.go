package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/pixtape/internal/auth"
	"github.com/desertthunder/pixtape/internal/cache"
	"github.com/desertthunder/pixtape/internal/models"
	"github.com/desertthunder/pixtape/internal/services"
	"github.com/desertthunder/pixtape/internal/shared"
	"github.com/desertthunder/pixtape/internal/vision"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Deps are the collaborators of the web service. Music may be nil when no Spotify credentials are
// configured; the auth routes and playlist creation are then unavailable.
type Deps struct {
	Vision          services.VisionClient
	LLM             services.LLMClient
	Music           services.MusicService
	Resolver        *auth.Resolver
	Tokens          *auth.TokenManager
	Images          cache.Store[*models.Image]
	Analyses        cache.Store[*models.AnalysisResult]
	Recommendations cache.Store[[]models.Recommendation]
	Tracks          TrackCache
	Index           http.Handler
	Assets          http.Handler
	MaxUploadBytes  int64
	Logger          *log.Logger
	Now             func() time.Time
}

// NewRouter registers every route of the web service.
func NewRouter(d Deps) *BasicRouter {
	if d.Logger == nil {
		d.Logger = shared.DiscardLogger()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.MaxUploadBytes <= 0 {
		d.MaxUploadBytes = DefaultMaxUploadBytes
	}
	if d.Resolver == nil {
		d.Resolver = auth.NewResolver(auth.ResolverOpts{Store: auth.NewMemoryStore(), AllowIdentityHint: true, Logger: d.Logger})
	}
	if d.Vision == nil {
		d.Vision = unconfigured("vision")
	}
	if d.LLM == nil {
		d.LLM = unconfigured("llm")
	}
	if d.Images == nil {
		d.Images = cache.NewLRU[*models.Image](cache.Options{Size: 64})
	}
	if d.Analyses == nil {
		d.Analyses = cache.NewLRU[*models.AnalysisResult](cache.Options{Size: 256})
	}
	if d.Recommendations == nil {
		d.Recommendations = cache.NewLRU[[]models.Recommendation](cache.Options{Size: 256})
	}

	api := &APIHandler{
		vision:          d.Vision,
		llm:             d.LLM,
		music:           d.Music,
		images:          d.Images,
		analyses:        d.Analyses,
		recommendations: d.Recommendations,
		tracks:          d.Tracks,
		maxUpload:       d.MaxUploadBytes,
		logger:          d.Logger,
		now:             d.Now,
	}

	router := NewBasicRouter()
	router.Use(middleware.RequestID, middleware.RealIP, RequestLogger(d.Logger), middleware.Recoverer)

	router.HandleFunc(http.MethodGet, "/health", api.health)
	router.Handle(http.MethodGet, "/metrics", promhttp.Handler())
	if d.Index != nil {
		router.Handle(http.MethodGet, "/{$}", d.Index)
	}
	if d.Assets != nil {
		router.Handle(http.MethodGet, "/static/", d.Assets)
	}

	router.HandleFunc(http.MethodPost, "/api/upload", api.upload)
	router.HandleFunc(http.MethodPost, "/api/analyze", api.analyze)

	optional := Sessions(d.Resolver, d.Tokens, false, d.Logger)
	required := Sessions(d.Resolver, d.Tokens, true, d.Logger)

	router.Handle(http.MethodPost, "/api/recommend", optional(http.HandlerFunc(api.recommend)))
	router.Handle(http.MethodGet, "/api/me", required(http.HandlerFunc(api.me)))
	router.Handle(http.MethodPost, "/api/playlist", required(http.HandlerFunc(api.playlist)))

	if d.Music != nil {
		router.Handler(NewAuthHandler(d.Music, d.Resolver, d.Logger, d.Now))
	}

	return router
}

// unconfigured stands in for an upstream client whose credentials are missing.
type unconfigured string

func (u unconfigured) Annotate(ctx context.Context, image []byte) (*vision.Annotation, error) {
	return nil, fmt.Errorf("%w: %s api key not configured", shared.ErrMissingCredentials, string(u))
}

func (u unconfigured) Recommend(ctx context.Context, analysis *models.AnalysisResult) ([]models.Recommendation, error) {
	return nil, fmt.Errorf("%w: %s api key not configured", shared.ErrMissingCredentials, string(u))
}

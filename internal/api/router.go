package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/nikhilbhutani/narrator/internal/api/handlers"
	"github.com/nikhilbhutani/narrator/internal/api/middleware"
	"github.com/nikhilbhutani/narrator/internal/artifact"
	"github.com/nikhilbhutani/narrator/internal/auth"
	"github.com/nikhilbhutani/narrator/internal/config"
	"github.com/nikhilbhutani/narrator/internal/models"
)

// Services are the collaborators the HTTP layer needs.
type Services struct {
	Narrator handlers.Narrator
	Models   handlers.ModelLister
	Voices   handlers.VoiceLister
	Store    artifact.Store
}

type Router struct {
	mux *chi.Mux
	cfg *config.Config
	svc Services
	jwt *auth.JWTMiddleware
}

func NewRouter(cfg *config.Config, svc Services) *Router {
	rt := &Router{
		mux: chi.NewRouter(),
		cfg: cfg,
		svc: svc,
	}
	if cfg.Auth.JWTSecret != "" {
		rt.jwt = auth.NewJWTMiddleware(cfg.Auth.JWTSecret)
	}
	return rt
}

func (rt *Router) Setup() http.Handler {
	r := rt.mux

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(rt.cfg.Server.CORSOrigins))

	// Health endpoints (no auth, no rate limit)
	health := handlers.NewHealthHandler(rt.svc.Store)
	r.Get("/healthz", health.Healthz)
	r.Get("/readyz", health.Readyz)

	limits := handlers.Limits{
		MaxTextLength: rt.cfg.Limits.MaxTextLength,
		MaxFileSize:   rt.cfg.Limits.MaxFileSize,
	}
	gen := models.DefaultGenerationConfig()
	gen.Model = rt.cfg.LLM.DefaultModel
	if rt.cfg.LLM.SystemPrompt != "" {
		gen.SystemPrompt = rt.cfg.LLM.SystemPrompt
	}
	defaults := handlers.Defaults{Generation: gen, Voice: rt.cfg.Speech.DefaultVoice}

	rl := middleware.NewRateLimiter(rt.cfg.RateLimit.RPS, rt.cfg.RateLimit.Burst)

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		if rt.jwt != nil {
			r.Use(rt.jwt.Authenticate)
		}

		optionsH := handlers.NewOptionsHandler(rt.svc.Models, rt.svc.Voices, limits, defaults)
		r.Get("/options", optionsH.Get)

		narrationH := handlers.NewNarrationHandler(rt.svc.Narrator, rt.svc.Store, limits, defaults)
		r.Route("/narrations", func(r chi.Router) {
			r.With(rl.Limit).Post("/", narrationH.Create)
			r.Get("/{id}/audio", narrationH.Audio)
			r.Get("/{id}/download", narrationH.Download)
		})
	})

	return r
}

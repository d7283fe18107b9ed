package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/DoyleJ11/player-draft-backend/internal/draft"
	"github.com/DoyleJ11/player-draft-backend/internal/hub"
	"github.com/DoyleJ11/player-draft-backend/internal/metrics"
	"github.com/DoyleJ11/player-draft-backend/internal/store"
	"github.com/DoyleJ11/player-draft-backend/internal/ws"
)

// Service is what the HTTP layer needs from the draft service.
type Service interface {
	ws.Matches
	CreateMatch(ctx context.Context, c draft.Challenge) (draft.Render, error)
	Profile(ctx context.Context, userID string) (store.Profile, error)
}

type Deps struct {
	Service       Service
	Hub           *hub.Hub
	Logger        *zap.Logger
	Metrics       *metrics.Metrics
	Gatherer      prometheus.Gatherer
	CORSOrigins   []string
	WSIdleTimeout time.Duration
	// Ping reports backing store health for /healthz; nil means always healthy.
	Ping func(ctx context.Context) error
}

func SetupRoutes(d Deps) http.Handler {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(d.Logger))
	r.Use(middleware.Recoverer)

	// Public routes
	r.Get("/healthz", Healthz(d.Ping))
	if d.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))
	}
	r.Get("/ws", ws.Handler(ws.Deps{
		Hub:            d.Hub,
		Matches:        d.Service,
		Logger:         d.Logger,
		Metrics:        d.Metrics,
		OriginPatterns: d.CORSOrigins,
		IdleTimeout:    d.WSIdleTimeout,
	}))

	r.Route("/matches", func(r chi.Router) {
		r.Use(middleware.Timeout(10 * time.Second))
		r.Post("/", CreateMatch(d.Service))
		r.Get("/{matchID}", GetMatch(d.Service))
		r.Post("/{matchID}/actions", ApplyAction(d.Service))
	})
	r.Get("/users/{userID}/profile", GetProfile(d.Service))

	c := cors.New(cors.Options{
		AllowedOrigins: d.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"*"},
	})
	return c.Handler(r)
}

func requestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.Debug("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("elapsed", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}

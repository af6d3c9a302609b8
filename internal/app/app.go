// Package app wires the catalog, webhook and auth packages into one HTTP
// handler.
package app

import (
	"context"
	_ "embed"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"CatalogHooks/internal/auth"
	"CatalogHooks/internal/catalog"
	"CatalogHooks/internal/webhook"
	"CatalogHooks/pkg/kit"
)

//go:embed openapi.yaml
var openAPI []byte

const readyTimeout = 1 * time.Second

type HTTPDeps struct {
	Log      *zap.Logger
	Service  string
	Registry *prometheus.Registry

	MetricsEnabled bool
	MetricsToken   string

	RateLimitMax    int
	RateLimitWindow time.Duration
	// RateLimitTrust keys the limiter on X-Forwarded-For instead of the peer.
	RateLimitTrust bool
}

type Deps struct {
	Tokens      *auth.TokenMaker
	Catalog     *catalog.Service
	Subscribers *webhook.Registry
}

func NewHandler(deps Deps, httpDeps HTTPDeps) http.Handler {
	if httpDeps.Log == nil {
		httpDeps.Log = zap.NewNop()
	}

	r := chi.NewRouter()
	metrics := setupMiddleware(r, httpDeps)
	setupMetricsRoute(r, httpDeps, metrics)

	authSrv := &auth.Server{Log: httpDeps.Log, JWT: deps.Tokens}
	catalogSrv := &catalog.Server{Service: deps.Catalog, Log: httpDeps.Log}
	webhookSrv := &webhook.Server{Registry: deps.Subscribers, Log: httpDeps.Log}

	r.Get("/healthz", healthz)
	r.Get("/readyz", readyz(deps.Catalog, httpDeps.Log))
	r.Get("/docs/openapi.yaml", docs)

	r.Post("/login", authSrv.LoginHandler())

	r.Route("/api/v2", func(api chi.Router) {
		api.Use(auth.Gate(deps.Tokens, httpDeps.Log))
		api.Mount("/productos", catalogSrv.Routes())
		api.Post("/webhooks", webhookSrv.RegisterHandler())
	})

	return r
}

// setupMiddleware installs the shared middleware. Metrics sit ahead of the
// limiter so rejected requests are counted too.
func setupMiddleware(r *chi.Mux, deps HTTPDeps) *kit.Metrics {
	r.Use(chimw.RequestID)
	r.Use(kit.Recoverer)
	r.Use(kit.Logging(deps.Log))

	var metrics *kit.Metrics
	if deps.Registry != nil {
		metrics = kit.NewMetrics(deps.Registry)
		r.Use(metrics.Middleware(deps.Service, kit.ChiRoutePatternOrPath))
	}

	if deps.RateLimitMax > 0 {
		limiter := kit.NewIPRateLimiter(deps.RateLimitMax, deps.RateLimitWindow)
		limiter.TrustProxy = deps.RateLimitTrust
		r.Use(limiter.Middleware)
	}

	return metrics
}

func setupMetricsRoute(r *chi.Mux, deps HTTPDeps, metrics *kit.Metrics) {
	if metrics == nil || !deps.MetricsEnabled {
		return
	}

	r.With(kit.MetricsAuth(deps.MetricsToken)).
		Handle("/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
}

func healthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func readyz(svc *catalog.Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()

		if err := svc.Ping(ctx); err != nil {
			log.Warn("readyz failed", zap.Error(err))
			kit.WriteError(w, r, http.StatusServiceUnavailable, "not ready", nil)
			return
		}
		w.WriteHeader(http.StatusOK)
	}
}

func docs(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	_, _ = w.Write(openAPI)
}

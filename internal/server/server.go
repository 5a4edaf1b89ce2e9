// Package server assembles the genrelay HTTP handler.
package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gaspardpetit/genrelay/internal/api"
	"github.com/gaspardpetit/genrelay/internal/config"
	"github.com/gaspardpetit/genrelay/internal/console"
	"github.com/gaspardpetit/genrelay/internal/serverstate"
)

// Deps are the components the router dispatches to. Console and Metrics may
// be nil.
type Deps struct {
	Generator api.Generator
	State     *serverstate.Tracker
	Console   *console.Console
	Metrics   *prometheus.Registry
}

// New constructs the HTTP handler for the server.
func New(cfg *config.Config, d Deps) (http.Handler, error) {
	doc, err := api.LoadSpec()
	if err != nil {
		return nil, err
	}
	validate, err := api.ValidateRequest(doc, "/generate-text", http.MethodPost)
	if err != nil {
		return nil, err
	}
	specHandler, err := api.OpenAPIHandler(doc)
	if err != nil {
		return nil, err
	}
	if d.State == nil {
		d.State = serverstate.New()
	}

	r := chi.NewRouter()
	if len(cfg.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: cfg.AllowedOrigins,
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"*"},
		}))
	}
	for _, m := range api.MiddlewareChain() {
		r.Use(m)
	}

	r.With(validate).Post("/generate-text", api.GenerateHandler(d.Generator))
	r.Get("/healthz", api.HealthHandler(d.State))
	r.Get("/api/openapi.json", specHandler)
	r.Get("/api/docs", api.SwaggerHandler())

	if d.Console != nil {
		r.Route("/console", func(cr chi.Router) {
			cr.Get("/", ConsolePageHandler())
			d.Console.Routes(cr)
		})
	}

	if d.Metrics != nil && cfg.MetricsOnMainPort() {
		r.Handle("/metrics", promhttp.HandlerFor(d.Metrics, promhttp.HandlerOpts{}))
	}
	return r, nil
}

// MetricsHandler serves reg on a dedicated listener.
func MetricsHandler(reg *prometheus.Registry) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	return mux
}

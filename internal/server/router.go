// Package server hosts the OAuth login flow: the landing page, the /login
// redirect, the callback endpoint and the token hand-off page.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"

	"strava-dashboard/internal/auth"
	"strava-dashboard/internal/config"
)

// Config wires the router's dependencies.
type Config struct {
	// BaseURL is the public origin the provider redirects back to.
	BaseURL   string
	OAuth     *oauth2.Config
	Exchanger auth.CodeExchanger
	// OnGrant runs after a successful code exchange.
	OnGrant func(ctx context.Context, g *auth.Grant) error
	Logger  zerolog.Logger

	// CallbackLimit caps callback requests per client IP per minute. Zero means 20.
	CallbackLimit int
}

// NewRouter builds the HTTP handler for the login flow.
func NewRouter(cfg Config) http.Handler {
	if cfg.CallbackLimit <= 0 {
		cfg.CallbackLimit = 20
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(requestLogger(cfg.Logger))
	r.Use(chimiddleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Get("/", landingPage)
	r.Get("/dashboard", dashboardPage)
	r.Method(http.MethodGet, "/login", &auth.LoginHandler{OAuth: cfg.OAuth, BaseURL: cfg.BaseURL})

	r.With(httprate.LimitByIP(cfg.CallbackLimit, time.Minute)).
		Method(http.MethodGet, config.CallbackPath, &auth.CallbackHandler{
			Exchanger: cfg.Exchanger,
			BaseURL:   cfg.BaseURL,
			OnGrant:   cfg.OnGrant,
			Logger:    cfg.Logger,
		})

	return r
}

// requestLogger logs one line per request with the chi request ID.
func requestLogger(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)

			// The query string may carry an authorization code.
			logger.Info().
				Str("request_id", chimiddleware.GetReqID(r.Context())).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Dur("duration", time.Since(start)).
				Msg("http request")
		})
	}
}

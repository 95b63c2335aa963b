package app

import (
	"net/http"
	"time"

	"github.com/gitgaze/gitgaze/internal/auth"
	"github.com/gitgaze/gitgaze/internal/health"
	"github.com/gitgaze/gitgaze/internal/metrics"
	"github.com/gitgaze/gitgaze/internal/telemetry"
	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Handler builds the full route tree.
func (rt *Runtime) Handler() http.Handler {
	router := chi.NewRouter()
	router.Use(auth.SessionLoader(rt.sessions, rt.logger, nil))

	healthHandler := health.NewHandler(rt)
	router.Handle("/metrics", metrics.Handler(rt.registry))
	router.Handle("/livez", healthHandler)
	router.Handle("/readyz", healthHandler)
	router.Handle("/healthz", healthHandler)

	router.Get("/auth/github/login", rt.wrap("auth_login", rt.oauth.Login))
	router.Get("/auth/github/callback", rt.wrap("auth_callback", rt.oauth.Callback))

	router.Route("/api", func(api chi.Router) {
		api.Get("/auth/session", rt.wrap("auth_session", rt.oauth.Session))
		api.Post("/auth/logout", rt.wrap("auth_logout", rt.oauth.Logout))

		api.Get("/rate_limit", rt.wrap("rate_limit", rt.handleRateLimit))
		api.Get("/search/{type}", rt.wrap("search", rt.handleSearch))

		api.Route("/users/{username}", func(user chi.Router) {
			user.Get("/", rt.wrap("user", rt.handleUser))
			user.Get("/overview", rt.wrap("overview", rt.handleOverview))
			user.Get("/repos", rt.wrap("repos", rt.handleRepositories))
			user.Get("/followers", rt.wrap("followers", rt.handleFollowers))
			user.Get("/following", rt.wrap("following", rt.handleFollowing))
			user.Get("/starred", rt.wrap("starred", rt.handleStarred))
			user.Get("/gists", rt.wrap("gists", rt.handleGists))
			user.Get("/languages", rt.wrap("languages", rt.handleLanguages))
			user.Get("/follower-insights", rt.wrap("follower_insights", rt.handleFollowerInsights))
			user.Get("/commit-stats", rt.wrap("commit_stats", rt.handleCommitStats))
		})
	})

	return router
}

// wrap instruments one route with a server span and request metrics.
func (rt *Runtime) wrap(route string, handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusCapturingResponseWriter{
			ResponseWriter: w,
			status:         http.StatusOK,
		}

		if telemetry.Mode() == telemetry.ModeOff {
			handler.ServeHTTP(recorder, r)
			rt.httpMetrics.ObserveRequest(route, recorder.status, time.Since(start).Seconds())
			return
		}

		ctx, span := otel.Tracer("gitgaze/internal/app").Start(
			r.Context(),
			"http.server."+route,
			trace.WithAttributes(
				attribute.String("http.method", r.Method),
				attribute.String("http.target", r.URL.Path),
			),
		)
		defer span.End()

		handler.ServeHTTP(recorder, r.WithContext(ctx))
		rt.httpMetrics.ObserveRequest(route, recorder.status, time.Since(start).Seconds())

		span.SetAttributes(attribute.Int("http.status_code", recorder.status))
		if recorder.status >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, http.StatusText(recorder.status))
			return
		}
		span.SetStatus(codes.Ok, "request completed")
	}
}

type statusCapturingResponseWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusCapturingResponseWriter) WriteHeader(statusCode int) {
	w.status = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

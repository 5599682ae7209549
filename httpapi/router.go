package httpapi

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/MrEthical07/playgate"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

// Options configures [NewRouter].
type Options struct {
	Engine *playgate.Engine
	// TrustProxyHeaders enables X-Forwarded-For / X-Real-IP for client addresses.
	// Enable only behind a proxy that overwrites them.
	TrustProxyHeaders bool
	// MetricsHandler is mounted at /metrics when non-nil.
	MetricsHandler http.Handler
	Logger         *slog.Logger
}

type server struct {
	engine     *playgate.Engine
	trustProxy bool
	logger     *slog.Logger
}

// NewRouter returns the HTTP handler for opts.Engine.
func NewRouter(opts Options) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &server{engine: opts.Engine, trustProxy: opts.TrustProxyHeaders, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.requestContext)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if opts.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", opts.MetricsHandler)
	}

	r.Route("/api/livepeer", func(api chi.Router) {
		api.Post("/sign-jwt", s.signJWT)

		// The POST is the media platform's webhook; it arrives from a handful of
		// platform addresses and is not charged against viewer quotas.
		api.With(RateLimit(s.engine, playgate.ScopeTokenGate, s.trustProxy)).Get("/token-gate", s.issueTokenGateKey)
		api.Post("/token-gate", s.authorizeWebhook)
	})

	return r
}

// requestContext attaches the request id and client address used by audit events.
func (s *server) requestContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get("X-Request-ID"))
		if id == "" || len(id) > 128 {
			id = "req_" + uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)

		ctx := playgate.WithRequestID(r.Context(), id)
		ctx = playgate.WithClientIP(ctx, ClientIP(r, s.trustProxy))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *server) logFailure(r *http.Request, route string, err error) {
	status := StatusCode(err)
	if status < http.StatusInternalServerError {
		return
	}
	s.logger.ErrorContext(r.Context(), "request failed",
		"route", route,
		"status", status,
		"error", err,
	)
}

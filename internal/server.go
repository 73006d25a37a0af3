package internal

import (
	"context"
	"log/slog"
	"net"
	"net/http"

	"connectrpc.com/grpchealth"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/kazz187/messmate-push/internal/config"
	"github.com/kazz187/messmate-push/internal/pushnotification"
	"github.com/kazz187/messmate-push/pkg/cerr"
	"github.com/kazz187/messmate-push/pkg/clog"
)

// HealthServiceName is reported by the gRPC health endpoint.
const HealthServiceName = "messmate.push.v1.PushService"

type Server struct {
	server                 *http.Server
	env                    *config.Env
	health                 *grpchealth.StaticChecker
	pushNotificationServer *pushnotification.Server
}

func NewServer(env *config.Env, pushNotificationServer *pushnotification.Server) *Server {
	return &Server{
		env:                    env,
		health:                 grpchealth.NewStaticChecker(HealthServiceName),
		pushNotificationServer: pushNotificationServer,
	}
}

// Handler builds the full HTTP handler tree.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		middleware.Recoverer,
		clog.SlogChiMiddleware(clog.WithChiFilter(clog.SkipPaths("/health"))),
	)
	r.Group(func(r chi.Router) {
		r.Use(cerr.NewJSONResponseChiMiddleware())
		s.pushNotificationServer.Mount(r)
		r.NotFound(func(w http.ResponseWriter, r *http.Request) {
			cerr.SetNewJSONError(r.Context(), cerr.NotFound, "not found", nil)
		})
	})

	mux := http.NewServeMux()
	mux.Handle("/health", &HealthChecker{})
	mux.Handle(grpchealth.NewHandler(s.health))
	mux.Handle("/", r)

	return h2c.NewHandler(cors.New(cors.Options{
		AllowedOrigins:   s.allowedOrigins(),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}).Handler(mux), &http2.Server{})
}

func (s *Server) allowedOrigins() []string {
	if s.env.FrontendURL == "" {
		return []string{"*"}
	}
	return []string{s.env.FrontendURL}
}

// ListenAndServe starts the HTTP server. ctx becomes the base context of
// every request.
func (s *Server) ListenAndServe(ctx context.Context) error {
	addr := net.JoinHostPort(s.env.HTTPHost, s.env.HTTPPort)
	slog.Info("starting server", "addr", addr)

	s.server = &http.Server{
		Addr:        addr,
		Handler:     s.Handler(),
		BaseContext: func(_ net.Listener) context.Context { return ctx },
	}
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.health.SetStatus(HealthServiceName, grpchealth.StatusNotServing)
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

type HealthChecker struct{}

func (hc *HealthChecker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

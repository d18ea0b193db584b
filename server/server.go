// Package server provides a complete vsopd server: the REST API for
// submitting VSOP source for semantic analysis and for managing the users
// allowed to do so, backed by a configurable persistence layer.
package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dekarrin/vsopc/server/api"
	"github.com/dekarrin/vsopc/server/backend"
	"github.com/dekarrin/vsopc/server/dao"
	"github.com/dekarrin/vsopc/server/middle"
)

// Server is a fully wired vsopd server: a REST API mounted on a chi router,
// backed by a persistence layer selected by the Config it was built from.
//
// The zero value of Server is not valid; create one with New.
type Server struct {
	backend.Service
	router http.Handler
}

// New creates a new Server from cfg, connecting to the configured
// persistence layer. The caller is responsible for eventually calling
// Close.
func New(cfg Config) (*Server, error) {
	cfg = cfg.FillDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	store, err := cfg.DB.Connect()
	if err != nil {
		return nil, fmt.Errorf("connect to DB: %w", err)
	}

	svc := backend.Service{DB: store}

	theAPI := api.API{
		Backend:     svc,
		UnauthDelay: cfg.UnauthDelay(),
		Secret:      cfg.TokenSecret,
	}

	srv := &Server{Service: svc}
	srv.router = buildRouter(theAPI, store.Users(), cfg.TokenSecret, cfg.UnauthDelay())
	return srv, nil
}

// Close releases the resources held by the server's persistence layer.
func (s *Server) Close() error {
	return s.Service.DB.Close()
}

// ServeForever starts listening for HTTP connections on addr:port and blocks
// until the server exits with a fatal error. An empty addr listens on all
// interfaces.
func (s *Server) ServeForever(addr string, port int) error {
	listenOn := fmt.Sprintf("%s:%d", addr, port)
	httpServer := &http.Server{
		Addr:              listenOn,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return httpServer.ListenAndServe()
}

func buildRouter(theAPI api.API, users dao.UserRepository, secret []byte, unauthDelay time.Duration) http.Handler {
	required := middle.RequireAuth(users, secret, unauthDelay, dao.User{})
	optional := middle.OptionalAuth(users, secret, unauthDelay, dao.User{})

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middle.DontPanic())

	r.Route(api.PathPrefix, func(r chi.Router) {
		r.With(optional).Get("/info", theAPI.HTTPGetInfo())

		r.Post("/login", theAPI.HTTPCreateLogin())
		r.With(required).Delete("/login/{id}", theAPI.HTTPDeleteLogin())

		r.With(required).Post("/tokens", theAPI.HTTPCreateToken())

		// accounts are read-only over HTTP; they exist to authenticate and
		// attribute analysis submissions, and are created at server start.
		r.With(required).Get("/users/{id}", theAPI.HTTPGetUser())

		r.Route("/analyses", func(r chi.Router) {
			r.Use(required)
			r.Get("/", theAPI.HTTPGetAllAnalyses())
			r.Post("/", theAPI.HTTPCreateAnalysis())
			r.Get("/{id}", theAPI.HTTPGetAnalysis())
			r.Delete("/{id}", theAPI.HTTPDeleteAnalysis())
		})
	})

	return r
}

// Package api exposes the bulk sender over HTTP. It mounts a chi router
// with token auth, request logging, and JSON helpers; domain work is
// delegated to the dispatcher and validator.
package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/cruxstack/bulk-email-sender-go/internal/config"
	"github.com/cruxstack/bulk-email-sender-go/internal/policy"
	"github.com/cruxstack/bulk-email-sender-go/internal/types"
	"github.com/cruxstack/bulk-email-sender-go/internal/validator"
)

// BulkDispatcher is the slice of the dispatcher the handlers need; injected
// so tests can substitute a mock.
type BulkDispatcher interface {
	Dispatch(ctx context.Context, req *types.BulkRequest) (*types.BulkResult, error)
}

type Server struct {
	Config     *config.Config
	Dispatcher BulkDispatcher
	Verifier   validator.Verifier
	Gate       *policy.Gate
	Logger     *slog.Logger

	router *chi.Mux
}

func NewServer(cfg *config.Config, d BulkDispatcher, logger *slog.Logger) *Server {
	s := &Server{
		Config:     cfg,
		Dispatcher: d,
		Verifier:   validator.NewOfflineVerifier(),
		Logger:     logger,
		router:     chi.NewRouter(),
	}
	s.mountRoutes()
	return s
}

func (s *Server) mountRoutes() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Recoverer)
	s.router.Use(s.requestLogger)

	s.router.Get("/health", s.HandleHealth)

	s.router.Route("/v1/email", func(r chi.Router) {
		r.Use(s.requireAuthToken)
		r.Post("/bulk", s.HandleBulkSend)
		r.Post("/validate", s.HandleValidate)
		r.Post("/extract", s.HandleExtract)
		r.Post("/verify", s.HandleVerify)
	})
}

// Handler returns the router for http.ListenAndServe and tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

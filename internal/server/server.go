// Package server exposes the account store over HTTP: a GoTrue-style auth
// API under /auth/v1 and a PostgREST-style profiles table under /rest/v1.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jask/jaskprofile/internal/service"
)

// Server wires handlers to the service layer.
type Server struct {
	auth     *service.AuthService
	profiles *service.ProfileService
	apiKey   string
}

func New(auth *service.AuthService, profiles *service.ProfileService, apiKey string) *Server {
	return &Server{auth: auth, profiles: profiles, apiKey: apiKey}
}

// Router builds the gin engine.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(requestLogger(), gin.CustomRecovery(recoverJSON), s.requireAPIKey())

	authGroup := r.Group("/auth/v1")
	{
		authGroup.POST("/signup", s.signUp)
		authGroup.POST("/token", s.token)
		authGroup.GET("/user", s.requireUser(), s.user)
		authGroup.POST("/logout", s.requireUser(), s.logout)
	}

	rest := r.Group("/rest/v1", s.requireUser())
	{
		rest.GET("/profiles", s.listProfiles)
		rest.PATCH("/profiles", s.patchProfiles)
	}

	r.NoRoute(func(c *gin.Context) {
		writeError(c, http.StatusNotFound, "not_found", "route not found")
	})
	return r
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		slog.Info("api listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		slog.Info("api shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

package server

import (
	"crypto/subtle"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jask/jaskprofile/internal/service"
)

const (
	ctxUserID = "user_id"
	ctxToken  = "access_token"
)

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		level := slog.LevelInfo
		if c.Writer.Status() >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		attrs := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
			"user_id", c.GetString(ctxUserID),
		}
		if len(c.Errors) > 0 {
			attrs = append(attrs, "err", c.Errors.String())
		}
		slog.Log(c.Request.Context(), level, "request", attrs...)
	}
}

func recoverJSON(c *gin.Context, recovered any) {
	slog.Error("handler panic", "path", c.Request.URL.Path, "panic", recovered)
	writeError(c, http.StatusInternalServerError, "internal_error", "internal server error")
	c.Abort()
}

// requireAPIKey enforces the project key when one is configured.
func (s *Server) requireAPIKey() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.apiKey == "" {
			c.Next()
			return
		}
		got := c.GetHeader("apikey")
		if subtle.ConstantTimeCompare([]byte(got), []byte(s.apiKey)) != 1 {
			writeError(c, http.StatusUnauthorized, "no_api_key", "invalid or missing api key")
			c.Abort()
			return
		}
		c.Next()
	}
}

// requireUser resolves the bearer token to an active session.
func (s *Server) requireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearer(c.GetHeader("Authorization"))
		if !ok {
			writeError(c, http.StatusUnauthorized, "no_authorization", "missing bearer token")
			c.Abort()
			return
		}
		claims, err := s.auth.Verify(c.Request.Context(), token)
		if errors.Is(err, service.ErrSessionInvalid) {
			writeError(c, http.StatusUnauthorized, "bad_jwt", "invalid JWT: session expired or revoked")
			c.Abort()
			return
		}
		if err != nil {
			_ = c.Error(err)
			writeError(c, http.StatusInternalServerError, "internal_error", "could not verify session")
			c.Abort()
			return
		}
		c.Set(ctxUserID, claims.Subject)
		c.Set(ctxToken, token)
		c.Next()
	}
}

func bearer(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jask/jaskprofile/internal/database/repository"
	"github.com/jask/jaskprofile/internal/service"
)

type signUpRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	Data     struct {
		DisplayName string `json:"display_name"`
	} `json:"data"`
}

type tokenRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type userResponse struct {
	ID        string     `json:"id"`
	Email     string     `json:"email"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
}

type tokenResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	ExpiresIn   int64        `json:"expires_in"`
	ExpiresAt   int64        `json:"expires_at"`
	User        userResponse `json:"user"`
}

func (s *Server) signUp(c *gin.Context) {
	var req signUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusUnprocessableEntity, "validation_failed", "email and password are required")
		return
	}
	user, err := s.auth.SignUp(c.Request.Context(), service.SignUpInput{
		Email:       req.Email,
		Password:    req.Password,
		DisplayName: req.Data.DisplayName,
	})
	var inErr *service.InputError
	switch {
	case errors.As(err, &inErr):
		writeError(c, http.StatusUnprocessableEntity, "validation_failed", inErr.Error())
		return
	case errors.Is(err, service.ErrEmailTaken):
		writeError(c, http.StatusUnprocessableEntity, "user_already_exists", "User already registered")
		return
	case err != nil:
		_ = c.Error(err)
		writeError(c, http.StatusInternalServerError, "internal_error", "could not create user")
		return
	}
	c.JSON(http.StatusOK, userResponse{ID: user.ID, Email: user.Email})
}

func (s *Server) token(c *gin.Context) {
	if grant := c.Query("grant_type"); grant != "password" {
		writeError(c, http.StatusBadRequest, "unsupported_grant_type", "only grant_type=password is supported")
		return
	}
	var req tokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "validation_failed", "email and password are required")
		return
	}
	as, err := s.auth.SignIn(c.Request.Context(), req.Email, req.Password)
	if errors.Is(err, service.ErrInvalidCredentials) {
		writeError(c, http.StatusBadRequest, "invalid_credentials", "Invalid login credentials")
		return
	}
	if err != nil {
		_ = c.Error(err)
		writeError(c, http.StatusInternalServerError, "internal_error", "could not sign in")
		return
	}
	c.JSON(http.StatusOK, tokenResponse{
		AccessToken: as.AccessToken,
		TokenType:   "bearer",
		ExpiresIn:   int64(s.auth.Tokens.TTL().Seconds()),
		ExpiresAt:   as.ExpiresAt.Unix(),
		User:        userResponse{ID: as.User.ID, Email: as.User.Email},
	})
}

func (s *Server) user(c *gin.Context) {
	u, err := s.auth.Users.ByID(c.Request.Context(), c.GetString(ctxUserID))
	if errors.Is(err, repository.ErrNotFound) {
		writeError(c, http.StatusNotFound, "user_not_found", "User not found")
		return
	}
	if err != nil {
		_ = c.Error(err)
		writeError(c, http.StatusInternalServerError, "internal_error", "could not load user")
		return
	}
	c.JSON(http.StatusOK, userResponse{ID: u.ID, Email: u.Email, CreatedAt: &u.CreatedAt})
}

// logout revokes the current session, or all of the user's sessions with scope=global.
func (s *Server) logout(c *gin.Context) {
	signOut := s.auth.SignOut
	if c.Query("scope") == "global" {
		signOut = s.auth.SignOutEverywhere
	}
	if err := signOut(c.Request.Context(), c.GetString(ctxToken)); err != nil {
		_ = c.Error(err)
		writeError(c, http.StatusInternalServerError, "internal_error", "could not sign out")
		return
	}
	c.Status(http.StatusNoContent)
}

package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jask/jaskprofile/internal/database/repository"
	"github.com/jask/jaskprofile/internal/service"
)

const objectMediaType = "application/vnd.pgrst.object+json"

var profileColumns = []string{"user_id", "display_name", "updated_at"}

type patchProfileRequest struct {
	DisplayName *string `json:"display_name"`
}

// listProfiles answers a filtered read. Rows are only visible to their owner.
func (s *Server) listProfiles(c *gin.Context) {
	cols, err := selectColumns(c.Query("select"))
	if err != nil {
		writeError(c, http.StatusBadRequest, "42703", err.Error())
		return
	}
	caller := c.GetString(ctxUserID)
	target, ok, err := eqFilter(c.Query("user_id"))
	if err != nil {
		writeError(c, http.StatusBadRequest, "PGRST100", err.Error())
		return
	}
	if !ok {
		target = caller
	}

	var rows []gin.H
	if target == caller {
		p, err := s.profiles.Get(c.Request.Context(), caller)
		switch {
		case errors.Is(err, repository.ErrNotFound):
		case err != nil:
			_ = c.Error(err)
			writeError(c, http.StatusInternalServerError, "internal_error", "could not read profile")
			return
		default:
			rows = append(rows, projectProfile(p, cols))
		}
	}

	if strings.Contains(c.GetHeader("Accept"), objectMediaType) {
		if len(rows) != 1 {
			writeErrorDetails(c, http.StatusNotAcceptable, "PGRST116",
				"JSON object requested, multiple (or no) rows returned",
				fmt.Sprintf("The result contains %d rows", len(rows)))
			return
		}
		c.JSON(http.StatusOK, rows[0])
		return
	}
	if rows == nil {
		rows = []gin.H{}
	}
	c.JSON(http.StatusOK, rows)
}

// patchProfiles updates the caller's row. Filters naming another user match nothing.
func (s *Server) patchProfiles(c *gin.Context) {
	target, ok, err := eqFilter(c.Query("user_id"))
	if err != nil {
		writeError(c, http.StatusBadRequest, "PGRST100", err.Error())
		return
	}
	if !ok {
		writeError(c, http.StatusBadRequest, "21000", "UPDATE requires a WHERE clause")
		return
	}
	var req patchProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "PGRST102", "invalid JSON body")
		return
	}
	caller := c.GetString(ctxUserID)
	if target != caller || req.DisplayName == nil {
		c.Status(http.StatusNoContent)
		return
	}
	if _, err := s.profiles.UpdateDisplayName(c.Request.Context(), caller, *req.DisplayName); err != nil {
		if errors.Is(err, service.ErrEmptyDisplayName) {
			writeError(c, http.StatusBadRequest, "22023", err.Error())
			return
		}
		_ = c.Error(err)
		writeError(c, http.StatusInternalServerError, "internal_error", "could not update profile")
		return
	}
	if strings.Contains(c.GetHeader("Prefer"), "return=representation") {
		p, err := s.profiles.Get(c.Request.Context(), caller)
		if err != nil {
			_ = c.Error(err)
			writeError(c, http.StatusInternalServerError, "internal_error", "could not read profile")
			return
		}
		c.JSON(http.StatusOK, []gin.H{projectProfile(p, profileColumns)})
		return
	}
	c.Status(http.StatusNoContent)
}

// eqFilter parses a PostgREST "eq.<value>" filter.
func eqFilter(raw string) (string, bool, error) {
	if raw == "" {
		return "", false, nil
	}
	v, ok := strings.CutPrefix(raw, "eq.")
	if !ok || v == "" {
		return "", false, fmt.Errorf("unsupported filter %q, only eq. is supported", raw)
	}
	return v, true, nil
}

func selectColumns(raw string) ([]string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "*" {
		return profileColumns, nil
	}
	var out []string
	for _, col := range strings.Split(raw, ",") {
		col = strings.TrimSpace(col)
		known := false
		for _, k := range profileColumns {
			if col == k {
				known = true
				break
			}
		}
		if !known {
			return nil, fmt.Errorf("column profiles.%s does not exist", col)
		}
		out = append(out, col)
	}
	return out, nil
}

func projectProfile(p repository.Profile, cols []string) gin.H {
	row := gin.H{}
	for _, col := range cols {
		switch col {
		case "user_id":
			row[col] = p.UserID
		case "display_name":
			row[col] = p.DisplayName
		case "updated_at":
			row[col] = p.UpdatedAt
		}
	}
	return row
}

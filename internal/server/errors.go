package server

import "github.com/gin-gonic/gin"

// apiError mirrors the PostgREST error body.
type apiError struct {
	Code    string  `json:"code"`
	Message string  `json:"message"`
	Details *string `json:"details"`
	Hint    *string `json:"hint"`
}

func writeError(c *gin.Context, status int, code, message string) {
	c.JSON(status, apiError{Code: code, Message: message})
}

func writeErrorDetails(c *gin.Context, status int, code, message, details string) {
	c.JSON(status, apiError{Code: code, Message: message, Details: &details})
}

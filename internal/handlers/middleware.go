package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// operatorIDKey is the gin context key holding the authenticated operator.
const operatorIDKey = "operatorId"

var (
	errMissingAuth = errors.New("missing Authorization header")
	errAuthFormat  = errors.New("invalid Authorization header format")
)

// bearerToken extracts the token from an "Authorization: Bearer <token>" header.
func bearerToken(header string) (string, error) {
	if header == "" {
		return "", errMissingAuth
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", errAuthFormat
	}
	return strings.TrimSpace(token), nil
}

// requireOperator rejects requests without a valid operator token.
func (h *Handler) requireOperator(c *gin.Context) {
	token, err := bearerToken(c.GetHeader("Authorization"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	id, err := h.services.ParseToken(token)
	if err != nil {
		if h.log != nil {
			h.log.Debugw("auth_token_rejected", "path", c.FullPath(), "err", err)
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
		return
	}

	c.Set(operatorIDKey, id)
	c.Next()
}

// operatorID returns the operator set by requireOperator, or 0.
func operatorID(c *gin.Context) int {
	return c.GetInt(operatorIDKey)
}

package handlers

import (
	"errors"
	"net/http"

	"device_controller/internal/service"

	"github.com/gin-gonic/gin"
)

// authCredentials is the body of both sign-up and sign-in.
type authCredentials struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// authStatus maps an operator auth error to its HTTP status.
func authStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrOperatorExists):
		return http.StatusConflict
	case errors.Is(err, service.ErrEmptyUsername),
		errors.Is(err, service.ErrEmptyPassword),
		errors.Is(err, service.ErrPasswordTooLong):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrOperatorNotFound),
		errors.Is(err, service.ErrInvalidPassword):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) bindCredentials(c *gin.Context) (authCredentials, bool) {
	var in authCredentials
	if err := c.ShouldBindJSON(&in); err != nil {
		if h.log != nil {
			h.log.Infow("auth_bad_request_body", "path", c.FullPath(), "err", err)
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return in, false
	}
	return in, true
}

// @Summary      Sign up
// @Description  Register a monitoring operator.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        input  body      authCredentials  true  "Credentials"
// @Success      200    {object}  map[string]int
// @Failure      400    {object}  map[string]string
// @Failure      409    {object}  map[string]string
// @Failure      500    {object}  map[string]string
// @Router       /auth/sign-up [post]
func (h *Handler) signUp(c *gin.Context) {
	in, ok := h.bindCredentials(c)
	if !ok {
		return
	}

	id, err := h.services.SignUp(c.Request.Context(), in.Username, in.Password)
	if err != nil {
		status := authStatus(err)
		if h.log != nil {
			h.log.Infow("auth_sign_up_failed", "username", in.Username, "status", status, "err", err)
		}
		msg := err.Error()
		if status == http.StatusInternalServerError {
			msg = "failed to register operator"
		}
		c.JSON(status, gin.H{"error": msg})
		return
	}

	if h.log != nil {
		h.log.Infow("operator_registered", "operator", id, "username", in.Username)
	}
	c.JSON(http.StatusOK, gin.H{"id": id})
}

// @Summary      Sign in
// @Description  Exchange operator credentials for a bearer token.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        input  body      authCredentials  true  "Credentials"
// @Success      200    {object}  map[string]string
// @Failure      400    {object}  map[string]string
// @Failure      401    {object}  map[string]string
// @Failure      500    {object}  map[string]string
// @Router       /auth/sign-in [post]
func (h *Handler) signIn(c *gin.Context) {
	in, ok := h.bindCredentials(c)
	if !ok {
		return
	}

	token, err := h.services.GenerateToken(c.Request.Context(), in.Username, in.Password)
	if err != nil {
		status := authStatus(err)
		if h.log != nil {
			h.log.Infow("auth_sign_in_failed", "username", in.Username, "status", status, "err", err)
		}
		// unknown operator and wrong password look the same to the caller
		if status == http.StatusUnauthorized || status == http.StatusBadRequest {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to sign in"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token})
}

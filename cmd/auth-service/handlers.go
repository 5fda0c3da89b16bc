package main

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mvergara-dev/shop-services/internal/httpx"
	"github.com/mvergara-dev/shop-services/internal/token"
	"github.com/mvergara-dev/shop-services/internal/user"
)

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Token string     `json:"token"`
	User  *user.User `json:"user"`
}

// registerHandler godoc
// @Summary Register a new user
// @Accept json
// @Produce json
// @Param payload body registerRequest true "credentials"
// @Success 201 {object} authResponse
// @Failure 400 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /api/auth/register [post]
func registerHandler(svc *user.Service, tokens *token.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req registerRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
			return
		}
		u, err := svc.Register(c.Request.Context(), req.Username, req.Email, req.Password)
		if err != nil {
			writeAuthError(c, err)
			return
		}
		tok, err := tokens.Issue(u.ID, u.Email)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		c.JSON(http.StatusCreated, authResponse{Token: tok, User: u})
	}
}

// loginHandler godoc
// @Summary Exchange credentials for a token
// @Accept json
// @Produce json
// @Param payload body loginRequest true "credentials"
// @Success 200 {object} authResponse
// @Failure 401 {object} map[string]string
// @Router /api/auth/login [post]
func loginHandler(svc *user.Service, tokens *token.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req loginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
			return
		}
		u, err := svc.Login(c.Request.Context(), req.Email, req.Password)
		if err != nil {
			writeAuthError(c, err)
			return
		}
		tok, err := tokens.Issue(u.ID, u.Email)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		c.JSON(http.StatusOK, authResponse{Token: tok, User: u})
	}
}

// meHandler godoc
// @Summary Return the authenticated user
// @Produce json
// @Success 200 {object} user.User
// @Failure 401 {object} map[string]string
// @Router /api/auth/me [get]
func meHandler(svc *user.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		u, err := svc.GetByID(c.Request.Context(), httpx.CurrentUserID(c))
		if err != nil {
			if errors.Is(err, user.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		c.JSON(http.StatusOK, u)
	}
}

func writeAuthError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, user.ErrMissingFields):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, user.ErrAlreadyExist):
		c.JSON(http.StatusConflict, gin.H{"error": "username or email already registered"})
	case errors.Is(err, user.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

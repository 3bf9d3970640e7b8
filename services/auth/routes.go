package auth

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

type registerRequest struct {
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required"`
	DisplayName string `json:"display_name"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// RegisterRoutes mounts the account endpoints under r (expected to be
// the /api/auth group).
func (s Service) RegisterRoutes(r gin.IRouter) {
	r.POST("/register", s.handleRegister)
	r.POST("/login", s.handleLogin)
	r.POST("/guest", s.handleGuest)
	r.GET("/me", s.RequireAuth(), s.handleMe)
	r.PUT("/me", s.RequireAuth(), s.handleUpdateMe)
	r.POST("/logout", s.handleLogout)
}

func (s Service) handleRegister(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(req.Password) < 6 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "password must be at least 6 characters"})
		return
	}

	user, err := s.Register(c.Request.Context(), req.Email, req.Password, req.DisplayName)
	if errors.Is(err, ErrEmailTaken) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email already registered"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create account"})
		return
	}
	c.JSON(http.StatusOK, ProfileFromUser(user))
}

func (s Service) handleLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	_, token, err := s.Login(c.Request.Context(), req.Email, req.Password)
	if errors.Is(err, ErrInvalidCredentials) {
		c.Header("WWW-Authenticate", "Bearer")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "incorrect email or password"})
		return
	}
	if errors.Is(err, ErrAccountDisabled) {
		c.JSON(http.StatusForbidden, gin.H{"error": "user account is disabled"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}
	c.JSON(http.StatusOK, tokenResponse{AccessToken: token, TokenType: "bearer"})
}

func (s Service) handleGuest(c *gin.Context) {
	user, token, err := s.CreateGuest(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create guest account"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"access_token": token,
		"token_type":   "bearer",
		"user":         ProfileFromUser(user),
	})
}

func (s Service) handleMe(c *gin.Context) {
	user, _ := UserFromContext(c)
	c.JSON(http.StatusOK, ProfileFromUser(user))
}

type updateMeRequest struct {
	DisplayName string `json:"display_name"`
}

func (s Service) handleUpdateMe(c *gin.Context) {
	user, _ := UserFromContext(c)

	var req updateMeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.DisplayName == "" {
		c.JSON(http.StatusOK, ProfileFromUser(user))
		return
	}

	updated, err := s.UpdateDisplayName(c.Request.Context(), user.ID, req.DisplayName)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update profile"})
		return
	}
	c.JSON(http.StatusOK, ProfileFromUser(updated))
}

func (s Service) handleLogout(c *gin.Context) {
	// Tokens are stateless, logout happens client side.
	c.JSON(http.StatusOK, gin.H{"message": "logged out successfully"})
}

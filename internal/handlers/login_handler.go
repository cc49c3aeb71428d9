package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type LoginRequest struct {
	PIN string `json:"pin" binding:"required"`
}

// Login trades the admin PIN for a session token.
func (s *Server) Login(c *gin.Context) {
	var input LoginRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "PIN is required")
		return
	}

	token, expires, err := s.auth.Login(input.PIN)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":     token,
		"role":      "admin",
		"expiresAt": expires,
	})
}

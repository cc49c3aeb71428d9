package handlers

import (
	"net/http"

	"go-pos-terminal/internal/ai"

	"github.com/gin-gonic/gin"
)

type AskRequest struct {
	Message string `json:"message" binding:"required"`
}

func (s *Server) AskAI(c *gin.Context) {
	var req AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Message is required")
		return
	}
	if s.agent == nil || !s.agent.Enabled() {
		respondError(c, ai.ErrNotConfigured)
		return
	}

	response, err := s.agent.Ask(c.Request.Context(), req.Message)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reply": response})
}

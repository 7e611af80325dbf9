package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type AskRequest struct {
	Message string `json:"message" binding:"required"`
}

// --- POST: /api/ask ---
func (h *Handler) AskAI(c *gin.Context) {
	var req AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, http.StatusBadRequest, "Message is required", err)
		return
	}

	if !h.Agent.Enabled() {
		h.fail(c, http.StatusServiceUnavailable, "The assistant is not configured (GEMINI_API_KEY)", nil)
		return
	}

	response, err := h.Agent.Ask(c.Request.Context(), req.Message)
	if err != nil {
		h.fail(c, http.StatusBadGateway, "The assistant could not answer", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"reply": response})
}

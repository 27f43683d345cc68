package shop

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/shophub/shophub/internal/api/middleware"
	"github.com/shophub/shophub/internal/domain"
)

// Chat handles a chat message
func (h *Handler) Chat(c *gin.Context) {
	var req domain.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.chatService.ProcessMessage(c.Request.Context(), middleware.SessionID(c), req.Message)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// History returns the conversation log of the session
func (h *Handler) History(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	resp, err := h.chatService.History(c.Request.Context(), middleware.SessionID(c), limit)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

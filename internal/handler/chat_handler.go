package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/xxxsen/docchat/internal/pkg/errcode"
	"github.com/xxxsen/docchat/internal/pkg/response"
	"github.com/xxxsen/docchat/internal/service"
)

type ChatHandler struct {
	chat *service.ChatService
}

func NewChatHandler(chat *service.ChatService) *ChatHandler {
	return &ChatHandler{chat: chat}
}

type askRequest struct {
	Question string `json:"question"`
}

type historyDeleteRequest struct {
	IDs []int64 `json:"ids"`
}

func (h *ChatHandler) Ask(c *gin.Context) {
	var req askRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	answer, err := h.chat.Ask(c.Request.Context(), getUserID(c), req.Question)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"answer": answer})
}

func (h *ChatHandler) History(c *gin.Context) {
	newestFirst := c.Query("order") != "asc"
	entries, err := h.chat.History(c.Request.Context(), getUserID(c), newestFirst)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"history": entries})
}

func (h *ChatHandler) DeleteHistory(c *gin.Context) {
	var req historyDeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	count, err := h.chat.DeleteHistory(c.Request.Context(), getUserID(c), req.IDs)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"deleted": count})
}

package handler

import (
	"github.com/gin-gonic/gin"

	"gopherai-chatbot/internal/app"
	"gopherai-chatbot/internal/transport/http/response"
)

type PromptHandler struct {
	chatService *app.ChatService
}

func NewPromptHandler(chatService *app.ChatService) *PromptHandler {
	return &PromptHandler{chatService: chatService}
}

func (h *PromptHandler) List(c *gin.Context) {
	response.OK(c, h.chatService.PromptTypes())
}

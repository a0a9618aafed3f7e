package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"gopherai-chatbot/internal/app"
	"gopherai-chatbot/internal/transport/http/response"
)

type ChatHandler struct {
	chatService *app.ChatService
}

type ChatMessageRequest struct {
	Role    string `json:"role" binding:"required"`
	Content string `json:"content"`
}

type ChatRequest struct {
	Messages    []ChatMessageRequest `json:"messages" binding:"required,dive"`
	SessionID   *string              `json:"session_id"`
	MaxTokens   *int                 `json:"max_tokens"`
	Temperature *float64             `json:"temperature"`
	PromptType  *string              `json:"prompt_type"`
}

type MessageResponse struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatResponse struct {
	Message   MessageResponse `json:"message"`
	Usage     app.Usage       `json:"usage"`
	SessionID string          `json:"session_id"`
}

func NewChatHandler(chatService *app.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

func (h *ChatHandler) Chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	input := app.ChatInput{
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		PromptType:  req.PromptType,
		Messages:    make([]app.ChatMessageInput, 0, len(req.Messages)),
	}
	if req.SessionID != nil {
		input.SessionID = *req.SessionID
	}
	for _, m := range req.Messages {
		input.Messages = append(input.Messages, app.ChatMessageInput{Role: m.Role, Content: m.Content})
	}

	result, err := h.chatService.Chat(c.Request.Context(), input)
	if err != nil {
		var completionErr *app.CompletionError
		switch {
		case errors.Is(err, app.ErrInvalidInput):
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
		case errors.As(err, &completionErr):
			response.Error(c, http.StatusInternalServerError, response.CodeCompletionFailed,
				"Error communicating with LLM: "+completionErr.Err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer,
				"Error communicating with LLM: "+err.Error())
		}
		return
	}

	response.OK(c, ChatResponse{
		Message: MessageResponse{
			Role:    result.Message.Role,
			Content: result.Message.Content,
		},
		Usage:     result.Usage,
		SessionID: result.SessionID,
	})
}

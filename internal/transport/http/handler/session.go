package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"gopherai-chatbot/internal/app"
	"gopherai-chatbot/internal/transport/http/response"
)

type SessionHandler struct {
	chatService *app.ChatService
}

type PromptTypeRequest struct {
	PromptType string `json:"prompt_type" binding:"required"`
}

type PromptTypeResponse struct {
	SessionID  string `json:"session_id"`
	PromptType string `json:"prompt_type"`
	Message    string `json:"message"`
}

func NewSessionHandler(chatService *app.ChatService) *SessionHandler {
	return &SessionHandler{chatService: chatService}
}

func (h *SessionHandler) Get(c *gin.Context) {
	sessionID := c.Param("id")
	session, err := h.chatService.GetSession(sessionID)
	if err != nil {
		writeSessionError(c, sessionID, err)
		return
	}
	response.OK(c, session.Snapshot())
}

func (h *SessionHandler) UpdatePromptType(c *gin.Context) {
	var req PromptTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	sessionID := c.Param("id")
	session, err := h.chatService.UpdatePromptType(sessionID, req.PromptType)
	if err != nil {
		switch {
		case errors.Is(err, app.ErrInvalidPromptType):
			response.Error(c, http.StatusBadRequest, response.CodeInvalidPromptType, err.Error())
		default:
			writeSessionError(c, sessionID, err)
		}
		return
	}

	response.OK(c, PromptTypeResponse{
		SessionID:  session.ID(),
		PromptType: req.PromptType,
		Message:    fmt.Sprintf("Prompt type updated to '%s'", req.PromptType),
	})
}

func (h *SessionHandler) ListCompletions(c *gin.Context) {
	limit := 100
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			limit = parsed
		}
	}

	sessionID := c.Param("id")
	records, err := h.chatService.ListCompletions(c.Request.Context(), sessionID, limit)
	if err != nil {
		switch {
		case errors.Is(err, app.ErrArchiveDisabled):
			response.Error(c, http.StatusServiceUnavailable, response.CodeServiceUnavailable, err.Error())
		case errors.Is(err, app.ErrInvalidInput):
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "list completions failed")
		}
		return
	}

	response.OK(c, gin.H{
		"session_id":  sessionID,
		"completions": records,
	})
}

func writeSessionError(c *gin.Context, sessionID string, err error) {
	if errors.Is(err, app.ErrSessionNotFound) {
		response.Error(c, http.StatusNotFound, response.CodeSessionNotFound,
			fmt.Sprintf("chat session with ID %s not found", sessionID))
		return
	}
	response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, err.Error())
}

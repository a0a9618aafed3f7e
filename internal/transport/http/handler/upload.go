package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"gopherai-chatbot/internal/app"
	"gopherai-chatbot/internal/transport/http/response"
)

type UploadHandler struct {
	chatService *app.ChatService
}

type UploadResponse struct {
	Filename  string           `json:"filename"`
	FileID    string           `json:"file_id"`
	SessionID string           `json:"session_id"`
	Message   string           `json:"message"`
	Reply     *MessageResponse `json:"reply,omitempty"`
	Usage     *app.Usage       `json:"usage,omitempty"`
}

func NewUploadHandler(chatService *app.ChatService) *UploadHandler {
	return &UploadHandler{chatService: chatService}
}

// Upload accepts a multipart form with "file" and the optional text fields
// "session_id", "message" and "prompt_type".
func (h *UploadHandler) Upload(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "missing file (form field 'file')")
		return
	}

	f, err := file.Open()
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "failed to open uploaded file")
		return
	}
	defer f.Close()

	result, err := h.chatService.Upload(c.Request.Context(), app.UploadInput{
		Filename:   file.Filename,
		Content:    f,
		SessionID:  c.PostForm("session_id"),
		Message:    c.PostForm("message"),
		PromptType: c.PostForm("prompt_type"),
	})
	if err != nil {
		switch {
		case errors.Is(err, app.ErrInvalidInput):
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeFileProcessing,
				"Error processing file: "+err.Error())
		}
		return
	}

	resp := UploadResponse{
		Filename:  result.Filename,
		FileID:    result.FileID,
		SessionID: result.SessionID,
		Message:   "File uploaded successfully",
	}
	if result.Completion != nil {
		resp.Reply = &MessageResponse{
			Role:    result.Completion.Message.Role,
			Content: result.Completion.Message.Content,
		}
		usage := result.Completion.Usage
		resp.Usage = &usage
	}
	response.OK(c, resp)
}

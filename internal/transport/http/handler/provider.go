package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gopherai-chatbot/internal/app"
	"gopherai-chatbot/internal/transport/http/response"
)

type ProviderHandler struct {
	completions *app.CompletionService
}

type SwitchProviderRequest struct {
	Provider string `json:"provider" binding:"required"`
}

func NewProviderHandler(completions *app.CompletionService) *ProviderHandler {
	return &ProviderHandler{completions: completions}
}

func (h *ProviderHandler) Get(c *gin.Context) {
	response.OK(c, h.completions.ActiveProvider())
}

// Switch rebinds the completion service. Unknown names select the default
// provider rather than failing.
func (h *ProviderHandler) Switch(c *gin.Context) {
	var req SwitchProviderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	info, err := h.completions.SwitchProvider(c.Request.Context(), req.Provider)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, err.Error())
		return
	}
	response.OK(c, info)
}

package http

import (
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"gopherai-chatbot/internal/bootstrap"
	"gopherai-chatbot/internal/transport/http/handler"
	"gopherai-chatbot/internal/transport/http/middleware"
)

func NewRouter(app *bootstrap.App) *gin.Engine {
	gin.SetMode(app.Config.App.GinMode)
	router := gin.New()
	router.Use(middleware.Logger(app.Logger.Named("http")), middleware.Recovery(app.Logger))

	healthHandler := handler.NewHealthHandler(app)
	router.GET("/health", healthHandler.Check)
	mountStatic(router, app.Config.App.StaticDir, app.Logger)

	chatHandler := handler.NewChatHandler(app.Chat)
	sessionHandler := handler.NewSessionHandler(app.Chat)
	uploadHandler := handler.NewUploadHandler(app.Chat)
	promptHandler := handler.NewPromptHandler(app.Chat)
	providerHandler := handler.NewProviderHandler(app.Completions)

	api := router.Group("/api")
	api.Use(middleware.AuthJWT(app.Config.Auth.JWTSecret, app.Config.Auth.Issuer))
	api.POST("/chat", middleware.RateLimit(app.RateLimiter, "chat"), chatHandler.Chat)
	api.POST("/upload", middleware.RateLimit(app.RateLimiter, "upload"), uploadHandler.Upload)
	api.GET("/sessions/:id", sessionHandler.Get)
	api.POST("/sessions/:id/prompt-type", sessionHandler.UpdatePromptType)
	api.GET("/sessions/:id/completions", sessionHandler.ListCompletions)
	api.GET("/prompt-types", promptHandler.List)
	api.GET("/provider", providerHandler.Get)
	api.POST("/provider", providerHandler.Switch)

	return router
}

// mountStatic serves the bundled web UI when the static directory exists.
func mountStatic(router *gin.Engine, dir string, logger *zap.Logger) {
	if dir == "" {
		return
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		logger.Info("static dir not found, web ui disabled", zap.String("dir", dir))
		return
	}
	router.Static("/static", dir)

	index := filepath.Join(dir, "index.html")
	if _, err := os.Stat(index); err == nil {
		router.StaticFile("/", index)
	}
}

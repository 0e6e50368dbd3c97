package router

import (
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"peerlearn.app/server/internal/http/dto"
	"peerlearn.app/server/internal/http/handler"
	"peerlearn.app/server/internal/http/middleware"
	"peerlearn.app/server/internal/service"
)

type RouterConfig struct {
	Cookie      handler.CookieConfig
	AvatarLinks dto.AvatarLinks
	Health      handler.Pinger
}

func SetupRoutes(router *gin.Engine, services *service.Services, cfg RouterConfig) {
	// Request bodies are explicit allow-lists; unexpected fields are errors.
	binding.EnableDecoderDisallowUnknownFields = true

	healthHandler := handler.NewHealthHandler(cfg.Health)
	router.GET("/health", healthHandler.Health)

	authService := services.Auth()
	requireAuth := middleware.RequireAuth(authService, cfg.Cookie.Name)

	api := router.Group("/api")
	{
		authHandler := handler.NewAuthHandler(authService, cfg.Cookie, cfg.AvatarLinks)
		AuthRouter(api.Group("/auth"), authHandler)

		otpHandler := handler.NewOtpHandler(services.Otps())
		OtpRouter(api.Group("/otp"), otpHandler)

		userHandler := handler.NewUserHandler(services.Users(), cfg.AvatarLinks)
		UserRouter(api.Group("/user"), requireAuth, userHandler)

		workspaceHandler := handler.NewWorkspaceHandler(services.Workspaces(), services.Documents())
		WorkspaceRouter(api.Group("/workspace", requireAuth), workspaceHandler)

		documentHandler := handler.NewDocumentHandler(services.Documents())
		DocumentRouter(api.Group("/document", requireAuth), documentHandler)
	}
}

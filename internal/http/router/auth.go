package router

import (
	"github.com/gin-gonic/gin"

	"peerlearn.app/server/internal/http/handler"
)

func AuthRouter(rg *gin.RouterGroup, h *handler.AuthHandler) {
	rg.POST("/register", h.Register)
	rg.POST("/login", h.Login)
	rg.POST("/logout", h.Logout)
}

func OtpRouter(rg *gin.RouterGroup, h *handler.OtpHandler) {
	rg.POST("/send", h.Send)
	rg.PUT("/verify", h.Verify)
}

package router

import (
	"github.com/gin-gonic/gin"

	"peerlearn.app/server/internal/http/handler"
)

// UserRouter mounts the profile routes. Avatars are public so <img> tags
// can load them without credentials; everything else requires a session.
func UserRouter(rg *gin.RouterGroup, requireAuth gin.HandlerFunc, h *handler.UserHandler) {
	rg.GET("/:id/avatar", h.Avatar)

	authed := rg.Group("", requireAuth)
	{
		authed.GET("/search", h.Search)
		authed.GET("/me", h.Me)
		authed.PUT("/update", h.Update)
		authed.PUT("/avatar", h.UploadAvatar)
		authed.DELETE("/delete", h.Delete)
	}
}

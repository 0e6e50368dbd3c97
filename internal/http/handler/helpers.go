package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"peerlearn.app/server/internal/http/dto"
	"peerlearn.app/server/internal/service"
)

// bindJSON decodes the body into req and records a validation error on failure.
func bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		_ = c.Error(service.ErrValidation.WithMessage("invalid request body: " + err.Error()))
		return false
	}
	return true
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		_ = c.Error(service.ErrValidation.WithMessage("invalid " + name))
		return 0, false
	}
	return id, true
}

func ok(c *gin.Context, message string, data any) {
	c.JSON(http.StatusOK, dto.OK(message, data))
}

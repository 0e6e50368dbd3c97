package middleware

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"peerlearn.app/server/internal/http/dto"
	"peerlearn.app/server/internal/service"
)

var kindStatus = map[service.Kind]int{
	service.KindValidation:      http.StatusBadRequest,
	service.KindInvalid:         http.StatusBadRequest,
	service.KindExpired:         http.StatusBadRequest,
	service.KindUnauthenticated: http.StatusUnauthorized,
	service.KindAccessDenied:    http.StatusForbidden,
	service.KindNotFound:        http.StatusNotFound,
	service.KindConflict:        http.StatusConflict,
	service.KindInternal:        http.StatusInternalServerError,
}

// StatusFor maps an error kind to its HTTP status.
func StatusFor(kind service.Kind) int {
	if status, ok := kindStatus[kind]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// Errors renders the last error a handler attached with c.Error as the
// response envelope. Handlers that already wrote a body are left alone.
func Errors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		domainErr := service.AsError(err)
		status := StatusFor(domainErr.Kind)
		if status >= http.StatusInternalServerError {
			slog.ErrorContext(c.Request.Context(), "request error", "error", err, "code", domainErr.Code)
		}

		c.JSON(status, dto.Fail(domainErr.Code, domainErr.Message))
	}
}

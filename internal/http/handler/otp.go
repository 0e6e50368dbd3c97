package handler

import (
	"github.com/gin-gonic/gin"

	"peerlearn.app/server/internal/http/dto"
	"peerlearn.app/server/internal/service"
)

type OtpHandler struct {
	otpService service.OtpService
}

func NewOtpHandler(otpService service.OtpService) *OtpHandler {
	return &OtpHandler{otpService: otpService}
}

func (h *OtpHandler) Send(c *gin.Context) {
	var req dto.SendOtpRequest
	if !bindJSON(c, &req) {
		return
	}

	expiresAt, err := h.otpService.Send(c.Request.Context(), req.Email)
	if err != nil {
		_ = c.Error(err)
		return
	}

	ok(c, "verification code sent", dto.SendOtpResponse{ExpiresAt: expiresAt})
}

func (h *OtpHandler) Verify(c *gin.Context) {
	var req dto.VerifyOtpRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.otpService.Verify(c.Request.Context(), req.Email, req.Code); err != nil {
		_ = c.Error(err)
		return
	}

	ok(c, "email verified", nil)
}

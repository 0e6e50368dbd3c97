package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"peerlearn.app/server/internal/http/dto"
	"peerlearn.app/server/internal/service"
)

// CookieConfig describes the cookie carrying the session token.
type CookieConfig struct {
	Name   string
	Domain string
	Secure bool
}

type AuthHandler struct {
	authService service.AuthService
	cookie      CookieConfig
	links       dto.AvatarLinks
}

func NewAuthHandler(authService service.AuthService, cookie CookieConfig, links dto.AvatarLinks) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		cookie:      cookie,
		links:       links,
	}
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if !bindJSON(c, &req) {
		return
	}

	email, err := h.authService.Register(c.Request.Context(), service.RegisterInput{
		Username:  req.Username,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}

	ok(c, "registration successful, verify your email to continue", dto.RegisterResponse{Email: email})
}

func (h *AuthHandler) Login(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	session, err := h.authService.Login(ctx, req.Email, req.Password)
	if err != nil {
		_ = c.Error(err)
		return
	}

	h.setSessionCookie(c, session.Token, session.ExpiresAt)
	slog.InfoContext(ctx, "user logged in", "user_id", session.User.ID)

	ok(c, "login successful", dto.LoginResponse{
		User:      h.links.ToUserResponse(session.User),
		ExpiresAt: session.ExpiresAt,
	})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	h.clearSessionCookie(c)
	ok(c, "logged out", nil)
}

func (h *AuthHandler) setSessionCookie(c *gin.Context, token string, expiresAt time.Time) {
	maxAge := int(time.Until(expiresAt).Seconds())
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookie.Name, token, maxAge, "/", h.cookie.Domain, h.cookie.Secure, true)
}

func (h *AuthHandler) clearSessionCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookie.Name, "", -1, "/", h.cookie.Domain, h.cookie.Secure, true)
}

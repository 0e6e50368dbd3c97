package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"peerlearn.app/server/internal/http/dto"
	"peerlearn.app/server/internal/http/middleware"
	"peerlearn.app/server/internal/service"
)

const defaultSearchLimit = 8

type UserHandler struct {
	userService service.UserService
	links       dto.AvatarLinks
}

func NewUserHandler(userService service.UserService, links dto.AvatarLinks) *UserHandler {
	return &UserHandler{userService: userService, links: links}
}

func (h *UserHandler) Search(c *gin.Context) {
	limit := defaultSearchLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			_ = c.Error(service.ErrValidation.WithMessage("limit must be a number"))
			return
		}
		limit = n
	}

	users, err := h.userService.Search(c.Request.Context(), c.Query("query"), limit)
	if err != nil {
		_ = c.Error(err)
		return
	}

	ok(c, "users found", h.links.ToUserBriefs(users))
}

func (h *UserHandler) Me(c *gin.Context) {
	user, err := h.userService.GetByID(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		_ = c.Error(err)
		return
	}

	ok(c, "user retrieved", h.links.ToUserResponse(user))
}

func (h *UserHandler) Update(c *gin.Context) {
	var req dto.UpdateUserRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.userService.Update(c.Request.Context(), middleware.UserID(c), req.ToPatch())
	if err != nil {
		_ = c.Error(err)
		return
	}

	ok(c, "user updated", h.links.ToUserResponse(user))
}

func (h *UserHandler) Delete(c *gin.Context) {
	if err := h.userService.Delete(c.Request.Context(), middleware.UserID(c)); err != nil {
		_ = c.Error(err)
		return
	}

	ok(c, "user deleted", nil)
}

func (h *UserHandler) UploadAvatar(c *gin.Context) {
	ctx := c.Request.Context()
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, service.MaxAvatarBytes+1<<20)

	fileHeader, err := c.FormFile("image")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			_ = c.Error(service.ErrInvalidAvatar.WithMessage("avatar must be at most 5 MiB"))
			return
		}
		_ = c.Error(service.ErrInvalidAvatar.WithMessage("multipart field 'image' is required"))
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		_ = c.Error(service.ErrInvalidAvatar.WithMessage("could not read uploaded image"))
		return
	}
	defer file.Close()

	user, err := h.userService.UpdateAvatar(ctx, middleware.UserID(c), service.AvatarUpload{
		Filename: fileHeader.Filename,
		Size:     fileHeader.Size,
		Data:     file,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}

	ok(c, "avatar updated", h.links.ToUserResponse(user))
}

func (h *UserHandler) Avatar(c *gin.Context) {
	ctx := c.Request.Context()

	userID, valid := pathID(c, "id")
	if !valid {
		return
	}

	rc, contentType, err := h.userService.OpenAvatar(ctx, userID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	defer rc.Close()

	c.Header("Cache-Control", "private, max-age=300")
	c.Header("Content-Type", contentType)
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, rc); err != nil {
		slog.WarnContext(ctx, "failed to stream avatar", "error", err, "user_id", userID)
	}
}

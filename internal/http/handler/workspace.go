package handler

import (
	"github.com/gin-gonic/gin"

	"peerlearn.app/server/internal/http/dto"
	"peerlearn.app/server/internal/http/middleware"
	"peerlearn.app/server/internal/service"
)

type WorkspaceHandler struct {
	workspaceService service.WorkspaceService
	documentService  service.DocumentService
}

func NewWorkspaceHandler(workspaceService service.WorkspaceService, documentService service.DocumentService) *WorkspaceHandler {
	return &WorkspaceHandler{
		workspaceService: workspaceService,
		documentService:  documentService,
	}
}

func (h *WorkspaceHandler) List(c *gin.Context) {
	workspaces, err := h.workspaceService.ListForUser(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		_ = c.Error(err)
		return
	}

	ok(c, "workspaces retrieved", dto.ToWorkspaceResponses(workspaces))
}

func (h *WorkspaceHandler) Create(c *gin.Context) {
	var req dto.CreateWorkspaceRequest
	if !bindJSON(c, &req) {
		return
	}

	ws, err := h.workspaceService.Create(c.Request.Context(), middleware.UserID(c), service.CreateWorkspaceInput{
		Name:        req.Name,
		Description: req.Description,
		Visibility:  req.Visibility,
		ColorHex:    req.ColorHex,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}

	ok(c, "workspace created", dto.ToWorkspaceResponse(ws))
}

func (h *WorkspaceHandler) Get(c *gin.Context) {
	workspaceID, valid := pathID(c, "id")
	if !valid {
		return
	}

	ws, err := h.workspaceService.Get(c.Request.Context(), workspaceID, middleware.UserID(c))
	if err != nil {
		_ = c.Error(err)
		return
	}

	ok(c, "workspace retrieved", dto.ToWorkspaceResponse(ws))
}

func (h *WorkspaceHandler) Update(c *gin.Context) {
	workspaceID, valid := pathID(c, "id")
	if !valid {
		return
	}
	var req dto.UpdateWorkspaceRequest
	if !bindJSON(c, &req) {
		return
	}

	ws, err := h.workspaceService.Update(c.Request.Context(), workspaceID, middleware.UserID(c), req.ToPatch())
	if err != nil {
		_ = c.Error(err)
		return
	}

	ok(c, "workspace updated", dto.ToWorkspaceResponse(ws))
}

func (h *WorkspaceHandler) Delete(c *gin.Context) {
	workspaceID, valid := pathID(c, "id")
	if !valid {
		return
	}

	deleted, err := h.workspaceService.Delete(c.Request.Context(), workspaceID, middleware.UserID(c))
	if err != nil {
		_ = c.Error(err)
		return
	}
	if !deleted {
		_ = c.Error(service.ErrWorkspaceNotFound)
		return
	}

	ok(c, "workspace deleted", nil)
}

func (h *WorkspaceHandler) Documents(c *gin.Context) {
	workspaceID, valid := pathID(c, "id")
	if !valid {
		return
	}

	docs, err := h.documentService.ListByWorkspace(c.Request.Context(), workspaceID, middleware.UserID(c))
	if err != nil {
		_ = c.Error(err)
		return
	}

	ok(c, "documents retrieved", dto.ToDocumentResponses(docs))
}

func (h *WorkspaceHandler) AddMember(c *gin.Context) {
	workspaceID, valid := pathID(c, "id")
	if !valid {
		return
	}
	var req dto.AddMemberRequest
	if !bindJSON(c, &req) {
		return
	}

	membership, err := h.workspaceService.AddMember(c.Request.Context(), workspaceID, middleware.UserID(c), req.UserID, req.Role)
	if err != nil {
		_ = c.Error(err)
		return
	}

	ok(c, "member added", dto.ToMemberResponse(*membership))
}

func (h *WorkspaceHandler) RemoveMember(c *gin.Context) {
	workspaceID, valid := pathID(c, "id")
	if !valid {
		return
	}
	userID, valid := pathID(c, "userId")
	if !valid {
		return
	}

	if err := h.workspaceService.RemoveMember(c.Request.Context(), workspaceID, middleware.UserID(c), userID); err != nil {
		_ = c.Error(err)
		return
	}

	ok(c, "member removed", nil)
}

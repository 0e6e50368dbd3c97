package handler

import (
	"github.com/gin-gonic/gin"

	"peerlearn.app/server/internal/http/dto"
	"peerlearn.app/server/internal/http/middleware"
	"peerlearn.app/server/internal/service"
)

type DocumentHandler struct {
	documentService service.DocumentService
}

func NewDocumentHandler(documentService service.DocumentService) *DocumentHandler {
	return &DocumentHandler{documentService: documentService}
}

func (h *DocumentHandler) Create(c *gin.Context) {
	var req dto.CreateDocumentRequest
	if !bindJSON(c, &req) {
		return
	}

	doc, err := h.documentService.Create(c.Request.Context(), middleware.UserID(c), service.CreateDocumentInput{
		WorkspaceID: req.WorkspaceID,
		Title:       req.Title,
		Content:     req.Content,
		Kind:        req.Kind,
		Visibility:  req.Visibility,
		ColorHex:    req.ColorHex,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}

	ok(c, "document created", dto.ToDocumentResponse(doc))
}

func (h *DocumentHandler) Get(c *gin.Context) {
	documentID, valid := pathID(c, "id")
	if !valid {
		return
	}

	doc, err := h.documentService.Get(c.Request.Context(), documentID, middleware.UserID(c))
	if err != nil {
		_ = c.Error(err)
		return
	}

	ok(c, "document retrieved", dto.ToDocumentResponse(doc))
}

func (h *DocumentHandler) Update(c *gin.Context) {
	documentID, valid := pathID(c, "id")
	if !valid {
		return
	}
	var req dto.UpdateDocumentRequest
	if !bindJSON(c, &req) {
		return
	}

	doc, err := h.documentService.Update(c.Request.Context(), documentID, middleware.UserID(c), req.ToPatch())
	if err != nil {
		_ = c.Error(err)
		return
	}

	ok(c, "document updated", dto.ToDocumentResponse(doc))
}

func (h *DocumentHandler) Delete(c *gin.Context) {
	documentID, valid := pathID(c, "id")
	if !valid {
		return
	}

	deleted, err := h.documentService.Delete(c.Request.Context(), documentID, middleware.UserID(c))
	if err != nil {
		_ = c.Error(err)
		return
	}
	if !deleted {
		_ = c.Error(service.ErrDocumentNotFound)
		return
	}

	ok(c, "document deleted", nil)
}

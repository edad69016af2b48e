package handlers

import (
	"net/http"

	"twobeats/internal/models"
	"twobeats/internal/services"
	"twobeats/internal/services/dto"
	"twobeats/pkg/apperrors"

	"github.com/gin-gonic/gin"
)

// ============================================
// UPLOAD HANDLER
// ============================================

type UploadHandler struct {
	*BaseHandler
	uploadService services.UploadService
}

func NewUploadHandler(base *BaseHandler, uploadService services.UploadService) *UploadHandler {
	return &UploadHandler{
		BaseHandler:   base,
		uploadService: uploadService,
	}
}

// ============================================
// ROUTES
// ============================================

func (h *UploadHandler) RegisterRoutes(r *gin.RouterGroup) {
	uploads := r.Group("/uploads")
	uploads.Use(h.requireAuth)
	{
		uploads.POST("/:kind", h.Stage)
		uploads.GET("/:kind/:session", h.GetSession)
		uploads.DELETE("/:kind/:session", h.Cancel)
		uploads.POST("/:kind/:session/finalize", h.Finalize)
	}
}

// ============================================
// HANDLERS
// ============================================

// Stage - step one: store the file and open an upload session
func (h *UploadHandler) Stage(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}
	kind, ok := ParseKind(c)
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		apperrors.HandleError(c, apperrors.NewBadRequestError("no file provided"))
		return
	}

	resp, err := h.uploadService.Stage(c.Request.Context(), h.GetDB(c), &dto.StageRequest{
		UserID: userID,
		Kind:   kind,
		File:   fileHeader,
	})
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

func (h *UploadHandler) GetSession(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}
	kind, ok := ParseKind(c)
	if !ok {
		return
	}

	resp, err := h.uploadService.Get(c.Request.Context(), h.GetDB(c), userID, kind, c.Param("session"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Cancel - explicit cleanup of a staged file
func (h *UploadHandler) Cancel(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}
	kind, ok := ParseKind(c)
	if !ok {
		return
	}

	if err := h.uploadService.Cancel(c.Request.Context(), h.GetDB(c), userID, kind, c.Param("session")); err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Finalize - step two: attach the metadata and create the record
func (h *UploadHandler) Finalize(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}
	kind, ok := ParseKind(c)
	if !ok {
		return
	}

	var req dto.FinalizeRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}
	req.UserID = userID
	req.Kind = kind
	req.SessionID = c.Param("session")
	req.Thumbnail = OptionalFile(c, "thumbnail")

	ctx, db := c.Request.Context(), h.GetDB(c)
	var (
		resp interface{}
		err  error
	)
	switch kind {
	case models.KindMusic:
		resp, err = h.uploadService.FinalizeMusic(ctx, db, &req)
	case models.KindVideo:
		resp, err = h.uploadService.FinalizeVideo(ctx, db, &req)
	}
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

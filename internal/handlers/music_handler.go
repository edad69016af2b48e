package handlers

import (
	"net/http"

	"twobeats/internal/services"
	"twobeats/internal/services/dto"
	"twobeats/pkg/apperrors"

	"github.com/gin-gonic/gin"
)

type MusicHandler struct {
	*BaseHandler
	mediaService services.MediaService
}

func NewMusicHandler(base *BaseHandler, mediaService services.MediaService) *MusicHandler {
	return &MusicHandler{BaseHandler: base, mediaService: mediaService}
}

func (h *MusicHandler) RegisterRoutes(r *gin.RouterGroup) {
	music := r.Group("/music")
	{
		music.GET("", h.ListMusic)
		music.GET("/:id", h.optionalAuth, h.GetMusic)
		music.POST("", h.requireAuth, h.CreateMusic)
		music.PUT("/:id", h.requireAuth, h.UpdateMusic)
		music.DELETE("/:id", h.requireAuth, h.DeleteMusic)
	}
}

func (h *MusicHandler) ListMusic(c *gin.Context) {
	var q dto.MediaListQuery
	if !h.BindAndValidate_Query(c, &q) {
		return
	}

	resp, err := h.mediaService.ListMusic(c.Request.Context(), h.GetDB(c), &q)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetMusic - detail view; counts a play
func (h *MusicHandler) GetMusic(c *gin.Context) {
	id, ok := ParseParamUint(c, "id")
	if !ok {
		return
	}

	resp, err := h.mediaService.GetMusic(c.Request.Context(), h.GetDB(c), id, ViewerID(c))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// CreateMusic - one-shot upload: multipart file plus metadata
func (h *MusicHandler) CreateMusic(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	req, ok := h.bindCreate(c, userID)
	if !ok {
		return
	}

	resp, err := h.mediaService.CreateMusic(c.Request.Context(), h.GetDB(c), req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *MusicHandler) UpdateMusic(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}
	id, ok := ParseParamUint(c, "id")
	if !ok {
		return
	}

	req, ok := h.bindUpdate(c)
	if !ok {
		return
	}

	resp, err := h.mediaService.UpdateMusic(c.Request.Context(), h.GetDB(c), userID, id, req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *MusicHandler) DeleteMusic(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}
	id, ok := ParseParamUint(c, "id")
	if !ok {
		return
	}

	if err := h.mediaService.DeleteMusic(c.Request.Context(), h.GetDB(c), userID, id); err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ============================================================================
// Shared binding for music and video forms
// ============================================================================

func (h *BaseHandler) bindCreate(c *gin.Context, userID uint) (*dto.CreateMediaRequest, bool) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		apperrors.HandleError(c, apperrors.NewBadRequestError("no file provided"))
		return nil, false
	}

	var req dto.CreateMediaRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return nil, false
	}
	req.UserID = userID
	req.File = fileHeader
	req.Thumbnail = OptionalFile(c, "thumbnail")
	return &req, true
}

func (h *BaseHandler) bindUpdate(c *gin.Context) (*dto.UpdateMediaRequest, bool) {
	var req dto.UpdateMediaRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return nil, false
	}
	req.ReplaceTags = tagIDsSent(c, req.TagIDs)
	req.File = OptionalFile(c, "file")
	req.Thumbnail = OptionalFile(c, "thumbnail")
	return &req, true
}

// tagIDsSent reports whether the request carried tag_ids at all, so an
// empty list clears the tags and a missing one leaves them alone.
func tagIDsSent(c *gin.Context, ids []uint) bool {
	if ids != nil {
		return true
	}
	if form := c.Request.MultipartForm; form != nil {
		_, ok := form.Value["tag_ids"]
		return ok
	}
	if c.Request.PostForm != nil {
		_, ok := c.Request.PostForm["tag_ids"]
		return ok
	}
	return false
}

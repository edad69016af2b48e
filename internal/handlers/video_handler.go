package handlers

import (
	"net/http"

	"twobeats/internal/services"
	"twobeats/internal/services/dto"

	"github.com/gin-gonic/gin"
)

type VideoHandler struct {
	*BaseHandler
	mediaService services.MediaService
}

func NewVideoHandler(base *BaseHandler, mediaService services.MediaService) *VideoHandler {
	return &VideoHandler{BaseHandler: base, mediaService: mediaService}
}

func (h *VideoHandler) RegisterRoutes(r *gin.RouterGroup) {
	video := r.Group("/video")
	{
		video.GET("", h.ListVideos)
		video.GET("/:id", h.optionalAuth, h.GetVideo)
		video.POST("", h.requireAuth, h.CreateVideo)
		video.PUT("/:id", h.requireAuth, h.UpdateVideo)
		video.DELETE("/:id", h.requireAuth, h.DeleteVideo)
	}
}

func (h *VideoHandler) ListVideos(c *gin.Context) {
	var q dto.MediaListQuery
	if !h.BindAndValidate_Query(c, &q) {
		return
	}

	resp, err := h.mediaService.ListVideos(c.Request.Context(), h.GetDB(c), &q)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetVideo - detail view; counts a view
func (h *VideoHandler) GetVideo(c *gin.Context) {
	id, ok := ParseParamUint(c, "id")
	if !ok {
		return
	}

	resp, err := h.mediaService.GetVideo(c.Request.Context(), h.GetDB(c), id, ViewerID(c))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// CreateVideo - one-shot upload: multipart file plus metadata
func (h *VideoHandler) CreateVideo(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	req, ok := h.bindCreate(c, userID)
	if !ok {
		return
	}

	resp, err := h.mediaService.CreateVideo(c.Request.Context(), h.GetDB(c), req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *VideoHandler) UpdateVideo(c *gin.Context) {
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

	resp, err := h.mediaService.UpdateVideo(c.Request.Context(), h.GetDB(c), userID, id, req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *VideoHandler) DeleteVideo(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}
	id, ok := ParseParamUint(c, "id")
	if !ok {
		return
	}

	if err := h.mediaService.DeleteVideo(c.Request.Context(), h.GetDB(c), userID, id); err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

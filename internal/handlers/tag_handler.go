package handlers

import (
	"net/http"

	"twobeats/internal/services"
	"twobeats/internal/services/dto"

	"github.com/gin-gonic/gin"
)

type TagHandler struct {
	*BaseHandler
	tagService services.TagService
}

func NewTagHandler(base *BaseHandler, tagService services.TagService) *TagHandler {
	return &TagHandler{BaseHandler: base, tagService: tagService}
}

func (h *TagHandler) RegisterRoutes(r *gin.RouterGroup) {
	tags := r.Group("/tags")
	{
		tags.GET("", h.ListTags)
		tags.POST("", h.requireAuth, h.CreateTag)
	}
}

func (h *TagHandler) ListTags(c *gin.Context) {
	tags, err := h.tagService.List(c.Request.Context(), h.GetDB(c))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": tags})
}

// CreateTag answers 201 for a new tag and 200 when the name already existed.
func (h *TagHandler) CreateTag(c *gin.Context) {
	var req dto.CreateTagRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	tag, created, err := h.tagService.Create(c.Request.Context(), h.GetDB(c), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, tag)
}

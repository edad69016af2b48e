package handlers

import (
	"net/http"

	"twobeats/internal/models"
	"twobeats/internal/services"
	"twobeats/internal/services/dto"

	"github.com/gin-gonic/gin"
)

// InteractionHandler serves plays, likes and comments for both media kinds.
type InteractionHandler struct {
	*BaseHandler
	interactionService services.InteractionService
}

func NewInteractionHandler(base *BaseHandler, interactionService services.InteractionService) *InteractionHandler {
	return &InteractionHandler{BaseHandler: base, interactionService: interactionService}
}

func (h *InteractionHandler) RegisterRoutes(r *gin.RouterGroup) {
	h.register(r.Group("/music"), models.KindMusic, "/play")
	h.register(r.Group("/video"), models.KindVideo, "/view")
}

func (h *InteractionHandler) register(g *gin.RouterGroup, kind models.MediaKind, playPath string) {
	g.POST("/:id"+playPath, h.Play(kind))

	g.GET("/:id/like", h.requireAuth, h.LikeStatus(kind))
	g.POST("/:id/like", h.requireAuth, h.ToggleLike(kind))

	g.GET("/:id/comments", h.ListComments(kind))
	g.POST("/:id/comments", h.requireAuth, h.AddComment(kind))
	g.DELETE("/comments/:commentId", h.requireAuth, h.DeleteComment(kind))
}

// Play - anonymous; each call counts
func (h *InteractionHandler) Play(kind models.MediaKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := ParseParamUint(c, "id")
		if !ok {
			return
		}

		count, err := h.interactionService.Play(c.Request.Context(), h.GetDB(c), kind, id)
		if err != nil {
			h.HandleServiceError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, kind.CounterColumn(): count})
	}
}

func (h *InteractionHandler) ToggleLike(kind models.MediaKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := h.GetAndAuthorizeUserID(c)
		if !ok {
			return
		}
		id, ok := ParseParamUint(c, "id")
		if !ok {
			return
		}

		resp, err := h.interactionService.ToggleLike(c.Request.Context(), h.GetDB(c), kind, userID, id)
		if err != nil {
			h.HandleServiceError(c, err)
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}

func (h *InteractionHandler) LikeStatus(kind models.MediaKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := h.GetAndAuthorizeUserID(c)
		if !ok {
			return
		}
		id, ok := ParseParamUint(c, "id")
		if !ok {
			return
		}

		resp, err := h.interactionService.LikeStatus(c.Request.Context(), h.GetDB(c), kind, userID, id)
		if err != nil {
			h.HandleServiceError(c, err)
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}

func (h *InteractionHandler) ListComments(kind models.MediaKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := ParseParamUint(c, "id")
		if !ok {
			return
		}
		page, pageSize := ParsePagination(c)

		resp, err := h.interactionService.ListComments(c.Request.Context(), h.GetDB(c), kind, id, page, pageSize)
		if err != nil {
			h.HandleServiceError(c, err)
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}

func (h *InteractionHandler) AddComment(kind models.MediaKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := h.GetAndAuthorizeUserID(c)
		if !ok {
			return
		}
		id, ok := ParseParamUint(c, "id")
		if !ok {
			return
		}

		var req dto.CommentRequest
		if !h.BindAndValidate_JSON(c, &req) {
			return
		}

		resp, err := h.interactionService.AddComment(c.Request.Context(), h.GetDB(c), kind, userID, id, &req)
		if err != nil {
			h.HandleServiceError(c, err)
			return
		}
		c.JSON(http.StatusCreated, resp)
	}
}

// DeleteComment - author only; others get 403
func (h *InteractionHandler) DeleteComment(kind models.MediaKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := h.GetAndAuthorizeUserID(c)
		if !ok {
			return
		}
		commentID, ok := ParseParamUint(c, "commentId")
		if !ok {
			return
		}

		resp, err := h.interactionService.DeleteComment(c.Request.Context(), h.GetDB(c), kind, userID, commentID)
		if err != nil {
			h.HandleServiceError(c, err)
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}

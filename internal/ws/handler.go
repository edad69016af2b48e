package ws

import (
	"net/http"
	"strconv"

	"twobeats/internal/logger"
	"twobeats/internal/models"
	"twobeats/pkg/apperrors"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // counters are public
	},
}

type Handler struct {
	Hub *Hub
}

func NewHandler(hub *Hub) *Handler {
	return &Handler{Hub: hub}
}

// ServeWS upgrades GET /ws?kind=music&id=5 and subscribes the connection to that item.
func (h *Handler) ServeWS(c *gin.Context) {
	var sub Subscription
	if raw := c.Query("kind"); raw != "" {
		kind, ok := models.ParseMediaKind(raw)
		if !ok {
			apperrors.HandleError(c, apperrors.ErrUnknownMediaKind)
			return
		}
		id, err := strconv.ParseUint(c.Query("id"), 10, 64)
		if err != nil || id == 0 {
			apperrors.HandleError(c, apperrors.NewBadRequestError("id must be a positive integer"))
			return
		}
		sub = Subscription{Kind: kind, ID: uint(id)}
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.CtxWithError(c.Request.Context(), "websocket upgrade failed", err)
		return
	}

	client := newClient(h.Hub, conn, sub)
	if !client.start() {
		conn.Close()
		return
	}
	logger.CtxDebug(c.Request.Context(), "websocket connected", "kind", sub.Kind, "id", sub.ID)
}

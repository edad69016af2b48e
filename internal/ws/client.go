package ws

import (
	"encoding/json"
	"time"

	"twobeats/internal/logger"
	"twobeats/internal/models"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1024
	sendBuffer     = 16
)

// IncomingMessage is what a client may send, e.g.
// {"action":"subscribe","kind":"video","id":3}.
type IncomingMessage struct {
	Action string           `json:"action"`
	Kind   models.MediaKind `json:"kind"`
	ID     uint             `json:"id"`
}

// Client is one websocket connection following a single media item.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
	sub  Subscription
}

func newClient(hub *Hub, conn *websocket.Conn, sub Subscription) *Client {
	return &Client{hub: hub, conn: conn, send: make(chan []byte, sendBuffer), sub: sub}
}

// start registers the client and runs its pumps. It returns false when the hub is stopped.
func (c *Client) start() bool {
	select {
	case c.hub.register <- c:
	case <-c.hub.done:
		return false
	}
	go c.writePump()
	go c.readPump()
	return true
}

func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Debug("ws read error", "error", err.Error())
			}
			return
		}

		var msg IncomingMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			logger.Debug("ws invalid message", "error", err.Error())
			continue
		}
		c.handle(msg)
	}
}

func (c *Client) handle(msg IncomingMessage) {
	switch msg.Action {
	case "subscribe":
		kind, ok := models.ParseMediaKind(string(msg.Kind))
		if !ok || msg.ID == 0 {
			logger.Debug("ws invalid subscription", "kind", msg.Kind, "id", msg.ID)
			return
		}
		select {
		case c.hub.subscribe <- subscribeRequest{client: c, sub: Subscription{Kind: kind, ID: msg.ID}}:
		case <-c.hub.done:
		}
	default:
		logger.Debug("ws unhandled action", "action", msg.Action)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

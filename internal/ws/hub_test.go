package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"twobeats/internal/models"
	"twobeats/internal/repositories"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHub(t *testing.T) (*Hub, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	router := gin.New()
	router.GET("/ws", NewHandler(hub).ServeWS)
	server := httptest.NewServer(router)

	t.Cleanup(func() {
		server.Close()
		cancel()
	})
	return hub, "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitSubscribers(t *testing.T, hub *Hub, sub Subscription, want int) {
	t.Helper()
	require.Eventually(t, func() bool {
		return hub.Subscribers(sub) == want
	}, 2*time.Second, 10*time.Millisecond)
}

func readMessage(t *testing.T, conn *websocket.Conn) map[string]interface{} {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &msg))
	return msg
}

func TestHub_DeliversToSubscribersOnly(t *testing.T) {
	hub, url := newTestHub(t)
	song := Subscription{Kind: models.KindMusic, ID: 5}

	listener := dial(t, url+"?kind=music&id=5")
	other := dial(t, url+"?kind=music&id=6")
	waitSubscribers(t, hub, song, 1)
	waitSubscribers(t, hub, Subscription{Kind: models.KindMusic, ID: 6}, 1)

	hub.PublishCounters(&repositories.Counters{Kind: models.KindMusic, ID: 5, PlayCount: 10, LikeCount: 3, CommentCount: 1})

	msg := readMessage(t, listener)
	assert.Equal(t, CountersMessageType, msg["type"])
	assert.Equal(t, "music", msg["kind"])
	assert.EqualValues(t, 5, msg["id"])
	assert.EqualValues(t, 10, msg["play_count"])
	assert.EqualValues(t, 3, msg["like_count"])
	assert.EqualValues(t, 1, msg["comment_count"])

	require.NoError(t, other.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
	_, _, err := other.ReadMessage()
	assert.Error(t, err, "a client following another item receives nothing")
}

func TestHub_SubscribeMessage(t *testing.T) {
	hub, url := newTestHub(t)
	clip := Subscription{Kind: models.KindVideo, ID: 3}

	conn := dial(t, url)
	require.NoError(t, conn.WriteJSON(IncomingMessage{Action: "subscribe", Kind: models.KindVideo, ID: 3}))
	waitSubscribers(t, hub, clip, 1)

	hub.PublishCounters(&repositories.Counters{Kind: models.KindVideo, ID: 3, PlayCount: 2})
	msg := readMessage(t, conn)
	assert.EqualValues(t, 2, msg["view_count"])
	assert.NotContains(t, msg, "play_count")

	// switching moves the client to the new item
	require.NoError(t, conn.WriteJSON(IncomingMessage{Action: "subscribe", Kind: models.KindMusic, ID: 9}))
	waitSubscribers(t, hub, Subscription{Kind: models.KindMusic, ID: 9}, 1)
	assert.Zero(t, hub.Subscribers(clip))
}

func TestHub_UnregistersOnClose(t *testing.T) {
	hub, url := newTestHub(t)
	sub := Subscription{Kind: models.KindMusic, ID: 1}

	conn := dial(t, url+"?kind=music&id=1")
	waitSubscribers(t, hub, sub, 1)

	require.NoError(t, conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")))
	conn.Close()
	waitSubscribers(t, hub, sub, 0)
}

func TestServeWS_RejectsBadQuery(t *testing.T) {
	_, url := newTestHub(t)

	for _, q := range []string{"?kind=podcast&id=1", "?kind=music", "?kind=music&id=0"} {
		_, res, err := websocket.DefaultDialer.Dial(url+q, nil)
		require.Error(t, err, q)
		require.NotNil(t, res, q)
		assert.Equal(t, http.StatusBadRequest, res.StatusCode, q)
	}
}

func TestHub_StoppedHubDoesNotBlock(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	finished := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(finished)
	}()
	cancel()
	<-finished

	for i := 0; i < 300; i++ {
		hub.PublishCounters(&repositories.Counters{Kind: models.KindMusic, ID: 1})
	}
	assert.Zero(t, hub.Subscribers(Subscription{Kind: models.KindMusic, ID: 1}))
}

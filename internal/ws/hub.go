package ws

import (
	"context"
	"encoding/json"
	"sync"

	"twobeats/internal/logger"
	"twobeats/internal/models"
	"twobeats/internal/repositories"
)

// CountersMessageType is the type field of counter updates.
const CountersMessageType = "media.counters"

// Subscription names the media item a client follows.
type Subscription struct {
	Kind models.MediaKind `json:"kind"`
	ID   uint             `json:"id"`
}

type subscribeRequest struct {
	client *Client
	sub    Subscription
}

type countRequest struct {
	sub   Subscription
	reply chan int
}

// Hub fans counter updates out to the clients subscribed to each item.
type Hub struct {
	clients    map[*Client]struct{}
	items      map[Subscription]map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	subscribe  chan subscribeRequest
	count      chan countRequest
	broadcast  chan *repositories.Counters

	done     chan struct{}
	stopOnce sync.Once
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]struct{}),
		items:      make(map[Subscription]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		subscribe:  make(chan subscribeRequest),
		count:      make(chan countRequest),
		broadcast:  make(chan *repositories.Counters, 256),
		done:       make(chan struct{}),
	}
}

// Run owns the subscription maps until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	defer h.stop()

	for {
		select {
		case <-ctx.Done():
			for c := range h.clients {
				h.drop(c)
			}
			return

		case c := <-h.register:
			h.clients[c] = struct{}{}
			h.attach(c, c.sub)
			logger.Debug("ws client registered", "total", len(h.clients), "kind", c.sub.Kind, "id", c.sub.ID)

		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				h.drop(c)
				logger.Debug("ws client unregistered", "total", len(h.clients))
			}

		case req := <-h.subscribe:
			if _, ok := h.clients[req.client]; ok {
				h.detach(req.client)
				h.attach(req.client, req.sub)
			}

		case req := <-h.count:
			req.reply <- len(h.items[req.sub])

		case counters := <-h.broadcast:
			h.deliver(counters)
		}
	}
}

// PublishCounters queues an update; it never blocks the caller.
func (h *Hub) PublishCounters(c *repositories.Counters) {
	if c == nil {
		return
	}
	select {
	case h.broadcast <- c:
	case <-h.done:
	default:
		logger.Warn("ws broadcast queue full, dropping update", "kind", c.Kind, "id", c.ID)
	}
}

// Subscribers is the number of clients following sub.
func (h *Hub) Subscribers(sub Subscription) int {
	req := countRequest{sub: sub, reply: make(chan int, 1)}
	select {
	case h.count <- req:
		return <-req.reply
	case <-h.done:
		return 0
	}
}

func (h *Hub) deliver(c *repositories.Counters) {
	subs := h.items[Subscription{Kind: c.Kind, ID: c.ID}]
	if len(subs) == 0 {
		return
	}

	payload, err := json.Marshal(countersMessage(c))
	if err != nil {
		logger.WithError(err).Error("ws failed to encode counters")
		return
	}

	for client := range subs {
		select {
		case client.send <- payload:
		default:
			// slow consumer
			logger.Debug("ws dropping slow client", "kind", c.Kind, "id", c.ID)
			h.drop(client)
		}
	}
}

func (h *Hub) attach(c *Client, sub Subscription) {
	c.sub = sub
	if sub.ID == 0 {
		return
	}
	set, ok := h.items[sub]
	if !ok {
		set = make(map[*Client]struct{})
		h.items[sub] = set
	}
	set[c] = struct{}{}
}

func (h *Hub) detach(c *Client) {
	if set, ok := h.items[c.sub]; ok {
		delete(set, c)
		if len(set) == 0 {
			delete(h.items, c.sub)
		}
	}
}

func (h *Hub) drop(c *Client) {
	h.detach(c)
	delete(h.clients, c)
	close(c.send)
}

func (h *Hub) stop() {
	h.stopOnce.Do(func() { close(h.done) })
}

func countersMessage(c *repositories.Counters) map[string]interface{} {
	msg := map[string]interface{}{
		"type":          CountersMessageType,
		"kind":          c.Kind,
		"id":            c.ID,
		"like_count":    c.LikeCount,
		"comment_count": c.CommentCount,
	}
	msg[c.Kind.CounterColumn()] = c.PlayCount
	return msg
}

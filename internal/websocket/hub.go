package websocket

import (
	"context"
	"fmt"
	"sync"
)

// PollChannel names the hub channel that carries live results of one poll.
func PollChannel(pollID int64) string {
	return fmt.Sprintf("poll:%d", pollID)
}

type opKind int

const (
	opRegister opKind = iota
	opUnregister
	opSubscribe
)

// op is one membership change. All of them travel through a single queue so a
// client's register, subscribe and unregister are applied in the order sent.
type op struct {
	kind    opKind
	client  *Client
	channel string
}

// Hub manages WebSocket client connections and channel subscriptions
type Hub struct {
	mu sync.RWMutex

	// clients maps client ID to client (for cleanup)
	clients map[string]*Client

	// channels maps channel name to set of clients subscribed to it
	channels map[string]map[*Client]struct{}

	ops chan op
}

func NewHub() *Hub {
	return &Hub{
		clients:  make(map[string]*Client),
		channels: make(map[string]map[*Client]struct{}),
		ops:      make(chan op, 512),
	}
}

// Run applies membership changes until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case o := <-h.ops:
			switch o.kind {
			case opRegister:
				h.addClient(o.client)
			case opUnregister:
				h.removeClient(o.client)
			case opSubscribe:
				h.subscribeToChannel(o.client, o.channel)
			}
		}
	}
}

func (h *Hub) Register(client *Client) {
	h.ops <- op{kind: opRegister, client: client}
}

func (h *Hub) Unregister(client *Client) {
	h.ops <- op{kind: opUnregister, client: client}
}

func (h *Hub) Subscribe(client *Client, channel string) {
	h.ops <- op{kind: opSubscribe, client: client, channel: channel}
}

// Broadcast sends a message to all clients subscribed to a channel
func (h *Hub) Broadcast(channel string, payload []byte) {
	h.mu.RLock()
	for c := range h.channels[channel] {
		c.SendMessage(payload)
	}
	h.mu.RUnlock()
}

// PublishResults delivers payload to every local watcher of pollID.
func (h *Hub) PublishResults(_ context.Context, pollID int64, payload []byte) error {
	h.Broadcast(PollChannel(pollID), payload)
	return nil
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) SubscriberCount(channel string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.channels[channel])
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	h.clients[client.ID] = client
	h.mu.Unlock()
}

// removeClient drops the client from every channel and closes its send queue.
func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.ID]; !ok {
		return
	}
	for _, channel := range client.Channels() {
		if subscribers, ok := h.channels[channel]; ok {
			delete(subscribers, client)
			if len(subscribers) == 0 {
				delete(h.channels, channel)
			}
		}
	}
	delete(h.clients, client.ID)
	close(client.Send)
}

func (h *Hub) subscribeToChannel(client *Client, channel string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.ID]; !ok {
		return
	}
	if _, ok := h.channels[channel]; !ok {
		h.channels[channel] = make(map[*Client]struct{})
	}
	h.channels[channel][client] = struct{}{}
	client.subscribe(channel)
}

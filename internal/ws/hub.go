package ws

import (
	"context"
	"encoding/json"
	"sync"
)

// Client represents a single WebSocket connection with user context.
type Client struct {
	UserID   uint
	SocketID string
	Send     chan []byte
	hub      *Hub
	mu       sync.Mutex
	closed   bool
}

func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.Send)
	if c.hub != nil {
		c.hub.unregister(c)
	}
}

// Message is the wire envelope for everything the hub sends.
type Message struct {
	Channel string      `json:"channel,omitempty"`
	Event   string      `json:"event"`
	Data    interface{} `json:"data,omitempty"`
}

// AuthorizeFunc gates channel subscriptions. It returns the subscriber's
// presence payload for roster tracking, or an error to deny.
type AuthorizeFunc func(ctx context.Context, userID uint, channel string) (map[string]interface{}, error)

// Hub maintains active clients and named channels. Room channels double as
// presence channels: the hub tracks a per-channel roster keyed by user and
// announces member_added/member_removed as users (not connections) come
// and go.
type Hub struct {
	mu        sync.RWMutex
	clients   map[*Client]struct{}
	byUser    map[uint]map[*Client]struct{}
	channels  map[string]map[*Client]struct{}
	rosters   map[string]map[uint]map[string]interface{} // channel -> userID -> presence payload
	authorize AuthorizeFunc
}

func NewHub() *Hub {
	return &Hub{
		clients:  make(map[*Client]struct{}),
		byUser:   make(map[uint]map[*Client]struct{}),
		channels: make(map[string]map[*Client]struct{}),
		rosters:  make(map[string]map[uint]map[string]interface{}),
	}
}

// SetAuthorizer installs the subscription gate. Must be called before the
// hub starts accepting subscriptions.
func (h *Hub) SetAuthorizer(fn AuthorizeFunc) {
	h.authorize = fn
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c.hub = h
	h.clients[c] = struct{}{}
	if h.byUser[c.UserID] == nil {
		h.byUser[c.UserID] = make(map[*Client]struct{})
	}
	h.byUser[c.UserID][c] = struct{}{}
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	var departed []string
	for name, subs := range h.channels {
		if _, ok := subs[c]; !ok {
			continue
		}
		delete(subs, c)
		if len(subs) == 0 {
			delete(h.channels, name)
		}
		if h.lastOfUserLocked(name, c) {
			h.dropFromRoster(name, c.UserID)
			departed = append(departed, name)
		}
	}
	delete(h.clients, c)
	if m := h.byUser[c.UserID]; m != nil {
		delete(m, c)
		if len(m) == 0 {
			delete(h.byUser, c.UserID)
		}
	}
	h.mu.Unlock()
	for _, name := range departed {
		h.Publish(name, "member_removed", map[string]interface{}{"user_id": c.UserID}, c.UserID)
	}
}

// Subscribe authorizes and attaches the client to a channel, replies with
// the current roster, and announces the member when this is the user's
// first connection on the channel.
func (h *Hub) Subscribe(ctx context.Context, c *Client, channel string) error {
	payload, err := h.authorize(ctx, c.UserID, channel)
	if err != nil {
		return err
	}

	h.mu.Lock()
	if h.channels[channel] == nil {
		h.channels[channel] = make(map[*Client]struct{})
	}
	h.channels[channel][c] = struct{}{}
	firstConn := false
	if h.rosters[channel] == nil {
		h.rosters[channel] = make(map[uint]map[string]interface{})
	}
	if _, present := h.rosters[channel][c.UserID]; !present {
		firstConn = true
	}
	h.rosters[channel][c.UserID] = payload
	roster := make([]map[string]interface{}, 0, len(h.rosters[channel]))
	for _, p := range h.rosters[channel] {
		roster = append(roster, p)
	}
	h.mu.Unlock()

	h.send(c, Message{Channel: channel, Event: "subscription_succeeded", Data: map[string]interface{}{"members": roster}})
	if firstConn {
		h.Publish(channel, "member_added", payload, c.UserID)
	}
	return nil
}

// Unsubscribe detaches the client; the user leaves the roster when their
// last connection on the channel goes.
func (h *Hub) Unsubscribe(c *Client, channel string) {
	h.mu.Lock()
	subs := h.channels[channel]
	if subs == nil {
		h.mu.Unlock()
		return
	}
	if _, ok := subs[c]; !ok {
		h.mu.Unlock()
		return
	}
	delete(subs, c)
	if len(subs) == 0 {
		delete(h.channels, channel)
	}
	last := h.lastOfUserLocked(channel, c)
	if last {
		h.dropFromRoster(channel, c.UserID)
	}
	h.mu.Unlock()
	if last {
		h.Publish(channel, "member_removed", map[string]interface{}{"user_id": c.UserID}, c.UserID)
	}
}

// lastOfUserLocked reports whether no remaining subscriber of channel
// belongs to c's user. Callers hold h.mu.
func (h *Hub) lastOfUserLocked(channel string, c *Client) bool {
	for other := range h.channels[channel] {
		if other != c && other.UserID == c.UserID {
			return false
		}
	}
	return true
}

// dropFromRoster removes a user's roster entry. Callers hold h.mu.
func (h *Hub) dropFromRoster(channel string, userID uint) {
	if roster := h.rosters[channel]; roster != nil {
		delete(roster, userID)
		if len(roster) == 0 {
			delete(h.rosters, channel)
		}
	}
}

// Publish broadcasts an event to every subscriber of channel except the
// excluded user. Sends are non-blocking; a subscriber with a full buffer
// misses the message rather than stalling the caller.
func (h *Hub) Publish(channel, event string, data interface{}, excludeUserID uint) {
	payload, _ := json.Marshal(Message{Channel: channel, Event: event, Data: data})
	h.mu.RLock()
	subs := h.channels[channel]
	clients := make([]*Client, 0, len(subs))
	for c := range subs {
		if excludeUserID != 0 && c.UserID == excludeUserID {
			continue
		}
		clients = append(clients, c)
	}
	h.mu.RUnlock()
	for _, c := range clients {
		select {
		case c.Send <- payload:
		default:
		}
	}
}

func (h *Hub) send(c *Client, msg Message) {
	payload, _ := json.Marshal(msg)
	select {
	case c.Send <- payload:
	default:
	}
}

// Roster returns the presence payloads currently tracked for a channel.
func (h *Hub) Roster(channel string) []map[string]interface{} {
	h.mu.RLock()
	defer h.mu.RUnlock()
	roster := h.rosters[channel]
	out := make([]map[string]interface{}, 0, len(roster))
	for _, p := range roster {
		out = append(out, p)
	}
	return out
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

package service

import (
	"log"

	"parley/internal/domain"
	"parley/internal/repository"
)

// PresenceEvent is the closed set of transitions the engine can announce.
// Events are constructed and dispatched synchronously by the triggering
// request or job and are never persisted.
type PresenceEvent struct {
	Kind              string `json:"kind"`
	UserID            uint   `json:"user_id"`
	RoomID            uint   `json:"room_id,omitempty"`
	PreviousRoomID    uint   `json:"previous_room_id,omitempty"`
	DestinationRoomID uint   `json:"destination_room_id,omitempty"`
	Status            string `json:"status,omitempty"`
}

// Broadcaster is the pub/sub transport the notifier publishes into.
// Delivery is best-effort and non-blocking; the hub satisfies this.
type Broadcaster interface {
	Publish(channel, event string, data interface{}, excludeUserID uint)
}

// Notifier translates presence events into channel broadcasts. Publishing
// is fire-and-forget: a failed or dropped broadcast never propagates back
// into the membership or status change that triggered it.
type Notifier struct {
	hub   Broadcaster
	users *repository.UserRepository
}

func NewNotifier(hub Broadcaster, users *repository.UserRepository) *Notifier {
	return &Notifier{hub: hub, users: users}
}

var dispatch = map[string]func(n *Notifier, ev PresenceEvent){
	domain.EventLeft:            (*Notifier).left,
	domain.EventJoined:          (*Notifier).joined,
	domain.EventMoved:           (*Notifier).moved,
	domain.EventPresenceUpdated: (*Notifier).presenceUpdated,
	domain.EventBanned:          (*Notifier).banned,
}

func (n *Notifier) Publish(ev PresenceEvent) {
	fn, ok := dispatch[ev.Kind]
	if !ok {
		log.Printf("[notifier] dropping event with unknown kind %q", ev.Kind)
		return
	}
	fn(n, ev)
}

// left announces a departure to the origin room. DestinationRoomID is set
// when the departure is one half of a move, so observers in the origin room
// can render "moved to room X" instead of a bare "left". A room-scoped
// offline marker follows so member lists drop the user immediately.
func (n *Notifier) left(ev PresenceEvent) {
	ch := domain.RoomChannel(ev.RoomID)
	n.hub.Publish(ch, domain.EventLeft, map[string]interface{}{
		"user_id":             ev.UserID,
		"room_id":             ev.RoomID,
		"destination_room_id": zeroOmitted(ev.DestinationRoomID),
	}, ev.UserID)
	n.hub.Publish(ch, "status", map[string]interface{}{
		"user_id": ev.UserID,
		"online":  false,
	}, ev.UserID)
}

func (n *Notifier) joined(ev PresenceEvent) {
	n.hub.Publish(domain.RoomChannel(ev.RoomID), domain.EventJoined, map[string]interface{}{
		"user":    n.profile(ev.UserID),
		"room_id": ev.RoomID,
	}, ev.UserID)
}

func (n *Notifier) moved(ev PresenceEvent) {
	n.hub.Publish(domain.RoomChannel(ev.RoomID), domain.EventMoved, map[string]interface{}{
		"user":             n.profile(ev.UserID),
		"room_id":          ev.RoomID,
		"previous_room_id": ev.PreviousRoomID,
	}, ev.UserID)
}

// presenceUpdated goes to the single global presence channel, not to room
// channels; every subscriber sees status transitions regardless of room.
func (n *Notifier) presenceUpdated(ev PresenceEvent) {
	n.hub.Publish(domain.GlobalPresenceChannel, domain.EventPresenceUpdated, map[string]interface{}{
		"user_id": ev.UserID,
		"status":  ev.Status,
	}, ev.UserID)
}

// banned is delivered on the user's private channel so the notification
// reaches them even though every other channel is now closed to them.
func (n *Notifier) banned(ev PresenceEvent) {
	n.hub.Publish(domain.PrivateChannel(ev.UserID), domain.EventBanned, map[string]interface{}{
		"user_id": ev.UserID,
		"room_id": zeroOmitted(ev.RoomID),
	}, 0)
}

func (n *Notifier) profile(userID uint) map[string]interface{} {
	u, err := n.users.GetByID(userID)
	if err != nil {
		log.Printf("[notifier] profile lookup for user %d failed: %v", userID, err)
		return map[string]interface{}{"user_id": userID}
	}
	return u.PublicProfile()
}

func zeroOmitted(id uint) interface{} {
	if id == 0 {
		return nil
	}
	return id
}

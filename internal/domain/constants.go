package domain

import (
	"strconv"
	"strings"
)

const (
	RoleMember = "MEMBER"
	RoleAdmin  = "ADMIN"
)

// Activity statuses reported by client heartbeats. Last write wins.
const (
	StatusActive          = "ACTIVE"
	StatusInactiveTab     = "INACTIVE_TAB"
	StatusPrivateDisabled = "PRIVATE_DISABLED"
	StatusAway            = "AWAY"
	StatusIncognito       = "INCOGNITO"
)

var statuses = map[string]struct{}{
	StatusActive:          {},
	StatusInactiveTab:     {},
	StatusPrivateDisabled: {},
	StatusAway:            {},
	StatusIncognito:       {},
}

func ValidStatus(s string) bool {
	_, ok := statuses[s]
	return ok
}

// Presence event kinds emitted on membership and status transitions.
const (
	EventJoined          = "joined"
	EventMoved           = "moved"
	EventLeft            = "left"
	EventPresenceUpdated = "presence_updated"
	EventBanned          = "banned"
)

// Membership removal reasons.
const (
	RemoveReasonLeave      = "LEAVE"
	RemoveReasonKick       = "KICK"
	RemoveReasonBan        = "BAN"
	RemoveReasonInactivity = "INACTIVITY"
)

// Channel naming. Room channels are presence channels (roster-tracking),
// the global presence channel carries status transitions for everyone,
// private channels deliver per-user notifications such as bans.
const (
	GlobalPresenceChannel = "presence"
	roomChannelPrefix     = "room."
	privateChannelPrefix  = "private-user."
)

func RoomChannel(roomID uint) string {
	return roomChannelPrefix + strconv.FormatUint(uint64(roomID), 10)
}

func PrivateChannel(userID uint) string {
	return privateChannelPrefix + strconv.FormatUint(uint64(userID), 10)
}

// ParseRoomChannel returns the room ID encoded in a room channel name.
func ParseRoomChannel(name string) (uint, bool) {
	return parseSuffixID(name, roomChannelPrefix)
}

// ParsePrivateChannel returns the user ID encoded in a private channel name.
func ParsePrivateChannel(name string) (uint, bool) {
	return parseSuffixID(name, privateChannelPrefix)
}

func parseSuffixID(name, prefix string) (uint, bool) {
	if !strings.HasPrefix(name, prefix) {
		return 0, false
	}
	id, err := strconv.ParseUint(name[len(prefix):], 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

package service

import (
	"context"

	"parley/internal/domain"
	"parley/internal/repository"
)

// ChannelAuthorizer decides whether a principal may subscribe to a channel
// and, for presence channels, what payload represents them in the roster.
type ChannelAuthorizer struct {
	users       *repository.UserRepository
	rooms       *repository.RoomRepository
	memberships *repository.MembershipRepository
	statuses    *StatusService
}

func NewChannelAuthorizer(users *repository.UserRepository, rooms *repository.RoomRepository, memberships *repository.MembershipRepository, statuses *StatusService) *ChannelAuthorizer {
	return &ChannelAuthorizer{users: users, rooms: rooms, memberships: memberships, statuses: statuses}
}

// Authorize returns the subscriber payload for channel, or ErrChannelDenied.
//
// Rules: a banned principal keeps only their own private channel (so ban
// notices still arrive); room channels need a public room or a current
// membership; the global presence channel is open to any non-banned user
// and carries their live status merged with profile data.
func (a *ChannelAuthorizer) Authorize(ctx context.Context, userID uint, channel string) (map[string]interface{}, error) {
	if owner, ok := domain.ParsePrivateChannel(channel); ok {
		if owner != userID {
			return nil, ErrChannelDenied
		}
		return map[string]interface{}{"user_id": userID}, nil
	}

	user, err := a.users.GetByID(userID)
	if err != nil {
		return nil, ErrChannelDenied
	}
	if user.IsBanned() {
		return nil, ErrChannelDenied
	}

	if channel == domain.GlobalPresenceChannel {
		payload := user.PublicProfile()
		if view, err := a.statuses.Get(ctx, userID); err == nil {
			payload["status"] = view.Status
			payload["last_activity"] = view.LastActivity
		}
		return payload, nil
	}

	if roomID, ok := domain.ParseRoomChannel(channel); ok {
		room, err := a.rooms.GetByID(roomID)
		if err != nil {
			return nil, ErrChannelDenied
		}
		if !room.Public {
			m, err := a.memberships.Get(roomID, userID)
			if err != nil || m == nil {
				return nil, ErrChannelDenied
			}
		}
		return user.PublicProfile(), nil
	}

	return nil, ErrChannelDenied
}

package service

import (
	"context"
	"errors"
	"time"

	"parley/internal/domain"
	"parley/internal/models"
	"parley/internal/repository"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// RoomService is the transfer coordinator: it owns the invariant that a
// user occupies at most one room at any instant. Every path that makes a
// user present in a room (explicit join, room view, message auto-join,
// admin move) funnels through EnsureMembership.
type RoomService struct {
	db          *gorm.DB
	rooms       *repository.RoomRepository
	memberships *repository.MembershipRepository
	users       *repository.UserRepository
	notifier    *Notifier
	locks       *userLocks
}

func NewRoomService(db *gorm.DB, rooms *repository.RoomRepository, memberships *repository.MembershipRepository, users *repository.UserRepository, notifier *Notifier) *RoomService {
	return &RoomService{
		db:          db,
		rooms:       rooms,
		memberships: memberships,
		users:       users,
		notifier:    notifier,
		locks:       newUserLocks(),
	}
}

// JoinOptions carries the optional credential and the previous-room hint
// used as a tie-break when no detached membership has activity data.
type JoinOptions struct {
	Password         string
	PreviousRoomHint uint
}

// EnsureMembership makes userID a current member of roomID.
//
// Order of checks matters: credential and capacity are verified before any
// detachment, so a rejected join leaves the user exactly where they were.
// Detach-all-others plus attach run inside one transaction under the
// per-user lock; presence events go out only after commit, origin-room
// departures first.
func (s *RoomService) EnsureMembership(ctx context.Context, userID, roomID uint, opts JoinOptions) (*models.RoomMembership, error) {
	unlock := s.locks.Lock(userID)
	defer unlock()

	room, err := s.rooms.GetByID(roomID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRoomNotFound
	}
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(userID)
	if err != nil {
		return nil, err
	}
	if user.IsBanned() {
		return nil, ErrBanned
	}

	// Idempotent join: already a member, just refresh activity.
	if existing, err := s.memberships.Get(roomID, userID); err != nil {
		return nil, err
	} else if existing != nil {
		now := time.Now()
		if err := s.memberships.Touch(roomID, userID, now); err != nil {
			return nil, err
		}
		existing.LastActivity = &now
		return existing, nil
	}

	if room.IsProtected() {
		if bcrypt.CompareHashAndPassword([]byte(room.PasswordHash), []byte(opts.Password)) != nil {
			return nil, ErrWrongPassword
		}
	}

	if room.MaxCount > 0 {
		n, err := s.memberships.CountByRoom(roomID)
		if err != nil {
			return nil, err
		}
		if n >= int64(room.MaxCount) {
			return nil, ErrRoomFull
		}
	}

	var detached []models.RoomMembership
	now := time.Now()
	membership := &models.RoomMembership{
		RoomID:       roomID,
		UserID:       userID,
		Role:         domain.RoleMember,
		LastActivity: &now,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		mr := s.memberships.WithTx(tx)
		others, err := mr.ListByUser(userID)
		if err != nil {
			return err
		}
		for _, o := range others {
			if o.RoomID == roomID {
				continue
			}
			if _, err := mr.Delete(o.RoomID, userID); err != nil {
				return err
			}
			detached = append(detached, o)
		}
		return mr.Create(membership)
	})
	if err != nil {
		return nil, err
	}

	// Departures first so no observer ever sees the user in two rooms.
	for _, o := range detached {
		s.notifier.Publish(PresenceEvent{
			Kind:              domain.EventLeft,
			UserID:            userID,
			RoomID:            o.RoomID,
			DestinationRoomID: roomID,
		})
	}
	if prev := previousRoom(detached, opts.PreviousRoomHint); prev != 0 {
		s.notifier.Publish(PresenceEvent{
			Kind:           domain.EventMoved,
			UserID:         userID,
			RoomID:         roomID,
			PreviousRoomID: prev,
		})
	} else {
		s.notifier.Publish(PresenceEvent{
			Kind:   domain.EventJoined,
			UserID: userID,
			RoomID: roomID,
		})
	}
	return membership, nil
}

// previousRoom picks the most-recently-active detached room. When none of
// the detached rows carries activity data the caller-supplied hint wins,
// then the first detached row.
func previousRoom(detached []models.RoomMembership, hint uint) uint {
	if len(detached) == 0 {
		return 0
	}
	var best *models.RoomMembership
	for i := range detached {
		m := &detached[i]
		if m.LastActivity == nil {
			continue
		}
		if best == nil || m.LastActivity.After(*best.LastActivity) {
			best = m
		}
	}
	if best != nil {
		return best.RoomID
	}
	if hint != 0 {
		return hint
	}
	return detached[0].RoomID
}

// RemoveMembership detaches a user from a room and announces the departure.
// An already-absent row is a success, which keeps explicit leaves, kicks
// and the reaper safe against each other.
func (s *RoomService) RemoveMembership(ctx context.Context, userID, roomID uint, reason string) error {
	unlock := s.locks.Lock(userID)
	defer unlock()

	deleted, err := s.memberships.Delete(roomID, userID)
	if err != nil {
		return err
	}
	if !deleted {
		return nil
	}
	s.notifier.Publish(PresenceEvent{
		Kind:   domain.EventLeft,
		UserID: userID,
		RoomID: roomID,
	})
	if reason == domain.RemoveReasonBan {
		s.notifier.Publish(PresenceEvent{
			Kind:   domain.EventBanned,
			UserID: userID,
			RoomID: roomID,
		})
	}
	return nil
}

// TouchActivity refreshes membership last_activity on room activity
// (message sent, room viewed). Missing rows are ignored.
func (s *RoomService) TouchActivity(ctx context.Context, userID, roomID uint) {
	_ = s.memberships.Touch(roomID, userID, time.Now())
}

// BanUser marks the user banned and force-detaches them from their room,
// delivering the ban notice on their private channel.
func (s *RoomService) BanUser(ctx context.Context, userID uint) error {
	now := time.Now()
	if err := s.users.SetBanned(userID, &now); err != nil {
		return err
	}
	memberships, err := s.memberships.ListByUser(userID)
	if err != nil {
		return err
	}
	if len(memberships) == 0 {
		s.notifier.Publish(PresenceEvent{Kind: domain.EventBanned, UserID: userID})
		return nil
	}
	for _, m := range memberships {
		if err := s.RemoveMembership(ctx, userID, m.RoomID, domain.RemoveReasonBan); err != nil {
			return err
		}
	}
	return nil
}

package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"parley/internal/cache"
	"parley/internal/domain"
	"parley/internal/models"
	"parley/internal/repository"

	"gorm.io/gorm"
)

func newAuthFixture(t *testing.T) (*ChannelAuthorizer, *StatusService, *gorm.DB) {
	db := newTestDB(t)
	store := cache.NewMemoryStore()
	t.Cleanup(func() { store.Close() })
	notifier, _ := newTestNotifier(db)
	statuses := NewStatusService(store, repository.NewStatusRepository(db), notifier, 300*time.Second)
	authorizer := NewChannelAuthorizer(
		repository.NewUserRepository(db),
		repository.NewRoomRepository(db),
		repository.NewMembershipRepository(db),
		statuses,
	)
	return authorizer, statuses, db
}

func TestBannedUserKeepsOnlyPrivateChannel(t *testing.T) {
	authorizer, _, db := newAuthFixture(t)
	u := seedUser(t, db, "pariah")
	room := seedRoom(t, db, "plaza", 0)
	now := time.Now()
	if err := db.Model(u).Update("banned_at", &now).Error; err != nil {
		t.Fatalf("ban user: %v", err)
	}
	ctx := context.Background()

	if _, err := authorizer.Authorize(ctx, u.ID, domain.RoomChannel(room.ID)); !errors.Is(err, ErrChannelDenied) {
		t.Errorf("room channel err = %v, want ErrChannelDenied", err)
	}
	if _, err := authorizer.Authorize(ctx, u.ID, domain.GlobalPresenceChannel); !errors.Is(err, ErrChannelDenied) {
		t.Errorf("presence channel err = %v, want ErrChannelDenied", err)
	}
	payload, err := authorizer.Authorize(ctx, u.ID, domain.PrivateChannel(u.ID))
	if err != nil {
		t.Fatalf("private channel: %v", err)
	}
	if payload["user_id"] != u.ID {
		t.Errorf("private payload user_id = %v, want %d", payload["user_id"], u.ID)
	}
}

func TestPrivateChannelOwnedByOtherUserDenied(t *testing.T) {
	authorizer, _, db := newAuthFixture(t)
	u := seedUser(t, db, "nosy")
	other := seedUser(t, db, "victim")

	if _, err := authorizer.Authorize(context.Background(), u.ID, domain.PrivateChannel(other.ID)); !errors.Is(err, ErrChannelDenied) {
		t.Errorf("err = %v, want ErrChannelDenied", err)
	}
}

func TestPublicRoomChannelOpenToNonMembers(t *testing.T) {
	authorizer, _, db := newAuthFixture(t)
	u := seedUser(t, db, "walkin")
	room := seedRoom(t, db, "commons", 0)

	payload, err := authorizer.Authorize(context.Background(), u.ID, domain.RoomChannel(room.ID))
	if err != nil {
		t.Fatalf("Authorize: %v", err)
	}
	if payload["username"] != u.Username {
		t.Errorf("payload username = %v, want %q", payload["username"], u.Username)
	}
}

func TestPrivateRoomChannelRequiresMembership(t *testing.T) {
	authorizer, _, db := newAuthFixture(t)
	member := seedUser(t, db, "insider")
	outsider := seedUser(t, db, "outsider")
	room := &models.Room{Name: "backroom", Public: false}
	if err := db.Create(room).Error; err != nil {
		t.Fatalf("seed room: %v", err)
	}
	now := time.Now()
	seedMembership(t, db, room.ID, member.ID, &now)
	ctx := context.Background()

	if _, err := authorizer.Authorize(ctx, member.ID, domain.RoomChannel(room.ID)); err != nil {
		t.Errorf("member denied: %v", err)
	}
	if _, err := authorizer.Authorize(ctx, outsider.ID, domain.RoomChannel(room.ID)); !errors.Is(err, ErrChannelDenied) {
		t.Errorf("outsider err = %v, want ErrChannelDenied", err)
	}
}

func TestGlobalPresencePayloadCarriesLiveStatus(t *testing.T) {
	authorizer, statuses, db := newAuthFixture(t)
	u := seedUser(t, db, "vivid")
	ctx := context.Background()
	statuses.Update(ctx, u.ID, domain.StatusActive, nil)

	payload, err := authorizer.Authorize(ctx, u.ID, domain.GlobalPresenceChannel)
	if err != nil {
		t.Fatalf("Authorize: %v", err)
	}
	if payload["status"] != domain.StatusActive {
		t.Errorf("payload status = %v, want %q", payload["status"], domain.StatusActive)
	}
	if payload["username"] != u.Username {
		t.Errorf("payload username = %v, want %q", payload["username"], u.Username)
	}
}

func TestUnknownChannelDenied(t *testing.T) {
	authorizer, _, db := newAuthFixture(t)
	u := seedUser(t, db, "lost")

	if _, err := authorizer.Authorize(context.Background(), u.ID, "rooms.nonsense"); !errors.Is(err, ErrChannelDenied) {
		t.Errorf("err = %v, want ErrChannelDenied", err)
	}
}

package service

import (
	"context"
	"testing"
	"time"

	"parley/internal/domain"
	"parley/internal/repository"
)

func TestReaperEvictsStaleMemberships(t *testing.T) {
	db := newTestDB(t)
	notifier, rec := newTestNotifier(db)
	memberships := repository.NewMembershipRepository(db)
	reaper := NewReaper(memberships, notifier, 5*time.Minute, 30*time.Minute)

	room := seedRoom(t, db, "drift", 0)
	stale := seedUser(t, db, "stale")
	fresh := seedUser(t, db, "fresh")
	never := seedUser(t, db, "never")

	old := time.Now().Add(-time.Hour)
	recent := time.Now().Add(-time.Minute)
	seedMembership(t, db, room.ID, stale.ID, &old)
	seedMembership(t, db, room.ID, fresh.ID, &recent)
	seedMembership(t, db, room.ID, never.ID, nil) // no activity recorded at all

	n, err := reaper.ReapOnce(context.Background())
	if err != nil {
		t.Fatalf("ReapOnce: %v", err)
	}
	if n != 2 {
		t.Errorf("reaped = %d, want 2", n)
	}

	if rooms := memberRooms(t, db, stale.ID); len(rooms) != 0 {
		t.Errorf("stale user still in %v", rooms)
	}
	if rooms := memberRooms(t, db, never.ID); len(rooms) != 0 {
		t.Errorf("never-active user still in %v", rooms)
	}
	if rooms := memberRooms(t, db, fresh.ID); len(rooms) != 1 {
		t.Errorf("fresh user memberships = %v, want 1", rooms)
	}

	lefts := rec.ofKind(domain.EventLeft)
	if len(lefts) != 2 {
		t.Errorf("left events = %d, want 2", len(lefts))
	}
	for _, ev := range lefts {
		if ev.Channel != domain.RoomChannel(room.ID) {
			t.Errorf("left on channel %q, want %q", ev.Channel, domain.RoomChannel(room.ID))
		}
	}
}

func TestReaperSecondSweepIsNoop(t *testing.T) {
	db := newTestDB(t)
	notifier, _ := newTestNotifier(db)
	memberships := repository.NewMembershipRepository(db)
	reaper := NewReaper(memberships, notifier, 5*time.Minute, 30*time.Minute)

	room := seedRoom(t, db, "calm", 0)
	u := seedUser(t, db, "solo")
	old := time.Now().Add(-2 * time.Hour)
	seedMembership(t, db, room.ID, u.ID, &old)

	if n, err := reaper.ReapOnce(context.Background()); err != nil || n != 1 {
		t.Fatalf("first sweep: n=%d err=%v, want n=1", n, err)
	}
	if n, err := reaper.ReapOnce(context.Background()); err != nil || n != 0 {
		t.Errorf("second sweep: n=%d err=%v, want n=0", n, err)
	}
}

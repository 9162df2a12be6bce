package service

import (
	"context"
	"testing"
	"time"

	"parley/internal/cache"
	"parley/internal/domain"
	"parley/internal/models"
	"parley/internal/repository"
)

func newStatusFixture(t *testing.T) (*StatusService, *recorder, cache.Store, *repository.StatusRepository) {
	db := newTestDB(t)
	store := cache.NewMemoryStore()
	t.Cleanup(func() { store.Close() })
	notifier, rec := newTestNotifier(db)
	repo := repository.NewStatusRepository(db)
	svc := NewStatusService(store, repo, notifier, 300*time.Second)
	return svc, rec, store, repo
}

func TestUpdateThenGetBeforeFlush(t *testing.T) {
	svc, _, _, _ := newStatusFixture(t)
	ctx := context.Background()

	at := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	svc.Update(ctx, 7, domain.StatusActive, &at)

	view, err := svc.Get(ctx, 7)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if view.Status != domain.StatusActive {
		t.Errorf("status = %q, want %q", view.Status, domain.StatusActive)
	}
	if view.LastActivity == nil || !view.LastActivity.Equal(at) {
		t.Errorf("last_activity = %v, want %v", view.LastActivity, at)
	}
}

func TestGetDefaultsToAway(t *testing.T) {
	svc, _, _, _ := newStatusFixture(t)

	view, err := svc.Get(context.Background(), 42)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if view.Status != domain.StatusAway {
		t.Errorf("status = %q, want %q", view.Status, domain.StatusAway)
	}
	if view.LastActivity != nil {
		t.Errorf("last_activity = %v, want nil", view.LastActivity)
	}
}

func TestGetFallsBackToDurableMirror(t *testing.T) {
	svc, _, store, repo := newStatusFixture(t)
	ctx := context.Background()

	at := time.Now().Add(-time.Hour).UTC().Truncate(time.Second)
	if err := repo.UpsertBatch([]models.UserStatus{{UserID: 9, Status: domain.StatusIncognito, LastActivity: &at, UpdatedAt: time.Now()}}); err != nil {
		t.Fatalf("seed durable status: %v", err)
	}

	view, err := svc.Get(ctx, 9)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if view.Status != domain.StatusIncognito {
		t.Errorf("status = %q, want %q", view.Status, domain.StatusIncognito)
	}

	// The read-through must have repopulated the cache.
	if _, err := store.Get(ctx, statusKey(9)); err != nil {
		t.Errorf("expected cache repopulated after durable fallback, got %v", err)
	}
}

func TestGetManyMixesHitsAndMisses(t *testing.T) {
	svc, _, _, repo := newStatusFixture(t)
	ctx := context.Background()

	svc.Update(ctx, 1, domain.StatusActive, nil)
	if err := repo.UpsertBatch([]models.UserStatus{{UserID: 2, Status: domain.StatusInactiveTab, UpdatedAt: time.Now()}}); err != nil {
		t.Fatalf("seed durable status: %v", err)
	}

	views, err := svc.GetMany(ctx, []uint{1, 2, 3})
	if err != nil {
		t.Fatalf("GetMany: %v", err)
	}
	if got := views[1].Status; got != domain.StatusActive {
		t.Errorf("user 1 status = %q, want %q", got, domain.StatusActive)
	}
	if got := views[2].Status; got != domain.StatusInactiveTab {
		t.Errorf("user 2 status = %q, want %q", got, domain.StatusInactiveTab)
	}
	if got := views[3].Status; got != domain.StatusAway {
		t.Errorf("user 3 status = %q, want %q", got, domain.StatusAway)
	}
}

func TestUpdateAnnouncesTransitionOnce(t *testing.T) {
	svc, rec, _, _ := newStatusFixture(t)
	ctx := context.Background()

	svc.Update(ctx, 5, domain.StatusAway, nil)
	svc.Update(ctx, 5, domain.StatusActive, nil)
	svc.Update(ctx, 5, domain.StatusActive, nil) // same value, no announcement

	got := rec.ofKind(domain.EventPresenceUpdated)
	if len(got) != 2 {
		t.Fatalf("presence_updated events = %d, want 2", len(got))
	}
	for _, ev := range got {
		if ev.Channel != domain.GlobalPresenceChannel {
			t.Errorf("event on channel %q, want %q", ev.Channel, domain.GlobalPresenceChannel)
		}
	}
	if got[1].Data["status"] != domain.StatusActive {
		t.Errorf("second transition status = %v, want %q", got[1].Data["status"], domain.StatusActive)
	}
}

package service

import (
	"context"
	"log"
	"sync"
	"time"

	"parley/internal/domain"
	"parley/internal/repository"
)

// Reaper sweeps memberships whose last_activity has gone stale (or was
// never set) and detaches them through the same path as an explicit leave.
type Reaper struct {
	memberships *repository.MembershipRepository
	notifier    *Notifier
	interval    time.Duration
	threshold   time.Duration
	mu          sync.Mutex // non-overlap guard
}

func NewReaper(memberships *repository.MembershipRepository, notifier *Notifier, interval, threshold time.Duration) *Reaper {
	return &Reaper{memberships: memberships, notifier: notifier, interval: interval, threshold: threshold}
}

// Run sweeps on a ticker until ctx is cancelled.
func (r *Reaper) Run(ctx context.Context) {
	tick := time.NewTicker(r.interval)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-tick.C:
			n, err := r.ReapOnce(ctx)
			if err != nil {
				log.Printf("[reaper] sweep failed: %v", err)
			} else if n > 0 {
				log.Printf("[reaper] evicted %d stale memberships", n)
			}
		}
	}
}

// ReapOnce removes every stale membership and emits a left event for each.
// A row deleted concurrently by a transfer is skipped without error, and
// per-row failures do not stop the sweep.
func (r *Reaper) ReapOnce(ctx context.Context) (int, error) {
	if !r.mu.TryLock() {
		return 0, nil
	}
	defer r.mu.Unlock()

	stale, err := r.memberships.ListStale(time.Now().Add(-r.threshold))
	if err != nil {
		return 0, err
	}
	var reaped int
	for _, m := range stale {
		deleted, err := r.memberships.Delete(m.RoomID, m.UserID)
		if err != nil {
			log.Printf("[reaper] delete %d/%d failed: %v", m.RoomID, m.UserID, err)
			continue
		}
		if !deleted {
			continue // raced with a transfer or explicit leave
		}
		r.notifier.Publish(PresenceEvent{
			Kind:   domain.EventLeft,
			UserID: m.UserID,
			RoomID: m.RoomID,
		})
		reaped++
	}
	return reaped, nil
}

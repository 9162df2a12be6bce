package service

import (
	"context"
	"encoding/json"
	"log"
	"strconv"
	"sync"
	"time"

	"parley/internal/cache"
	"parley/internal/models"
	"parley/internal/repository"
)

// Flusher drains the pending write set on a fixed schedule and persists the
// corresponding cached statuses in batched upserts. Losing the pending set
// (process restart) costs only mirror freshness, never correctness: the
// cache stays authoritative until entries expire.
type Flusher struct {
	store     cache.Store
	statuses  *repository.StatusRepository
	interval  time.Duration
	chunkSize int
	mu        sync.Mutex // non-overlap guard
}

func NewFlusher(store cache.Store, statuses *repository.StatusRepository, interval time.Duration, chunkSize int) *Flusher {
	if chunkSize <= 0 {
		chunkSize = 100
	}
	return &Flusher{store: store, statuses: statuses, interval: interval, chunkSize: chunkSize}
}

// Run flushes on a ticker until ctx is cancelled.
func (f *Flusher) Run(ctx context.Context) {
	tick := time.NewTicker(f.interval)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-tick.C:
			n, err := f.FlushOnce(ctx)
			if err != nil {
				log.Printf("[flusher] flush failed: %v", err)
			} else if n > 0 {
				log.Printf("[flusher] persisted %d statuses", n)
			}
		}
	}
}

// FlushOnce drains the pending set and upserts the snapshot in chunks. A
// flush already in progress suppresses this one. Users re-enqueued during
// the flush land in a fresh set and are picked up next cycle. Per-chunk
// failures are logged and skipped so one bad chunk cannot block the rest.
func (f *Flusher) FlushOnce(ctx context.Context) (int, error) {
	if !f.mu.TryLock() {
		return 0, nil
	}
	defer f.mu.Unlock()

	ids, err := f.store.SDrain(ctx, pendingStatusKey)
	if err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = statusKeyPrefix + id
	}
	vals, err := f.store.MGet(ctx, keys...)
	if err != nil {
		return 0, err
	}

	now := time.Now()
	rows := make([]models.UserStatus, 0, len(ids))
	for i, id := range ids {
		raw, ok := vals[keys[i]]
		if !ok {
			// Entry expired between enqueue and flush; the mirror stays
			// stale until the next heartbeat re-enqueues the user.
			continue
		}
		uid, err := strconv.ParseUint(id, 10, 32)
		if err != nil {
			continue
		}
		var cs cachedStatus
		if err := json.Unmarshal([]byte(raw), &cs); err != nil {
			continue
		}
		rows = append(rows, models.UserStatus{
			UserID:       uint(uid),
			Status:       cs.Status,
			LastActivity: cs.LastActivity,
			UpdatedAt:    now,
		})
	}

	var flushed int
	for start := 0; start < len(rows); start += f.chunkSize {
		end := start + f.chunkSize
		if end > len(rows) {
			end = len(rows)
		}
		chunk := rows[start:end]
		if err := f.statuses.UpsertBatch(chunk); err != nil {
			log.Printf("[flusher] chunk of %d failed, re-enqueueing for next cycle: %v", len(chunk), err)
			f.requeue(ctx, chunk)
			continue
		}
		flushed += len(chunk)
	}
	return flushed, nil
}

// requeue puts a failed chunk's users back in the pending set so the next
// scheduled flush retries them.
func (f *Flusher) requeue(ctx context.Context, chunk []models.UserStatus) {
	members := make([]string, len(chunk))
	for i, row := range chunk {
		members[i] = strconv.FormatUint(uint64(row.UserID), 10)
	}
	if err := f.store.SAdd(ctx, pendingStatusKey, members...); err != nil {
		log.Printf("[flusher] requeue of %d users failed: %v", len(members), err)
	}
}

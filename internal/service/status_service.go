package service

import (
	"context"
	"encoding/json"
	"log"
	"strconv"
	"time"

	"parley/internal/cache"
	"parley/internal/domain"
	"parley/internal/repository"
)

const (
	statusKeyPrefix  = "status:user:"
	pendingStatusKey = "status:pending"
)

func statusKey(userID uint) string {
	return statusKeyPrefix + strconv.FormatUint(uint64(userID), 10)
}

// cachedStatus is the JSON payload stored per user in the cache. The cache
// is authoritative for reads within its TTL; the durable mirror trails it
// by at most one flush interval.
type cachedStatus struct {
	Status       string     `json:"status"`
	LastActivity *time.Time `json:"last_activity"`
}

// StatusView is what callers get back from status reads.
type StatusView struct {
	UserID       uint       `json:"user_id"`
	Status       string     `json:"status"`
	LastActivity *time.Time `json:"last_activity"`
}

// StatusService implements the write-behind status protocol: heartbeat
// writes hit only the cache and the pending set, durable persistence is
// left to the flusher.
type StatusService struct {
	store    cache.Store
	statuses *repository.StatusRepository
	notifier *Notifier
	ttl      time.Duration
}

func NewStatusService(store cache.Store, statuses *repository.StatusRepository, notifier *Notifier, ttl time.Duration) *StatusService {
	return &StatusService{store: store, statuses: statuses, notifier: notifier, ttl: ttl}
}

// Update records a status heartbeat. It is best-effort by contract: cache
// trouble drops this one write (the next heartbeat retries) and the caller
// never sees an error. A changed status value is announced on the global
// presence channel.
func (s *StatusService) Update(ctx context.Context, userID uint, status string, lastActivity *time.Time) {
	if lastActivity == nil {
		now := time.Now()
		lastActivity = &now
	}
	previous := s.cachedStatusValue(ctx, userID)

	b, err := json.Marshal(cachedStatus{Status: status, LastActivity: lastActivity})
	if err != nil {
		log.Printf("[status] marshal for user %d: %v", userID, err)
		return
	}
	if err := s.store.Set(ctx, statusKey(userID), string(b), s.ttl); err != nil {
		log.Printf("[status] cache write for user %d dropped: %v", userID, err)
		return
	}
	if err := s.store.SAdd(ctx, pendingStatusKey, strconv.FormatUint(uint64(userID), 10)); err != nil {
		log.Printf("[status] pending enqueue for user %d dropped: %v", userID, err)
	}
	if s.notifier != nil && previous != status {
		s.notifier.Publish(PresenceEvent{
			Kind:   domain.EventPresenceUpdated,
			UserID: userID,
			Status: status,
		})
	}
}

// cachedStatusValue returns the currently cached status value, or "" when
// the cache has nothing. Used only for transition detection; a miss just
// means the change is announced.
func (s *StatusService) cachedStatusValue(ctx context.Context, userID uint) string {
	raw, err := s.store.Get(ctx, statusKey(userID))
	if err != nil {
		return ""
	}
	var cs cachedStatus
	if err := json.Unmarshal([]byte(raw), &cs); err != nil {
		return ""
	}
	return cs.Status
}

// Get reads one user's status: cache first, durable mirror on miss,
// defaulting to AWAY for users with no recorded status at all.
func (s *StatusService) Get(ctx context.Context, userID uint) (StatusView, error) {
	views, err := s.GetMany(ctx, []uint{userID})
	if err != nil {
		return StatusView{}, err
	}
	return views[userID], nil
}

// GetMany resolves statuses for a batch of users. All cache misses fall
// back to a single durable query, and resolved rows are written back into
// the cache best-effort.
func (s *StatusService) GetMany(ctx context.Context, userIDs []uint) (map[uint]StatusView, error) {
	out := make(map[uint]StatusView, len(userIDs))
	if len(userIDs) == 0 {
		return out, nil
	}

	keys := make([]string, len(userIDs))
	for i, id := range userIDs {
		keys[i] = statusKey(id)
	}
	hits, err := s.store.MGet(ctx, keys...)
	if err != nil {
		// Cache down: degrade to durable reads, correctness preserved.
		log.Printf("[status] cache read degraded to durable store: %v", err)
		hits = map[string]string{}
	}

	var misses []uint
	for i, id := range userIDs {
		raw, ok := hits[keys[i]]
		if !ok {
			misses = append(misses, id)
			continue
		}
		var cs cachedStatus
		if err := json.Unmarshal([]byte(raw), &cs); err != nil {
			misses = append(misses, id)
			continue
		}
		out[id] = StatusView{UserID: id, Status: cs.Status, LastActivity: cs.LastActivity}
	}

	if len(misses) > 0 {
		rows, err := s.statuses.GetMany(misses)
		if err != nil {
			return nil, err
		}
		for _, id := range misses {
			view := StatusView{UserID: id, Status: domain.StatusAway}
			if row, ok := rows[id]; ok {
				view.Status = row.Status
				view.LastActivity = row.LastActivity
			}
			out[id] = view
			s.repopulate(ctx, view)
		}
	}
	return out, nil
}

func (s *StatusService) repopulate(ctx context.Context, view StatusView) {
	b, err := json.Marshal(cachedStatus{Status: view.Status, LastActivity: view.LastActivity})
	if err != nil {
		return
	}
	if err := s.store.Set(ctx, statusKey(view.UserID), string(b), s.ttl); err != nil {
		log.Printf("[status] cache repopulate for user %d failed: %v", view.UserID, err)
	}
}

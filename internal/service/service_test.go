package service

import (
	"strings"
	"sync"
	"testing"
	"time"

	"parley/internal/database"
	"parley/internal/models"
	"parley/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:" + strings.ReplaceAll(t.Name(), "/", "_") + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seedUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	u := &models.User{Username: username, Email: username + "@example.com", Role: "MEMBER"}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("seed user %s: %v", username, err)
	}
	return u
}

func seedRoom(t *testing.T, db *gorm.DB, name string, maxCount int) *models.Room {
	t.Helper()
	r := &models.Room{Name: name, Public: true, MaxCount: maxCount}
	if err := db.Create(r).Error; err != nil {
		t.Fatalf("seed room %s: %v", name, err)
	}
	return r
}

func seedMembership(t *testing.T, db *gorm.DB, roomID, userID uint, lastActivity *time.Time) {
	t.Helper()
	m := &models.RoomMembership{RoomID: roomID, UserID: userID, Role: "MEMBER", LastActivity: lastActivity}
	if err := db.Create(m).Error; err != nil {
		t.Fatalf("seed membership %d/%d: %v", roomID, userID, err)
	}
}

// recordedPublish captures one Broadcaster.Publish call.
type recordedPublish struct {
	Channel string
	Event   string
	Data    map[string]interface{}
	Exclude uint
}

// recorder is a Broadcaster that remembers every publish in order.
type recorder struct {
	mu     sync.Mutex
	events []recordedPublish
}

func (r *recorder) Publish(channel, event string, data interface{}, excludeUserID uint) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, _ := data.(map[string]interface{})
	r.events = append(r.events, recordedPublish{Channel: channel, Event: event, Data: m, Exclude: excludeUserID})
}

func (r *recorder) all() []recordedPublish {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]recordedPublish, len(r.events))
	copy(out, r.events)
	return out
}

// ofKind filters the recorded publishes by event name.
func (r *recorder) ofKind(event string) []recordedPublish {
	var out []recordedPublish
	for _, ev := range r.all() {
		if ev.Event == event {
			out = append(out, ev)
		}
	}
	return out
}

func newTestNotifier(db *gorm.DB) (*Notifier, *recorder) {
	rec := &recorder{}
	return NewNotifier(rec, repository.NewUserRepository(db)), rec
}

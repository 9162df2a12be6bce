package models

import "time"

// UserStatus is the durable mirror of the status cache. It is written only
// by the flusher's batched upserts, never on the heartbeat hot path, so it
// may lag the cache by up to one flush interval.
type UserStatus struct {
	UserID       uint       `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	Status       string     `gorm:"size:32;not null" json:"status"`
	LastActivity *time.Time `json:"last_activity"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func (UserStatus) TableName() string {
	return "user_statuses"
}

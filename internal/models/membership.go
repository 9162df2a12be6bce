package models

import "time"

// RoomMembership is the durable record that a user currently belongs to a
// room. The engine keeps at most one row per user; rows are hard-deleted on
// leave/kick/ban/inactivity so "row absent" always means "not in the room".
type RoomMembership struct {
	RoomID       uint       `gorm:"primaryKey;autoIncrement:false" json:"room_id"`
	UserID       uint       `gorm:"primaryKey;autoIncrement:false;index" json:"user_id"`
	Role         string     `gorm:"size:20;not null;default:MEMBER" json:"role"` // MEMBER | ADMIN
	LastActivity *time.Time `gorm:"index" json:"last_activity"`
	CreatedAt    time.Time  `json:"created_at"`

	Room Room `gorm:"foreignKey:RoomID" json:"-"`
	User User `gorm:"foreignKey:UserID" json:"-"`
}

func (RoomMembership) TableName() string {
	return "room_memberships"
}

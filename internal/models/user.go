package models

import (
	"time"

	"parley/internal/domain"

	"gorm.io/gorm"
)

type User struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Username  string         `gorm:"uniqueIndex;size:64;not null" json:"username"`
	Email     string         `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Role      string         `gorm:"size:20;not null;index;default:MEMBER" json:"role"` // MEMBER | ADMIN
	AvatarURL string         `gorm:"size:512" json:"avatar_url"`
	BannedAt  *time.Time     `json:"banned_at,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Status *UserStatus `gorm:"foreignKey:UserID" json:"status,omitempty"`
}

func (u *User) IsAdmin() bool  { return u.Role == domain.RoleAdmin }
func (u *User) IsBanned() bool { return u.BannedAt != nil }

// PublicProfile is the projection handed to presence channel subscribers.
func (u *User) PublicProfile() map[string]interface{} {
	return map[string]interface{}{
		"user_id":    u.ID,
		"username":   u.Username,
		"avatar_url": u.AvatarURL,
	}
}

package models

import (
	"time"

	"gorm.io/gorm"
)

type Room struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	Name         string         `gorm:"uniqueIndex;size:64;not null" json:"name"`
	Description  string         `gorm:"size:255" json:"description"`
	Public       bool           `gorm:"default:true;index" json:"public"`
	PasswordHash string         `gorm:"size:255" json:"-"`
	MaxCount     int            `gorm:"default:0" json:"max_count"` // 0 = unlimited
	OwnerID      *uint          `gorm:"index" json:"owner_id,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

func (r *Room) IsProtected() bool { return r.PasswordHash != "" }

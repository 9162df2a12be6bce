package repository

import (
	"parley/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type StatusRepository struct {
	db *gorm.DB
}

func NewStatusRepository(db *gorm.DB) *StatusRepository {
	return &StatusRepository{db: db}
}

func (r *StatusRepository) GetMany(userIDs []uint) (map[uint]models.UserStatus, error) {
	out := make(map[uint]models.UserStatus, len(userIDs))
	if len(userIDs) == 0 {
		return out, nil
	}
	var rows []models.UserStatus
	if err := r.db.Where("user_id IN ?", userIDs).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.UserID] = row
	}
	return out, nil
}

// UpsertBatch writes one multi-row INSERT ... ON DUPLICATE KEY UPDATE per
// call; the flusher passes chunks so a whole flush is a handful of
// statements rather than one per user.
func (r *StatusRepository) UpsertBatch(rows []models.UserStatus) error {
	if len(rows) == 0 {
		return nil
	}
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"status", "last_activity", "updated_at"}),
	}).Create(&rows).Error
}

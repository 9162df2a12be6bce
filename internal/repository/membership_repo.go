package repository

import (
	"errors"
	"time"

	"parley/internal/models"

	"gorm.io/gorm"
)

type MembershipRepository struct {
	db *gorm.DB
}

func NewMembershipRepository(db *gorm.DB) *MembershipRepository {
	return &MembershipRepository{db: db}
}

// WithTx returns a copy of the repository bound to the given transaction.
func (r *MembershipRepository) WithTx(tx *gorm.DB) *MembershipRepository {
	return &MembershipRepository{db: tx}
}

func (r *MembershipRepository) Get(roomID, userID uint) (*models.RoomMembership, error) {
	var m models.RoomMembership
	err := r.db.Where("room_id = ? AND user_id = ?", roomID, userID).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// ListByUser returns every membership a user holds, most recently active
// first. There should never be more than one, but callers scan defensively.
func (r *MembershipRepository) ListByUser(userID uint) ([]models.RoomMembership, error) {
	var ms []models.RoomMembership
	err := r.db.Where("user_id = ?", userID).Order("last_activity DESC").Find(&ms).Error
	return ms, err
}

func (r *MembershipRepository) ListByRoom(roomID uint) ([]models.RoomMembership, error) {
	var ms []models.RoomMembership
	err := r.db.Where("room_id = ?", roomID).Order("last_activity DESC").Find(&ms).Error
	return ms, err
}

func (r *MembershipRepository) CountByRoom(roomID uint) (int64, error) {
	var n int64
	err := r.db.Model(&models.RoomMembership{}).Where("room_id = ?", roomID).Count(&n).Error
	return n, err
}

func (r *MembershipRepository) Create(m *models.RoomMembership) error {
	return r.db.Create(m).Error
}

// Touch refreshes last_activity on an existing membership.
func (r *MembershipRepository) Touch(roomID, userID uint, at time.Time) error {
	return r.db.Model(&models.RoomMembership{}).
		Where("room_id = ? AND user_id = ?", roomID, userID).
		Update("last_activity", at).Error
}

// Delete removes a membership row. Returns false when the row was already
// gone, which callers treat as success so the reaper and the transfer
// coordinator stay safe under races.
func (r *MembershipRepository) Delete(roomID, userID uint) (bool, error) {
	res := r.db.Where("room_id = ? AND user_id = ?", roomID, userID).
		Delete(&models.RoomMembership{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// ListStale returns memberships whose last_activity predates cutoff or was
// never recorded.
func (r *MembershipRepository) ListStale(cutoff time.Time) ([]models.RoomMembership, error) {
	var ms []models.RoomMembership
	err := r.db.Where("last_activity < ? OR last_activity IS NULL", cutoff).Find(&ms).Error
	return ms, err
}

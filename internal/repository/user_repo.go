package repository

import (
	"time"

	"parley/internal/models"

	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetByID(userID uint) (*models.User, error) {
	var u models.User
	err := r.db.First(&u, userID).Error
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) GetManyByIDs(userIDs []uint) ([]models.User, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	var users []models.User
	err := r.db.Where("id IN ?", userIDs).Find(&users).Error
	return users, err
}

func (r *UserRepository) SetBanned(userID uint, at *time.Time) error {
	return r.db.Model(&models.User{}).Where("id = ?", userID).Update("banned_at", at).Error
}

package repository

import (
	"parley/internal/models"

	"gorm.io/gorm"
)

type RoomRepository struct {
	db *gorm.DB
}

func NewRoomRepository(db *gorm.DB) *RoomRepository {
	return &RoomRepository{db: db}
}

func (r *RoomRepository) GetByID(roomID uint) (*models.Room, error) {
	var room models.Room
	err := r.db.First(&room, roomID).Error
	if err != nil {
		return nil, err
	}
	return &room, nil
}

func (r *RoomRepository) List() ([]models.Room, error) {
	var rooms []models.Room
	err := r.db.Order("name").Find(&rooms).Error
	return rooms, err
}

func (r *RoomRepository) Create(room *models.Room) error {
	return r.db.Create(room).Error
}

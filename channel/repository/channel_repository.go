package repository

import (
	"chatlog/backend/channel/models"

	"gorm.io/gorm"
)

type ChannelRepository interface {
	Create(channel *models.Channel) error
	Save(channel *models.Channel) error
	GetByChannelID(channelID string) (*models.Channel, error)
	GetBySlug(slug string) (*models.Channel, error)
	SlugExists(slug string) (bool, error)
}

type GormChannelRepository struct {
	db *gorm.DB
}

func NewGormChannelRepository(db *gorm.DB) *GormChannelRepository {
	return &GormChannelRepository{db: db}
}

func (r *GormChannelRepository) Create(channel *models.Channel) error {
	return r.db.Create(channel).Error
}

func (r *GormChannelRepository) Save(channel *models.Channel) error {
	return r.db.Save(channel).Error
}

func (r *GormChannelRepository) GetByChannelID(channelID string) (*models.Channel, error) {
	var channel models.Channel
	err := r.db.Where("channel_id = ?", channelID).First(&channel).Error
	if err != nil {
		return nil, err
	}
	return &channel, nil
}

func (r *GormChannelRepository) GetBySlug(slug string) (*models.Channel, error) {
	var channel models.Channel
	err := r.db.Where("slug = ?", slug).First(&channel).Error
	if err != nil {
		return nil, err
	}
	return &channel, nil
}

func (r *GormChannelRepository) SlugExists(slug string) (bool, error) {
	var count int64
	err := r.db.Model(&models.Channel{}).Where("slug = ?", slug).Count(&count).Error
	return count > 0, err
}

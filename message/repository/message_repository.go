package repository

import (
	"chatlog/backend/message/models"

	"gorm.io/gorm"
)

type MessageRepository interface {
	Create(message *models.Message) error
	Save(message *models.Message) error
	GetByTS(channelPK uint, ts string) (*models.Message, error)
	LiveByChannel(channelPK uint) ([]models.Message, error)
}

type GormMessageRepository struct {
	db *gorm.DB
}

func NewGormMessageRepository(db *gorm.DB) *GormMessageRepository {
	return &GormMessageRepository{db: db}
}

func (r *GormMessageRepository) Create(message *models.Message) error {
	return r.db.Create(message).Error
}

func (r *GormMessageRepository) Save(message *models.Message) error {
	return r.db.Save(message).Error
}

// GetByTS looks up a message by its Slack timestamp within a channel.
// Live and retired rows are both considered: the timestamp identifies
// the logical message across its whole lifecycle.
func (r *GormMessageRepository) GetByTS(channelPK uint, ts string) (*models.Message, error) {
	var message models.Message
	err := r.db.Where("channel_id = ? AND ts = ?", channelPK, ts).First(&message).Error
	if err != nil {
		return nil, err
	}
	return &message, nil
}

// LiveByChannel returns the channel's live messages, newest first.
func (r *GormMessageRepository) LiveByChannel(channelPK uint) ([]models.Message, error) {
	var messages []models.Message
	err := r.db.Preload("User").
		Where("channel_id = ? AND live = ?", channelPK, true).
		Order("ts DESC").
		Find(&messages).Error
	return messages, err
}

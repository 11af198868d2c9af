package repository

import (
	"chatlog/backend/user/models"

	"gorm.io/gorm"
)

type UserRepository interface {
	GetByUserID(userID string) (*models.User, error)
	GetOrCreate(userID string) (*models.User, error)
	Save(user *models.User) error
}

type GormUserRepository struct {
	db *gorm.DB
}

func NewGormUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

func (r *GormUserRepository) GetByUserID(userID string) (*models.User, error) {
	var user models.User
	err := r.db.Where("user_id = ?", userID).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetOrCreate returns the user row for a Slack user ID, inserting a
// bare row when the ID has not been seen before. The directory sync
// fills in names and avatars later.
func (r *GormUserRepository) GetOrCreate(userID string) (*models.User, error) {
	var user models.User
	err := r.db.Where(models.User{UserID: userID}).FirstOrCreate(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *GormUserRepository) Save(user *models.User) error {
	return r.db.Save(user).Error
}

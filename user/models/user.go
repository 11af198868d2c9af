package models

import (
	"time"
)

// User is a Slack user that authors messages. Rows are created lazily
// the first time an unseen user ID posts, then filled in by the
// directory sync. Users are never deleted.
type User struct {
	ID        uint   `json:"id" gorm:"primaryKey"`
	UserID    string `json:"user_id" gorm:"uniqueIndex;size:300"`
	Name      string `json:"name" gorm:"size:300"`
	RealName  string `json:"real_name" gorm:"size:300"`
	Image24   string `json:"image_24" gorm:"size:1000"`
	Image32   string `json:"image_32" gorm:"size:1000"`
	Image48   string `json:"image_48" gorm:"size:1000"`
	Image72   string `json:"image_72" gorm:"size:1000"`
	Image192  string `json:"image_192" gorm:"size:1000"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// DisplayName returns the real name, or the username when no real name is set.
func (u *User) DisplayName() string {
	if u.RealName != "" {
		return u.RealName
	}
	return u.Name
}

package models

import (
	"time"
)

// Channel is a Slack channel logged by this application.
// ChannelID is assigned by Slack and immutable after creation;
// Slug is the human-assigned key used in story URLs.
type Channel struct {
	ID          uint   `json:"id" gorm:"primaryKey"`
	ChannelID   string `json:"channel_id" gorm:"uniqueIndex;size:300"`
	Slug        string `json:"slug" gorm:"uniqueIndex;size:300"`
	Headline    string `json:"headline" gorm:"size:300"`
	Description string `json:"description" gorm:"type:text"`
	LiveContent string `json:"live_content" gorm:"type:text"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

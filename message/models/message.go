package models

import (
	"time"

	channelmodels "chatlog/backend/channel/models"
	usermodels "chatlog/backend/user/models"
)

// Message is a Slack message posted to a logged channel. TS is the
// timestamp Slack assigns to the message and reuses across its
// create/update/delete lifecycle; it is the natural key within a
// channel, not the database primary key. Messages are never physically
// deleted: a delete event only clears Live so the row survives for audit.
type Message struct {
	ID        uint   `json:"id" gorm:"primaryKey"`
	TS        string `json:"ts" gorm:"size:300;uniqueIndex:idx_messages_channel_ts"`
	ChannelID uint   `json:"channel_id" gorm:"uniqueIndex:idx_messages_channel_ts"`
	UserID    uint   `json:"user_id" gorm:"index"`

	Channel channelmodels.Channel `json:"-" gorm:"constraint:OnDelete:CASCADE"`
	User    usermodels.User       `json:"-" gorm:"constraint:OnDelete:CASCADE"`

	// Data holds the raw event payload; HTML is regenerated from it
	// (or from OverrideText when set) whenever either changes.
	Data         string `json:"data" gorm:"type:text"`
	Live         bool   `json:"live" gorm:"default:true"`
	HTML         string `json:"html" gorm:"type:text"`
	OverrideText string `json:"override_text" gorm:"type:text"`
	Edited       bool   `json:"edited"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

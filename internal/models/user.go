package models

import "time"

// User is a community member profile. ThornyID is the platform's stable
// internal identifier; UserID is the chat-platform account it maps to.
type User struct {
	ThornyID    uint       `gorm:"primaryKey;autoIncrement" json:"thorny_id"`
	UserID      string     `gorm:"size:32;not null;index" json:"user_id"`
	GuildID     string     `gorm:"size:32;not null;index" json:"guild_id"`
	Username    string     `gorm:"size:64" json:"username"`
	Whitelist   string     `gorm:"size:64" json:"whitelist"` // in-game name on the whitelist
	Balance     int        `gorm:"default:0" json:"balance"`
	Level       int        `gorm:"default:1" json:"level"`
	XP          int        `gorm:"default:0" json:"xp"`
	Role        string     `gorm:"size:32" json:"role"`
	Patron      bool       `gorm:"default:false" json:"patron"`
	Active      bool       `gorm:"default:true" json:"active"`
	JoinedAt    time.Time  `json:"joined_at"`
	LastMessage *time.Time `json:"last_message"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

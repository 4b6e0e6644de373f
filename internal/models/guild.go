package models

import "time"

// Guild holds per-community configuration. Rows are managed by the chat
// bot; this service only reads them for display and reporting.
type Guild struct {
	ID             string    `gorm:"primaryKey;size:32" json:"guild_id"`
	Name           string    `gorm:"size:128;not null" json:"name"`
	CurrencyName   string    `gorm:"size:32;default:nugs" json:"currency_name"`
	CurrencySymbol string    `gorm:"size:8" json:"currency_symbol"`
	LevelsEnabled  bool      `gorm:"default:true" json:"levels_enabled"`
	QuestsEnabled  bool      `gorm:"default:true" json:"quests_enabled"`
	JoinChannel    string    `gorm:"size:32" json:"join_channel"`
	LogChannel     string    `gorm:"size:32" json:"log_channel"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

package models

import "time"

// QuestProgress is a player's acceptance of a quest: one row per
// (thorny_id, quest_id) pair. Child ObjectiveProgress rows are created
// atomically with the header and snapshot the definition at accept time.
type QuestProgress struct {
	ID         uint       `gorm:"primaryKey;autoIncrement" json:"progress_id"`
	ThornyID   uint       `gorm:"not null;uniqueIndex:idx_player_quest" json:"thorny_id"`
	QuestID    uint       `gorm:"not null;uniqueIndex:idx_player_quest" json:"quest_id"`
	AcceptedOn time.Time  `gorm:"not null" json:"accepted_on"`
	StartedOn  *time.Time `json:"started_on"`
	Status     string     `gorm:"size:16;not null;default:pending;index" json:"status"`
	UpdatedAt  time.Time  `json:"updated_at"`

	Objectives []ObjectiveProgress `gorm:"foreignKey:ProgressID" json:"objectives,omitempty"`
}

// ObjectiveProgress tracks one objective within a QuestProgress instance.
// TargetProgress and CustomizationProgress are JSON text blobs decoded at
// the storage boundary by the progress package.
type ObjectiveProgress struct {
	ID                    uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	ProgressID            uint       `gorm:"not null;uniqueIndex:idx_progress_objective" json:"progress_id"`
	ObjectiveID           uint       `gorm:"not null;uniqueIndex:idx_progress_objective" json:"objective_id"`
	StartTime             *time.Time `json:"start_time"`
	EndTime               *time.Time `json:"end_time"`
	Status                string     `gorm:"size:16;not null;default:pending;index" json:"status"`
	TargetProgress        string     `gorm:"type:text;not null" json:"-"`
	CustomizationProgress string     `gorm:"type:text" json:"-"`
	UpdatedAt             time.Time  `json:"updated_at"`
}

package models

import "time"

// Quest is a quest definition template: a time-bounded window and an
// ordered list of objectives. Quests are never deleted in-band.
type Quest struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"quest_id"`
	StartTime   time.Time `gorm:"not null;index" json:"start_time"`
	EndTime     time.Time `gorm:"not null" json:"end_time"`
	Title       string    `gorm:"size:128;not null" json:"title"`
	Description string    `gorm:"type:text" json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Objectives []Objective `gorm:"foreignKey:QuestID" json:"objectives,omitempty"`
}

// Objective is one step of a quest. Targets and Customizations are stored
// as JSON text and decoded at the storage boundary by the quest package.
type Objective struct {
	ID             uint      `gorm:"primaryKey;autoIncrement" json:"objective_id"`
	QuestID        uint      `gorm:"not null;index" json:"quest_id"`
	OrderIndex     int       `gorm:"not null" json:"order_index"`
	Type           string    `gorm:"size:16;not null" json:"objective_type"` // kill, mine, encounter
	Logic          string    `gorm:"size:16;not null" json:"logic"`          // and, or, sequential
	TargetCount    *int      `json:"target_count"`
	Targets        string    `gorm:"type:text;not null" json:"-"`
	Customizations string    `gorm:"type:text" json:"-"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`

	Rewards []Reward `gorm:"foreignKey:ObjectiveID" json:"rewards,omitempty"`
}

// Reward is granted when its objective completes. Balance-only, item-only
// and combined rewards are all valid.
type Reward struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"reward_id"`
	ObjectiveID uint      `gorm:"not null;index" json:"objective_id"`
	Balance     *int      `json:"balance"`
	Item        *string   `gorm:"size:128" json:"item"`
	Count       int       `gorm:"default:1" json:"count"`
	DisplayName *string   `gorm:"size:128" json:"display_name"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

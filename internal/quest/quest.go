package quest

import (
	"errors"
	"fmt"
	"time"

	"github.com/everthorn/thorny/internal/apperr"
	"github.com/everthorn/thorny/internal/models"
	"gorm.io/gorm"
)

// CreateQuestOpts holds parameters for authoring a new quest.
type CreateQuestOpts struct {
	StartTime   time.Time
	EndTime     time.Time
	Title       string
	Description string
}

// QuestPatch holds optional fields for a quest metadata edit. Nil fields
// are left unchanged.
type QuestPatch struct {
	StartTime   *time.Time
	EndTime     *time.Time
	Title       *string
	Description *string
}

// CreateQuest persists a new quest definition.
func CreateQuest(db *gorm.DB, opts CreateQuestOpts) (*models.Quest, error) {
	if opts.Title == "" {
		return nil, apperr.Invalid("quest", "title is required")
	}
	if opts.StartTime.IsZero() || opts.EndTime.IsZero() {
		return nil, apperr.Invalid("quest", "start_time and end_time are required")
	}
	if !opts.EndTime.After(opts.StartTime) {
		return nil, apperr.Invalid("quest", "end_time must be after start_time")
	}

	q := models.Quest{
		StartTime:   opts.StartTime,
		EndTime:     opts.EndTime,
		Title:       opts.Title,
		Description: opts.Description,
	}
	if err := db.Create(&q).Error; err != nil {
		return nil, fmt.Errorf("quest: create: %w", err)
	}
	return &q, nil
}

// GetQuest retrieves a quest with its objectives and their rewards,
// objectives ordered by order_index.
func GetQuest(db *gorm.DB, id uint) (*models.Quest, error) {
	var q models.Quest
	err := db.
		Preload("Objectives", func(tx *gorm.DB) *gorm.DB { return tx.Order("order_index ASC") }).
		Preload("Objectives.Rewards").
		First(&q, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("quest", id)
		}
		return nil, fmt.Errorf("quest: get %d: %w", id, err)
	}
	return &q, nil
}

// mergeQuest returns a copy of base with the patch's non-nil fields
// applied. The base value is never mutated.
func mergeQuest(base models.Quest, patch QuestPatch) models.Quest {
	if patch.StartTime != nil {
		base.StartTime = *patch.StartTime
	}
	if patch.EndTime != nil {
		base.EndTime = *patch.EndTime
	}
	if patch.Title != nil {
		base.Title = *patch.Title
	}
	if patch.Description != nil {
		base.Description = *patch.Description
	}
	return base
}

// UpdateQuest applies a metadata patch. Objectives are not editable here.
func UpdateQuest(db *gorm.DB, id uint, patch QuestPatch) (*models.Quest, error) {
	var q models.Quest
	if err := db.First(&q, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("quest", id)
		}
		return nil, fmt.Errorf("quest: get %d for update: %w", id, err)
	}

	merged := mergeQuest(q, patch)
	if merged.Title == "" {
		return nil, apperr.Invalid("quest", "title must not be empty")
	}
	if !merged.EndTime.After(merged.StartTime) {
		return nil, apperr.Invalid("quest", "end_time must be after start_time")
	}
	if err := db.Model(&models.Quest{}).Where("id = ?", id).Updates(map[string]any{
		"start_time":  merged.StartTime,
		"end_time":    merged.EndTime,
		"title":       merged.Title,
		"description": merged.Description,
	}).Error; err != nil {
		return nil, fmt.Errorf("quest: update %d: %w", id, err)
	}
	return &merged, nil
}

// ListQuests returns all quest definitions, newest availability first.
func ListQuests(db *gorm.DB) ([]models.Quest, error) {
	var quests []models.Quest
	if err := db.Order("start_time DESC").Find(&quests).Error; err != nil {
		return nil, fmt.Errorf("quest: list: %w", err)
	}
	return quests, nil
}

// ListAvailableQuests returns quests whose availability window contains now.
func ListAvailableQuests(db *gorm.DB, now time.Time) ([]models.Quest, error) {
	var quests []models.Quest
	if err := db.Where("start_time <= ? AND end_time > ?", now, now).
		Order("start_time DESC").Find(&quests).Error; err != nil {
		return nil, fmt.Errorf("quest: list available: %w", err)
	}
	return quests, nil
}

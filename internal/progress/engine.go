package progress

import (
	"errors"
	"fmt"
	"time"

	"github.com/everthorn/thorny/internal/apperr"
	"github.com/everthorn/thorny/internal/models"
	"github.com/everthorn/thorny/internal/quest"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProgressPatch holds optional fields for an administrative correction of
// a quest progress header. Nil fields are left unchanged. Progression
// itself is driven by objective completion, not by this patch.
type ProgressPatch struct {
	Status    *string
	StartedOn *time.Time
}

// lockForUpdate adds a row lock on dialects that support it. SQLite has
// no FOR UPDATE; its single-writer model covers the in-memory test DBs.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

// Accept creates a quest progress instance for a player: the header, one
// pending objective progress row per definition objective (a snapshot of
// the definition at accept time), and the activation of objective 0. All
// writes happen in one transaction; the single-active-quest check runs
// inside that transaction so concurrent accepts cannot both succeed.
func Accept(db *gorm.DB, thornyID, questID uint) (*models.QuestProgress, error) {
	var user models.User
	if err := db.First(&user, thornyID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("user", thornyID)
		}
		return nil, fmt.Errorf("progress: get user %d: %w", thornyID, err)
	}

	q, err := quest.GetQuest(db, questID)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	if now.Before(q.StartTime) || !now.Before(q.EndTime) {
		return nil, apperr.Conflict("quest", questID, "quest is not currently available")
	}

	defs, err := quest.ListObjectivesByQuest(db, questID)
	if err != nil {
		return nil, err
	}
	if len(defs) == 0 {
		return nil, apperr.Invalid("quest", "quest %d has no objectives", questID)
	}

	var header models.QuestProgress
	err = db.Transaction(func(tx *gorm.DB) error {
		var active int64
		if err := lockForUpdate(tx).Model(&models.QuestProgress{}).
			Where("thorny_id = ? AND status = ?", thornyID, StatusActive).
			Count(&active).Error; err != nil {
			return fmt.Errorf("progress: check active quest: %w", err)
		}
		if active > 0 {
			return apperr.Conflict("quest_progress", thornyID, "player already has an active quest")
		}

		var existing int64
		if err := tx.Model(&models.QuestProgress{}).
			Where("thorny_id = ? AND quest_id = ?", thornyID, questID).
			Count(&existing).Error; err != nil {
			return fmt.Errorf("progress: check prior acceptance: %w", err)
		}
		if existing > 0 {
			return apperr.Conflict("quest_progress", questID, "quest already accepted by player %d", thornyID)
		}

		header = models.QuestProgress{
			ThornyID:   thornyID,
			QuestID:    questID,
			AcceptedOn: now,
			Status:     StatusPending,
		}
		if err := tx.Create(&header).Error; err != nil {
			return fmt.Errorf("progress: create header: %w", err)
		}

		for i, def := range defs {
			counters, err := quest.EncodeTargetProgress(newTargetProgress(def.Targets))
			if err != nil {
				return err
			}
			customCounters, err := quest.EncodeCustomizationProgress(newCustomizationProgress(def.Customizations))
			if err != nil {
				return err
			}
			child := models.ObjectiveProgress{
				ProgressID:            header.ID,
				ObjectiveID:           def.Row.ID,
				Status:                StatusPending,
				TargetProgress:        counters,
				CustomizationProgress: customCounters,
			}
			if i == 0 {
				child.Status = StatusActive
				start := now
				child.StartTime = &start
			}
			if err := tx.Create(&child).Error; err != nil {
				return fmt.Errorf("progress: create objective progress: %w", err)
			}
			header.Objectives = append(header.Objectives, child)
		}

		header.Status = StatusActive
		header.StartedOn = &now
		if err := tx.Model(&models.QuestProgress{}).Where("id = ?", header.ID).Updates(map[string]any{
			"status":     StatusActive,
			"started_on": now,
		}).Error; err != nil {
			return fmt.Errorf("progress: activate: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &header, nil
}

// Get retrieves a progress header with its objective rows.
func Get(db *gorm.DB, progressID uint) (*models.QuestProgress, error) {
	var header models.QuestProgress
	err := db.
		Preload("Objectives", func(tx *gorm.DB) *gorm.DB { return tx.Order("id ASC") }).
		First(&header, progressID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("quest_progress", progressID)
		}
		return nil, fmt.Errorf("progress: get %d: %w", progressID, err)
	}
	return &header, nil
}

// FetchActive returns the player's active quest progress, earliest
// acceptance first if the store ever holds more than one.
func FetchActive(db *gorm.DB, thornyID uint) (*models.QuestProgress, error) {
	var header models.QuestProgress
	err := db.
		Preload("Objectives", func(tx *gorm.DB) *gorm.DB { return tx.Order("id ASC") }).
		Where("thorny_id = ? AND status = ?", thornyID, StatusActive).
		Order("accepted_on ASC").
		First(&header).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("quest_progress", thornyID)
		}
		return nil, fmt.Errorf("progress: fetch active for player %d: %w", thornyID, err)
	}
	return &header, nil
}

// ListByPlayer returns all of a player's quest progress rows, newest first.
func ListByPlayer(db *gorm.DB, thornyID uint) ([]models.QuestProgress, error) {
	var rows []models.QuestProgress
	if err := db.Where("thorny_id = ?", thornyID).
		Order("accepted_on DESC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("progress: list for player %d: %w", thornyID, err)
	}
	return rows, nil
}

// failTx marks the header failed and cascades to every objective row that
// is still active. Pending and completed objectives are left unchanged.
func failTx(tx *gorm.DB, header *models.QuestProgress) error {
	now := time.Now().UTC()
	if err := tx.Model(&models.QuestProgress{}).Where("id = ?", header.ID).
		Update("status", StatusFailed).Error; err != nil {
		return fmt.Errorf("progress: fail header %d: %w", header.ID, err)
	}
	if err := tx.Model(&models.ObjectiveProgress{}).
		Where("progress_id = ? AND status = ?", header.ID, StatusActive).
		Updates(map[string]any{"status": StatusFailed, "end_time": now}).Error; err != nil {
		return fmt.Errorf("progress: fail objectives of %d: %w", header.ID, err)
	}
	header.Status = StatusFailed
	return nil
}

// MarkFailed fails a quest progress instance and cascades the failure to
// its in-flight objective.
func MarkFailed(db *gorm.DB, progressID uint) (*models.QuestProgress, error) {
	err := db.Transaction(func(tx *gorm.DB) error {
		var header models.QuestProgress
		if err := lockForUpdate(tx).First(&header, progressID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("quest_progress", progressID)
			}
			return fmt.Errorf("progress: get %d for fail: %w", progressID, err)
		}
		if header.Status == StatusCompleted || header.Status == StatusFailed {
			return apperr.Conflict("quest_progress", progressID, "already %s", header.Status)
		}
		return failTx(tx, &header)
	})
	if err != nil {
		return nil, err
	}
	return Get(db, progressID)
}

// UpdateProgress applies an administrative PATCH-merge to the header.
func UpdateProgress(db *gorm.DB, progressID uint, patch ProgressPatch) (*models.QuestProgress, error) {
	if patch.Status != nil {
		switch *patch.Status {
		case StatusPending, StatusActive, StatusCompleted, StatusFailed:
		default:
			return nil, apperr.Invalid("quest_progress", "unknown status %q", *patch.Status)
		}
	}

	var header models.QuestProgress
	if err := db.First(&header, progressID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("quest_progress", progressID)
		}
		return nil, fmt.Errorf("progress: get %d for update: %w", progressID, err)
	}

	updates := map[string]any{}
	if patch.Status != nil {
		updates["status"] = *patch.Status
	}
	if patch.StartedOn != nil {
		updates["started_on"] = *patch.StartedOn
	}
	if len(updates) == 0 {
		return Get(db, progressID)
	}
	if err := db.Model(&models.QuestProgress{}).Where("id = ?", progressID).
		Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("progress: update %d: %w", progressID, err)
	}
	return Get(db, progressID)
}

// completeObjectiveTx marks an objective completed, grants its rewards,
// and advances the quest: the next objective by order becomes active, or
// the quest completes when none remain.
func completeObjectiveTx(tx *gorm.DB, header *models.QuestProgress, obj *models.ObjectiveProgress) (questCompleted bool, granted []models.Reward, err error) {
	now := time.Now().UTC()
	if err := tx.Model(&models.ObjectiveProgress{}).Where("id = ?", obj.ID).
		Updates(map[string]any{"status": StatusCompleted, "end_time": now}).Error; err != nil {
		return false, nil, fmt.Errorf("progress: complete objective %d: %w", obj.ID, err)
	}
	obj.Status = StatusCompleted
	obj.EndTime = &now

	granted, err = grantRewardsTx(tx, header.ThornyID, obj.ObjectiveID)
	if err != nil {
		return false, nil, err
	}

	next, err := nextPendingObjectiveTx(tx, header.ID)
	if err != nil {
		return false, nil, err
	}
	if next == nil {
		if err := tx.Model(&models.QuestProgress{}).Where("id = ?", header.ID).
			Update("status", StatusCompleted).Error; err != nil {
			return false, nil, fmt.Errorf("progress: complete quest %d: %w", header.ID, err)
		}
		header.Status = StatusCompleted
		return true, granted, nil
	}

	if err := tx.Model(&models.ObjectiveProgress{}).Where("id = ?", next.ID).
		Updates(map[string]any{"status": StatusActive, "start_time": now}).Error; err != nil {
		return false, nil, fmt.Errorf("progress: activate objective %d: %w", next.ID, err)
	}
	return false, granted, nil
}

// nextPendingObjectiveTx finds the pending objective with the lowest
// definition order, or nil when the quest has no step left.
func nextPendingObjectiveTx(tx *gorm.DB, progressID uint) (*models.ObjectiveProgress, error) {
	var next models.ObjectiveProgress
	err := tx.
		Joins("JOIN objectives ON objectives.id = objective_progresses.objective_id").
		Where("objective_progresses.progress_id = ? AND objective_progresses.status = ?", progressID, StatusPending).
		Order("objectives.order_index ASC").
		First(&next).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("progress: next objective of %d: %w", progressID, err)
	}
	return &next, nil
}

// grantRewardsTx credits an objective's currency rewards to the player.
// Item rewards are delivered in-game; they are returned to the caller so
// the relay can announce them. Balance updates are atomic increments.
func grantRewardsTx(tx *gorm.DB, thornyID uint, objectiveID uint) ([]models.Reward, error) {
	var rewards []models.Reward
	if err := tx.Where("objective_id = ?", objectiveID).Find(&rewards).Error; err != nil {
		return nil, fmt.Errorf("progress: load rewards of objective %d: %w", objectiveID, err)
	}
	for _, r := range rewards {
		if r.Balance == nil {
			continue
		}
		if err := tx.Model(&models.User{}).Where("thorny_id = ?", thornyID).
			Update("balance", gorm.Expr("balance + ?", *r.Balance)).Error; err != nil {
			return nil, fmt.Errorf("progress: credit reward %d: %w", r.ID, err)
		}
	}
	return rewards, nil
}

package progress

import (
	"errors"
	"fmt"
	"time"

	"github.com/everthorn/thorny/internal/apperr"
	"github.com/everthorn/thorny/internal/models"
	"github.com/everthorn/thorny/internal/quest"
	"gorm.io/gorm"
)

// ObjectiveState is an objective progress row with its counters decoded.
type ObjectiveState struct {
	Row            models.ObjectiveProgress
	Targets        []quest.TargetProgress
	Customizations quest.CustomizationProgress
}

// ObjectivePatch holds optional fields for an administrative correction
// of an objective progress row. Nil fields are left unchanged.
type ObjectivePatch struct {
	Status         *string
	StartTime      *time.Time
	EndTime        *time.Time
	Targets        []quest.TargetProgress
	Customizations *quest.CustomizationProgress
}

// EventResult describes what an ingested event did to the player's
// active quest.
type EventResult struct {
	ProgressID         uint
	ObjectiveID        uint
	Applied            bool
	ObjectiveCompleted bool
	QuestCompleted     bool
	QuestFailed        bool
	GrantedRewards     []models.Reward
}

// decodeState turns an objective progress row into its decoded state.
func decodeState(row models.ObjectiveProgress) (*ObjectiveState, error) {
	targets, err := quest.DecodeTargetProgress(row.TargetProgress)
	if err != nil {
		return nil, fmt.Errorf("progress: objective progress %d: %w", row.ID, err)
	}
	custom, err := quest.DecodeCustomizationProgress(row.CustomizationProgress)
	if err != nil {
		return nil, fmt.Errorf("progress: objective progress %d: %w", row.ID, err)
	}
	return &ObjectiveState{Row: row, Targets: targets, Customizations: custom}, nil
}

// GetObjectiveProgress retrieves one objective's progress within a quest
// progress instance.
func GetObjectiveProgress(db *gorm.DB, progressID, objectiveID uint) (*ObjectiveState, error) {
	var row models.ObjectiveProgress
	err := db.Where("progress_id = ? AND objective_id = ?", progressID, objectiveID).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("objective_progress", objectiveID)
		}
		return nil, fmt.Errorf("progress: get objective progress %d/%d: %w", progressID, objectiveID, err)
	}
	return decodeState(row)
}

// activeObjectiveTx loads the active objective row of a progress instance
// under a row lock, together with its definition.
func activeObjectiveTx(tx *gorm.DB, progressID uint) (*ObjectiveState, *quest.ObjectiveDefinition, error) {
	var row models.ObjectiveProgress
	err := lockForUpdate(tx).
		Where("progress_id = ? AND status = ?", progressID, StatusActive).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, apperr.NotFound("objective_progress", progressID)
		}
		return nil, nil, fmt.Errorf("progress: active objective of %d: %w", progressID, err)
	}
	state, err := decodeState(row)
	if err != nil {
		return nil, nil, err
	}
	def, err := quest.GetObjective(tx, row.ObjectiveID)
	if err != nil {
		return nil, nil, err
	}
	return state, def, nil
}

// timerExpired reports whether a fail-enabled timer has run out for an
// objective that started at the given time.
func timerExpired(custom quest.Customizations, startTime *time.Time, now time.Time) bool {
	if custom.Timer == nil || !custom.Timer.Fail || startTime == nil {
		return false
	}
	deadline := startTime.Add(time.Duration(custom.Timer.Seconds) * time.Second)
	return !now.Before(deadline)
}

// ApplyEvent feeds one game-server event into the player's active quest.
// Timers are evaluated lazily here, before the event is counted: an
// expired fail-enabled timer fails the objective and cascades to the
// quest, and the event is discarded.
//
// A player without an active quest produces an empty result, not an error.
func ApplyEvent(db *gorm.DB, thornyID uint, evt Event) (*EventResult, error) {
	header, err := FetchActive(db, thornyID)
	if err != nil {
		if apperr.IsNotFound(err) {
			return &EventResult{}, nil
		}
		return nil, err
	}

	result := &EventResult{ProgressID: header.ID}
	err = db.Transaction(func(tx *gorm.DB) error {
		state, def, err := activeObjectiveTx(tx, header.ID)
		if err != nil {
			return err
		}
		result.ObjectiveID = state.Row.ObjectiveID

		now := time.Now().UTC()
		if timerExpired(def.Customizations, state.Row.StartTime, now) {
			result.QuestFailed = true
			return failTx(tx, header)
		}

		next, changed := applyEvent(*def, state.Targets, evt)
		if !changed {
			return nil
		}
		result.Applied = true

		blob, err := quest.EncodeTargetProgress(next)
		if err != nil {
			return err
		}
		if err := tx.Model(&models.ObjectiveProgress{}).Where("id = ?", state.Row.ID).
			Update("target_progress", blob).Error; err != nil {
			return fmt.Errorf("progress: store counters of %d: %w", state.Row.ID, err)
		}

		if !Satisfied(quest.Logic(def.Row.Logic), def.Row.TargetCount, def.Targets, next) {
			return nil
		}
		result.ObjectiveCompleted = true
		questDone, granted, err := completeObjectiveTx(tx, header, &state.Row)
		if err != nil {
			return err
		}
		result.QuestCompleted = questDone
		result.GrantedRewards = granted
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// RecordDeath counts a player death against the active objective's death
// cap. Exceeding a fail-enabled cap fails the objective and its quest.
// Players without an active quest, or with an objective that does not
// track deaths, produce an empty result.
func RecordDeath(db *gorm.DB, thornyID uint) (*EventResult, error) {
	header, err := FetchActive(db, thornyID)
	if err != nil {
		if apperr.IsNotFound(err) {
			return &EventResult{}, nil
		}
		return nil, err
	}

	result := &EventResult{ProgressID: header.ID}
	err = db.Transaction(func(tx *gorm.DB) error {
		state, def, err := activeObjectiveTx(tx, header.ID)
		if err != nil {
			return err
		}
		result.ObjectiveID = state.Row.ObjectiveID
		if def.Customizations.MaxDeaths == nil {
			return nil
		}

		deaths := 1
		if state.Customizations.MaxDeaths != nil {
			deaths = state.Customizations.MaxDeaths.Deaths + 1
		}
		blob, err := quest.EncodeCustomizationProgress(quest.CustomizationProgress{
			MaxDeaths: &quest.DeathProgress{Deaths: deaths},
		})
		if err != nil {
			return err
		}
		if err := tx.Model(&models.ObjectiveProgress{}).Where("id = ?", state.Row.ID).
			Update("customization_progress", blob).Error; err != nil {
			return fmt.Errorf("progress: store deaths of %d: %w", state.Row.ID, err)
		}
		result.Applied = true

		if def.Customizations.MaxDeaths.Fail && deaths > def.Customizations.MaxDeaths.Deaths {
			result.QuestFailed = true
			return failTx(tx, header)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// CheckTimeout applies the lazy timer check to a progress instance
// without feeding an event. Used by the sweeper.
func CheckTimeout(db *gorm.DB, progressID uint) (failed bool, err error) {
	err = db.Transaction(func(tx *gorm.DB) error {
		var header models.QuestProgress
		if err := lockForUpdate(tx).First(&header, progressID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("quest_progress", progressID)
			}
			return fmt.Errorf("progress: get %d for timeout check: %w", progressID, err)
		}
		if header.Status != StatusActive {
			return nil
		}
		state, def, err := activeObjectiveTx(tx, header.ID)
		if err != nil {
			return err
		}
		if !timerExpired(def.Customizations, state.Row.StartTime, time.Now().UTC()) {
			return nil
		}
		failed = true
		return failTx(tx, &header)
	})
	return failed, err
}

// mergeObjectiveState returns a copy of base with the patch's non-nil
// fields applied. The base value is never mutated.
func mergeObjectiveState(base ObjectiveState, patch ObjectivePatch) ObjectiveState {
	if patch.Status != nil {
		base.Row.Status = *patch.Status
	}
	if patch.StartTime != nil {
		v := *patch.StartTime
		base.Row.StartTime = &v
	}
	if patch.EndTime != nil {
		v := *patch.EndTime
		base.Row.EndTime = &v
	}
	if patch.Targets != nil {
		base.Targets = patch.Targets
	}
	if patch.Customizations != nil {
		base.Customizations = *patch.Customizations
	}
	return base
}

// UpdateObjectiveProgress applies an administrative PATCH-merge to an
// objective progress row. It does not evaluate the completion policy or
// cascade to sibling objectives; that is the engine's job.
func UpdateObjectiveProgress(db *gorm.DB, progressID, objectiveID uint, patch ObjectivePatch) (*ObjectiveState, error) {
	if patch.Status != nil {
		switch *patch.Status {
		case StatusPending, StatusActive, StatusCompleted, StatusFailed:
		default:
			return nil, apperr.Invalid("objective_progress", "unknown status %q", *patch.Status)
		}
	}

	current, err := GetObjectiveProgress(db, progressID, objectiveID)
	if err != nil {
		return nil, err
	}

	merged := mergeObjectiveState(*current, patch)
	targetsBlob, err := quest.EncodeTargetProgress(merged.Targets)
	if err != nil {
		return nil, err
	}
	customBlob, err := quest.EncodeCustomizationProgress(merged.Customizations)
	if err != nil {
		return nil, err
	}
	merged.Row.TargetProgress = targetsBlob
	merged.Row.CustomizationProgress = customBlob

	if err := db.Model(&models.ObjectiveProgress{}).Where("id = ?", merged.Row.ID).Updates(map[string]any{
		"status":                 merged.Row.Status,
		"start_time":             merged.Row.StartTime,
		"end_time":               merged.Row.EndTime,
		"target_progress":        merged.Row.TargetProgress,
		"customization_progress": merged.Row.CustomizationProgress,
	}).Error; err != nil {
		return nil, fmt.Errorf("progress: update objective progress %d: %w", merged.Row.ID, err)
	}
	return &merged, nil
}

// ListExpirable returns the ids of active progress instances whose active
// objective carries a fail-enabled timer. The sweeper narrows its
// CheckTimeout calls to these.
func ListExpirable(db *gorm.DB) ([]uint, error) {
	var rows []models.ObjectiveProgress
	err := db.
		Joins("JOIN quest_progresses ON quest_progresses.id = objective_progresses.progress_id").
		Where("objective_progresses.status = ? AND quest_progresses.status = ?", StatusActive, StatusActive).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("progress: list expirable: %w", err)
	}

	ids := make([]uint, 0, len(rows))
	for _, row := range rows {
		def, err := quest.GetObjective(db, row.ObjectiveID)
		if err != nil {
			if apperr.IsNotFound(err) {
				continue
			}
			return nil, err
		}
		if def.Customizations.Timer != nil && def.Customizations.Timer.Fail {
			ids = append(ids, row.ProgressID)
		}
	}
	return ids, nil
}

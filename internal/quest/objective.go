package quest

import (
	"errors"
	"fmt"

	"github.com/everthorn/thorny/internal/apperr"
	"github.com/everthorn/thorny/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ObjectiveDefinition is an objective row with its targets and
// customizations decoded from their blob columns.
type ObjectiveDefinition struct {
	Row            models.Objective
	Targets        []Target
	Customizations Customizations
}

// CreateObjectiveOpts holds parameters for attaching an objective to a quest.
type CreateObjectiveOpts struct {
	OrderIndex     int
	Type           TargetType
	Logic          Logic
	TargetCount    *int // total goal under "or" logic; nil = per-target goals
	Targets        []Target
	Customizations Customizations
	Rewards        []CreateRewardOpts
}

// ObjectivePatch holds optional fields for an objective edit. Nil fields
// are left unchanged; a nil Targets slice leaves targets untouched.
type ObjectivePatch struct {
	OrderIndex     *int
	Type           *TargetType
	Logic          *Logic
	TargetCount    *int
	Targets        []Target
	Customizations *Customizations
}

// validateObjective checks the cross-field invariants of an objective
// definition: non-empty targets, per-target validity, and target types
// matching the objective type.
func validateObjective(typ TargetType, logic Logic, targetCount *int, targets []Target, custom Customizations) error {
	switch typ {
	case TargetKill, TargetMine, TargetEncounter:
	default:
		return apperr.Invalid("objective", "unknown objective_type %q", typ)
	}
	switch logic {
	case LogicAnd, LogicOr, LogicSequential:
	default:
		return apperr.Invalid("objective", "unknown logic %q", logic)
	}
	if len(targets) == 0 {
		return apperr.Invalid("objective", "targets must not be empty")
	}
	for _, t := range targets {
		if err := t.Validate(); err != nil {
			return err
		}
		if t.Type != typ {
			return apperr.Invalid("objective", "target type %q does not match objective type %q", t.Type, typ)
		}
	}
	if targetCount != nil && *targetCount < 1 {
		return apperr.Invalid("objective", "target_count must be >= 1, got %d", *targetCount)
	}
	return custom.Validate()
}

// CreateObjective validates and persists an objective and its rewards in
// one transaction: both become visible together or not at all.
func CreateObjective(db *gorm.DB, questID uint, opts CreateObjectiveOpts) (*ObjectiveDefinition, error) {
	targets := make([]Target, len(opts.Targets))
	copy(targets, opts.Targets)
	for i := range targets {
		if targets[i].UUID == uuid.Nil {
			targets[i].UUID = uuid.New()
		}
	}
	if err := validateObjective(opts.Type, opts.Logic, opts.TargetCount, targets, opts.Customizations); err != nil {
		return nil, err
	}
	for _, r := range opts.Rewards {
		if err := validateReward(r); err != nil {
			return nil, err
		}
	}

	var count int64
	if err := db.Model(&models.Quest{}).Where("id = ?", questID).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("quest: check quest %d: %w", questID, err)
	}
	if count == 0 {
		return nil, apperr.NotFound("quest", questID)
	}

	targetsBlob, err := EncodeTargets(targets)
	if err != nil {
		return nil, err
	}
	customBlob, err := EncodeCustomizations(opts.Customizations)
	if err != nil {
		return nil, err
	}

	obj := models.Objective{
		QuestID:        questID,
		OrderIndex:     opts.OrderIndex,
		Type:           string(opts.Type),
		Logic:          string(opts.Logic),
		TargetCount:    opts.TargetCount,
		Targets:        targetsBlob,
		Customizations: customBlob,
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&obj).Error; err != nil {
			return fmt.Errorf("quest: create objective: %w", err)
		}
		for _, r := range opts.Rewards {
			reward := models.Reward{
				ObjectiveID: obj.ID,
				Balance:     r.Balance,
				Item:        r.Item,
				Count:       r.Count,
				DisplayName: r.DisplayName,
			}
			if reward.Count == 0 {
				reward.Count = 1
			}
			if err := tx.Create(&reward).Error; err != nil {
				return fmt.Errorf("quest: create reward: %w", err)
			}
			obj.Rewards = append(obj.Rewards, reward)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &ObjectiveDefinition{Row: obj, Targets: targets, Customizations: opts.Customizations}, nil
}

// decodeObjective turns an objective row into its decoded definition.
func decodeObjective(row models.Objective) (*ObjectiveDefinition, error) {
	targets, err := DecodeTargets(row.Targets)
	if err != nil {
		return nil, fmt.Errorf("quest: objective %d: %w", row.ID, err)
	}
	custom, err := DecodeCustomizations(row.Customizations)
	if err != nil {
		return nil, fmt.Errorf("quest: objective %d: %w", row.ID, err)
	}
	return &ObjectiveDefinition{Row: row, Targets: targets, Customizations: custom}, nil
}

// GetObjective retrieves an objective with rewards joined in.
func GetObjective(db *gorm.DB, id uint) (*ObjectiveDefinition, error) {
	var row models.Objective
	if err := db.Preload("Rewards").First(&row, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("objective", id)
		}
		return nil, fmt.Errorf("quest: get objective %d: %w", id, err)
	}
	return decodeObjective(row)
}

// ListObjectivesByQuest returns a quest's objectives ordered by order_index.
func ListObjectivesByQuest(db *gorm.DB, questID uint) ([]ObjectiveDefinition, error) {
	var rows []models.Objective
	if err := db.Preload("Rewards").Where("quest_id = ?", questID).
		Order("order_index ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("quest: list objectives of quest %d: %w", questID, err)
	}
	defs := make([]ObjectiveDefinition, 0, len(rows))
	for _, row := range rows {
		def, err := decodeObjective(row)
		if err != nil {
			return nil, err
		}
		defs = append(defs, *def)
	}
	return defs, nil
}

// mergeObjective returns a copy of base with the patch's non-nil fields
// applied. The base value is never mutated.
func mergeObjective(base ObjectiveDefinition, patch ObjectivePatch) ObjectiveDefinition {
	if patch.OrderIndex != nil {
		base.Row.OrderIndex = *patch.OrderIndex
	}
	if patch.Type != nil {
		base.Row.Type = string(*patch.Type)
	}
	if patch.Logic != nil {
		base.Row.Logic = string(*patch.Logic)
	}
	if patch.TargetCount != nil {
		v := *patch.TargetCount
		base.Row.TargetCount = &v
	}
	if patch.Targets != nil {
		base.Targets = patch.Targets
	}
	if patch.Customizations != nil {
		base.Customizations = *patch.Customizations
	}
	return base
}

// UpdateObjective applies a PATCH-merge edit. The merged definition is
// re-validated as a whole before anything is written, so a type change
// without matching targets is rejected.
func UpdateObjective(db *gorm.DB, id uint, patch ObjectivePatch) (*ObjectiveDefinition, error) {
	current, err := GetObjective(db, id)
	if err != nil {
		return nil, err
	}

	merged := mergeObjective(*current, patch)
	for i := range merged.Targets {
		if merged.Targets[i].UUID == uuid.Nil {
			merged.Targets[i].UUID = uuid.New()
		}
	}
	if err := validateObjective(TargetType(merged.Row.Type), Logic(merged.Row.Logic),
		merged.Row.TargetCount, merged.Targets, merged.Customizations); err != nil {
		return nil, err
	}

	targetsBlob, err := EncodeTargets(merged.Targets)
	if err != nil {
		return nil, err
	}
	customBlob, err := EncodeCustomizations(merged.Customizations)
	if err != nil {
		return nil, err
	}
	merged.Row.Targets = targetsBlob
	merged.Row.Customizations = customBlob

	if err := db.Model(&models.Objective{}).Where("id = ?", id).Updates(map[string]any{
		"order_index":    merged.Row.OrderIndex,
		"type":           merged.Row.Type,
		"logic":          merged.Row.Logic,
		"target_count":   merged.Row.TargetCount,
		"targets":        merged.Row.Targets,
		"customizations": merged.Row.Customizations,
	}).Error; err != nil {
		return nil, fmt.Errorf("quest: update objective %d: %w", id, err)
	}
	return &merged, nil
}

package quest

import (
	"errors"
	"fmt"

	"github.com/everthorn/thorny/internal/apperr"
	"github.com/everthorn/thorny/internal/models"
	"gorm.io/gorm"
)

// CreateRewardOpts holds parameters for attaching a reward to an objective.
// A reward may be currency-only, item-only, or both.
type CreateRewardOpts struct {
	Balance     *int
	Item        *string
	Count       int
	DisplayName *string
}

// RewardPatch holds optional fields for a reward edit. Nil fields are
// left unchanged.
type RewardPatch struct {
	Balance     *int
	Item        *string
	Count       *int
	DisplayName *string
}

// validateReward checks that a reward grants something and that any item
// reference is well-formed.
func validateReward(opts CreateRewardOpts) error {
	if opts.Balance == nil && opts.Item == nil {
		return apperr.Invalid("reward", "at least one of balance or item is required")
	}
	if opts.Balance != nil && *opts.Balance < 1 {
		return apperr.Invalid("reward", "balance must be >= 1, got %d", *opts.Balance)
	}
	if opts.Item != nil {
		if !namespacedID.MatchString(*opts.Item) {
			return apperr.Invalid("reward", "item %q is not a namespaced id", *opts.Item)
		}
		if opts.Count < 0 {
			return apperr.Invalid("reward", "count must be non-negative, got %d", opts.Count)
		}
	}
	return nil
}

// CreateReward attaches a reward to an existing objective.
func CreateReward(db *gorm.DB, objectiveID uint, opts CreateRewardOpts) (*models.Reward, error) {
	if err := validateReward(opts); err != nil {
		return nil, err
	}

	var count int64
	if err := db.Model(&models.Objective{}).Where("id = ?", objectiveID).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("quest: check objective %d: %w", objectiveID, err)
	}
	if count == 0 {
		return nil, apperr.NotFound("objective", objectiveID)
	}

	reward := models.Reward{
		ObjectiveID: objectiveID,
		Balance:     opts.Balance,
		Item:        opts.Item,
		Count:       opts.Count,
		DisplayName: opts.DisplayName,
	}
	if reward.Count == 0 {
		reward.Count = 1
	}
	if err := db.Create(&reward).Error; err != nil {
		return nil, fmt.Errorf("quest: create reward: %w", err)
	}
	return &reward, nil
}

// GetReward retrieves a reward by ID.
func GetReward(db *gorm.DB, id uint) (*models.Reward, error) {
	var reward models.Reward
	if err := db.First(&reward, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("reward", id)
		}
		return nil, fmt.Errorf("quest: get reward %d: %w", id, err)
	}
	return &reward, nil
}

// mergeReward returns a copy of base with the patch's non-nil fields
// applied. The base value is never mutated.
func mergeReward(base models.Reward, patch RewardPatch) models.Reward {
	if patch.Balance != nil {
		v := *patch.Balance
		base.Balance = &v
	}
	if patch.Item != nil {
		v := *patch.Item
		base.Item = &v
	}
	if patch.Count != nil {
		base.Count = *patch.Count
	}
	if patch.DisplayName != nil {
		v := *patch.DisplayName
		base.DisplayName = &v
	}
	return base
}

// UpdateReward applies a PATCH-merge edit to a reward.
func UpdateReward(db *gorm.DB, id uint, patch RewardPatch) (*models.Reward, error) {
	current, err := GetReward(db, id)
	if err != nil {
		return nil, err
	}

	merged := mergeReward(*current, patch)
	if err := validateReward(CreateRewardOpts{
		Balance: merged.Balance,
		Item:    merged.Item,
		Count:   merged.Count,
	}); err != nil {
		return nil, err
	}

	if err := db.Model(&models.Reward{}).Where("id = ?", id).Updates(map[string]any{
		"balance":      merged.Balance,
		"item":         merged.Item,
		"count":        merged.Count,
		"display_name": merged.DisplayName,
	}).Error; err != nil {
		return nil, fmt.Errorf("quest: update reward %d: %w", id, err)
	}
	return &merged, nil
}

// ListRewardsByObjective returns an objective's rewards in creation order.
func ListRewardsByObjective(db *gorm.DB, objectiveID uint) ([]models.Reward, error) {
	var rewards []models.Reward
	if err := db.Where("objective_id = ?", objectiveID).Order("id ASC").Find(&rewards).Error; err != nil {
		return nil, fmt.Errorf("quest: list rewards of objective %d: %w", objectiveID, err)
	}
	return rewards, nil
}

// Package users provides user profile operations.
package users

import (
	"errors"
	"fmt"
	"time"

	"github.com/everthorn/thorny/internal/apperr"
	"github.com/everthorn/thorny/internal/models"
	"gorm.io/gorm"
)

// CreateOpts holds parameters for registering a new user.
type CreateOpts struct {
	UserID   string // chat-platform account id
	GuildID  string
	Username string
}

// Patch holds optional fields for a profile edit. Nil fields are left
// unchanged.
type Patch struct {
	Username  *string
	Whitelist *string
	Role      *string
	Patron    *bool
	Active    *bool
	Level     *int
	XP        *int
}

// Create registers a user. The (user_id, guild_id) pair must be unique.
func Create(db *gorm.DB, opts CreateOpts) (*models.User, error) {
	if opts.UserID == "" || opts.GuildID == "" {
		return nil, apperr.Invalid("user", "user_id and guild_id are required")
	}

	var count int64
	if err := db.Model(&models.User{}).
		Where("user_id = ? AND guild_id = ?", opts.UserID, opts.GuildID).
		Count(&count).Error; err != nil {
		return nil, fmt.Errorf("users: check existing: %w", err)
	}
	if count > 0 {
		return nil, apperr.Conflict("user", opts.UserID, "already registered in guild %s", opts.GuildID)
	}

	user := models.User{
		UserID:   opts.UserID,
		GuildID:  opts.GuildID,
		Username: opts.Username,
		Level:    1,
		Active:   true,
		JoinedAt: time.Now().UTC(),
	}
	if err := db.Create(&user).Error; err != nil {
		return nil, fmt.Errorf("users: create: %w", err)
	}
	return &user, nil
}

// Get retrieves a user by ThornyID.
func Get(db *gorm.DB, thornyID uint) (*models.User, error) {
	var user models.User
	if err := db.First(&user, thornyID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("user", thornyID)
		}
		return nil, fmt.Errorf("users: get %d: %w", thornyID, err)
	}
	return &user, nil
}

// Lookup finds a user by chat-platform account and guild.
func Lookup(db *gorm.DB, userID, guildID string) (*models.User, error) {
	if userID == "" && guildID == "" {
		return nil, apperr.Invalid("user", "user_id or guild_id is required")
	}
	var user models.User
	err := db.Where("user_id = ? AND guild_id = ?", userID, guildID).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("user", userID)
		}
		return nil, fmt.Errorf("users: lookup %s/%s: %w", userID, guildID, err)
	}
	return &user, nil
}

// merge returns a copy of base with the patch's non-nil fields applied.
func merge(base models.User, patch Patch) models.User {
	if patch.Username != nil {
		base.Username = *patch.Username
	}
	if patch.Whitelist != nil {
		base.Whitelist = *patch.Whitelist
	}
	if patch.Role != nil {
		base.Role = *patch.Role
	}
	if patch.Patron != nil {
		base.Patron = *patch.Patron
	}
	if patch.Active != nil {
		base.Active = *patch.Active
	}
	if patch.Level != nil {
		base.Level = *patch.Level
	}
	if patch.XP != nil {
		base.XP = *patch.XP
	}
	return base
}

// Update applies a PATCH-merge profile edit.
func Update(db *gorm.DB, thornyID uint, patch Patch) (*models.User, error) {
	current, err := Get(db, thornyID)
	if err != nil {
		return nil, err
	}

	merged := merge(*current, patch)
	if merged.Level < 1 {
		return nil, apperr.Invalid("user", "level must be >= 1, got %d", merged.Level)
	}
	if err := db.Model(&models.User{}).Where("thorny_id = ?", thornyID).Updates(map[string]any{
		"username":  merged.Username,
		"whitelist": merged.Whitelist,
		"role":      merged.Role,
		"patron":    merged.Patron,
		"active":    merged.Active,
		"level":     merged.Level,
		"xp":        merged.XP,
	}).Error; err != nil {
		return nil, fmt.Errorf("users: update %d: %w", thornyID, err)
	}
	return &merged, nil
}

// AdjustBalance applies a signed delta to a user's balance as an atomic
// increment, never a read-modify-write.
func AdjustBalance(db *gorm.DB, thornyID uint, delta int) (*models.User, error) {
	res := db.Model(&models.User{}).Where("thorny_id = ?", thornyID).
		Update("balance", gorm.Expr("balance + ?", delta))
	if res.Error != nil {
		return nil, fmt.Errorf("users: adjust balance of %d: %w", thornyID, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, apperr.NotFound("user", thornyID)
	}
	return Get(db, thornyID)
}

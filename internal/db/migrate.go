package db

import (
	"fmt"

	"github.com/everthorn/thorny/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AllModels returns the list of all GORM models for migration.
func AllModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Guild{},
		&models.Project{},
		&models.ProjectMember{},
		&models.Interaction{},
		&models.Connection{},
		&models.PlaytimeSession{},
		&models.Quest{},
		&models.Objective{},
		&models.Reward{},
		&models.QuestProgress{},
		&models.ObjectiveProgress{},
	}
}

// AutoMigrate creates or updates all tables.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(AllModels()...); err != nil {
		return fmt.Errorf("db: auto-migrate: %w", err)
	}
	return nil
}

// SeedGuild upserts the guild configuration row.
func SeedGuild(db *gorm.DB, guild models.Guild) error {
	result := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "currency_name", "currency_symbol", "levels_enabled", "quests_enabled"}),
	}).Create(&guild)
	if result.Error != nil {
		return fmt.Errorf("db: seed guild %q: %w", guild.ID, result.Error)
	}
	return nil
}

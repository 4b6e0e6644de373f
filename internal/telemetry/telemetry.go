// Package telemetry ingests game-server events: interactions, connection
// pairs, and the playtime sessions derived from them. Interaction
// ingestion forwards kill/mine/encounter events to the progress engine
// for the player's active quest.
package telemetry

import (
	"errors"
	"fmt"
	"time"

	"github.com/everthorn/thorny/internal/apperr"
	"github.com/everthorn/thorny/internal/models"
	"github.com/everthorn/thorny/internal/progress"
	"github.com/everthorn/thorny/internal/quest"
	"gorm.io/gorm"
)

// Interaction types recorded by the game server.
const (
	InteractionKill   = "kill"
	InteractionMine   = "mine"
	InteractionPlace  = "place"
	InteractionUse    = "use"
	InteractionDie    = "die"
	InteractionScript = "script"
)

// InteractionOpts holds one game-server interaction event.
type InteractionOpts struct {
	ThornyID  uint
	Type      string
	Reference string
	Mainhand  string
	Dimension string
	CoordX    int
	CoordY    int
	CoordZ    int
}

// questEventType maps an interaction type onto the quest target kind it
// can advance. Place/use interactions are recorded but never drive quests.
func questEventType(interaction string) (quest.TargetType, bool) {
	switch interaction {
	case InteractionKill:
		return quest.TargetKill, true
	case InteractionMine:
		return quest.TargetMine, true
	case InteractionScript:
		return quest.TargetEncounter, true
	}
	return "", false
}

// RecordInteraction stores the event and feeds it to the progress engine.
// The returned EventResult is nil for interaction types that cannot drive
// quest progress.
func RecordInteraction(db *gorm.DB, opts InteractionOpts) (*models.Interaction, *progress.EventResult, error) {
	switch opts.Type {
	case InteractionKill, InteractionMine, InteractionPlace, InteractionUse, InteractionDie, InteractionScript:
	default:
		return nil, nil, apperr.Invalid("interaction", "unknown type %q", opts.Type)
	}
	if opts.Reference == "" {
		return nil, nil, apperr.Invalid("interaction", "reference is required")
	}

	row := models.Interaction{
		ThornyID:  opts.ThornyID,
		Type:      opts.Type,
		Reference: opts.Reference,
		Mainhand:  opts.Mainhand,
		Dimension: opts.Dimension,
		CoordX:    opts.CoordX,
		CoordY:    opts.CoordY,
		CoordZ:    opts.CoordZ,
	}
	if err := db.Create(&row).Error; err != nil {
		return nil, nil, fmt.Errorf("telemetry: record interaction: %w", err)
	}

	if opts.Type == InteractionDie {
		result, err := progress.RecordDeath(db, opts.ThornyID)
		if err != nil {
			return nil, nil, err
		}
		return &row, result, nil
	}

	evtType, ok := questEventType(opts.Type)
	if !ok {
		return &row, nil, nil
	}
	result, err := progress.ApplyEvent(db, opts.ThornyID, progress.Event{
		Type:      evtType,
		Reference: opts.Reference,
		Amount:    1,
		Mainhand:  opts.Mainhand,
		X:         opts.CoordX,
		Y:         opts.CoordY,
		Z:         opts.CoordZ,
		HasCoords: true,
	})
	if err != nil {
		return nil, nil, err
	}
	return &row, result, nil
}

// RecordConnection stores a connect or disconnect event and maintains the
// player's playtime sessions: connect opens a session, disconnect closes
// the open one and fixes its length.
func RecordConnection(db *gorm.DB, thornyID uint, connType string) (*models.Connection, error) {
	if connType != "connect" && connType != "disconnect" {
		return nil, apperr.Invalid("connection", "unknown type %q", connType)
	}

	now := time.Now().UTC()
	conn := models.Connection{ThornyID: thornyID, Type: connType, CreatedAt: now}

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&conn).Error; err != nil {
			return fmt.Errorf("telemetry: record connection: %w", err)
		}

		var open models.PlaytimeSession
		err := tx.Where("thorny_id = ? AND disconnected_at IS NULL", thornyID).
			Order("connected_at DESC").First(&open).Error
		hasOpen := err == nil
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("telemetry: find open session: %w", err)
		}

		switch connType {
		case "connect":
			if hasOpen {
				// Lost disconnect; close the stale session at its start.
				if err := tx.Model(&models.PlaytimeSession{}).Where("id = ?", open.ID).
					Updates(map[string]any{"disconnected_at": open.ConnectedAt, "seconds": 0}).Error; err != nil {
					return fmt.Errorf("telemetry: close stale session: %w", err)
				}
			}
			session := models.PlaytimeSession{ThornyID: thornyID, ConnectedAt: now}
			if err := tx.Create(&session).Error; err != nil {
				return fmt.Errorf("telemetry: open session: %w", err)
			}
		case "disconnect":
			if !hasOpen {
				return nil
			}
			seconds := int(now.Sub(open.ConnectedAt).Seconds())
			if err := tx.Model(&models.PlaytimeSession{}).Where("id = ?", open.ID).
				Updates(map[string]any{"disconnected_at": now, "seconds": seconds}).Error; err != nil {
				return fmt.Errorf("telemetry: close session: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &conn, nil
}

// Playtime returns a player's total recorded playtime in seconds.
func Playtime(db *gorm.DB, thornyID uint) (int, error) {
	var total *int
	err := db.Model(&models.PlaytimeSession{}).
		Where("thorny_id = ?", thornyID).
		Select("SUM(seconds)").Scan(&total).Error
	if err != nil {
		return 0, fmt.Errorf("telemetry: playtime of %d: %w", thornyID, err)
	}
	if total == nil {
		return 0, nil
	}
	return *total, nil
}

// Sessions returns a player's playtime sessions, newest first.
func Sessions(db *gorm.DB, thornyID uint, limit int) ([]models.PlaytimeSession, error) {
	if limit <= 0 {
		limit = 50
	}
	var sessions []models.PlaytimeSession
	if err := db.Where("thorny_id = ?", thornyID).
		Order("connected_at DESC").Limit(limit).Find(&sessions).Error; err != nil {
		return nil, fmt.Errorf("telemetry: sessions of %d: %w", thornyID, err)
	}
	return sessions, nil
}

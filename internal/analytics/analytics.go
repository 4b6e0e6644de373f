// Package analytics provides read-only reporting views: leaderboards and
// per-player "wrapped" year-in-review reports. Nothing here mutates
// progress or telemetry rows.
package analytics

import (
	"fmt"
	"time"

	"github.com/everthorn/thorny/internal/apperr"
	"github.com/everthorn/thorny/internal/models"
	"gorm.io/gorm"
)

// LeaderboardRow is one entry of a ranked listing.
type LeaderboardRow struct {
	ThornyID uint
	Username string
	Value    int
}

// PlaytimeLeaderboard ranks players by total recorded playtime seconds.
func PlaytimeLeaderboard(db *gorm.DB, limit int) ([]LeaderboardRow, error) {
	if limit <= 0 {
		limit = 10
	}
	var rows []LeaderboardRow
	err := db.Model(&models.PlaytimeSession{}).
		Select("playtime_sessions.thorny_id, users.username, SUM(playtime_sessions.seconds) as value").
		Joins("JOIN users ON users.thorny_id = playtime_sessions.thorny_id").
		Group("playtime_sessions.thorny_id, users.username").
		Order("value DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("analytics: playtime leaderboard: %w", err)
	}
	return rows, nil
}

// QuestLeaderboard ranks players by completed quests.
func QuestLeaderboard(db *gorm.DB, limit int) ([]LeaderboardRow, error) {
	if limit <= 0 {
		limit = 10
	}
	var rows []LeaderboardRow
	err := db.Model(&models.QuestProgress{}).
		Select("quest_progresses.thorny_id, users.username, COUNT(*) as value").
		Joins("JOIN users ON users.thorny_id = quest_progresses.thorny_id").
		Where("quest_progresses.status = ?", "completed").
		Group("quest_progresses.thorny_id, users.username").
		Order("value DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("analytics: quest leaderboard: %w", err)
	}
	return rows, nil
}

// TopInteraction is one entry of a player's most-touched references.
type TopInteraction struct {
	Type      string
	Reference string
	Count     int
}

// Wrapped is a player's year-in-review report.
type Wrapped struct {
	ThornyID        uint
	Username        string
	Year            int
	PlaytimeSeconds int
	SessionCount    int
	QuestsCompleted int
	QuestsFailed    int
	TopInteractions []TopInteraction
}

// BuildWrapped assembles the year-in-review report for one player.
func BuildWrapped(db *gorm.DB, thornyID uint, year int) (*Wrapped, error) {
	var user models.User
	if err := db.First(&user, thornyID).Error; err != nil {
		return nil, apperr.NotFound("user", thornyID)
	}

	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(1, 0, 0)
	w := &Wrapped{ThornyID: thornyID, Username: user.Username, Year: year}

	type sessionAgg struct {
		Total *int
		Count int
	}
	var sessions sessionAgg
	err := db.Model(&models.PlaytimeSession{}).
		Select("SUM(seconds) as total, COUNT(*) as count").
		Where("thorny_id = ? AND connected_at >= ? AND connected_at < ?", thornyID, from, to).
		Scan(&sessions).Error
	if err != nil {
		return nil, fmt.Errorf("analytics: wrapped sessions of %d: %w", thornyID, err)
	}
	if sessions.Total != nil {
		w.PlaytimeSeconds = *sessions.Total
	}
	w.SessionCount = sessions.Count

	type statusCount struct {
		Status string
		Count  int
	}
	var statuses []statusCount
	err = db.Model(&models.QuestProgress{}).
		Select("status, COUNT(*) as count").
		Where("thorny_id = ? AND accepted_on >= ? AND accepted_on < ?", thornyID, from, to).
		Group("status").
		Find(&statuses).Error
	if err != nil {
		return nil, fmt.Errorf("analytics: wrapped quests of %d: %w", thornyID, err)
	}
	for _, s := range statuses {
		switch s.Status {
		case "completed":
			w.QuestsCompleted = s.Count
		case "failed":
			w.QuestsFailed = s.Count
		}
	}

	err = db.Model(&models.Interaction{}).
		Select("type, reference, COUNT(*) as count").
		Where("thorny_id = ? AND created_at >= ? AND created_at < ?", thornyID, from, to).
		Group("type, reference").
		Order("count DESC").
		Limit(5).
		Find(&w.TopInteractions).Error
	if err != nil {
		return nil, fmt.Errorf("analytics: wrapped interactions of %d: %w", thornyID, err)
	}

	return w, nil
}

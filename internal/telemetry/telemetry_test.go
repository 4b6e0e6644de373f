package telemetry

import (
	"testing"
	"time"

	"github.com/everthorn/thorny/internal/apperr"
	"github.com/everthorn/thorny/internal/models"
	"github.com/everthorn/thorny/internal/progress"
	"github.com/everthorn/thorny/internal/quest"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// testDB creates an in-memory SQLite database with all required tables.
func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := db.AutoMigrate(
		&models.User{},
		&models.Quest{},
		&models.Objective{},
		&models.Reward{},
		&models.QuestProgress{},
		&models.ObjectiveProgress{},
		&models.Interaction{},
		&models.Connection{},
		&models.PlaytimeSession{},
	); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

func testUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	u := models.User{UserID: "discord-1", GuildID: "guild-1", Username: "steve"}
	if err := db.Create(&u).Error; err != nil {
		t.Fatalf("create test user: %v", err)
	}
	return &u
}

// acceptKillQuest puts the player on a quest needing one zombie kill.
func acceptKillQuest(t *testing.T, db *gorm.DB, thornyID uint) {
	t.Helper()
	now := time.Now().UTC()
	q, err := quest.CreateQuest(db, quest.CreateQuestOpts{
		StartTime: now.Add(-time.Hour),
		EndTime:   now.Add(time.Hour),
		Title:     "Zombie Hunt",
	})
	if err != nil {
		t.Fatalf("create quest: %v", err)
	}
	_, err = quest.CreateObjective(db, q.ID, quest.CreateObjectiveOpts{
		Type:  quest.TargetKill,
		Logic: quest.LogicAnd,
		Targets: []quest.Target{
			{UUID: uuid.New(), Type: quest.TargetKill, Count: 1, Entity: "minecraft:zombie"},
		},
	})
	if err != nil {
		t.Fatalf("create objective: %v", err)
	}
	if _, err := progress.Accept(db, thornyID, q.ID); err != nil {
		t.Fatalf("accept quest: %v", err)
	}
}

func TestRecordInteraction_Validation(t *testing.T) {
	db := testDB(t)
	u := testUser(t, db)

	if _, _, err := RecordInteraction(db, InteractionOpts{ThornyID: u.ThornyID, Type: "dance", Reference: "x:y"}); !apperr.IsValidation(err) {
		t.Errorf("RecordInteraction(bad type) = %v, want ValidationError", err)
	}
	if _, _, err := RecordInteraction(db, InteractionOpts{ThornyID: u.ThornyID, Type: InteractionKill}); !apperr.IsValidation(err) {
		t.Errorf("RecordInteraction(no reference) = %v, want ValidationError", err)
	}
}

func TestRecordInteraction_DrivesQuestProgress(t *testing.T) {
	db := testDB(t)
	u := testUser(t, db)
	acceptKillQuest(t, db, u.ThornyID)

	row, result, err := RecordInteraction(db, InteractionOpts{
		ThornyID:  u.ThornyID,
		Type:      InteractionKill,
		Reference: "minecraft:zombie",
	})
	if err != nil {
		t.Fatalf("RecordInteraction() = %v", err)
	}
	if row.ID == 0 {
		t.Error("interaction row not stored")
	}
	if result == nil || !result.Applied || !result.QuestCompleted {
		t.Errorf("result = %+v, want applied and quest completed", result)
	}
}

func TestRecordInteraction_PlaceNeverDrivesQuests(t *testing.T) {
	db := testDB(t)
	u := testUser(t, db)
	acceptKillQuest(t, db, u.ThornyID)

	row, result, err := RecordInteraction(db, InteractionOpts{
		ThornyID:  u.ThornyID,
		Type:      InteractionPlace,
		Reference: "minecraft:zombie",
	})
	if err != nil {
		t.Fatalf("RecordInteraction() = %v", err)
	}
	if row.ID == 0 {
		t.Error("interaction row not stored")
	}
	if result != nil {
		t.Errorf("place event produced a quest result: %+v", result)
	}
}

func TestRecordInteraction_DieRoutesToDeathTracking(t *testing.T) {
	db := testDB(t)
	u := testUser(t, db)

	// No active quest: the death is recorded but changes nothing.
	_, result, err := RecordInteraction(db, InteractionOpts{
		ThornyID:  u.ThornyID,
		Type:      InteractionDie,
		Reference: "minecraft:lava",
	})
	if err != nil {
		t.Fatalf("RecordInteraction(die) = %v", err)
	}
	if result == nil || result.Applied {
		t.Errorf("result = %+v, want empty non-nil", result)
	}
}

func TestRecordConnection_PairsSessions(t *testing.T) {
	db := testDB(t)
	u := testUser(t, db)

	if _, err := RecordConnection(db, u.ThornyID, "connect"); err != nil {
		t.Fatalf("RecordConnection(connect) = %v", err)
	}

	var open models.PlaytimeSession
	if err := db.Where("thorny_id = ? AND disconnected_at IS NULL", u.ThornyID).First(&open).Error; err != nil {
		t.Fatalf("no open session after connect: %v", err)
	}

	// Backdate the session start so the computed length is non-zero.
	past := time.Now().UTC().Add(-90 * time.Second)
	if err := db.Model(&models.PlaytimeSession{}).Where("id = ?", open.ID).
		Update("connected_at", past).Error; err != nil {
		t.Fatalf("backdate session: %v", err)
	}

	if _, err := RecordConnection(db, u.ThornyID, "disconnect"); err != nil {
		t.Fatalf("RecordConnection(disconnect) = %v", err)
	}

	var closed models.PlaytimeSession
	if err := db.First(&closed, open.ID).Error; err != nil {
		t.Fatalf("reload session: %v", err)
	}
	if closed.DisconnectedAt == nil {
		t.Fatal("session not closed")
	}
	if closed.Seconds < 89 || closed.Seconds > 91 {
		t.Errorf("seconds = %d, want ~90", closed.Seconds)
	}
}

func TestRecordConnection_StaleSessionClosedAtZero(t *testing.T) {
	db := testDB(t)
	u := testUser(t, db)

	if _, err := RecordConnection(db, u.ThornyID, "connect"); err != nil {
		t.Fatalf("first connect: %v", err)
	}
	// A second connect without a disconnect means the first disconnect was
	// lost; the stale session closes with zero length.
	if _, err := RecordConnection(db, u.ThornyID, "connect"); err != nil {
		t.Fatalf("second connect: %v", err)
	}

	var sessions []models.PlaytimeSession
	if err := db.Where("thorny_id = ?", u.ThornyID).Order("id ASC").Find(&sessions).Error; err != nil {
		t.Fatalf("list sessions: %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("have %d sessions, want 2", len(sessions))
	}
	if sessions[0].DisconnectedAt == nil || sessions[0].Seconds != 0 {
		t.Errorf("stale session = %+v, want closed at zero", sessions[0])
	}
	if sessions[1].DisconnectedAt != nil {
		t.Errorf("new session already closed: %+v", sessions[1])
	}
}

func TestRecordConnection_DisconnectWithoutOpenIsNoop(t *testing.T) {
	db := testDB(t)
	u := testUser(t, db)

	if _, err := RecordConnection(db, u.ThornyID, "disconnect"); err != nil {
		t.Fatalf("RecordConnection(orphan disconnect) = %v", err)
	}
	var count int64
	if err := db.Model(&models.PlaytimeSession{}).Count(&count).Error; err != nil {
		t.Fatalf("count sessions: %v", err)
	}
	if count != 0 {
		t.Errorf("orphan disconnect created %d sessions", count)
	}
}

func TestRecordConnection_UnknownType(t *testing.T) {
	db := testDB(t)
	u := testUser(t, db)
	if _, err := RecordConnection(db, u.ThornyID, "lurk"); !apperr.IsValidation(err) {
		t.Errorf("RecordConnection(lurk) = %v, want ValidationError", err)
	}
}

func TestPlaytime(t *testing.T) {
	db := testDB(t)
	u := testUser(t, db)

	if total, err := Playtime(db, u.ThornyID); err != nil || total != 0 {
		t.Fatalf("Playtime(no sessions) = %d, %v", total, err)
	}

	now := time.Now().UTC()
	for _, secs := range []int{120, 300} {
		end := now
		s := models.PlaytimeSession{ThornyID: u.ThornyID, ConnectedAt: now.Add(-time.Hour), DisconnectedAt: &end, Seconds: secs}
		if err := db.Create(&s).Error; err != nil {
			t.Fatalf("seed session: %v", err)
		}
	}

	total, err := Playtime(db, u.ThornyID)
	if err != nil {
		t.Fatalf("Playtime() = %v", err)
	}
	if total != 420 {
		t.Errorf("total = %d, want 420", total)
	}
}

package quest

import (
	"testing"
	"time"

	"github.com/everthorn/thorny/internal/apperr"
	"github.com/everthorn/thorny/internal/models"
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
		&models.Quest{},
		&models.Objective{},
		&models.Reward{},
	); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

func testWindow() (time.Time, time.Time) {
	start := time.Now().UTC().Add(-time.Hour)
	return start, start.Add(48 * time.Hour)
}

func createTestQuest(t *testing.T, db *gorm.DB) *models.Quest {
	t.Helper()
	start, end := testWindow()
	q, err := CreateQuest(db, CreateQuestOpts{
		StartTime: start,
		EndTime:   end,
		Title:     "The Long Dig",
	})
	if err != nil {
		t.Fatalf("CreateQuest() = %v", err)
	}
	return q
}

func TestCreateQuest_Validation(t *testing.T) {
	db := testDB(t)
	start, end := testWindow()

	tests := []struct {
		name string
		opts CreateQuestOpts
	}{
		{"missing title", CreateQuestOpts{StartTime: start, EndTime: end}},
		{"missing window", CreateQuestOpts{Title: "x"}},
		{"end before start", CreateQuestOpts{Title: "x", StartTime: end, EndTime: start}},
		{"end equals start", CreateQuestOpts{Title: "x", StartTime: start, EndTime: start}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := CreateQuest(db, tt.opts); !apperr.IsValidation(err) {
				t.Errorf("CreateQuest() = %v, want ValidationError", err)
			}
		})
	}
}

func TestGetQuest_NotFound(t *testing.T) {
	db := testDB(t)
	if _, err := GetQuest(db, 999); !apperr.IsNotFound(err) {
		t.Errorf("GetQuest(999) = %v, want NotFoundError", err)
	}
}

func TestUpdateQuest_Merge(t *testing.T) {
	db := testDB(t)
	q := createTestQuest(t, db)

	title := "The Longer Dig"
	got, err := UpdateQuest(db, q.ID, QuestPatch{Title: &title})
	if err != nil {
		t.Fatalf("UpdateQuest() = %v", err)
	}
	if got.Title != title {
		t.Errorf("Title = %q, want %q", got.Title, title)
	}
	if !got.StartTime.Equal(q.StartTime) {
		t.Errorf("StartTime changed by unrelated patch: %v != %v", got.StartTime, q.StartTime)
	}

	// Patch that would invert the window is rejected before writing.
	bad := q.StartTime.Add(-time.Hour)
	if _, err := UpdateQuest(db, q.ID, QuestPatch{EndTime: &bad}); !apperr.IsValidation(err) {
		t.Errorf("UpdateQuest(inverted window) = %v, want ValidationError", err)
	}
}

func TestListAvailableQuests(t *testing.T) {
	db := testDB(t)
	now := time.Now().UTC()

	mk := func(title string, start, end time.Time) {
		t.Helper()
		if _, err := CreateQuest(db, CreateQuestOpts{Title: title, StartTime: start, EndTime: end}); err != nil {
			t.Fatalf("CreateQuest(%s) = %v", title, err)
		}
	}
	mk("open", now.Add(-time.Hour), now.Add(time.Hour))
	mk("future", now.Add(time.Hour), now.Add(2*time.Hour))
	mk("expired", now.Add(-2*time.Hour), now.Add(-time.Hour))

	got, err := ListAvailableQuests(db, now)
	if err != nil {
		t.Fatalf("ListAvailableQuests() = %v", err)
	}
	if len(got) != 1 || got[0].Title != "open" {
		t.Errorf("available = %d quests, want just \"open\": %+v", len(got), got)
	}
}

func killTarget(entity string, count int) Target {
	return Target{UUID: uuid.New(), Type: TargetKill, Count: count, Entity: entity}
}

func TestCreateObjective_WithRewards(t *testing.T) {
	db := testDB(t)
	q := createTestQuest(t, db)

	balance := 100
	item := "minecraft:diamond"
	def, err := CreateObjective(db, q.ID, CreateObjectiveOpts{
		OrderIndex: 0,
		Type:       TargetKill,
		Logic:      LogicAnd,
		Targets:    []Target{killTarget("minecraft:zombie", 5)},
		Rewards: []CreateRewardOpts{
			{Balance: &balance},
			{Item: &item, Count: 3},
		},
	})
	if err != nil {
		t.Fatalf("CreateObjective() = %v", err)
	}
	if len(def.Row.Rewards) != 2 {
		t.Fatalf("created %d rewards, want 2", len(def.Row.Rewards))
	}

	got, err := GetObjective(db, def.Row.ID)
	if err != nil {
		t.Fatalf("GetObjective() = %v", err)
	}
	if len(got.Targets) != 1 || got.Targets[0].Entity != "minecraft:zombie" {
		t.Errorf("decoded targets = %+v", got.Targets)
	}
	if len(got.Row.Rewards) != 2 {
		t.Errorf("loaded %d rewards, want 2", len(got.Row.Rewards))
	}
}

func TestCreateObjective_AssignsTargetUUIDs(t *testing.T) {
	db := testDB(t)
	q := createTestQuest(t, db)

	def, err := CreateObjective(db, q.ID, CreateObjectiveOpts{
		Type:    TargetMine,
		Logic:   LogicAnd,
		Targets: []Target{{Type: TargetMine, Count: 10, Block: "minecraft:stone"}},
	})
	if err != nil {
		t.Fatalf("CreateObjective() = %v", err)
	}
	if def.Targets[0].UUID == uuid.Nil {
		t.Error("target UUID not assigned")
	}
}

func TestCreateObjective_Validation(t *testing.T) {
	db := testDB(t)
	q := createTestQuest(t, db)
	zero := 0

	tests := []struct {
		name string
		opts CreateObjectiveOpts
	}{
		{"no targets", CreateObjectiveOpts{Type: TargetKill, Logic: LogicAnd}},
		{"unknown logic", CreateObjectiveOpts{Type: TargetKill, Logic: "xor",
			Targets: []Target{killTarget("minecraft:zombie", 1)}}},
		{"type mismatch", CreateObjectiveOpts{Type: TargetMine, Logic: LogicAnd,
			Targets: []Target{killTarget("minecraft:zombie", 1)}}},
		{"zero target_count", CreateObjectiveOpts{Type: TargetKill, Logic: LogicOr, TargetCount: &zero,
			Targets: []Target{killTarget("minecraft:zombie", 1)}}},
		{"bad customization", CreateObjectiveOpts{Type: TargetKill, Logic: LogicAnd,
			Targets:        []Target{killTarget("minecraft:zombie", 1)},
			Customizations: Customizations{Timer: &TimerCustomization{Seconds: 0}}}},
		{"rewardless reward", CreateObjectiveOpts{Type: TargetKill, Logic: LogicAnd,
			Targets: []Target{killTarget("minecraft:zombie", 1)},
			Rewards: []CreateRewardOpts{{}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := CreateObjective(db, q.ID, tt.opts); !apperr.IsValidation(err) {
				t.Errorf("CreateObjective() = %v, want ValidationError", err)
			}
		})
	}
}

func TestCreateObjective_QuestNotFound(t *testing.T) {
	db := testDB(t)
	_, err := CreateObjective(db, 42, CreateObjectiveOpts{
		Type:    TargetKill,
		Logic:   LogicAnd,
		Targets: []Target{killTarget("minecraft:zombie", 1)},
	})
	if !apperr.IsNotFound(err) {
		t.Errorf("CreateObjective(missing quest) = %v, want NotFoundError", err)
	}
}

func TestListObjectivesByQuest_Ordered(t *testing.T) {
	db := testDB(t)
	q := createTestQuest(t, db)

	for _, idx := range []int{2, 0, 1} {
		_, err := CreateObjective(db, q.ID, CreateObjectiveOpts{
			OrderIndex: idx,
			Type:       TargetKill,
			Logic:      LogicAnd,
			Targets:    []Target{killTarget("minecraft:zombie", 1)},
		})
		if err != nil {
			t.Fatalf("CreateObjective(%d) = %v", idx, err)
		}
	}

	defs, err := ListObjectivesByQuest(db, q.ID)
	if err != nil {
		t.Fatalf("ListObjectivesByQuest() = %v", err)
	}
	if len(defs) != 3 {
		t.Fatalf("listed %d objectives, want 3", len(defs))
	}
	for i, def := range defs {
		if def.Row.OrderIndex != i {
			t.Errorf("position %d has order_index %d", i, def.Row.OrderIndex)
		}
	}
}

func TestUpdateObjective_RevalidatesMergedWhole(t *testing.T) {
	db := testDB(t)
	q := createTestQuest(t, db)

	def, err := CreateObjective(db, q.ID, CreateObjectiveOpts{
		Type:    TargetKill,
		Logic:   LogicAnd,
		Targets: []Target{killTarget("minecraft:zombie", 1)},
	})
	if err != nil {
		t.Fatalf("CreateObjective() = %v", err)
	}

	// Changing the type without replacing the targets must fail: the
	// existing kill targets no longer match.
	mine := TargetMine
	if _, err := UpdateObjective(db, def.Row.ID, ObjectivePatch{Type: &mine}); !apperr.IsValidation(err) {
		t.Fatalf("UpdateObjective(type only) = %v, want ValidationError", err)
	}

	// And nothing was written.
	got, err := GetObjective(db, def.Row.ID)
	if err != nil {
		t.Fatalf("GetObjective() = %v", err)
	}
	if got.Row.Type != string(TargetKill) {
		t.Errorf("type = %q after rejected patch, want %q", got.Row.Type, TargetKill)
	}

	// Changing type and targets together succeeds.
	updated, err := UpdateObjective(db, def.Row.ID, ObjectivePatch{
		Type:    &mine,
		Targets: []Target{{Type: TargetMine, Count: 4, Block: "minecraft:deepslate"}},
	})
	if err != nil {
		t.Fatalf("UpdateObjective(type+targets) = %v", err)
	}
	if updated.Row.Type != string(TargetMine) || updated.Targets[0].Block != "minecraft:deepslate" {
		t.Errorf("updated = %+v", updated)
	}
}

func TestMergeObjective_Pure(t *testing.T) {
	base := ObjectiveDefinition{
		Row:     models.Objective{OrderIndex: 1, Type: string(TargetKill), Logic: string(LogicAnd)},
		Targets: []Target{killTarget("minecraft:zombie", 1)},
	}
	idx := 5
	merged := mergeObjective(base, ObjectivePatch{OrderIndex: &idx})
	if merged.Row.OrderIndex != 5 {
		t.Errorf("merged order_index = %d, want 5", merged.Row.OrderIndex)
	}
	if base.Row.OrderIndex != 1 {
		t.Errorf("base mutated: order_index = %d", base.Row.OrderIndex)
	}
}

func TestRewardValidation(t *testing.T) {
	neg := -5
	item := "diamond" // not namespaced

	tests := []struct {
		name string
		opts CreateRewardOpts
	}{
		{"nothing granted", CreateRewardOpts{}},
		{"negative balance", CreateRewardOpts{Balance: &neg}},
		{"bad item id", CreateRewardOpts{Item: &item}},
		{"negative count", CreateRewardOpts{Item: strPtr("minecraft:diamond"), Count: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := validateReward(tt.opts); !apperr.IsValidation(err) {
				t.Errorf("validateReward() = %v, want ValidationError", err)
			}
		})
	}
}

func strPtr(s string) *string { return &s }

func TestUpdateReward_Merge(t *testing.T) {
	db := testDB(t)
	q := createTestQuest(t, db)

	balance := 50
	def, err := CreateObjective(db, q.ID, CreateObjectiveOpts{
		Type:    TargetKill,
		Logic:   LogicAnd,
		Targets: []Target{killTarget("minecraft:zombie", 1)},
		Rewards: []CreateRewardOpts{{Balance: &balance}},
	})
	if err != nil {
		t.Fatalf("CreateObjective() = %v", err)
	}
	rewardID := def.Row.Rewards[0].ID

	more := 75
	got, err := UpdateReward(db, rewardID, RewardPatch{Balance: &more})
	if err != nil {
		t.Fatalf("UpdateReward() = %v", err)
	}
	if got.Balance == nil || *got.Balance != 75 {
		t.Errorf("balance = %v, want 75", got.Balance)
	}
	if got.Count != 1 {
		t.Errorf("count changed by unrelated patch: %d", got.Count)
	}
}

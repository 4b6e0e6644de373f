package projects

import (
	"strings"
	"testing"

	"github.com/everthorn/thorny/internal/apperr"
	"github.com/everthorn/thorny/internal/models"
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
	if err := db.AutoMigrate(&models.User{}, &models.Project{}, &models.ProjectMember{}); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

func testOwner(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	u := models.User{UserID: "discord-1", GuildID: "guild-1", Username: "steve"}
	if err := db.Create(&u).Error; err != nil {
		t.Fatalf("create owner: %v", err)
	}
	return &u
}

func TestGenerateID(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		id, err := GenerateID()
		if err != nil {
			t.Fatalf("GenerateID() = %v", err)
		}
		if !strings.HasPrefix(id, "proj-") || len(id) != 10 {
			t.Fatalf("id = %q, want proj-xxxxx", id)
		}
		seen[id] = true
	}
	if len(seen) < 2 {
		t.Error("ids do not vary")
	}
}

func TestCreate(t *testing.T) {
	db := testDB(t)
	owner := testOwner(t, db)

	p, err := Create(db, CreateOpts{Name: "Spawn Castle", OwnerID: owner.ThornyID, Dimension: "overworld"})
	if err != nil {
		t.Fatalf("Create() = %v", err)
	}
	if p.Status != "pending" {
		t.Errorf("status = %q, want pending", p.Status)
	}
	if !strings.HasPrefix(p.ID, "proj-") {
		t.Errorf("id = %q", p.ID)
	}
}

func TestCreate_Validation(t *testing.T) {
	db := testDB(t)
	owner := testOwner(t, db)

	if _, err := Create(db, CreateOpts{OwnerID: owner.ThornyID}); !apperr.IsValidation(err) {
		t.Errorf("Create(no name) = %v, want ValidationError", err)
	}
	if _, err := Create(db, CreateOpts{Name: "x", OwnerID: 999}); !apperr.IsNotFound(err) {
		t.Errorf("Create(missing owner) = %v, want NotFoundError", err)
	}
}

func TestUpdateStatus_Lifecycle(t *testing.T) {
	tests := []struct {
		name    string
		path    []string
		wantErr bool
	}{
		{"approve and build", []string{"approved", "ongoing", "completed"}, false},
		{"deny", []string{"denied"}, false},
		{"abandon and resume", []string{"approved", "ongoing", "abandoned", "ongoing"}, false},
		{"skip approval", []string{"ongoing"}, true},
		{"complete from pending", []string{"completed"}, true},
		{"reopen denied", []string{"denied", "approved"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := testDB(t)
			owner := testOwner(t, db)
			p, err := Create(db, CreateOpts{Name: "Test", OwnerID: owner.ThornyID})
			if err != nil {
				t.Fatalf("Create() = %v", err)
			}

			var lastErr error
			for _, status := range tt.path {
				_, lastErr = UpdateStatus(db, p.ID, status)
				if lastErr != nil {
					break
				}
			}
			if tt.wantErr {
				if !apperr.IsConflict(lastErr) {
					t.Errorf("path %v = %v, want ConflictError", tt.path, lastErr)
				}
				return
			}
			if lastErr != nil {
				t.Fatalf("path %v = %v", tt.path, lastErr)
			}
		})
	}
}

func TestUpdateStatus_SetsCompletedAt(t *testing.T) {
	db := testDB(t)
	owner := testOwner(t, db)
	p, err := Create(db, CreateOpts{Name: "Test", OwnerID: owner.ThornyID})
	if err != nil {
		t.Fatalf("Create() = %v", err)
	}
	for _, status := range []string{"approved", "ongoing", "completed"} {
		if p, err = UpdateStatus(db, p.ID, status); err != nil {
			t.Fatalf("UpdateStatus(%s) = %v", status, err)
		}
	}
	if p.CompletedAt == nil {
		t.Error("CompletedAt not set on completion")
	}
}

func TestList_FilterByStatus(t *testing.T) {
	db := testDB(t)
	owner := testOwner(t, db)
	p1, _ := Create(db, CreateOpts{Name: "A", OwnerID: owner.ThornyID})
	if _, err := Create(db, CreateOpts{Name: "B", OwnerID: owner.ThornyID}); err != nil {
		t.Fatalf("Create(B) = %v", err)
	}
	if _, err := UpdateStatus(db, p1.ID, "approved"); err != nil {
		t.Fatalf("UpdateStatus() = %v", err)
	}

	approved, err := List(db, "approved")
	if err != nil {
		t.Fatalf("List(approved) = %v", err)
	}
	if len(approved) != 1 || approved[0].ID != p1.ID {
		t.Errorf("approved = %+v", approved)
	}

	all, err := List(db, "")
	if err != nil {
		t.Fatalf("List() = %v", err)
	}
	if len(all) != 2 {
		t.Errorf("listed %d projects, want 2", len(all))
	}
}

func TestMembers(t *testing.T) {
	db := testDB(t)
	owner := testOwner(t, db)
	p, err := Create(db, CreateOpts{Name: "Test", OwnerID: owner.ThornyID})
	if err != nil {
		t.Fatalf("Create() = %v", err)
	}

	if err := AddMember(db, p.ID, owner.ThornyID); err != nil {
		t.Fatalf("AddMember() = %v", err)
	}
	if err := AddMember(db, "proj-nope", owner.ThornyID); !apperr.IsNotFound(err) {
		t.Errorf("AddMember(missing project) = %v, want NotFoundError", err)
	}

	members, err := Members(db, p.ID)
	if err != nil {
		t.Fatalf("Members() = %v", err)
	}
	if len(members) != 1 || members[0].ThornyID != owner.ThornyID {
		t.Errorf("members = %+v", members)
	}
}

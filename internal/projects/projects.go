// Package projects provides community build project operations.
package projects

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/everthorn/thorny/internal/apperr"
	"github.com/everthorn/thorny/internal/models"
	"gorm.io/gorm"
)

// CreateOpts holds parameters for pitching a new project.
type CreateOpts struct {
	Name        string
	Description string
	OwnerID     uint
	Dimension   string
	CoordX      int
	CoordY      int
	CoordZ      int
}

// ValidTransitions maps each project status to its valid next statuses.
var ValidTransitions = map[string][]string{
	"pending":   {"approved", "denied"},
	"approved":  {"ongoing", "abandoned"},
	"ongoing":   {"completed", "abandoned"},
	"abandoned": {"ongoing"},
}

// GenerateID creates a project ID in proj-xxxxx format (5-char hex).
func GenerateID() (string, error) {
	b := make([]byte, 3)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("projects: generate ID: %w", err)
	}
	return "proj-" + hex.EncodeToString(b)[:5], nil
}

// Create pitches a new project in pending status.
func Create(db *gorm.DB, opts CreateOpts) (*models.Project, error) {
	if opts.Name == "" {
		return nil, apperr.Invalid("project", "name is required")
	}

	var count int64
	if err := db.Model(&models.User{}).Where("thorny_id = ?", opts.OwnerID).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("projects: check owner %d: %w", opts.OwnerID, err)
	}
	if count == 0 {
		return nil, apperr.NotFound("user", opts.OwnerID)
	}

	id, err := GenerateID()
	if err != nil {
		return nil, err
	}
	p := models.Project{
		ID:          id,
		Name:        opts.Name,
		Description: opts.Description,
		Status:      "pending",
		OwnerID:     opts.OwnerID,
		Dimension:   opts.Dimension,
		CoordX:      opts.CoordX,
		CoordY:      opts.CoordY,
		CoordZ:      opts.CoordZ,
	}
	if err := db.Create(&p).Error; err != nil {
		return nil, fmt.Errorf("projects: create: %w", err)
	}
	return &p, nil
}

// Get retrieves a project with its owner joined in.
func Get(db *gorm.DB, id string) (*models.Project, error) {
	var p models.Project
	if err := db.Preload("Owner").Where("id = ?", id).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("project", id)
		}
		return nil, fmt.Errorf("projects: get %s: %w", id, err)
	}
	return &p, nil
}

// List returns projects, optionally filtered by status, newest first.
func List(db *gorm.DB, status string) ([]models.Project, error) {
	q := db.Model(&models.Project{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var projects []models.Project
	if err := q.Order("created_at DESC").Find(&projects).Error; err != nil {
		return nil, fmt.Errorf("projects: list: %w", err)
	}
	return projects, nil
}

// UpdateStatus moves a project along its lifecycle, validating the
// transition against ValidTransitions.
func UpdateStatus(db *gorm.DB, id, newStatus string) (*models.Project, error) {
	p, err := Get(db, id)
	if err != nil {
		return nil, err
	}
	if !isValidTransition(p.Status, newStatus) {
		return nil, apperr.Conflict("project", id,
			"invalid status transition from %q to %q", p.Status, newStatus)
	}

	updates := map[string]any{"status": newStatus}
	if newStatus == "completed" {
		updates["completed_at"] = time.Now().UTC()
	}
	if err := db.Model(&models.Project{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("projects: update status of %s: %w", id, err)
	}
	return Get(db, id)
}

// AddMember joins a user to a project.
func AddMember(db *gorm.DB, projectID string, thornyID uint) error {
	if _, err := Get(db, projectID); err != nil {
		return err
	}
	m := models.ProjectMember{ProjectID: projectID, ThornyID: thornyID, Role: "member", JoinedAt: time.Now().UTC()}
	if err := db.Create(&m).Error; err != nil {
		return fmt.Errorf("projects: add member %d to %s: %w", thornyID, projectID, err)
	}
	return nil
}

// Members returns a project's member links.
func Members(db *gorm.DB, projectID string) ([]models.ProjectMember, error) {
	var members []models.ProjectMember
	if err := db.Where("project_id = ?", projectID).Order("joined_at ASC").Find(&members).Error; err != nil {
		return nil, fmt.Errorf("projects: members of %s: %w", projectID, err)
	}
	return members, nil
}

// isValidTransition checks whether a status transition is allowed.
func isValidTransition(from, to string) bool {
	for _, v := range ValidTransitions[from] {
		if v == to {
			return true
		}
	}
	return false
}

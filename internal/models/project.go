package models

import "time"

// Project is a community build project.
type Project struct {
	ID          string     `gorm:"primaryKey;size:32" json:"project_id"`
	Name        string     `gorm:"size:128;not null" json:"name"`
	Description string     `gorm:"type:text" json:"description"`
	Status      string     `gorm:"size:16;default:pending;index" json:"status"`
	OwnerID     uint       `gorm:"index" json:"owner_id"`
	Dimension   string     `gorm:"size:32" json:"dimension"`
	CoordX      int        `json:"coord_x"`
	CoordY      int        `json:"coord_y"`
	CoordZ      int        `json:"coord_z"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at"`

	Owner *User `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
}

// ProjectMember links users to the projects they build on.
type ProjectMember struct {
	ProjectID string    `gorm:"primaryKey;size:32" json:"project_id"`
	ThornyID  uint      `gorm:"primaryKey" json:"thorny_id"`
	Role      string    `gorm:"size:16;default:member" json:"role"`
	JoinedAt  time.Time `json:"joined_at"`
}

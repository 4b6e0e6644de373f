package models

import "time"

// Interaction is a single game-server event: a player killed, mined,
// placed or used something. Reference is a namespaced id like
// "minecraft:zombie".
type Interaction struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	ThornyID  uint      `gorm:"not null;index" json:"thorny_id"`
	Type      string    `gorm:"size:16;not null;index" json:"type"`
	Reference string    `gorm:"size:128;not null" json:"reference"`
	Mainhand  string    `gorm:"size:128" json:"mainhand"`
	Dimension string    `gorm:"size:32" json:"dimension"`
	CoordX    int       `json:"coord_x"`
	CoordY    int       `json:"coord_y"`
	CoordZ    int       `json:"coord_z"`
	CreatedAt time.Time `json:"created_at"`
}

// Connection records a raw connect or disconnect event from the game server.
type Connection struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	ThornyID  uint      `gorm:"not null;index" json:"thorny_id"`
	Type      string    `gorm:"size:16;not null" json:"type"` // connect, disconnect
	CreatedAt time.Time `json:"created_at"`
}

// PlaytimeSession is a paired connect/disconnect span. DisconnectedAt is
// nil while the player is still online.
type PlaytimeSession struct {
	ID             uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	ThornyID       uint       `gorm:"not null;index" json:"thorny_id"`
	ConnectedAt    time.Time  `json:"connected_at"`
	DisconnectedAt *time.Time `json:"disconnected_at"`
	Seconds        int        `gorm:"default:0" json:"seconds"`
}

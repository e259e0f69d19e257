package domain

import (
	"errors"
	"time"
)

var (
	ErrBaseNotFound   = errors.New("base not found")
	ErrServerNotFound = errors.New("server not found")
	ErrUnknownFaction = errors.New("unknown faction ID")
)

// OwnershipRecord is the controller's view of a single facility: who holds
// it and when that last changed. Records loaded from a snapshot carry the
// snapshot fetch time, since the map endpoint provides no historical
// timestamps.
type OwnershipRecord struct {
	FactionID int       `json:"faction_id"`
	ChangedAt time.Time `json:"changed_at"`
}

// GameServer is an isolated game-world instance. Ownership state is
// partitioned per server; only tracked servers are bootstrapped.
type GameServer struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	Region  string `json:"region"`
	Tracked bool   `json:"tracked"`
}

// Continent is a zone whose facilities are tracked.
type Continent struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Base is the static metadata for a capturable facility.
type Base struct {
	ID          int     `json:"id"`
	Name        string  `json:"name"`
	ContinentID int     `json:"continent_id"`
	TypeName    string  `json:"type_name"`
	PosX        float64 `json:"pos_x"`
	PosY        float64 `json:"pos_y"`
}

package domain

import "time"

// Kind identifies the concrete type of a blip.
type Kind string

const (
	// KindBaseControl records a facility changing ownership.
	KindBaseControl Kind = "base_control"
	// KindPlayer associates a character with a facility.
	KindPlayer Kind = "player"
	// KindRelativePlayer records relative positioning between two characters.
	KindRelativePlayer Kind = "relative_player"
	// KindOutfit associates an outfit with a facility.
	KindOutfit Kind = "outfit"
)

// Blip is a single game-world change record drained from the event buffer.
//
// Blips are immutable value types; a concrete variant's field set is fixed.
type Blip interface {
	Kind() Kind
	Meta() BlipMeta
}

// BlipMeta carries the fields shared by every blip variant. The timestamp
// is the source-of-truth ordering key.
type BlipMeta struct {
	Timestamp   time.Time `json:"timestamp"`
	ServerID    int       `json:"server_id"`
	ContinentID int       `json:"continent_id"`
}

// BaseControl is emitted when a facility changes ownership. This includes
// continent (un-)locks and partially locked states.
type BaseControl struct {
	BlipMeta
	BaseID       int `json:"base_id"`
	OldFactionID int `json:"old_faction_id"`
	NewFactionID int `json:"new_faction_id"`
}

func (BaseControl) Kind() Kind       { return KindBaseControl }
func (b BaseControl) Meta() BlipMeta { return b.BlipMeta }

// PlayerBlip positions a character at a facility. Sent for facility
// captures and defences, so reliable only for a short while.
type PlayerBlip struct {
	BlipMeta
	PlayerID int `json:"player_id"`
	BaseID   int `json:"base_id"`
}

func (PlayerBlip) Kind() Kind       { return KindPlayer }
func (b PlayerBlip) Meta() BlipMeta { return b.BlipMeta }

// RelativePlayerBlip gives relative positioning between two characters,
// generally from revives or kills. The order of the characters carries no
// meaning; the character with the lower ID is always player A.
type RelativePlayerBlip struct {
	BlipMeta
	PlayerAID int `json:"player_a_id"`
	PlayerBID int `json:"player_b_id"`
}

func (RelativePlayerBlip) Kind() Kind       { return KindRelativePlayer }
func (b RelativePlayerBlip) Meta() BlipMeta { return b.BlipMeta }

// OutfitBlip positions an outfit at a facility. One is sent for every
// member's player blip, plus extra blips when an outfit captures a
// facility in its name.
type OutfitBlip struct {
	BlipMeta
	OutfitID int `json:"outfit_id"`
	BaseID   int `json:"base_id"`
}

func (OutfitBlip) Kind() Kind       { return KindOutfit }
func (b OutfitBlip) Meta() BlipMeta { return b.BlipMeta }

// Batch is the unit of dispatch: all blips of one kind from one server
// fetched during a single poll cycle, in fetch order.
type Batch struct {
	Kind     Kind
	ServerID int
	Blips    []Blip
}

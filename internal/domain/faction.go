package domain

import "fmt"

// Faction is one of the game's empires. Faction IDs outside the known
// range should not exist and generally indicate bad data.
type Faction int

const (
	FactionNone Faction = iota
	FactionVS
	FactionNC
	FactionTR
	FactionNSO
)

var factionNames = []string{
	"None",
	"Vanu Sovereignty",
	"New Conglomerate",
	"Terran Republic",
	"Nanite Systems Operatives",
}

var factionTags = []string{"N/A", "VS", "NC", "TR", "NSO"}

// DisplayName returns the human-readable name of the faction.
func (f Faction) DisplayName() (string, error) {
	if f < 0 || int(f) >= len(factionNames) {
		return "", fmt.Errorf("%w: %d", ErrUnknownFaction, f)
	}
	return factionNames[f], nil
}

// Tag returns the short tag of the faction.
func (f Faction) Tag() (string, error) {
	if f < 0 || int(f) >= len(factionTags) {
		return "", fmt.Errorf("%w: %d", ErrUnknownFaction, f)
	}
	return factionTags[f], nil
}

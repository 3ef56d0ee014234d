// Package territory defines the claimable map units and their ownership.
package territory

import "time"

// Kind identifies the geographic category of a territory.
type Kind string

const (
	// KindCountry is a world country territory.
	KindCountry Kind = "country"
	// KindUSState is a US state territory.
	KindUSState Kind = "us_state"
	// KindAUState is an Australian state territory.
	KindAUState Kind = "au_state"
)

// Valid reports whether the kind is one of the seeded categories.
func (k Kind) Valid() bool {
	switch k {
	case KindCountry, KindUSState, KindAUState:
		return true
	}
	return false
}

// Territory is one claimable unit of a game's map.
//
// Territories are created at game-seed time. The engine only ever flips
// the Disabled flag through the admin path.
type Territory struct {
	ID            string
	GameID        string
	GeoID         string
	Name          string
	Kind          Kind
	ParentCountry string
	Disabled      bool
	CreatedAt     time.Time
}

// Ownership records the unique controlling player of a territory.
// Absence of a record means the territory is unclaimed.
type Ownership struct {
	GameID      string
	TerritoryID string
	OwnerID     string
	ClaimedAt   time.Time
	UpdatedAt   time.Time
}

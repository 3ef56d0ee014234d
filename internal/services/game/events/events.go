// Package events fans out game state changes to connected watchers.
package events

import "time"

// Type identifies one kind of game state change.
type Type string

const (
	// TypeTerritoryClaimed signals a successful claim.
	TypeTerritoryClaimed Type = "territory.claimed"
	// TypeAttackStarted signals a new pending attack.
	TypeAttackStarted Type = "attack.started"
	// TypeAttackDefended signals a repelled attack.
	TypeAttackDefended Type = "attack.defended"
	// TypeTerritoryCaptured signals an expired attack transferring ownership.
	TypeTerritoryCaptured Type = "territory.captured"
	// TypeOwnershipOverridden signals a creator ownership override.
	TypeOwnershipOverridden Type = "ownership.overridden"
	// TypeTerritoryToggled signals a creator enabling or disabling a territory.
	TypeTerritoryToggled Type = "territory.toggled"
)

// Event is one state change broadcast to game watchers.
type Event struct {
	Type        Type              `json:"type"`
	GameID      string            `json:"gameId"`
	TerritoryID string            `json:"territoryId,omitempty"`
	ActorID     string            `json:"actorId,omitempty"`
	At          time.Time         `json:"at"`
	Detail      map[string]string `json:"detail,omitempty"`
}

// Publisher delivers events to whoever is watching the game. Publishing
// must not block the caller.
type Publisher interface {
	Publish(event Event)
}

// NopPublisher discards every event.
type NopPublisher struct{}

// Publish drops the event.
func (NopPublisher) Publish(Event) {}

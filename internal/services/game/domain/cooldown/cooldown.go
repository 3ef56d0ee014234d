// Package cooldown models per-player, per-territory action lockouts.
package cooldown

import "time"

// Entry blocks a player from claiming or attacking a territory until
// ExpiresAt. Defenses are exempt and never consult cooldowns.
type Entry struct {
	GameID      string
	TerritoryID string
	PlayerID    string
	ExpiresAt   time.Time
	CreatedAt   time.Time
}

// ActiveAt reports whether the lockout is still in force at now.
func (e Entry) ActiveAt(now time.Time) bool {
	return now.Before(e.ExpiresAt)
}

// Package combat models the attack lifecycle on owned territories.
package combat

import "time"

// Status tracks where an attack sits in its lifecycle.
type Status string

const (
	// StatusPending is an attack inside its defense window, awaiting a
	// defense or expiry.
	StatusPending Status = "pending"
	// StatusDefended is an attack the defender repelled in time.
	StatusDefended Status = "defended"
	// StatusCaptured is an attack that expired undefended and
	// transferred ownership to the attacker.
	StatusCaptured Status = "captured"
)

// Terminal reports whether the status is a resolved end state.
func (s Status) Terminal() bool {
	return s == StatusDefended || s == StatusCaptured
}

// Attack is one contest over an owned territory.
//
// At most one pending attack exists per territory. ResolvedAt is nil
// until the attack leaves the pending state.
type Attack struct {
	ID          string
	GameID      string
	TerritoryID string
	AttackerID  string
	DefenderID  string
	Status      Status
	InitiatedAt time.Time
	ExpiresAt   time.Time
	ResolvedAt  *time.Time
}

// Expired reports whether the defense window has closed at now. Expiry
// is only acted on by the resolution sweep: an expired attack stays
// pending, keeps blocking new attacks, and remains defendable until a
// sweep captures it.
func (a Attack) Expired(now time.Time) bool {
	return !now.Before(a.ExpiresAt)
}

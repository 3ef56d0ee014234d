// Package ledger tracks per-player daily action allowances.
package ledger

import "time"

// Entry is the per-player, per-game resource ledger.
//
// Allowances refill to the game's configured values at the first action
// on or after the UTC midnight following LastResetAt.
type Entry struct {
	GameID           string
	PlayerID         string
	AvailableAttacks int
	AvailableClaims  int
	LastResetAt      time.Time
	UpdatedAt        time.Time
}

// ResetBoundary returns the UTC midnight that starts the day after t.
// Ledger entries last reset before this boundary are due for a refill
// once now crosses it.
func ResetBoundary(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)
}

// NeedsReset reports whether the entry's allowances should refill at now.
func (e Entry) NeedsReset(now time.Time) bool {
	return !now.UTC().Before(ResetBoundary(e.LastResetAt))
}

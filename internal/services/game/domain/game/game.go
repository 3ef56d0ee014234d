// Package game defines the per-game ruleset that governs territory actions.
package game

import (
	"strings"
	"time"

	apperrors "geobattle/internal/platform/errors"
)

// Defaults applied when a game was created without explicit rule values.
const (
	DefaultCooldown      = 12 * time.Hour
	DefaultDefenseWindow = 72 * time.Hour
	DefaultAttacksPerDay = 1
	DefaultClaimsPerDay  = 1
	DefaultMembershipCap = 5
)

// Game is the immutable ruleset for one game instance.
//
// The engine only reads these values; games are created and seeded by an
// external path and never mutated by combat actions.
type Game struct {
	ID                   string
	Name                 string
	CreatorID            string
	CooldownDuration     time.Duration
	DefenseWindow        time.Duration
	DailyAttackAllowance int
	DailyClaimAllowance  int
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// Validate reports whether the ruleset is usable by the engine.
func (g Game) Validate() error {
	if strings.TrimSpace(g.ID) == "" {
		return apperrors.New(apperrors.CodeGameIDRequired, "game id is required")
	}
	if g.CooldownDuration <= 0 {
		return apperrors.New(apperrors.CodeGameRulesInvalid, "game cooldown duration is not configured")
	}
	if g.DefenseWindow <= 0 {
		return apperrors.New(apperrors.CodeGameRulesInvalid, "game defense window is not configured")
	}
	if g.DailyAttackAllowance < 0 || g.DailyClaimAllowance < 0 {
		return apperrors.New(apperrors.CodeGameRulesInvalid, "game daily allowances must be non-negative")
	}
	return nil
}

// IsCreator reports whether playerID owns the game's admin surface.
func (g Game) IsCreator(playerID string) bool {
	return playerID != "" && g.CreatorID == playerID
}

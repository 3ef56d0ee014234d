package storage

import (
	"context"
	"errors"
	"time"

	"geobattle/internal/services/game/domain/combat"
)

var (
	// ErrNotFound indicates a requested game state record is missing.
	ErrNotFound = errors.New("record not found")
	// ErrConflict indicates a requested write conflicts with uniqueness constraints.
	ErrConflict = errors.New("record conflict")
	// ErrExhausted indicates a conditional allowance decrement found no balance.
	ErrExhausted = errors.New("allowance exhausted")
	// ErrLimitExceeded indicates a membership write would pass the per-player cap.
	ErrLimitExceeded = errors.New("membership limit exceeded")
)

// AttackStatus aliases the combat lifecycle status so stored attacks and
// in-memory ones share one set of states.
type AttackStatus = combat.Status

const (
	AttackStatusPending  = combat.StatusPending
	AttackStatusDefended = combat.StatusDefended
	AttackStatusCaptured = combat.StatusCaptured
)

// GameRecord stores one game's identity and rule configuration.
type GameRecord struct {
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

// TerritoryRecord stores one claimable map unit of a game.
type TerritoryRecord struct {
	ID            string
	GameID        string
	GeoID         string
	Name          string
	Kind          string
	ParentCountry string
	Disabled      bool
	CreatedAt     time.Time
}

// OwnershipRecord stores the unique controlling player of a territory.
type OwnershipRecord struct {
	GameID      string
	TerritoryID string
	OwnerID     string
	ClaimedAt   time.Time
	UpdatedAt   time.Time
}

// AttackRecord stores one contest over an owned territory.
type AttackRecord struct {
	ID          string
	GameID      string
	TerritoryID string
	AttackerID  string
	DefenderID  string
	Status      AttackStatus
	InitiatedAt time.Time
	ExpiresAt   time.Time
	ResolvedAt  *time.Time
}

// LedgerRecord stores one player's daily action allowances in a game.
type LedgerRecord struct {
	GameID           string
	PlayerID         string
	AvailableAttacks int
	AvailableClaims  int
	LastResetAt      time.Time
	UpdatedAt        time.Time
}

// CooldownRecord stores one per-player, per-territory action lockout.
type CooldownRecord struct {
	GameID      string
	TerritoryID string
	PlayerID    string
	ExpiresAt   time.Time
	CreatedAt   time.Time
}

// MembershipRecord stores one player's participation in a game.
type MembershipRecord struct {
	GameID   string
	PlayerID string
	JoinedAt time.Time
}

// AuditRecord stores one append-only entry of a state-changing action.
type AuditRecord struct {
	ID          string
	GameID      string
	TerritoryID string
	ActorID     string
	Action      string
	DetailJSON  string
	CreatedAt   time.Time
}

// ClaimInput carries all writes of one claim action applied atomically.
//
// LedgerReset, when set, is applied before the conditional claim
// decrement so a stale daily ledger refills inside the same transaction.
// The refill only lands if the stored reset boundary is still older than
// the one carried here; a racing action cannot apply it twice.
type ClaimInput struct {
	LedgerReset *LedgerRecord
	Ownership   OwnershipRecord
	Cooldown    CooldownRecord
	Audit       AuditRecord
	Now         time.Time
}

// AttackInput carries all writes of one attack action applied atomically.
type AttackInput struct {
	LedgerReset *LedgerRecord
	Attack      AttackRecord
	Cooldown    CooldownRecord
	Audit       AuditRecord
	Now         time.Time
}

// DefenseInput carries all writes of one defense action applied atomically.
type DefenseInput struct {
	GameID      string
	AttackID    string
	TerritoryID string
	DefenderID  string
	Audit       AuditRecord
	Now         time.Time
}

// OwnershipOverride carries one admin ownership write applied atomically.
// A blank OwnerID clears the ownership row instead of replacing it.
type OwnershipOverride struct {
	GameID              string
	TerritoryID         string
	OwnerID             string
	CancelPendingAttack bool
	Audit               AuditRecord
	Now                 time.Time
}

// JoinInput carries one membership write with its initial ledger.
type JoinInput struct {
	Membership    MembershipRecord
	Ledger        LedgerRecord
	MembershipCap int
}

// GameStore persists game rule configuration.
type GameStore interface {
	PutGame(ctx context.Context, record GameRecord) error
	GetGame(ctx context.Context, gameID string) (GameRecord, error)
}

// TerritoryStore persists the claimable map units of each game.
type TerritoryStore interface {
	PutTerritory(ctx context.Context, record TerritoryRecord) error
	GetTerritory(ctx context.Context, gameID string, territoryID string) (TerritoryRecord, error)
	ListTerritoriesByGame(ctx context.Context, gameID string) ([]TerritoryRecord, error)
}

// OwnershipStore reads territory control state.
type OwnershipStore interface {
	GetOwnership(ctx context.Context, gameID string, territoryID string) (OwnershipRecord, error)
	ListOwnershipsByGame(ctx context.Context, gameID string) ([]OwnershipRecord, error)
	ListOwnershipsByOwner(ctx context.Context, gameID string, ownerID string) ([]OwnershipRecord, error)
}

// AttackStore reads attack lifecycle state.
type AttackStore interface {
	GetAttack(ctx context.Context, gameID string, attackID string) (AttackRecord, error)
	GetPendingAttackByTerritory(ctx context.Context, gameID string, territoryID string) (AttackRecord, error)
	ListPendingAttacksByGame(ctx context.Context, gameID string) ([]AttackRecord, error)
	ListAttacksByPlayer(ctx context.Context, gameID string, playerID string) ([]AttackRecord, error)
}

// LedgerStore reads and writes per-player allowance ledgers.
type LedgerStore interface {
	GetLedger(ctx context.Context, gameID string, playerID string) (LedgerRecord, error)
	PutLedger(ctx context.Context, record LedgerRecord) error
}

// CooldownStore reads per-player territory lockouts.
type CooldownStore interface {
	GetCooldown(ctx context.Context, gameID string, territoryID string, playerID string) (CooldownRecord, error)
	ListCooldownsByPlayer(ctx context.Context, gameID string, playerID string) ([]CooldownRecord, error)
}

// MembershipStore persists game participation.
type MembershipStore interface {
	GetMembership(ctx context.Context, gameID string, playerID string) (MembershipRecord, error)
	ListMembershipsByPlayer(ctx context.Context, playerID string) ([]MembershipRecord, error)
	ListMembershipsByGame(ctx context.Context, gameID string) ([]MembershipRecord, error)
	JoinGame(ctx context.Context, input JoinInput) error
	LeaveGame(ctx context.Context, gameID string, playerID string) error
}

// ActionStore applies player actions as single atomic writes. Each apply
// re-checks the invariants it depends on so concurrent racers lose with
// ErrConflict or ErrExhausted rather than corrupting state.
type ActionStore interface {
	ApplyClaim(ctx context.Context, input ClaimInput) error
	ApplyAttack(ctx context.Context, input AttackInput) error
	ApplyDefense(ctx context.Context, input DefenseInput) error
}

// SweepStore applies background resolution passes.
type SweepStore interface {
	ResolveExpiredAttacks(ctx context.Context, now time.Time, newID func() string) ([]AttackRecord, error)
	ResetStaleLedgers(ctx context.Context, now time.Time) (int64, error)
	DeleteExpiredCooldowns(ctx context.Context, now time.Time) (int64, error)
}

// AdminStore applies creator overrides.
type AdminStore interface {
	OverrideOwnership(ctx context.Context, input OwnershipOverride) error
	OverrideLedger(ctx context.Context, record LedgerRecord, audit AuditRecord) error
	SetTerritoryDisabled(ctx context.Context, gameID string, territoryID string, disabled bool, audit AuditRecord) error
}

// AuditStore reads the append-only action trail.
type AuditStore interface {
	ListAuditByGame(ctx context.Context, gameID string, limit int) ([]AuditRecord, error)
}

// Package engine orchestrates territory actions against the shared
// store: claim, attack, and defend validation, background resolution,
// membership, and creator overrides.
package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	apperrors "geobattle/internal/platform/errors"
	"geobattle/internal/platform/id"
	"geobattle/internal/services/game/domain/game"
	"geobattle/internal/services/game/domain/ledger"
	"geobattle/internal/services/game/events"
	"geobattle/internal/services/game/storage"
)

// Store is the persistence surface the engine drives.
type Store interface {
	storage.GameStore
	storage.TerritoryStore
	storage.OwnershipStore
	storage.AttackStore
	storage.LedgerStore
	storage.CooldownStore
	storage.MembershipStore
	storage.ActionStore
	storage.SweepStore
	storage.AdminStore
	storage.AuditStore
}

// Config carries the engine dependencies.
type Config struct {
	Store     Store
	Publisher events.Publisher
	// Now and NewID default to the wall clock and random ids; tests
	// inject deterministic versions.
	Now   func() time.Time
	NewID func() string
	// MembershipCap bounds how many games one player may be in at once.
	MembershipCap int
	// OverrideCancelsAttack removes a pending attack when the creator
	// force-sets ownership of the contested territory.
	OverrideCancelsAttack bool
}

// Service validates and applies every state change of the territory game.
type Service struct {
	store                 Store
	publisher             events.Publisher
	now                   func() time.Time
	newID                 func() string
	membershipCap         int
	overrideCancelsAttack bool
}

// New wires an engine service from its dependencies.
func New(cfg Config) (*Service, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("store is required")
	}
	svc := &Service{
		store:                 cfg.Store,
		publisher:             cfg.Publisher,
		now:                   cfg.Now,
		newID:                 cfg.NewID,
		membershipCap:         cfg.MembershipCap,
		overrideCancelsAttack: cfg.OverrideCancelsAttack,
	}
	if svc.publisher == nil {
		svc.publisher = events.NopPublisher{}
	}
	if svc.now == nil {
		svc.now = time.Now
	}
	if svc.newID == nil {
		svc.newID = id.NewID
	}
	if svc.membershipCap <= 0 {
		svc.membershipCap = game.DefaultMembershipCap
	}
	return svc, nil
}

// ActionKind identifies one player action.
type ActionKind string

const (
	// ActionClaim takes an unowned territory.
	ActionClaim ActionKind = "claim"
	// ActionAttack contests another player's territory.
	ActionAttack ActionKind = "attack"
	// ActionDefend repels a pending attack on the player's territory.
	ActionDefend ActionKind = "defend"
)

// ParseActionKind validates a wire action value.
func ParseActionKind(value string) (ActionKind, error) {
	switch ActionKind(strings.TrimSpace(value)) {
	case ActionClaim:
		return ActionClaim, nil
	case ActionAttack:
		return ActionAttack, nil
	case ActionDefend:
		return ActionDefend, nil
	}
	return "", apperrors.New(apperrors.CodeActionInvalid, fmt.Sprintf("unknown action %q", value))
}

// ActionRequest is one player action against a territory.
type ActionRequest struct {
	GameID      string
	TerritoryID string
	Action      ActionKind
}

// ActionResult echoes the state relevant to the actor after the action.
type ActionResult struct {
	Action           ActionKind
	GameID           string
	TerritoryID      string
	OwnerID          string
	AttackID         string
	AttackExpiresAt  time.Time
	AvailableAttacks int
	AvailableClaims  int
	CooldownUntil    time.Time
}

// Perform validates and applies one player action. All writes of an
// action land in a single transaction; a concurrent loser receives a
// typed conflict instead of corrupting state.
func (s *Service) Perform(ctx context.Context, playerID string, req ActionRequest) (ActionResult, error) {
	if s == nil || s.store == nil {
		return ActionResult{}, apperrors.New(apperrors.CodeStorageFailure, "engine is not configured")
	}
	playerID = strings.TrimSpace(playerID)
	req.GameID = strings.TrimSpace(req.GameID)
	req.TerritoryID = strings.TrimSpace(req.TerritoryID)
	if playerID == "" {
		return ActionResult{}, apperrors.New(apperrors.CodePlayerIDRequired, "player id is required")
	}
	if req.GameID == "" {
		return ActionResult{}, apperrors.New(apperrors.CodeGameIDRequired, "game id is required")
	}
	if req.TerritoryID == "" {
		return ActionResult{}, apperrors.New(apperrors.CodeTerritoryIDRequired, "territory id is required")
	}

	cfg, err := s.loadGame(ctx, req.GameID)
	if err != nil {
		return ActionResult{}, err
	}
	if _, err := s.store.GetMembership(ctx, req.GameID, playerID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ActionResult{}, apperrors.WithMetadata(apperrors.CodePlayerNotInGame, "player has not joined this game", map[string]string{"gameId": req.GameID, "playerId": playerID})
		}
		return ActionResult{}, apperrors.Wrap(apperrors.CodeStorageFailure, "load membership", err)
	}
	terr, err := s.store.GetTerritory(ctx, req.GameID, req.TerritoryID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ActionResult{}, apperrors.WithMetadata(apperrors.CodeTerritoryNotFound, "territory not found", map[string]string{"territoryId": req.TerritoryID})
		}
		return ActionResult{}, apperrors.Wrap(apperrors.CodeStorageFailure, "load territory", err)
	}

	switch req.Action {
	case ActionClaim:
		return s.claim(ctx, cfg, terr, playerID)
	case ActionAttack:
		return s.attack(ctx, cfg, terr, playerID)
	case ActionDefend:
		return s.defend(ctx, cfg, terr, playerID)
	}
	return ActionResult{}, apperrors.New(apperrors.CodeActionInvalid, fmt.Sprintf("unknown action %q", req.Action))
}

func (s *Service) claim(ctx context.Context, cfg storage.GameRecord, terr storage.TerritoryRecord, playerID string) (ActionResult, error) {
	now := s.now().UTC()
	if terr.Disabled {
		return ActionResult{}, apperrors.WithMetadata(apperrors.CodeTerritoryDisabled, "territory is disabled", map[string]string{"territoryId": terr.ID})
	}
	if _, err := s.store.GetOwnership(ctx, terr.GameID, terr.ID); err == nil {
		return ActionResult{}, apperrors.New(apperrors.CodeTerritoryAlreadyOwned, "territory is already owned")
	} else if !errors.Is(err, storage.ErrNotFound) {
		return ActionResult{}, apperrors.Wrap(apperrors.CodeStorageFailure, "load ownership", err)
	}
	if err := s.checkCooldown(ctx, terr, playerID, now); err != nil {
		return ActionResult{}, err
	}
	balance, reset, err := s.loadBalance(ctx, cfg, playerID, now)
	if err != nil {
		return ActionResult{}, err
	}
	if balance.AvailableClaims <= 0 {
		return ActionResult{}, apperrors.New(apperrors.CodeInsufficientClaims, "no claims left today")
	}

	cooldownUntil := now.Add(cfg.CooldownDuration)
	input := storage.ClaimInput{
		LedgerReset: reset,
		Ownership: storage.OwnershipRecord{
			GameID:      terr.GameID,
			TerritoryID: terr.ID,
			OwnerID:     playerID,
			ClaimedAt:   now,
			UpdatedAt:   now,
		},
		Cooldown: storage.CooldownRecord{
			GameID:      terr.GameID,
			TerritoryID: terr.ID,
			PlayerID:    playerID,
			ExpiresAt:   cooldownUntil,
			CreatedAt:   now,
		},
		Audit: storage.AuditRecord{
			ID:          s.newID(),
			GameID:      terr.GameID,
			TerritoryID: terr.ID,
			ActorID:     playerID,
			Action:      string(ActionClaim),
			CreatedAt:   now,
		},
		Now: now,
	}
	if err := s.store.ApplyClaim(ctx, input); err != nil {
		switch {
		case errors.Is(err, storage.ErrConflict):
			return ActionResult{}, apperrors.New(apperrors.CodeTerritoryAlreadyOwned, "territory is already owned")
		case errors.Is(err, storage.ErrExhausted):
			return ActionResult{}, apperrors.New(apperrors.CodeInsufficientClaims, "no claims left today")
		}
		return ActionResult{}, apperrors.Wrap(apperrors.CodeStorageFailure, "apply claim", err)
	}

	s.publisher.Publish(events.Event{
		Type:        events.TypeTerritoryClaimed,
		GameID:      terr.GameID,
		TerritoryID: terr.ID,
		ActorID:     playerID,
		At:          now,
	})
	return ActionResult{
		Action:           ActionClaim,
		GameID:           terr.GameID,
		TerritoryID:      terr.ID,
		OwnerID:          playerID,
		AvailableAttacks: balance.AvailableAttacks,
		AvailableClaims:  balance.AvailableClaims - 1,
		CooldownUntil:    cooldownUntil,
	}, nil
}

func (s *Service) attack(ctx context.Context, cfg storage.GameRecord, terr storage.TerritoryRecord, playerID string) (ActionResult, error) {
	now := s.now().UTC()
	ownership, err := s.store.GetOwnership(ctx, terr.GameID, terr.ID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ActionResult{}, apperrors.New(apperrors.CodeTerritoryNotOwned, "territory has no owner to attack")
		}
		return ActionResult{}, apperrors.Wrap(apperrors.CodeStorageFailure, "load ownership", err)
	}
	if ownership.OwnerID == playerID {
		return ActionResult{}, apperrors.New(apperrors.CodeSelfAttack, "cannot attack own territory")
	}
	if _, err := s.store.GetPendingAttackByTerritory(ctx, terr.GameID, terr.ID); err == nil {
		return ActionResult{}, apperrors.New(apperrors.CodeTerritoryUnderAttack, "territory is already under attack")
	} else if !errors.Is(err, storage.ErrNotFound) {
		return ActionResult{}, apperrors.Wrap(apperrors.CodeStorageFailure, "load pending attack", err)
	}
	if err := s.checkCooldown(ctx, terr, playerID, now); err != nil {
		return ActionResult{}, err
	}
	balance, reset, err := s.loadBalance(ctx, cfg, playerID, now)
	if err != nil {
		return ActionResult{}, err
	}
	if balance.AvailableAttacks <= 0 {
		return ActionResult{}, apperrors.New(apperrors.CodeInsufficientAttacks, "no attacks left today")
	}

	attackID := s.newID()
	expiresAt := now.Add(cfg.DefenseWindow)
	cooldownUntil := now.Add(cfg.CooldownDuration)
	input := storage.AttackInput{
		LedgerReset: reset,
		Attack: storage.AttackRecord{
			ID:          attackID,
			GameID:      terr.GameID,
			TerritoryID: terr.ID,
			AttackerID:  playerID,
			DefenderID:  ownership.OwnerID,
			Status:      storage.AttackStatusPending,
			InitiatedAt: now,
			ExpiresAt:   expiresAt,
		},
		Cooldown: storage.CooldownRecord{
			GameID:      terr.GameID,
			TerritoryID: terr.ID,
			PlayerID:    playerID,
			ExpiresAt:   cooldownUntil,
			CreatedAt:   now,
		},
		Audit: storage.AuditRecord{
			ID:          s.newID(),
			GameID:      terr.GameID,
			TerritoryID: terr.ID,
			ActorID:     playerID,
			Action:      string(ActionAttack),
			DetailJSON:  fmt.Sprintf(`{"attackId":%q,"defenderId":%q}`, attackID, ownership.OwnerID),
			CreatedAt:   now,
		},
		Now: now,
	}
	if err := s.store.ApplyAttack(ctx, input); err != nil {
		switch {
		case errors.Is(err, storage.ErrConflict):
			return ActionResult{}, apperrors.New(apperrors.CodeTerritoryUnderAttack, "territory is already under attack")
		case errors.Is(err, storage.ErrExhausted):
			return ActionResult{}, apperrors.New(apperrors.CodeInsufficientAttacks, "no attacks left today")
		}
		return ActionResult{}, apperrors.Wrap(apperrors.CodeStorageFailure, "apply attack", err)
	}

	s.publisher.Publish(events.Event{
		Type:        events.TypeAttackStarted,
		GameID:      terr.GameID,
		TerritoryID: terr.ID,
		ActorID:     playerID,
		At:          now,
		Detail:      map[string]string{"attackId": attackID, "defenderId": ownership.OwnerID},
	})
	return ActionResult{
		Action:           ActionAttack,
		GameID:           terr.GameID,
		TerritoryID:      terr.ID,
		OwnerID:          ownership.OwnerID,
		AttackID:         attackID,
		AttackExpiresAt:  expiresAt,
		AvailableAttacks: balance.AvailableAttacks - 1,
		AvailableClaims:  balance.AvailableClaims,
		CooldownUntil:    cooldownUntil,
	}, nil
}

// defend carries no resource cost and skips the cooldown check: a
// defender is never locked out of protecting their own territory.
func (s *Service) defend(ctx context.Context, cfg storage.GameRecord, terr storage.TerritoryRecord, playerID string) (ActionResult, error) {
	now := s.now().UTC()
	pending, err := s.store.GetPendingAttackByTerritory(ctx, terr.GameID, terr.ID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ActionResult{}, apperrors.New(apperrors.CodePendingAttackNotFound, "no pending attack to defend")
		}
		return ActionResult{}, apperrors.Wrap(apperrors.CodeStorageFailure, "load pending attack", err)
	}
	if pending.DefenderID != playerID {
		return ActionResult{}, apperrors.WithMetadata(apperrors.CodePendingAttackNotFound, "no pending attack to defend", map[string]string{"territoryId": terr.ID})
	}

	input := storage.DefenseInput{
		GameID:      terr.GameID,
		AttackID:    pending.ID,
		TerritoryID: terr.ID,
		DefenderID:  playerID,
		Audit: storage.AuditRecord{
			ID:          s.newID(),
			GameID:      terr.GameID,
			TerritoryID: terr.ID,
			ActorID:     playerID,
			Action:      string(ActionDefend),
			DetailJSON:  fmt.Sprintf(`{"attackId":%q,"attackerId":%q}`, pending.ID, pending.AttackerID),
			CreatedAt:   now,
		},
		Now: now,
	}
	if err := s.store.ApplyDefense(ctx, input); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ActionResult{}, apperrors.New(apperrors.CodePendingAttackNotFound, "no pending attack to defend")
		}
		return ActionResult{}, apperrors.Wrap(apperrors.CodeStorageFailure, "apply defense", err)
	}

	s.publisher.Publish(events.Event{
		Type:        events.TypeAttackDefended,
		GameID:      terr.GameID,
		TerritoryID: terr.ID,
		ActorID:     playerID,
		At:          now,
		Detail:      map[string]string{"attackId": pending.ID, "attackerId": pending.AttackerID},
	})

	balance, _, err := s.loadBalance(ctx, cfg, playerID, now)
	if err != nil {
		return ActionResult{}, err
	}
	return ActionResult{
		Action:           ActionDefend,
		GameID:           terr.GameID,
		TerritoryID:      terr.ID,
		OwnerID:          playerID,
		AttackID:         pending.ID,
		AvailableAttacks: balance.AvailableAttacks,
		AvailableClaims:  balance.AvailableClaims,
	}, nil
}

func (s *Service) loadGame(ctx context.Context, gameID string) (storage.GameRecord, error) {
	record, err := s.store.GetGame(ctx, gameID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return storage.GameRecord{}, apperrors.WithMetadata(apperrors.CodeGameNotFound, "game not found", map[string]string{"gameId": gameID})
		}
		return storage.GameRecord{}, apperrors.Wrap(apperrors.CodeStorageFailure, "load game", err)
	}
	return record, nil
}

func (s *Service) checkCooldown(ctx context.Context, terr storage.TerritoryRecord, playerID string, now time.Time) error {
	record, err := s.store.GetCooldown(ctx, terr.GameID, terr.ID, playerID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil
		}
		return apperrors.Wrap(apperrors.CodeStorageFailure, "load cooldown", err)
	}
	entry := toCooldown(record)
	if entry.ActiveAt(now) {
		return apperrors.WithMetadata(apperrors.CodeTerritoryOnCooldown, "territory is on cooldown for this player", map[string]string{"territoryId": terr.ID, "expiresAt": entry.ExpiresAt.Format(time.RFC3339)})
	}
	return nil
}

// loadBalance reads the actor's ledger and, when the daily boundary has
// passed, returns both the refilled view and the reset record to write.
func (s *Service) loadBalance(ctx context.Context, cfg storage.GameRecord, playerID string, now time.Time) (storage.LedgerRecord, *storage.LedgerRecord, error) {
	record, err := s.store.GetLedger(ctx, cfg.ID, playerID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return storage.LedgerRecord{}, nil, apperrors.New(apperrors.CodePlayerNotInGame, "player has not joined this game")
		}
		return storage.LedgerRecord{}, nil, apperrors.Wrap(apperrors.CodeStorageFailure, "load ledger", err)
	}

	entry := ledger.Entry{LastResetAt: record.LastResetAt}
	if !entry.NeedsReset(now) {
		return record, nil, nil
	}
	refilled := storage.LedgerRecord{
		GameID:           record.GameID,
		PlayerID:         record.PlayerID,
		AvailableAttacks: cfg.DailyAttackAllowance,
		AvailableClaims:  cfg.DailyClaimAllowance,
		LastResetAt:      now,
		UpdatedAt:        now,
	}
	return refilled, &refilled, nil
}

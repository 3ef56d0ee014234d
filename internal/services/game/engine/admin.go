package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	apperrors "geobattle/internal/platform/errors"
	"geobattle/internal/services/game/events"
	"geobattle/internal/services/game/storage"
)

// GrantResources force-adjusts one player's daily balances by the given
// deltas, clamping each result at zero. Grants may push a balance above
// the game's daily allowance; only the creator may grant.
func (s *Service) GrantResources(ctx context.Context, actorID string, gameID string, playerID string, attackDelta int, claimDelta int) (storage.LedgerRecord, error) {
	if s == nil || s.store == nil {
		return storage.LedgerRecord{}, apperrors.New(apperrors.CodeStorageFailure, "engine is not configured")
	}
	playerID = strings.TrimSpace(playerID)
	if playerID == "" {
		return storage.LedgerRecord{}, apperrors.New(apperrors.CodePlayerIDRequired, "player id is required")
	}
	if attackDelta == 0 && claimDelta == 0 {
		return storage.LedgerRecord{}, apperrors.New(apperrors.CodeGrantDeltaRequired, "at least one non-zero delta is required")
	}
	cfg, err := s.requireCreator(ctx, actorID, gameID)
	if err != nil {
		return storage.LedgerRecord{}, err
	}

	record, err := s.store.GetLedger(ctx, cfg.ID, playerID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return storage.LedgerRecord{}, apperrors.New(apperrors.CodePlayerNotInGame, "player has not joined this game")
		}
		return storage.LedgerRecord{}, apperrors.Wrap(apperrors.CodeStorageFailure, "load ledger", err)
	}

	now := s.now().UTC()
	record.AvailableAttacks = clampNonNegative(record.AvailableAttacks + attackDelta)
	record.AvailableClaims = clampNonNegative(record.AvailableClaims + claimDelta)
	record.UpdatedAt = now

	audit := storage.AuditRecord{
		ID:         s.newID(),
		GameID:     cfg.ID,
		ActorID:    actorID,
		Action:     "admin_grant_resources",
		DetailJSON: fmt.Sprintf(`{"playerId":%q,"attackDelta":%d,"claimDelta":%d}`, playerID, attackDelta, claimDelta),
		CreatedAt:  now,
	}
	if err := s.store.OverrideLedger(ctx, record, audit); err != nil {
		return storage.LedgerRecord{}, apperrors.Wrap(apperrors.CodeStorageFailure, "override ledger", err)
	}
	return record, nil
}

// SetOwnership force-replaces or clears a territory's owner, bypassing
// combat validation. Only the creator may override. When the engine is
// configured to cancel pending attacks, an open attack on the territory
// is removed in the same write.
func (s *Service) SetOwnership(ctx context.Context, actorID string, gameID string, territoryID string, ownerID string) error {
	if s == nil || s.store == nil {
		return apperrors.New(apperrors.CodeStorageFailure, "engine is not configured")
	}
	territoryID = strings.TrimSpace(territoryID)
	ownerID = strings.TrimSpace(ownerID)
	if territoryID == "" {
		return apperrors.New(apperrors.CodeTerritoryIDRequired, "territory id is required")
	}
	cfg, err := s.requireCreator(ctx, actorID, gameID)
	if err != nil {
		return err
	}
	if _, err := s.store.GetTerritory(ctx, cfg.ID, territoryID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return apperrors.WithMetadata(apperrors.CodeTerritoryNotFound, "territory not found", map[string]string{"territoryId": territoryID})
		}
		return apperrors.Wrap(apperrors.CodeStorageFailure, "load territory", err)
	}

	now := s.now().UTC()
	input := storage.OwnershipOverride{
		GameID:              cfg.ID,
		TerritoryID:         territoryID,
		OwnerID:             ownerID,
		CancelPendingAttack: s.overrideCancelsAttack,
		Audit: storage.AuditRecord{
			ID:          s.newID(),
			GameID:      cfg.ID,
			TerritoryID: territoryID,
			ActorID:     actorID,
			Action:      "admin_set_ownership",
			DetailJSON:  fmt.Sprintf(`{"ownerId":%q}`, ownerID),
			CreatedAt:   now,
		},
		Now: now,
	}
	if err := s.store.OverrideOwnership(ctx, input); err != nil {
		return apperrors.Wrap(apperrors.CodeStorageFailure, "override ownership", err)
	}

	s.publisher.Publish(events.Event{
		Type:        events.TypeOwnershipOverridden,
		GameID:      cfg.ID,
		TerritoryID: territoryID,
		ActorID:     actorID,
		At:          now,
		Detail:      map[string]string{"ownerId": ownerID},
	})
	return nil
}

// SetTerritoryEnabled flips one territory in or out of play. Only the
// creator may toggle. Existing ownership and combat state is untouched.
func (s *Service) SetTerritoryEnabled(ctx context.Context, actorID string, gameID string, territoryID string, enabled bool) error {
	if s == nil || s.store == nil {
		return apperrors.New(apperrors.CodeStorageFailure, "engine is not configured")
	}
	territoryID = strings.TrimSpace(territoryID)
	if territoryID == "" {
		return apperrors.New(apperrors.CodeTerritoryIDRequired, "territory id is required")
	}
	cfg, err := s.requireCreator(ctx, actorID, gameID)
	if err != nil {
		return err
	}

	now := s.now().UTC()
	audit := storage.AuditRecord{
		ID:          s.newID(),
		GameID:      cfg.ID,
		TerritoryID: territoryID,
		ActorID:     actorID,
		Action:      "admin_set_territory_enabled",
		DetailJSON:  fmt.Sprintf(`{"enabled":%t}`, enabled),
		CreatedAt:   now,
	}
	if err := s.store.SetTerritoryDisabled(ctx, cfg.ID, territoryID, !enabled, audit); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return apperrors.WithMetadata(apperrors.CodeTerritoryNotFound, "territory not found", map[string]string{"territoryId": territoryID})
		}
		return apperrors.Wrap(apperrors.CodeStorageFailure, "set territory enabled", err)
	}

	s.publisher.Publish(events.Event{
		Type:        events.TypeTerritoryToggled,
		GameID:      cfg.ID,
		TerritoryID: territoryID,
		ActorID:     actorID,
		At:          now,
		Detail:      map[string]string{"enabled": fmt.Sprintf("%t", enabled)},
	})
	return nil
}

func (s *Service) requireCreator(ctx context.Context, actorID string, gameID string) (storage.GameRecord, error) {
	actorID = strings.TrimSpace(actorID)
	gameID = strings.TrimSpace(gameID)
	if actorID == "" {
		return storage.GameRecord{}, apperrors.New(apperrors.CodePlayerIDRequired, "actor id is required")
	}
	if gameID == "" {
		return storage.GameRecord{}, apperrors.New(apperrors.CodeGameIDRequired, "game id is required")
	}
	cfg, err := s.loadGame(ctx, gameID)
	if err != nil {
		return storage.GameRecord{}, err
	}
	if cfg.CreatorID != actorID {
		return storage.GameRecord{}, apperrors.New(apperrors.CodeNotGameCreator, "only the game creator may do this")
	}
	return cfg, nil
}

func clampNonNegative(value int) int {
	if value < 0 {
		return 0
	}
	return value
}

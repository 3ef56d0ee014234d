package engine

import (
	"context"

	apperrors "geobattle/internal/platform/errors"
	"geobattle/internal/services/game/events"
)

// SweepResult summarizes one resolution pass.
type SweepResult struct {
	AttacksCaptured int
	LedgersReset    int64
	CooldownsPurged int64
}

// Sweep runs one resolution pass: expired pending attacks become
// captures, stale daily ledgers refill, and spent cooldowns are purged.
// The pass is idempotent and safe to run concurrently with live actions
// and with itself.
func (s *Service) Sweep(ctx context.Context) (SweepResult, error) {
	if s == nil || s.store == nil {
		return SweepResult{}, apperrors.New(apperrors.CodeStorageFailure, "engine is not configured")
	}
	now := s.now().UTC()

	captured, err := s.store.ResolveExpiredAttacks(ctx, now, s.newID)
	if err != nil {
		return SweepResult{}, apperrors.Wrap(apperrors.CodeStorageFailure, "resolve expired attacks", err)
	}
	for _, attack := range captured {
		s.publisher.Publish(events.Event{
			Type:        events.TypeTerritoryCaptured,
			GameID:      attack.GameID,
			TerritoryID: attack.TerritoryID,
			ActorID:     attack.AttackerID,
			At:          now,
			Detail:      map[string]string{"attackId": attack.ID, "defenderId": attack.DefenderID},
		})
	}

	ledgersReset, err := s.store.ResetStaleLedgers(ctx, now)
	if err != nil {
		return SweepResult{}, apperrors.Wrap(apperrors.CodeStorageFailure, "reset stale ledgers", err)
	}
	cooldownsPurged, err := s.store.DeleteExpiredCooldowns(ctx, now)
	if err != nil {
		return SweepResult{}, apperrors.Wrap(apperrors.CodeStorageFailure, "delete expired cooldowns", err)
	}

	return SweepResult{
		AttacksCaptured: len(captured),
		LedgersReset:    ledgersReset,
		CooldownsPurged: cooldownsPurged,
	}, nil
}

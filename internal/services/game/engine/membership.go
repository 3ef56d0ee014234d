package engine

import (
	"context"
	"errors"
	"strings"

	apperrors "geobattle/internal/platform/errors"
	"geobattle/internal/services/game/storage"
)

// Join enrolls one player into a game with a full day of allowances.
// A player may be in a bounded number of games at once.
func (s *Service) Join(ctx context.Context, gameID string, playerID string) (storage.LedgerRecord, error) {
	if s == nil || s.store == nil {
		return storage.LedgerRecord{}, apperrors.New(apperrors.CodeStorageFailure, "engine is not configured")
	}
	gameID = strings.TrimSpace(gameID)
	playerID = strings.TrimSpace(playerID)
	if gameID == "" {
		return storage.LedgerRecord{}, apperrors.New(apperrors.CodeGameIDRequired, "game id is required")
	}
	if playerID == "" {
		return storage.LedgerRecord{}, apperrors.New(apperrors.CodePlayerIDRequired, "player id is required")
	}
	cfg, err := s.loadGame(ctx, gameID)
	if err != nil {
		return storage.LedgerRecord{}, err
	}

	now := s.now().UTC()
	initial := storage.LedgerRecord{
		GameID:           cfg.ID,
		PlayerID:         playerID,
		AvailableAttacks: cfg.DailyAttackAllowance,
		AvailableClaims:  cfg.DailyClaimAllowance,
		LastResetAt:      now,
		UpdatedAt:        now,
	}
	err = s.store.JoinGame(ctx, storage.JoinInput{
		Membership:    storage.MembershipRecord{GameID: cfg.ID, PlayerID: playerID, JoinedAt: now},
		Ledger:        initial,
		MembershipCap: s.membershipCap,
	})
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrConflict):
			return storage.LedgerRecord{}, apperrors.New(apperrors.CodeAlreadyInGame, "player already joined this game")
		case errors.Is(err, storage.ErrLimitExceeded):
			return storage.LedgerRecord{}, apperrors.WithMetadata(apperrors.CodeGameMembershipLimit, "player is in too many games", map[string]string{"playerId": playerID})
		case errors.Is(err, storage.ErrNotFound):
			return storage.LedgerRecord{}, apperrors.New(apperrors.CodeGameNotFound, "game not found")
		}
		return storage.LedgerRecord{}, apperrors.Wrap(apperrors.CodeStorageFailure, "join game", err)
	}
	return initial, nil
}

// Leave removes one player from a game, releasing their holdings and
// dropping any pending attack they are a side of.
func (s *Service) Leave(ctx context.Context, gameID string, playerID string) error {
	if s == nil || s.store == nil {
		return apperrors.New(apperrors.CodeStorageFailure, "engine is not configured")
	}
	gameID = strings.TrimSpace(gameID)
	playerID = strings.TrimSpace(playerID)
	if gameID == "" {
		return apperrors.New(apperrors.CodeGameIDRequired, "game id is required")
	}
	if playerID == "" {
		return apperrors.New(apperrors.CodePlayerIDRequired, "player id is required")
	}

	if err := s.store.LeaveGame(ctx, gameID, playerID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return apperrors.New(apperrors.CodePlayerNotInGame, "player has not joined this game")
		}
		return apperrors.Wrap(apperrors.CodeStorageFailure, "leave game", err)
	}
	return nil
}

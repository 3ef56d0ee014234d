package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"geobattle/internal/services/game/storage"
)

// GetMembership loads one player's participation row in a game.
func (s *Store) GetMembership(ctx context.Context, gameID string, playerID string) (storage.MembershipRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.MembershipRecord{}, err
	}
	if err := s.ready(); err != nil {
		return storage.MembershipRecord{}, err
	}
	gameID = strings.TrimSpace(gameID)
	playerID = strings.TrimSpace(playerID)
	if gameID == "" {
		return storage.MembershipRecord{}, fmt.Errorf("game id is required")
	}
	if playerID == "" {
		return storage.MembershipRecord{}, fmt.Errorf("player id is required")
	}

	row := s.sqlDB.QueryRowContext(ctx, `
SELECT game_id, player_id, joined_at
FROM memberships
WHERE game_id = ? AND player_id = ?
`, gameID, playerID)
	var record storage.MembershipRecord
	var joinedAt int64
	if err := row.Scan(&record.GameID, &record.PlayerID, &joinedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.MembershipRecord{}, storage.ErrNotFound
		}
		return storage.MembershipRecord{}, fmt.Errorf("get membership: %w", err)
	}
	record.JoinedAt = fromMillis(joinedAt)
	return record, nil
}

// ListMembershipsByPlayer lists every game one player participates in.
func (s *Store) ListMembershipsByPlayer(ctx context.Context, playerID string) ([]storage.MembershipRecord, error) {
	return s.listMemberships(ctx, `
SELECT game_id, player_id, joined_at
FROM memberships
WHERE player_id = ?
ORDER BY joined_at ASC, game_id ASC
`, strings.TrimSpace(playerID))
}

// ListMembershipsByGame lists every player of one game.
func (s *Store) ListMembershipsByGame(ctx context.Context, gameID string) ([]storage.MembershipRecord, error) {
	return s.listMemberships(ctx, `
SELECT game_id, player_id, joined_at
FROM memberships
WHERE game_id = ?
ORDER BY joined_at ASC, player_id ASC
`, strings.TrimSpace(gameID))
}

func (s *Store) listMemberships(ctx context.Context, query string, key string) ([]storage.MembershipRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.ready(); err != nil {
		return nil, err
	}
	if key == "" {
		return nil, fmt.Errorf("membership query key is required")
	}

	rows, err := s.sqlDB.QueryContext(ctx, query, key)
	if err != nil {
		return nil, fmt.Errorf("list memberships: %w", err)
	}
	defer rows.Close()

	var results []storage.MembershipRecord
	for rows.Next() {
		var record storage.MembershipRecord
		var joinedAt int64
		if scanErr := rows.Scan(&record.GameID, &record.PlayerID, &joinedAt); scanErr != nil {
			return nil, fmt.Errorf("scan membership row: %w", scanErr)
		}
		record.JoinedAt = fromMillis(joinedAt)
		results = append(results, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate membership rows: %w", err)
	}
	return results, nil
}

// JoinGame atomically enrolls one player with their starting allowance
// ledger. Enrollment past the per-player game cap fails with
// storage.ErrLimitExceeded; rejoining an already joined game fails with
// storage.ErrConflict.
func (s *Store) JoinGame(ctx context.Context, input storage.JoinInput) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.ready(); err != nil {
		return err
	}
	membership := input.Membership
	membership.GameID = strings.TrimSpace(membership.GameID)
	membership.PlayerID = strings.TrimSpace(membership.PlayerID)
	if membership.GameID == "" {
		return fmt.Errorf("game id is required")
	}
	if membership.PlayerID == "" {
		return fmt.Errorf("player id is required")
	}
	if membership.JoinedAt.IsZero() {
		return fmt.Errorf("joined_at is required")
	}
	if input.MembershipCap <= 0 {
		return fmt.Errorf("membership cap must be greater than zero")
	}

	return s.inTx(ctx, "membership write", func(ctx context.Context, tx *sql.Tx) error {
		var joined int
		if err := tx.QueryRowContext(ctx, `
SELECT COUNT(1) FROM memberships WHERE player_id = ?
`, membership.PlayerID).Scan(&joined); err != nil {
			return fmt.Errorf("count player memberships: %w", err)
		}
		if joined >= input.MembershipCap {
			return storage.ErrLimitExceeded
		}

		if _, err := tx.ExecContext(ctx, `
INSERT INTO memberships (game_id, player_id, joined_at)
VALUES (?, ?, ?)
`, membership.GameID, membership.PlayerID, toMillis(membership.JoinedAt)); err != nil {
			if isUniqueConstraintError(err) {
				return storage.ErrConflict
			}
			if isForeignKeyConstraintError(err) {
				return storage.ErrNotFound
			}
			return fmt.Errorf("insert membership: %w", err)
		}
		return putLedgerExec(ctx, tx, input.Ledger)
	})
}

// LeaveGame atomically removes one player's participation: membership,
// ledger, cooldowns, holdings, and any pending attack the player is a
// side of.
func (s *Store) LeaveGame(ctx context.Context, gameID string, playerID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.ready(); err != nil {
		return err
	}
	gameID = strings.TrimSpace(gameID)
	playerID = strings.TrimSpace(playerID)
	if gameID == "" {
		return fmt.Errorf("game id is required")
	}
	if playerID == "" {
		return fmt.Errorf("player id is required")
	}

	return s.inTx(ctx, "membership removal", func(ctx context.Context, tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `
DELETE FROM memberships WHERE game_id = ? AND player_id = ?
`, gameID, playerID)
		if err != nil {
			return fmt.Errorf("delete membership: %w", err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("delete membership rows affected: %w", err)
		}
		if affected == 0 {
			return storage.ErrNotFound
		}

		if _, err := tx.ExecContext(ctx, `
DELETE FROM attacks
WHERE game_id = ? AND status = ? AND (attacker_id = ? OR defender_id = ?)
`, gameID, storage.AttackStatusPending, playerID, playerID); err != nil {
			return fmt.Errorf("delete pending attacks: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `
DELETE FROM ownerships WHERE game_id = ? AND owner_id = ?
`, gameID, playerID); err != nil {
			return fmt.Errorf("delete ownerships: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `
DELETE FROM cooldowns WHERE game_id = ? AND player_id = ?
`, gameID, playerID); err != nil {
			return fmt.Errorf("delete cooldowns: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `
DELETE FROM ledgers WHERE game_id = ? AND player_id = ?
`, gameID, playerID); err != nil {
			return fmt.Errorf("delete ledger: %w", err)
		}
		return nil
	})
}

package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"geobattle/internal/services/game/storage"
)

// ResolveExpiredAttacks captures every pending attack whose defense
// window closed at or before now. Each capture transfers ownership to the
// attacker, marks the attack captured, and appends an audit entry. The
// pass is idempotent: resolved attacks never match the pending filter
// again, so a rerun over the same instant resolves nothing.
func (s *Store) ResolveExpiredAttacks(ctx context.Context, now time.Time, newID func() string) ([]storage.AttackRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.ready(); err != nil {
		return nil, err
	}
	if now.IsZero() {
		return nil, fmt.Errorf("now is required")
	}
	if newID == nil {
		return nil, fmt.Errorf("id generator is required")
	}

	var captured []storage.AttackRecord
	err := s.inTx(ctx, "attack resolution", func(ctx context.Context, tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, `
SELECT id, game_id, territory_id, attacker_id, defender_id, status, initiated_at, expires_at, resolved_at
FROM attacks
WHERE status = ? AND expires_at <= ?
ORDER BY expires_at ASC, id ASC
`, storage.AttackStatusPending, toMillis(now))
		if err != nil {
			return fmt.Errorf("list expired attacks: %w", err)
		}
		expired := make([]storage.AttackRecord, 0)
		for rows.Next() {
			record, scanErr := scanAttack(rows.Scan)
			if scanErr != nil {
				rows.Close()
				return fmt.Errorf("scan expired attack row: %w", scanErr)
			}
			expired = append(expired, record)
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return fmt.Errorf("iterate expired attack rows: %w", err)
		}
		rows.Close()

		resolvedAt := now.UTC()
		for _, attack := range expired {
			result, err := tx.ExecContext(ctx, `
UPDATE attacks
SET status = ?, resolved_at = ?
WHERE id = ? AND status = ?
`, storage.AttackStatusCaptured, toMillis(resolvedAt), attack.ID, storage.AttackStatusPending)
			if err != nil {
				return fmt.Errorf("mark attack captured: %w", err)
			}
			affected, err := result.RowsAffected()
			if err != nil {
				return fmt.Errorf("mark attack captured rows affected: %w", err)
			}
			if affected == 0 {
				continue
			}

			if _, err := tx.ExecContext(ctx, `
INSERT INTO ownerships (game_id, territory_id, owner_id, claimed_at, updated_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(game_id, territory_id) DO UPDATE SET
	owner_id = excluded.owner_id,
	claimed_at = excluded.claimed_at,
	updated_at = excluded.updated_at
`,
				attack.GameID,
				attack.TerritoryID,
				attack.AttackerID,
				toMillis(resolvedAt),
				toMillis(resolvedAt),
			); err != nil {
				return fmt.Errorf("transfer ownership: %w", err)
			}

			detail, err := json.Marshal(map[string]string{
				"attackId":   attack.ID,
				"attackerId": attack.AttackerID,
				"defenderId": attack.DefenderID,
			})
			if err != nil {
				return fmt.Errorf("encode capture detail: %w", err)
			}
			if err := appendAuditExec(ctx, tx, storage.AuditRecord{
				ID:          newID(),
				GameID:      attack.GameID,
				TerritoryID: attack.TerritoryID,
				ActorID:     attack.AttackerID,
				Action:      "capture",
				DetailJSON:  string(detail),
				CreatedAt:   resolvedAt,
			}); err != nil {
				return err
			}

			attack.Status = storage.AttackStatusCaptured
			attack.ResolvedAt = &resolvedAt
			captured = append(captured, attack)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return captured, nil
}

// ResetStaleLedgers refills every ledger last reset before the current
// UTC day to its game's configured daily allowances.
func (s *Store) ResetStaleLedgers(ctx context.Context, now time.Time) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if err := s.ready(); err != nil {
		return 0, err
	}
	if now.IsZero() {
		return 0, fmt.Errorf("now is required")
	}

	u := now.UTC()
	dayStart := time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
	result, err := s.sqlDB.ExecContext(ctx, `
UPDATE ledgers
SET available_attacks = (SELECT daily_attack_allowance FROM games WHERE games.id = ledgers.game_id),
    available_claims = (SELECT daily_claim_allowance FROM games WHERE games.id = ledgers.game_id),
    last_reset_at = ?,
    updated_at = ?
WHERE last_reset_at < ?
`, toMillis(u), toMillis(u), toMillis(dayStart))
	if err != nil {
		return 0, fmt.Errorf("reset stale ledgers: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("reset stale ledgers rows affected: %w", err)
	}
	return affected, nil
}

// DeleteExpiredCooldowns purges lockouts whose expiry has passed.
func (s *Store) DeleteExpiredCooldowns(ctx context.Context, now time.Time) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if err := s.ready(); err != nil {
		return 0, err
	}
	if now.IsZero() {
		return 0, fmt.Errorf("now is required")
	}

	result, err := s.sqlDB.ExecContext(ctx, `
DELETE FROM cooldowns WHERE expires_at <= ?
`, toMillis(now))
	if err != nil {
		return 0, fmt.Errorf("delete expired cooldowns: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete expired cooldowns rows affected: %w", err)
	}
	return affected, nil
}

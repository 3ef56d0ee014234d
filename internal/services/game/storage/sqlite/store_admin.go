package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"geobattle/internal/services/game/storage"
)

// OverrideOwnership replaces or clears a territory's controlling player
// on behalf of the game creator. When CancelPendingAttack is set, an open
// attack on the territory is removed in the same transaction.
func (s *Store) OverrideOwnership(ctx context.Context, input storage.OwnershipOverride) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.ready(); err != nil {
		return err
	}
	input.GameID = strings.TrimSpace(input.GameID)
	input.TerritoryID = strings.TrimSpace(input.TerritoryID)
	input.OwnerID = strings.TrimSpace(input.OwnerID)
	if input.GameID == "" {
		return fmt.Errorf("game id is required")
	}
	if input.TerritoryID == "" {
		return fmt.Errorf("territory id is required")
	}
	if input.Now.IsZero() {
		return fmt.Errorf("now is required")
	}

	return s.inTx(ctx, "ownership override", func(ctx context.Context, tx *sql.Tx) error {
		if input.CancelPendingAttack {
			if _, err := tx.ExecContext(ctx, `
DELETE FROM attacks
WHERE game_id = ? AND territory_id = ? AND status = ?
`, input.GameID, input.TerritoryID, storage.AttackStatusPending); err != nil {
				return fmt.Errorf("cancel pending attack: %w", err)
			}
		}

		if input.OwnerID == "" {
			if _, err := tx.ExecContext(ctx, `
DELETE FROM ownerships WHERE game_id = ? AND territory_id = ?
`, input.GameID, input.TerritoryID); err != nil {
				return fmt.Errorf("clear ownership: %w", err)
			}
		} else {
			if _, err := tx.ExecContext(ctx, `
INSERT INTO ownerships (game_id, territory_id, owner_id, claimed_at, updated_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(game_id, territory_id) DO UPDATE SET
	owner_id = excluded.owner_id,
	claimed_at = excluded.claimed_at,
	updated_at = excluded.updated_at
`,
				input.GameID,
				input.TerritoryID,
				input.OwnerID,
				toMillis(input.Now),
				toMillis(input.Now),
			); err != nil {
				if isForeignKeyConstraintError(err) {
					return storage.ErrConflict
				}
				return fmt.Errorf("override ownership: %w", err)
			}
		}
		return appendAuditExec(ctx, tx, input.Audit)
	})
}

// OverrideLedger replaces one player's allowance balances on behalf of
// the game creator and appends the audit entry in the same transaction.
func (s *Store) OverrideLedger(ctx context.Context, record storage.LedgerRecord, audit storage.AuditRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.ready(); err != nil {
		return err
	}
	record.GameID = strings.TrimSpace(record.GameID)
	record.PlayerID = strings.TrimSpace(record.PlayerID)
	if record.GameID == "" {
		return fmt.Errorf("game id is required")
	}
	if record.PlayerID == "" {
		return fmt.Errorf("player id is required")
	}
	if record.AvailableAttacks < 0 || record.AvailableClaims < 0 {
		return fmt.Errorf("ledger balances must be non-negative")
	}
	if record.LastResetAt.IsZero() || record.UpdatedAt.IsZero() {
		return fmt.Errorf("ledger timestamps are required")
	}

	return s.inTx(ctx, "ledger override", func(ctx context.Context, tx *sql.Tx) error {
		if err := putLedgerExec(ctx, tx, record); err != nil {
			return err
		}
		return appendAuditExec(ctx, tx, audit)
	})
}

// SetTerritoryDisabled flips one territory's disabled flag and appends
// the audit entry.
func (s *Store) SetTerritoryDisabled(ctx context.Context, gameID string, territoryID string, disabled bool, audit storage.AuditRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.ready(); err != nil {
		return err
	}
	gameID = strings.TrimSpace(gameID)
	territoryID = strings.TrimSpace(territoryID)
	if gameID == "" {
		return fmt.Errorf("game id is required")
	}
	if territoryID == "" {
		return fmt.Errorf("territory id is required")
	}

	value := 0
	if disabled {
		value = 1
	}
	return s.inTx(ctx, "territory toggle", func(ctx context.Context, tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `
UPDATE territories SET disabled = ? WHERE game_id = ? AND id = ?
`, value, gameID, territoryID)
		if err != nil {
			return fmt.Errorf("set territory disabled: %w", err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("set territory disabled rows affected: %w", err)
		}
		if affected == 0 {
			return storage.ErrNotFound
		}
		return appendAuditExec(ctx, tx, audit)
	})
}

package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"geobattle/internal/services/game/storage"
)

// ApplyClaim atomically spends one claim allowance, records ownership,
// starts the actor's cooldown, and appends the audit entry. Concurrent
// claimers of the same territory lose with storage.ErrConflict; an empty
// allowance balance loses with storage.ErrExhausted.
func (s *Store) ApplyClaim(ctx context.Context, input storage.ClaimInput) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.ready(); err != nil {
		return err
	}
	if err := validateOwnershipKeys(input.Ownership.GameID, input.Ownership.TerritoryID, input.Ownership.OwnerID); err != nil {
		return err
	}
	if input.Now.IsZero() {
		return fmt.Errorf("now is required")
	}

	return s.inTx(ctx, "claim write", func(ctx context.Context, tx *sql.Tx) error {
		if input.LedgerReset != nil {
			if err := resetLedgerExec(ctx, tx, *input.LedgerReset); err != nil {
				return err
			}
		}
		if err := spendAllowanceExec(ctx, tx, "available_claims", input.Ownership.GameID, input.Ownership.OwnerID, input.Now); err != nil {
			return err
		}

		_, err := tx.ExecContext(ctx, `
INSERT INTO ownerships (game_id, territory_id, owner_id, claimed_at, updated_at)
VALUES (?, ?, ?, ?, ?)
`,
			input.Ownership.GameID,
			input.Ownership.TerritoryID,
			input.Ownership.OwnerID,
			toMillis(input.Ownership.ClaimedAt),
			toMillis(input.Ownership.UpdatedAt),
		)
		if err != nil {
			if isUniqueConstraintError(err) || isForeignKeyConstraintError(err) {
				return storage.ErrConflict
			}
			return fmt.Errorf("insert ownership: %w", err)
		}

		if err := putCooldownExec(ctx, tx, input.Cooldown); err != nil {
			return err
		}
		return appendAuditExec(ctx, tx, input.Audit)
	})
}

// ApplyAttack atomically spends one attack allowance, opens the pending
// attack, starts the attacker's cooldown, and appends the audit entry.
// The defender recorded on the attack must still control the territory
// when the write lands or the transaction fails with storage.ErrConflict.
func (s *Store) ApplyAttack(ctx context.Context, input storage.AttackInput) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.ready(); err != nil {
		return err
	}
	attack := input.Attack
	if strings.TrimSpace(attack.ID) == "" {
		return fmt.Errorf("attack id is required")
	}
	if err := validateOwnershipKeys(attack.GameID, attack.TerritoryID, attack.AttackerID); err != nil {
		return err
	}
	if input.Now.IsZero() {
		return fmt.Errorf("now is required")
	}

	return s.inTx(ctx, "attack write", func(ctx context.Context, tx *sql.Tx) error {
		if input.LedgerReset != nil {
			if err := resetLedgerExec(ctx, tx, *input.LedgerReset); err != nil {
				return err
			}
		}
		if err := spendAllowanceExec(ctx, tx, "available_attacks", attack.GameID, attack.AttackerID, input.Now); err != nil {
			return err
		}

		var currentOwner string
		err := tx.QueryRowContext(ctx, `
SELECT owner_id FROM ownerships WHERE game_id = ? AND territory_id = ?
`, attack.GameID, attack.TerritoryID).Scan(&currentOwner)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return storage.ErrConflict
			}
			return fmt.Errorf("check attack target owner: %w", err)
		}
		if currentOwner != attack.DefenderID {
			return storage.ErrConflict
		}

		_, err = tx.ExecContext(ctx, `
INSERT INTO attacks (id, game_id, territory_id, attacker_id, defender_id, status, initiated_at, expires_at, resolved_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, NULL)
`,
			attack.ID,
			attack.GameID,
			attack.TerritoryID,
			attack.AttackerID,
			attack.DefenderID,
			storage.AttackStatusPending,
			toMillis(attack.InitiatedAt),
			toMillis(attack.ExpiresAt),
		)
		if err != nil {
			if isUniqueConstraintError(err) || isForeignKeyConstraintError(err) {
				return storage.ErrConflict
			}
			return fmt.Errorf("insert attack: %w", err)
		}

		if err := putCooldownExec(ctx, tx, input.Cooldown); err != nil {
			return err
		}
		return appendAuditExec(ctx, tx, input.Audit)
	})
}

// ApplyDefense atomically marks one pending attack defended and appends
// the audit entry. The update is conditional on the attack still being
// pending and addressed to the acting defender; otherwise the transaction
// fails with storage.ErrNotFound. An expired-but-unswept attack is still
// defendable: expiry only takes effect when a resolution pass captures it.
func (s *Store) ApplyDefense(ctx context.Context, input storage.DefenseInput) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.ready(); err != nil {
		return err
	}
	if strings.TrimSpace(input.AttackID) == "" {
		return fmt.Errorf("attack id is required")
	}
	if strings.TrimSpace(input.GameID) == "" {
		return fmt.Errorf("game id is required")
	}
	if strings.TrimSpace(input.DefenderID) == "" {
		return fmt.Errorf("defender id is required")
	}
	if input.Now.IsZero() {
		return fmt.Errorf("now is required")
	}

	return s.inTx(ctx, "defense write", func(ctx context.Context, tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `
UPDATE attacks
SET status = ?, resolved_at = ?
WHERE game_id = ?
  AND id = ?
  AND defender_id = ?
  AND status = ?
`,
			storage.AttackStatusDefended,
			toMillis(input.Now),
			input.GameID,
			input.AttackID,
			input.DefenderID,
			storage.AttackStatusPending,
		)
		if err != nil {
			return fmt.Errorf("mark attack defended: %w", err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("mark attack defended rows affected: %w", err)
		}
		if affected == 0 {
			return storage.ErrNotFound
		}
		return appendAuditExec(ctx, tx, input.Audit)
	})
}

// spendAllowanceExec decrements one ledger balance column, refusing to go
// below zero. An unaffected row means the balance is spent for the day.
func spendAllowanceExec(ctx context.Context, execer sqlExecer, column string, gameID string, playerID string, now time.Time) error {
	query := fmt.Sprintf(`
UPDATE ledgers
SET %s = %s - 1, updated_at = ?
WHERE game_id = ? AND player_id = ? AND %s > 0
`, column, column, column)
	result, err := execer.ExecContext(ctx, query, toMillis(now), gameID, playerID)
	if err != nil {
		return fmt.Errorf("spend allowance: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("spend allowance rows affected: %w", err)
	}
	if affected == 0 {
		return storage.ErrExhausted
	}
	return nil
}

func validateOwnershipKeys(gameID string, territoryID string, playerID string) error {
	if strings.TrimSpace(gameID) == "" {
		return fmt.Errorf("game id is required")
	}
	if strings.TrimSpace(territoryID) == "" {
		return fmt.Errorf("territory id is required")
	}
	if strings.TrimSpace(playerID) == "" {
		return fmt.Errorf("player id is required")
	}
	return nil
}

package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"geobattle/internal/services/game/domain/territory"
	"geobattle/internal/services/game/storage"
)

// PutGame upserts one game's rule configuration row.
func (s *Store) PutGame(ctx context.Context, record storage.GameRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.ready(); err != nil {
		return err
	}
	record.ID = strings.TrimSpace(record.ID)
	record.Name = strings.TrimSpace(record.Name)
	record.CreatorID = strings.TrimSpace(record.CreatorID)
	if record.ID == "" {
		return fmt.Errorf("game id is required")
	}
	if record.CreatorID == "" {
		return fmt.Errorf("creator id is required")
	}
	if record.CreatedAt.IsZero() || record.UpdatedAt.IsZero() {
		return fmt.Errorf("game timestamps are required")
	}

	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO games (
	id, name, creator_id, cooldown_ms, defense_window_ms,
	daily_attack_allowance, daily_claim_allowance, created_at, updated_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	name = excluded.name,
	creator_id = excluded.creator_id,
	cooldown_ms = excluded.cooldown_ms,
	defense_window_ms = excluded.defense_window_ms,
	daily_attack_allowance = excluded.daily_attack_allowance,
	daily_claim_allowance = excluded.daily_claim_allowance,
	updated_at = excluded.updated_at
`,
		record.ID,
		record.Name,
		record.CreatorID,
		record.CooldownDuration.Milliseconds(),
		record.DefenseWindow.Milliseconds(),
		record.DailyAttackAllowance,
		record.DailyClaimAllowance,
		toMillis(record.CreatedAt),
		toMillis(record.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("put game: %w", err)
	}
	return nil
}

// GetGame loads one game's rule configuration.
func (s *Store) GetGame(ctx context.Context, gameID string) (storage.GameRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.GameRecord{}, err
	}
	if err := s.ready(); err != nil {
		return storage.GameRecord{}, err
	}
	gameID = strings.TrimSpace(gameID)
	if gameID == "" {
		return storage.GameRecord{}, fmt.Errorf("game id is required")
	}

	row := s.sqlDB.QueryRowContext(ctx, `
SELECT id, name, creator_id, cooldown_ms, defense_window_ms,
       daily_attack_allowance, daily_claim_allowance, created_at, updated_at
FROM games
WHERE id = ?
`, gameID)
	record, err := scanGame(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.GameRecord{}, storage.ErrNotFound
		}
		return storage.GameRecord{}, fmt.Errorf("get game: %w", err)
	}
	return record, nil
}

// PutTerritory upserts one territory row.
func (s *Store) PutTerritory(ctx context.Context, record storage.TerritoryRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.ready(); err != nil {
		return err
	}
	record.ID = strings.TrimSpace(record.ID)
	record.GameID = strings.TrimSpace(record.GameID)
	if record.ID == "" {
		return fmt.Errorf("territory id is required")
	}
	if record.GameID == "" {
		return fmt.Errorf("game id is required")
	}
	if record.CreatedAt.IsZero() {
		return fmt.Errorf("created_at is required")
	}
	if !territory.Kind(record.Kind).Valid() {
		return fmt.Errorf("unknown territory kind %q", record.Kind)
	}

	disabled := 0
	if record.Disabled {
		disabled = 1
	}
	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO territories (id, game_id, geo_id, name, kind, parent_country, disabled, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(game_id, id) DO UPDATE SET
	geo_id = excluded.geo_id,
	name = excluded.name,
	kind = excluded.kind,
	parent_country = excluded.parent_country,
	disabled = excluded.disabled
`,
		record.ID,
		record.GameID,
		record.GeoID,
		record.Name,
		record.Kind,
		record.ParentCountry,
		disabled,
		toMillis(record.CreatedAt),
	)
	if err != nil {
		if isForeignKeyConstraintError(err) {
			return storage.ErrConflict
		}
		return fmt.Errorf("put territory: %w", err)
	}
	return nil
}

// GetTerritory loads one territory by game and id.
func (s *Store) GetTerritory(ctx context.Context, gameID string, territoryID string) (storage.TerritoryRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.TerritoryRecord{}, err
	}
	if err := s.ready(); err != nil {
		return storage.TerritoryRecord{}, err
	}
	gameID = strings.TrimSpace(gameID)
	territoryID = strings.TrimSpace(territoryID)
	if gameID == "" {
		return storage.TerritoryRecord{}, fmt.Errorf("game id is required")
	}
	if territoryID == "" {
		return storage.TerritoryRecord{}, fmt.Errorf("territory id is required")
	}

	row := s.sqlDB.QueryRowContext(ctx, `
SELECT id, game_id, geo_id, name, kind, parent_country, disabled, created_at
FROM territories
WHERE game_id = ? AND id = ?
`, gameID, territoryID)
	record, err := scanTerritory(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.TerritoryRecord{}, storage.ErrNotFound
		}
		return storage.TerritoryRecord{}, fmt.Errorf("get territory: %w", err)
	}
	return record, nil
}

// ListTerritoriesByGame lists all territories of one game.
func (s *Store) ListTerritoriesByGame(ctx context.Context, gameID string) ([]storage.TerritoryRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.ready(); err != nil {
		return nil, err
	}
	gameID = strings.TrimSpace(gameID)
	if gameID == "" {
		return nil, fmt.Errorf("game id is required")
	}

	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT id, game_id, geo_id, name, kind, parent_country, disabled, created_at
FROM territories
WHERE game_id = ?
ORDER BY id ASC
`, gameID)
	if err != nil {
		return nil, fmt.Errorf("list territories: %w", err)
	}
	defer rows.Close()

	var results []storage.TerritoryRecord
	for rows.Next() {
		record, scanErr := scanTerritory(rows.Scan)
		if scanErr != nil {
			return nil, fmt.Errorf("scan territory row: %w", scanErr)
		}
		results = append(results, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate territory rows: %w", err)
	}
	return results, nil
}

// GetOwnership loads the controlling player of one territory.
func (s *Store) GetOwnership(ctx context.Context, gameID string, territoryID string) (storage.OwnershipRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.OwnershipRecord{}, err
	}
	if err := s.ready(); err != nil {
		return storage.OwnershipRecord{}, err
	}
	gameID = strings.TrimSpace(gameID)
	territoryID = strings.TrimSpace(territoryID)
	if gameID == "" {
		return storage.OwnershipRecord{}, fmt.Errorf("game id is required")
	}
	if territoryID == "" {
		return storage.OwnershipRecord{}, fmt.Errorf("territory id is required")
	}

	row := s.sqlDB.QueryRowContext(ctx, `
SELECT game_id, territory_id, owner_id, claimed_at, updated_at
FROM ownerships
WHERE game_id = ? AND territory_id = ?
`, gameID, territoryID)
	record, err := scanOwnership(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.OwnershipRecord{}, storage.ErrNotFound
		}
		return storage.OwnershipRecord{}, fmt.Errorf("get ownership: %w", err)
	}
	return record, nil
}

// ListOwnershipsByGame lists all claimed territories of one game.
func (s *Store) ListOwnershipsByGame(ctx context.Context, gameID string) ([]storage.OwnershipRecord, error) {
	return s.listOwnerships(ctx, `
SELECT game_id, territory_id, owner_id, claimed_at, updated_at
FROM ownerships
WHERE game_id = ?
ORDER BY territory_id ASC
`, strings.TrimSpace(gameID))
}

// ListOwnershipsByOwner lists one player's holdings in a game.
func (s *Store) ListOwnershipsByOwner(ctx context.Context, gameID string, ownerID string) ([]storage.OwnershipRecord, error) {
	return s.listOwnerships(ctx, `
SELECT game_id, territory_id, owner_id, claimed_at, updated_at
FROM ownerships
WHERE game_id = ? AND owner_id = ?
ORDER BY territory_id ASC
`, strings.TrimSpace(gameID), strings.TrimSpace(ownerID))
}

func (s *Store) listOwnerships(ctx context.Context, query string, args ...any) ([]storage.OwnershipRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.ready(); err != nil {
		return nil, err
	}
	for _, arg := range args {
		if value, ok := arg.(string); ok && value == "" {
			return nil, fmt.Errorf("ownership query argument is required")
		}
	}

	rows, err := s.sqlDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list ownerships: %w", err)
	}
	defer rows.Close()

	var results []storage.OwnershipRecord
	for rows.Next() {
		record, scanErr := scanOwnership(rows.Scan)
		if scanErr != nil {
			return nil, fmt.Errorf("scan ownership row: %w", scanErr)
		}
		results = append(results, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ownership rows: %w", err)
	}
	return results, nil
}

// GetAttack loads one attack by id within a game.
func (s *Store) GetAttack(ctx context.Context, gameID string, attackID string) (storage.AttackRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.AttackRecord{}, err
	}
	if err := s.ready(); err != nil {
		return storage.AttackRecord{}, err
	}
	gameID = strings.TrimSpace(gameID)
	attackID = strings.TrimSpace(attackID)
	if gameID == "" {
		return storage.AttackRecord{}, fmt.Errorf("game id is required")
	}
	if attackID == "" {
		return storage.AttackRecord{}, fmt.Errorf("attack id is required")
	}

	row := s.sqlDB.QueryRowContext(ctx, `
SELECT id, game_id, territory_id, attacker_id, defender_id, status, initiated_at, expires_at, resolved_at
FROM attacks
WHERE game_id = ? AND id = ?
`, gameID, attackID)
	record, err := scanAttack(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.AttackRecord{}, storage.ErrNotFound
		}
		return storage.AttackRecord{}, fmt.Errorf("get attack: %w", err)
	}
	return record, nil
}

// GetPendingAttackByTerritory loads the open attack on one territory, if any.
func (s *Store) GetPendingAttackByTerritory(ctx context.Context, gameID string, territoryID string) (storage.AttackRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.AttackRecord{}, err
	}
	if err := s.ready(); err != nil {
		return storage.AttackRecord{}, err
	}
	gameID = strings.TrimSpace(gameID)
	territoryID = strings.TrimSpace(territoryID)
	if gameID == "" {
		return storage.AttackRecord{}, fmt.Errorf("game id is required")
	}
	if territoryID == "" {
		return storage.AttackRecord{}, fmt.Errorf("territory id is required")
	}

	row := s.sqlDB.QueryRowContext(ctx, `
SELECT id, game_id, territory_id, attacker_id, defender_id, status, initiated_at, expires_at, resolved_at
FROM attacks
WHERE game_id = ? AND territory_id = ? AND status = ?
`, gameID, territoryID, storage.AttackStatusPending)
	record, err := scanAttack(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.AttackRecord{}, storage.ErrNotFound
		}
		return storage.AttackRecord{}, fmt.Errorf("get pending attack: %w", err)
	}
	return record, nil
}

// ListPendingAttacksByGame lists open attacks in one game ordered by expiry.
func (s *Store) ListPendingAttacksByGame(ctx context.Context, gameID string) ([]storage.AttackRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.ready(); err != nil {
		return nil, err
	}
	gameID = strings.TrimSpace(gameID)
	if gameID == "" {
		return nil, fmt.Errorf("game id is required")
	}

	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT id, game_id, territory_id, attacker_id, defender_id, status, initiated_at, expires_at, resolved_at
FROM attacks
WHERE game_id = ? AND status = ?
ORDER BY expires_at ASC, id ASC
`, gameID, storage.AttackStatusPending)
	if err != nil {
		return nil, fmt.Errorf("list pending attacks: %w", err)
	}
	defer rows.Close()

	var results []storage.AttackRecord
	for rows.Next() {
		record, scanErr := scanAttack(rows.Scan)
		if scanErr != nil {
			return nil, fmt.Errorf("scan attack row: %w", scanErr)
		}
		results = append(results, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attack rows: %w", err)
	}
	return results, nil
}

// ListAttacksByPlayer lists the attacks a player was party to in one
// game, as attacker or defender, newest first.
func (s *Store) ListAttacksByPlayer(ctx context.Context, gameID string, playerID string) ([]storage.AttackRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.ready(); err != nil {
		return nil, err
	}
	gameID = strings.TrimSpace(gameID)
	playerID = strings.TrimSpace(playerID)
	if gameID == "" {
		return nil, fmt.Errorf("game id is required")
	}
	if playerID == "" {
		return nil, fmt.Errorf("player id is required")
	}

	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT id, game_id, territory_id, attacker_id, defender_id, status, initiated_at, expires_at, resolved_at
FROM attacks
WHERE game_id = ? AND (attacker_id = ? OR defender_id = ?)
ORDER BY initiated_at DESC, id ASC
`, gameID, playerID, playerID)
	if err != nil {
		return nil, fmt.Errorf("list player attacks: %w", err)
	}
	defer rows.Close()

	var results []storage.AttackRecord
	for rows.Next() {
		record, scanErr := scanAttack(rows.Scan)
		if scanErr != nil {
			return nil, fmt.Errorf("scan attack row: %w", scanErr)
		}
		results = append(results, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attack rows: %w", err)
	}
	return results, nil
}

// GetLedger loads one player's allowance ledger for a game.
func (s *Store) GetLedger(ctx context.Context, gameID string, playerID string) (storage.LedgerRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.LedgerRecord{}, err
	}
	if err := s.ready(); err != nil {
		return storage.LedgerRecord{}, err
	}
	gameID = strings.TrimSpace(gameID)
	playerID = strings.TrimSpace(playerID)
	if gameID == "" {
		return storage.LedgerRecord{}, fmt.Errorf("game id is required")
	}
	if playerID == "" {
		return storage.LedgerRecord{}, fmt.Errorf("player id is required")
	}

	row := s.sqlDB.QueryRowContext(ctx, `
SELECT game_id, player_id, available_attacks, available_claims, last_reset_at, updated_at
FROM ledgers
WHERE game_id = ? AND player_id = ?
`, gameID, playerID)
	record, err := scanLedger(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.LedgerRecord{}, storage.ErrNotFound
		}
		return storage.LedgerRecord{}, fmt.Errorf("get ledger: %w", err)
	}
	return record, nil
}

// PutLedger upserts one player's allowance ledger row.
func (s *Store) PutLedger(ctx context.Context, record storage.LedgerRecord) error {
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
	if record.LastResetAt.IsZero() || record.UpdatedAt.IsZero() {
		return fmt.Errorf("ledger timestamps are required")
	}
	if record.AvailableAttacks < 0 || record.AvailableClaims < 0 {
		return fmt.Errorf("ledger balances must be non-negative")
	}
	return putLedgerExec(ctx, s.sqlDB, record)
}

// GetCooldown loads one player's lockout on a territory.
func (s *Store) GetCooldown(ctx context.Context, gameID string, territoryID string, playerID string) (storage.CooldownRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.CooldownRecord{}, err
	}
	if err := s.ready(); err != nil {
		return storage.CooldownRecord{}, err
	}
	gameID = strings.TrimSpace(gameID)
	territoryID = strings.TrimSpace(territoryID)
	playerID = strings.TrimSpace(playerID)
	if gameID == "" || territoryID == "" || playerID == "" {
		return storage.CooldownRecord{}, fmt.Errorf("game, territory and player ids are required")
	}

	row := s.sqlDB.QueryRowContext(ctx, `
SELECT game_id, territory_id, player_id, expires_at, created_at
FROM cooldowns
WHERE game_id = ? AND territory_id = ? AND player_id = ?
`, gameID, territoryID, playerID)
	var record storage.CooldownRecord
	var expiresAt int64
	var createdAt int64
	if err := row.Scan(&record.GameID, &record.TerritoryID, &record.PlayerID, &expiresAt, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.CooldownRecord{}, storage.ErrNotFound
		}
		return storage.CooldownRecord{}, fmt.Errorf("get cooldown: %w", err)
	}
	record.ExpiresAt = fromMillis(expiresAt)
	record.CreatedAt = fromMillis(createdAt)
	return record, nil
}

// ListCooldownsByPlayer lists one player's lockouts in a game ordered
// by expiry.
func (s *Store) ListCooldownsByPlayer(ctx context.Context, gameID string, playerID string) ([]storage.CooldownRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.ready(); err != nil {
		return nil, err
	}
	gameID = strings.TrimSpace(gameID)
	playerID = strings.TrimSpace(playerID)
	if gameID == "" {
		return nil, fmt.Errorf("game id is required")
	}
	if playerID == "" {
		return nil, fmt.Errorf("player id is required")
	}

	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT game_id, territory_id, player_id, expires_at, created_at
FROM cooldowns
WHERE game_id = ? AND player_id = ?
ORDER BY expires_at ASC, territory_id ASC
`, gameID, playerID)
	if err != nil {
		return nil, fmt.Errorf("list player cooldowns: %w", err)
	}
	defer rows.Close()

	var results []storage.CooldownRecord
	for rows.Next() {
		var record storage.CooldownRecord
		var expiresAt int64
		var createdAt int64
		if err := rows.Scan(&record.GameID, &record.TerritoryID, &record.PlayerID, &expiresAt, &createdAt); err != nil {
			return nil, fmt.Errorf("scan cooldown row: %w", err)
		}
		record.ExpiresAt = fromMillis(expiresAt)
		record.CreatedAt = fromMillis(createdAt)
		results = append(results, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cooldown rows: %w", err)
	}
	return results, nil
}

func putLedgerExec(ctx context.Context, execer sqlExecer, record storage.LedgerRecord) error {
	_, err := execer.ExecContext(ctx, `
INSERT INTO ledgers (game_id, player_id, available_attacks, available_claims, last_reset_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(game_id, player_id) DO UPDATE SET
	available_attacks = excluded.available_attacks,
	available_claims = excluded.available_claims,
	last_reset_at = excluded.last_reset_at,
	updated_at = excluded.updated_at
`,
		record.GameID,
		record.PlayerID,
		record.AvailableAttacks,
		record.AvailableClaims,
		toMillis(record.LastResetAt),
		toMillis(record.UpdatedAt),
	)
	if err != nil {
		if isForeignKeyConstraintError(err) {
			return storage.ErrConflict
		}
		return fmt.Errorf("put ledger: %w", err)
	}
	return nil
}

// resetLedgerExec refills a stale daily ledger. The boundary condition
// makes a second reset over the same boundary a no-op, so two actions
// racing across UTC midnight cannot refund each other's spend.
func resetLedgerExec(ctx context.Context, execer sqlExecer, record storage.LedgerRecord) error {
	_, err := execer.ExecContext(ctx, `
UPDATE ledgers
SET available_attacks = ?, available_claims = ?, last_reset_at = ?, updated_at = ?
WHERE game_id = ? AND player_id = ? AND last_reset_at < ?
`,
		record.AvailableAttacks,
		record.AvailableClaims,
		toMillis(record.LastResetAt),
		toMillis(record.UpdatedAt),
		record.GameID,
		record.PlayerID,
		toMillis(record.LastResetAt),
	)
	if err != nil {
		return fmt.Errorf("reset ledger: %w", err)
	}
	return nil
}

func putCooldownExec(ctx context.Context, execer sqlExecer, record storage.CooldownRecord) error {
	_, err := execer.ExecContext(ctx, `
INSERT INTO cooldowns (game_id, territory_id, player_id, expires_at, created_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(game_id, territory_id, player_id) DO UPDATE SET
	expires_at = excluded.expires_at,
	created_at = excluded.created_at
`,
		record.GameID,
		record.TerritoryID,
		record.PlayerID,
		toMillis(record.ExpiresAt),
		toMillis(record.CreatedAt),
	)
	if err != nil {
		if isForeignKeyConstraintError(err) {
			return storage.ErrConflict
		}
		return fmt.Errorf("put cooldown: %w", err)
	}
	return nil
}

func scanGame(scan scanner) (storage.GameRecord, error) {
	var record storage.GameRecord
	var cooldownMillis int64
	var windowMillis int64
	var createdAt int64
	var updatedAt int64
	if err := scan(
		&record.ID,
		&record.Name,
		&record.CreatorID,
		&cooldownMillis,
		&windowMillis,
		&record.DailyAttackAllowance,
		&record.DailyClaimAllowance,
		&createdAt,
		&updatedAt,
	); err != nil {
		return storage.GameRecord{}, err
	}
	record.CooldownDuration = millisToDuration(cooldownMillis)
	record.DefenseWindow = millisToDuration(windowMillis)
	record.CreatedAt = fromMillis(createdAt)
	record.UpdatedAt = fromMillis(updatedAt)
	return record, nil
}

func scanTerritory(scan scanner) (storage.TerritoryRecord, error) {
	var record storage.TerritoryRecord
	var disabled int
	var createdAt int64
	if err := scan(
		&record.ID,
		&record.GameID,
		&record.GeoID,
		&record.Name,
		&record.Kind,
		&record.ParentCountry,
		&disabled,
		&createdAt,
	); err != nil {
		return storage.TerritoryRecord{}, err
	}
	record.Disabled = disabled != 0
	record.CreatedAt = fromMillis(createdAt)
	return record, nil
}

func scanOwnership(scan scanner) (storage.OwnershipRecord, error) {
	var record storage.OwnershipRecord
	var claimedAt int64
	var updatedAt int64
	if err := scan(
		&record.GameID,
		&record.TerritoryID,
		&record.OwnerID,
		&claimedAt,
		&updatedAt,
	); err != nil {
		return storage.OwnershipRecord{}, err
	}
	record.ClaimedAt = fromMillis(claimedAt)
	record.UpdatedAt = fromMillis(updatedAt)
	return record, nil
}

func scanAttack(scan scanner) (storage.AttackRecord, error) {
	var record storage.AttackRecord
	var initiatedAt int64
	var expiresAt int64
	var resolvedAt sql.NullInt64
	if err := scan(
		&record.ID,
		&record.GameID,
		&record.TerritoryID,
		&record.AttackerID,
		&record.DefenderID,
		&record.Status,
		&initiatedAt,
		&expiresAt,
		&resolvedAt,
	); err != nil {
		return storage.AttackRecord{}, err
	}
	record.InitiatedAt = fromMillis(initiatedAt)
	record.ExpiresAt = fromMillis(expiresAt)
	if resolvedAt.Valid {
		value := fromMillis(resolvedAt.Int64)
		record.ResolvedAt = &value
	}
	return record, nil
}

func scanLedger(scan scanner) (storage.LedgerRecord, error) {
	var record storage.LedgerRecord
	var lastResetAt int64
	var updatedAt int64
	if err := scan(
		&record.GameID,
		&record.PlayerID,
		&record.AvailableAttacks,
		&record.AvailableClaims,
		&lastResetAt,
		&updatedAt,
	); err != nil {
		return storage.LedgerRecord{}, err
	}
	record.LastResetAt = fromMillis(lastResetAt)
	record.UpdatedAt = fromMillis(updatedAt)
	return record, nil
}

func millisToDuration(value int64) time.Duration {
	return time.Duration(value) * time.Millisecond
}

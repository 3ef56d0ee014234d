package engine

import (
	"context"
	"errors"
	"strings"

	apperrors "geobattle/internal/platform/errors"
	"geobattle/internal/services/game/domain/combat"
	"geobattle/internal/services/game/domain/cooldown"
	"geobattle/internal/services/game/domain/territory"
	"geobattle/internal/services/game/storage"
)

// TerritoryView is one territory with its current combat state.
type TerritoryView struct {
	Territory     territory.Territory
	OwnerID       string
	PendingAttack *combat.Attack
}

// GameState is the full queryable snapshot of one game.
type GameState struct {
	Game        storage.GameRecord
	Territories []TerritoryView
	Players     []storage.MembershipRecord
}

// PlayerState is one player's view of their position in a game.
type PlayerState struct {
	Membership storage.MembershipRecord
	Ledger     storage.LedgerRecord
	Holdings   []territory.Ownership
	Cooldowns  []cooldown.Entry
	Attacks    []combat.Attack
}

// State loads the full territory map of one game: configuration,
// territories with owners and open attacks, and the player roster.
func (s *Service) State(ctx context.Context, gameID string) (GameState, error) {
	if s == nil || s.store == nil {
		return GameState{}, apperrors.New(apperrors.CodeStorageFailure, "engine is not configured")
	}
	gameID = strings.TrimSpace(gameID)
	if gameID == "" {
		return GameState{}, apperrors.New(apperrors.CodeGameIDRequired, "game id is required")
	}
	cfg, err := s.loadGame(ctx, gameID)
	if err != nil {
		return GameState{}, err
	}

	territories, err := s.store.ListTerritoriesByGame(ctx, cfg.ID)
	if err != nil {
		return GameState{}, apperrors.Wrap(apperrors.CodeStorageFailure, "list territories", err)
	}
	ownerships, err := s.store.ListOwnershipsByGame(ctx, cfg.ID)
	if err != nil {
		return GameState{}, apperrors.Wrap(apperrors.CodeStorageFailure, "list ownerships", err)
	}
	pending, err := s.store.ListPendingAttacksByGame(ctx, cfg.ID)
	if err != nil {
		return GameState{}, apperrors.Wrap(apperrors.CodeStorageFailure, "list pending attacks", err)
	}
	players, err := s.store.ListMembershipsByGame(ctx, cfg.ID)
	if err != nil {
		return GameState{}, apperrors.Wrap(apperrors.CodeStorageFailure, "list memberships", err)
	}

	ownerByTerritory := make(map[string]string, len(ownerships))
	for _, ownership := range ownerships {
		ownerByTerritory[ownership.TerritoryID] = ownership.OwnerID
	}
	attackByTerritory := make(map[string]storage.AttackRecord, len(pending))
	for _, attack := range pending {
		attackByTerritory[attack.TerritoryID] = attack
	}

	views := make([]TerritoryView, 0, len(territories))
	for _, record := range territories {
		view := TerritoryView{
			Territory: toTerritory(record),
			OwnerID:   ownerByTerritory[record.ID],
		}
		if attack, ok := attackByTerritory[record.ID]; ok {
			attackCopy := toAttack(attack)
			view.PendingAttack = &attackCopy
		}
		views = append(views, view)
	}

	return GameState{Game: cfg, Territories: views, Players: players}, nil
}

// Player loads one player's membership, ledger, holdings, active
// cooldowns, and attack history in a game.
func (s *Service) Player(ctx context.Context, gameID string, playerID string) (PlayerState, error) {
	if s == nil || s.store == nil {
		return PlayerState{}, apperrors.New(apperrors.CodeStorageFailure, "engine is not configured")
	}
	gameID = strings.TrimSpace(gameID)
	playerID = strings.TrimSpace(playerID)
	if gameID == "" {
		return PlayerState{}, apperrors.New(apperrors.CodeGameIDRequired, "game id is required")
	}
	if playerID == "" {
		return PlayerState{}, apperrors.New(apperrors.CodePlayerIDRequired, "player id is required")
	}

	membership, err := s.store.GetMembership(ctx, gameID, playerID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return PlayerState{}, apperrors.New(apperrors.CodePlayerNotInGame, "player has not joined this game")
		}
		return PlayerState{}, apperrors.Wrap(apperrors.CodeStorageFailure, "load membership", err)
	}
	ledgerRecord, err := s.store.GetLedger(ctx, gameID, playerID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return PlayerState{}, apperrors.New(apperrors.CodePlayerNotInGame, "player has not joined this game")
		}
		return PlayerState{}, apperrors.Wrap(apperrors.CodeStorageFailure, "load ledger", err)
	}
	holdings, err := s.store.ListOwnershipsByOwner(ctx, gameID, playerID)
	if err != nil {
		return PlayerState{}, apperrors.Wrap(apperrors.CodeStorageFailure, "list holdings", err)
	}
	cooldowns, err := s.store.ListCooldownsByPlayer(ctx, gameID, playerID)
	if err != nil {
		return PlayerState{}, apperrors.Wrap(apperrors.CodeStorageFailure, "list cooldowns", err)
	}
	attacks, err := s.store.ListAttacksByPlayer(ctx, gameID, playerID)
	if err != nil {
		return PlayerState{}, apperrors.Wrap(apperrors.CodeStorageFailure, "list attacks", err)
	}

	state := PlayerState{
		Membership: membership,
		Ledger:     ledgerRecord,
		Holdings:   make([]territory.Ownership, 0, len(holdings)),
		Cooldowns:  make([]cooldown.Entry, 0, len(cooldowns)),
		Attacks:    make([]combat.Attack, 0, len(attacks)),
	}
	for _, record := range holdings {
		state.Holdings = append(state.Holdings, toOwnership(record))
	}
	for _, record := range cooldowns {
		state.Cooldowns = append(state.Cooldowns, toCooldown(record))
	}
	for _, record := range attacks {
		state.Attacks = append(state.Attacks, toAttack(record))
	}
	return state, nil
}

// Audit loads one game's most recent audit entries, newest first. Only
// the creator may read the trail.
func (s *Service) Audit(ctx context.Context, actorID string, gameID string, limit int) ([]storage.AuditRecord, error) {
	if s == nil || s.store == nil {
		return nil, apperrors.New(apperrors.CodeStorageFailure, "engine is not configured")
	}
	if limit <= 0 {
		limit = 50
	}
	cfg, err := s.requireCreator(ctx, actorID, gameID)
	if err != nil {
		return nil, err
	}
	records, err := s.store.ListAuditByGame(ctx, cfg.ID, limit)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeStorageFailure, "list audit", err)
	}
	return records, nil
}

func toTerritory(record storage.TerritoryRecord) territory.Territory {
	return territory.Territory{
		ID:            record.ID,
		GameID:        record.GameID,
		GeoID:         record.GeoID,
		Name:          record.Name,
		Kind:          territory.Kind(record.Kind),
		ParentCountry: record.ParentCountry,
		Disabled:      record.Disabled,
		CreatedAt:     record.CreatedAt,
	}
}

func toOwnership(record storage.OwnershipRecord) territory.Ownership {
	return territory.Ownership{
		GameID:      record.GameID,
		TerritoryID: record.TerritoryID,
		OwnerID:     record.OwnerID,
		ClaimedAt:   record.ClaimedAt,
		UpdatedAt:   record.UpdatedAt,
	}
}

func toAttack(record storage.AttackRecord) combat.Attack {
	return combat.Attack{
		ID:          record.ID,
		GameID:      record.GameID,
		TerritoryID: record.TerritoryID,
		AttackerID:  record.AttackerID,
		DefenderID:  record.DefenderID,
		Status:      record.Status,
		InitiatedAt: record.InitiatedAt,
		ExpiresAt:   record.ExpiresAt,
		ResolvedAt:  record.ResolvedAt,
	}
}

func toCooldown(record storage.CooldownRecord) cooldown.Entry {
	return cooldown.Entry{
		GameID:      record.GameID,
		TerritoryID: record.TerritoryID,
		PlayerID:    record.PlayerID,
		ExpiresAt:   record.ExpiresAt,
		CreatedAt:   record.CreatedAt,
	}
}

package httpapi

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	apperrors "geobattle/internal/platform/errors"
	"geobattle/internal/platform/requestctx"
	"geobattle/internal/services/game/domain/combat"
	"geobattle/internal/services/game/engine"
	"geobattle/internal/services/game/storage"
)

type actionRequest struct {
	TerritoryID string `json:"territory_id"`
	Action      string `json:"action"`
}

type actionResponse struct {
	Action           string     `json:"action"`
	GameID           string     `json:"game_id"`
	TerritoryID      string     `json:"territory_id"`
	OwnerID          string     `json:"owner_id,omitempty"`
	AttackID         string     `json:"attack_id,omitempty"`
	AttackExpiresAt  *time.Time `json:"attack_expires_at,omitempty"`
	AvailableAttacks int        `json:"available_attacks"`
	AvailableClaims  int        `json:"available_claims"`
	CooldownUntil    *time.Time `json:"cooldown_until,omitempty"`
}

func (s *Server) handleAction(w http.ResponseWriter, r *http.Request) {
	var body actionRequest
	if err := decodeBody(r, &body); err != nil {
		s.writeError(w, err)
		return
	}
	action, err := engine.ParseActionKind(body.Action)
	if err != nil {
		s.writeError(w, err)
		return
	}
	result, err := s.engine.Perform(r.Context(), requestctx.PlayerIDFromContext(r.Context()), engine.ActionRequest{
		GameID:      r.PathValue("gameID"),
		TerritoryID: body.TerritoryID,
		Action:      action,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toActionResponse(result))
}

func toActionResponse(result engine.ActionResult) actionResponse {
	resp := actionResponse{
		Action:           string(result.Action),
		GameID:           result.GameID,
		TerritoryID:      result.TerritoryID,
		OwnerID:          result.OwnerID,
		AttackID:         result.AttackID,
		AvailableAttacks: result.AvailableAttacks,
		AvailableClaims:  result.AvailableClaims,
	}
	if !result.AttackExpiresAt.IsZero() {
		at := result.AttackExpiresAt
		resp.AttackExpiresAt = &at
	}
	if !result.CooldownUntil.IsZero() {
		at := result.CooldownUntil
		resp.CooldownUntil = &at
	}
	return resp
}

type ledgerResponse struct {
	GameID           string    `json:"game_id"`
	PlayerID         string    `json:"player_id"`
	AvailableAttacks int       `json:"available_attacks"`
	AvailableClaims  int       `json:"available_claims"`
	LastResetAt      time.Time `json:"last_reset_at"`
}

func toLedgerResponse(record storage.LedgerRecord) ledgerResponse {
	return ledgerResponse{
		GameID:           record.GameID,
		PlayerID:         record.PlayerID,
		AvailableAttacks: record.AvailableAttacks,
		AvailableClaims:  record.AvailableClaims,
		LastResetAt:      record.LastResetAt,
	}
}

func (s *Server) handleJoin(w http.ResponseWriter, r *http.Request) {
	ledger, err := s.engine.Join(r.Context(), r.PathValue("gameID"), requestctx.PlayerIDFromContext(r.Context()))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, toLedgerResponse(ledger))
}

func (s *Server) handleLeave(w http.ResponseWriter, r *http.Request) {
	err := s.engine.Leave(r.Context(), r.PathValue("gameID"), requestctx.PlayerIDFromContext(r.Context()))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusNoContent, nil)
}

type territoryViewResponse struct {
	ID            string          `json:"id"`
	GeoID         string          `json:"geo_id"`
	Name          string          `json:"name"`
	Kind          string          `json:"kind"`
	ParentCountry string          `json:"parent_country,omitempty"`
	Disabled      bool            `json:"disabled"`
	OwnerID       string          `json:"owner_id,omitempty"`
	PendingAttack *attackResponse `json:"pending_attack,omitempty"`
}

type attackResponse struct {
	ID          string     `json:"id"`
	TerritoryID string     `json:"territory_id"`
	AttackerID  string     `json:"attacker_id"`
	DefenderID  string     `json:"defender_id"`
	Status      string     `json:"status"`
	InitiatedAt time.Time  `json:"initiated_at"`
	ExpiresAt   time.Time  `json:"expires_at"`
	ResolvedAt  *time.Time `json:"resolved_at,omitempty"`
}

func toAttackResponse(attack combat.Attack) attackResponse {
	return attackResponse{
		ID:          attack.ID,
		TerritoryID: attack.TerritoryID,
		AttackerID:  attack.AttackerID,
		DefenderID:  attack.DefenderID,
		Status:      string(attack.Status),
		InitiatedAt: attack.InitiatedAt,
		ExpiresAt:   attack.ExpiresAt,
		ResolvedAt:  attack.ResolvedAt,
	}
}

type gameStateResponse struct {
	GameID               string                  `json:"game_id"`
	Name                 string                  `json:"name"`
	CreatorID            string                  `json:"creator_id"`
	CooldownSeconds      int64                   `json:"cooldown_seconds"`
	DefenseWindowSeconds int64                   `json:"defense_window_seconds"`
	DailyAttackAllowance int                     `json:"daily_attack_allowance"`
	DailyClaimAllowance  int                     `json:"daily_claim_allowance"`
	Territories          []territoryViewResponse `json:"territories"`
	Players              []playerResponse        `json:"players"`
}

type playerResponse struct {
	PlayerID string    `json:"player_id"`
	JoinedAt time.Time `json:"joined_at"`
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	state, err := s.engine.State(r.Context(), r.PathValue("gameID"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	resp := gameStateResponse{
		GameID:               state.Game.ID,
		Name:                 state.Game.Name,
		CreatorID:            state.Game.CreatorID,
		CooldownSeconds:      int64(state.Game.CooldownDuration / time.Second),
		DefenseWindowSeconds: int64(state.Game.DefenseWindow / time.Second),
		DailyAttackAllowance: state.Game.DailyAttackAllowance,
		DailyClaimAllowance:  state.Game.DailyClaimAllowance,
		Territories:          make([]territoryViewResponse, 0, len(state.Territories)),
		Players:              make([]playerResponse, 0, len(state.Players)),
	}
	for _, view := range state.Territories {
		item := territoryViewResponse{
			ID:            view.Territory.ID,
			GeoID:         view.Territory.GeoID,
			Name:          view.Territory.Name,
			Kind:          string(view.Territory.Kind),
			ParentCountry: view.Territory.ParentCountry,
			Disabled:      view.Territory.Disabled,
			OwnerID:       view.OwnerID,
		}
		if view.PendingAttack != nil {
			pending := toAttackResponse(*view.PendingAttack)
			item.PendingAttack = &pending
		}
		resp.Territories = append(resp.Territories, item)
	}
	for _, member := range state.Players {
		resp.Players = append(resp.Players, playerResponse{
			PlayerID: member.PlayerID,
			JoinedAt: member.JoinedAt,
		})
	}
	s.writeJSON(w, http.StatusOK, resp)
}

type playerStateResponse struct {
	GameID    string             `json:"game_id"`
	PlayerID  string             `json:"player_id"`
	JoinedAt  time.Time          `json:"joined_at"`
	Ledger    ledgerResponse     `json:"ledger"`
	Holdings  []holdingResponse  `json:"holdings"`
	Cooldowns []cooldownResponse `json:"cooldowns"`
	Attacks   []attackResponse   `json:"attacks"`
}

type holdingResponse struct {
	TerritoryID string    `json:"territory_id"`
	ClaimedAt   time.Time `json:"claimed_at"`
}

type cooldownResponse struct {
	TerritoryID string    `json:"territory_id"`
	ExpiresAt   time.Time `json:"expires_at"`
}

func (s *Server) handlePlayerMe(w http.ResponseWriter, r *http.Request) {
	state, err := s.engine.Player(r.Context(), r.PathValue("gameID"), requestctx.PlayerIDFromContext(r.Context()))
	if err != nil {
		s.writeError(w, err)
		return
	}
	resp := playerStateResponse{
		GameID:    state.Membership.GameID,
		PlayerID:  state.Membership.PlayerID,
		JoinedAt:  state.Membership.JoinedAt,
		Ledger:    toLedgerResponse(state.Ledger),
		Holdings:  make([]holdingResponse, 0, len(state.Holdings)),
		Cooldowns: make([]cooldownResponse, 0, len(state.Cooldowns)),
		Attacks:   make([]attackResponse, 0, len(state.Attacks)),
	}
	for _, holding := range state.Holdings {
		resp.Holdings = append(resp.Holdings, holdingResponse{
			TerritoryID: holding.TerritoryID,
			ClaimedAt:   holding.ClaimedAt,
		})
	}
	for _, cd := range state.Cooldowns {
		resp.Cooldowns = append(resp.Cooldowns, cooldownResponse{
			TerritoryID: cd.TerritoryID,
			ExpiresAt:   cd.ExpiresAt,
		})
	}
	for _, attack := range state.Attacks {
		resp.Attacks = append(resp.Attacks, toAttackResponse(attack))
	}
	s.writeJSON(w, http.StatusOK, resp)
}

type auditEntryResponse struct {
	ID          string    `json:"id"`
	TerritoryID string    `json:"territory_id,omitempty"`
	ActorID     string    `json:"actor_id"`
	Action      string    `json:"action"`
	Detail      string    `json:"detail"`
	CreatedAt   time.Time `json:"created_at"`
}

func (s *Server) handleAudit(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			s.writeError(w, apperrors.New(apperrors.CodeActionInvalid, "limit must be a positive integer"))
			return
		}
		limit = parsed
	}
	records, err := s.engine.Audit(r.Context(), requestctx.PlayerIDFromContext(r.Context()), r.PathValue("gameID"), limit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	entries := make([]auditEntryResponse, 0, len(records))
	for _, record := range records {
		entries = append(entries, auditEntryResponse{
			ID:          record.ID,
			TerritoryID: record.TerritoryID,
			ActorID:     record.ActorID,
			Action:      record.Action,
			Detail:      record.DetailJSON,
			CreatedAt:   record.CreatedAt,
		})
	}
	s.writeJSON(w, http.StatusOK, map[string][]auditEntryResponse{"entries": entries})
}

type grantRequest struct {
	PlayerID    string `json:"player_id"`
	AttackDelta int    `json:"attack_delta"`
	ClaimDelta  int    `json:"claim_delta"`
}

func (s *Server) handleGrant(w http.ResponseWriter, r *http.Request) {
	var body grantRequest
	if err := decodeBody(r, &body); err != nil {
		s.writeError(w, err)
		return
	}
	ledger, err := s.engine.GrantResources(r.Context(), requestctx.PlayerIDFromContext(r.Context()),
		r.PathValue("gameID"), body.PlayerID, body.AttackDelta, body.ClaimDelta)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toLedgerResponse(ledger))
}

type setOwnershipRequest struct {
	TerritoryID string `json:"territory_id"`
	OwnerID     string `json:"owner_id"`
}

func (s *Server) handleSetOwnership(w http.ResponseWriter, r *http.Request) {
	var body setOwnershipRequest
	if err := decodeBody(r, &body); err != nil {
		s.writeError(w, err)
		return
	}
	err := s.engine.SetOwnership(r.Context(), requestctx.PlayerIDFromContext(r.Context()),
		r.PathValue("gameID"), body.TerritoryID, body.OwnerID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusNoContent, nil)
}

type setEnabledRequest struct {
	Enabled bool `json:"enabled"`
}

func (s *Server) handleSetTerritoryEnabled(w http.ResponseWriter, r *http.Request) {
	var body setEnabledRequest
	if err := decodeBody(r, &body); err != nil {
		s.writeError(w, err)
		return
	}
	err := s.engine.SetTerritoryEnabled(r.Context(), requestctx.PlayerIDFromContext(r.Context()),
		r.PathValue("gameID"), r.PathValue("territoryID"), body.Enabled)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusNoContent, nil)
}

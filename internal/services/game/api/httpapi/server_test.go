package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	apperrors "geobattle/internal/platform/errors"
	"geobattle/internal/services/game/engine"
	"geobattle/internal/services/game/events"
	"geobattle/internal/services/game/storage"
	"geobattle/internal/services/game/storage/sqlite"
)

// tokenStub maps opaque tokens straight to player ids.
type tokenStub map[string]string

func (v tokenStub) VerifyAccessToken(token string) (string, error) {
	playerID, ok := v[token]
	if !ok {
		return "", apperrors.New(apperrors.CodeUnauthenticated, "access token is invalid")
	}
	return playerID, nil
}

type apiFixture struct {
	server *httptest.Server
	store  *sqlite.Store
	hub    *events.Hub
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "game.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if closeErr := store.Close(); closeErr != nil {
			t.Fatalf("close store: %v", closeErr)
		}
	})

	hub := events.NewHub()
	counter := 0
	svc, err := engine.New(engine.Config{
		Store:     store,
		Publisher: hub,
		NewID: func() string {
			counter++
			return fmt.Sprintf("id-%d", counter)
		},
	})
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}

	verifier := tokenStub{
		"creator-token": "creator-1",
		"player-token":  "player-1",
		"rival-token":   "player-2",
	}
	server := httptest.NewServer(NewServer(svc, hub, verifier).Handler())
	t.Cleanup(server.Close)
	return &apiFixture{server: server, store: store, hub: hub}
}

func (f *apiFixture) seedGame(t *testing.T) {
	t.Helper()
	now := time.Now().UTC()
	if err := f.store.PutGame(context.Background(), storage.GameRecord{
		ID:                   "game-1",
		Name:                 "World War Web",
		CreatorID:            "creator-1",
		CooldownDuration:     12 * time.Hour,
		DefenseWindow:        72 * time.Hour,
		DailyAttackAllowance: 3,
		DailyClaimAllowance:  3,
		CreatedAt:            now,
		UpdatedAt:            now,
	}); err != nil {
		t.Fatalf("seed game: %v", err)
	}
	if err := f.store.PutTerritory(context.Background(), storage.TerritoryRecord{
		ID:        "territory-1",
		GameID:    "game-1",
		GeoID:     "geo-territory-1",
		Name:      "territory-1",
		Kind:      "country",
		CreatedAt: now,
	}); err != nil {
		t.Fatalf("seed territory: %v", err)
	}
}

func (f *apiFixture) do(t *testing.T, method, path, token, body string) *http.Response {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, f.server.URL+path, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := f.server.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeError(t *testing.T, resp *http.Response) string {
	t.Helper()
	var body errorBody
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return body.Error.Code
}

func TestHealthz(t *testing.T) {
	t.Parallel()
	f := newAPIFixture(t)

	resp := f.do(t, http.MethodGet, "/healthz", "", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
}

func TestRequiresBearerToken(t *testing.T) {
	t.Parallel()
	f := newAPIFixture(t)
	f.seedGame(t)

	resp := f.do(t, http.MethodGet, "/v1/games/game-1/state", "", "")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusUnauthorized)
	}
	if code := decodeError(t, resp); code != string(apperrors.CodeUnauthenticated) {
		t.Fatalf("code = %q, want %q", code, apperrors.CodeUnauthenticated)
	}

	resp = f.do(t, http.MethodGet, "/v1/games/game-1/state", "bogus-token", "")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusUnauthorized)
	}
}

func TestJoinAndClaimFlow(t *testing.T) {
	t.Parallel()
	f := newAPIFixture(t)
	f.seedGame(t)

	resp := f.do(t, http.MethodPost, "/v1/games/game-1/join", "player-token", "")
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("join status = %d, want %d", resp.StatusCode, http.StatusCreated)
	}
	var ledger ledgerResponse
	if err := json.NewDecoder(resp.Body).Decode(&ledger); err != nil {
		t.Fatalf("decode join body: %v", err)
	}
	if ledger.AvailableClaims != 3 {
		t.Fatalf("available claims = %d, want 3", ledger.AvailableClaims)
	}

	resp = f.do(t, http.MethodPost, "/v1/games/game-1/join", "player-token", "")
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("rejoin status = %d, want %d", resp.StatusCode, http.StatusConflict)
	}
	if code := decodeError(t, resp); code != string(apperrors.CodeAlreadyInGame) {
		t.Fatalf("rejoin code = %q, want %q", code, apperrors.CodeAlreadyInGame)
	}

	resp = f.do(t, http.MethodPost, "/v1/games/game-1/actions", "player-token",
		`{"territory_id":"territory-1","action":"claim"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("claim status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	var action actionResponse
	if err := json.NewDecoder(resp.Body).Decode(&action); err != nil {
		t.Fatalf("decode claim body: %v", err)
	}
	if action.OwnerID != "player-1" {
		t.Fatalf("owner = %q, want %q", action.OwnerID, "player-1")
	}
	if action.AvailableClaims != 2 {
		t.Fatalf("available claims = %d, want 2", action.AvailableClaims)
	}
	if action.CooldownUntil == nil {
		t.Fatal("expected cooldown in claim response")
	}

	resp = f.do(t, http.MethodPost, "/v1/games/game-1/actions", "rival-token",
		`{"territory_id":"territory-1","action":"claim"}`)
	if code := decodeError(t, resp); code != string(apperrors.CodePlayerNotInGame) {
		t.Fatalf("outsider claim code = %q, want %q", code, apperrors.CodePlayerNotInGame)
	}
}

func TestActionRejectsUnknownFields(t *testing.T) {
	t.Parallel()
	f := newAPIFixture(t)
	f.seedGame(t)

	resp := f.do(t, http.MethodPost, "/v1/games/game-1/actions", "player-token",
		`{"territory_id":"territory-1","action":"claim","extra":true}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}
}

func TestStateListsTerritories(t *testing.T) {
	t.Parallel()
	f := newAPIFixture(t)
	f.seedGame(t)

	resp := f.do(t, http.MethodGet, "/v1/games/game-1/state", "player-token", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	var state gameStateResponse
	if err := json.NewDecoder(resp.Body).Decode(&state); err != nil {
		t.Fatalf("decode state: %v", err)
	}
	if state.GameID != "game-1" {
		t.Fatalf("game id = %q, want %q", state.GameID, "game-1")
	}
	if len(state.Territories) != 1 || state.Territories[0].ID != "territory-1" {
		t.Fatalf("unexpected territories: %+v", state.Territories)
	}
	if state.CooldownSeconds != int64((12 * time.Hour).Seconds()) {
		t.Fatalf("cooldown seconds = %d", state.CooldownSeconds)
	}
}

func TestPlayerMe(t *testing.T) {
	t.Parallel()
	f := newAPIFixture(t)
	f.seedGame(t)

	f.do(t, http.MethodPost, "/v1/games/game-1/join", "player-token", "")
	f.do(t, http.MethodPost, "/v1/games/game-1/actions", "player-token",
		`{"territory_id":"territory-1","action":"claim"}`)

	resp := f.do(t, http.MethodGet, "/v1/games/game-1/players/me", "player-token", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	var me playerStateResponse
	if err := json.NewDecoder(resp.Body).Decode(&me); err != nil {
		t.Fatalf("decode player state: %v", err)
	}
	if me.PlayerID != "player-1" {
		t.Fatalf("player id = %q, want %q", me.PlayerID, "player-1")
	}
	if len(me.Holdings) != 1 || me.Holdings[0].TerritoryID != "territory-1" {
		t.Fatalf("unexpected holdings: %+v", me.Holdings)
	}
	if len(me.Cooldowns) != 1 || me.Cooldowns[0].TerritoryID != "territory-1" {
		t.Fatalf("unexpected cooldowns: %+v", me.Cooldowns)
	}
	if len(me.Attacks) != 0 {
		t.Fatalf("unexpected attacks: %+v", me.Attacks)
	}
}

func TestAdminGrantRequiresCreator(t *testing.T) {
	t.Parallel()
	f := newAPIFixture(t)
	f.seedGame(t)

	f.do(t, http.MethodPost, "/v1/games/game-1/join", "player-token", "")

	resp := f.do(t, http.MethodPost, "/v1/games/game-1/admin/grants", "player-token",
		`{"player_id":"player-1","attack_delta":2,"claim_delta":0}`)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusForbidden)
	}
	if code := decodeError(t, resp); code != string(apperrors.CodeNotGameCreator) {
		t.Fatalf("code = %q, want %q", code, apperrors.CodeNotGameCreator)
	}

	resp = f.do(t, http.MethodPost, "/v1/games/game-1/admin/grants", "creator-token",
		`{"player_id":"player-1","attack_delta":2,"claim_delta":0}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("creator grant status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	var ledger ledgerResponse
	if err := json.NewDecoder(resp.Body).Decode(&ledger); err != nil {
		t.Fatalf("decode grant body: %v", err)
	}
	if ledger.AvailableAttacks != 5 {
		t.Fatalf("available attacks = %d, want 5", ledger.AvailableAttacks)
	}
}

func TestAdminOwnershipAndToggle(t *testing.T) {
	t.Parallel()
	f := newAPIFixture(t)
	f.seedGame(t)

	resp := f.do(t, http.MethodPost, "/v1/games/game-1/admin/ownership", "creator-token",
		`{"territory_id":"territory-1","owner_id":"player-1"}`)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("ownership status = %d, want %d", resp.StatusCode, http.StatusNoContent)
	}

	resp = f.do(t, http.MethodPost, "/v1/games/game-1/admin/territories/territory-1/enabled", "creator-token",
		`{"enabled":false}`)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("toggle status = %d, want %d", resp.StatusCode, http.StatusNoContent)
	}

	resp = f.do(t, http.MethodGet, "/v1/games/game-1/state", "creator-token", "")
	var state gameStateResponse
	if err := json.NewDecoder(resp.Body).Decode(&state); err != nil {
		t.Fatalf("decode state: %v", err)
	}
	if !state.Territories[0].Disabled {
		t.Fatal("expected territory to be disabled")
	}
	if state.Territories[0].OwnerID != "player-1" {
		t.Fatalf("owner = %q, want %q", state.Territories[0].OwnerID, "player-1")
	}
}

func TestAuditValidatesLimit(t *testing.T) {
	t.Parallel()
	f := newAPIFixture(t)
	f.seedGame(t)

	resp := f.do(t, http.MethodGet, "/v1/games/game-1/audit?limit=zero", "creator-token", "")
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}

	resp = f.do(t, http.MethodGet, "/v1/games/game-1/audit?limit=10", "creator-token", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
}

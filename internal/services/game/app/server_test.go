package server

import (
	"context"
	"crypto/ed25519"
	"errors"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"geobattle/internal/services/game/api/httpapi"
	"geobattle/internal/services/game/storage"
	storagesqlite "geobattle/internal/services/game/storage/sqlite"
)

func TestServerServesHealthz(t *testing.T) {
	t.Parallel()

	pub, _, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	srv, err := New(Options{
		Addr:   "127.0.0.1:0",
		DBPath: filepath.Join(t.TempDir(), "game.db"),
		Auth: &httpapi.AuthConfig{
			Issuer:   "geobattle-auth",
			Audience: "geobattle-game",
			Key:      pub,
		},
	})
	if err != nil {
		t.Fatalf("new server: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.Serve(ctx)
	}()

	resp, err := http.Get("http://" + srv.Addr() + "/healthz")
	if err != nil {
		cancel()
		t.Fatalf("get healthz: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("healthz status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	cancel()
	select {
	case err := <-serveErr:
		if err != nil {
			t.Fatalf("serve: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestServerSweepsExpiredAttacks(t *testing.T) {
	t.Parallel()

	dbPath := filepath.Join(t.TempDir(), "game.db")
	base := time.Now().UTC().Add(-3 * time.Hour)
	seedExpiredAttack(t, dbPath, base)

	pub, _, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	srv, err := New(Options{
		Addr:          "127.0.0.1:0",
		DBPath:        dbPath,
		SweepInterval: 25 * time.Millisecond,
		Auth: &httpapi.AuthConfig{
			Issuer:   "geobattle-auth",
			Audience: "geobattle-game",
			Key:      pub,
		},
	})
	if err != nil {
		t.Fatalf("new server: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.Serve(ctx)
	}()

	check, err := storagesqlite.Open(dbPath)
	if err != nil {
		cancel()
		t.Fatalf("open check store: %v", err)
	}
	defer check.Close()

	deadline := time.Now().Add(5 * time.Second)
	for {
		_, err := check.GetPendingAttackByTerritory(context.Background(), "game-1", "territory-1")
		if errors.Is(err, storage.ErrNotFound) {
			break
		}
		if time.Now().After(deadline) {
			cancel()
			t.Fatal("attack was not resolved by the in-process sweep")
		}
		time.Sleep(10 * time.Millisecond)
	}

	holdings, err := check.ListOwnershipsByOwner(context.Background(), "game-1", "player-2")
	if err != nil {
		t.Fatalf("list holdings: %v", err)
	}
	if len(holdings) != 1 || holdings[0].TerritoryID != "territory-1" {
		t.Fatalf("expected attacker to own territory-1, got %+v", holdings)
	}

	cancel()
	select {
	case err := <-serveErr:
		if err != nil {
			t.Fatalf("serve: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

// seedExpiredAttack writes a claimed territory with a pending attack
// whose defense window closed an hour after base.
func seedExpiredAttack(t *testing.T, dbPath string, base time.Time) {
	t.Helper()
	store, err := storagesqlite.Open(dbPath)
	if err != nil {
		t.Fatalf("open seed store: %v", err)
	}
	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			t.Fatalf("close seed store: %v", closeErr)
		}
	}()

	ctx := context.Background()
	if err := store.PutGame(ctx, storage.GameRecord{
		ID:                   "game-1",
		Name:                 "World War Web",
		CreatorID:            "creator-1",
		CooldownDuration:     12 * time.Hour,
		DefenseWindow:        time.Hour,
		DailyAttackAllowance: 1,
		DailyClaimAllowance:  1,
		CreatedAt:            base,
		UpdatedAt:            base,
	}); err != nil {
		t.Fatalf("seed game: %v", err)
	}
	if err := store.PutTerritory(ctx, storage.TerritoryRecord{
		ID:        "territory-1",
		GameID:    "game-1",
		GeoID:     "geo-territory-1",
		Name:      "territory-1",
		Kind:      "country",
		CreatedAt: base,
	}); err != nil {
		t.Fatalf("seed territory: %v", err)
	}
	for _, playerID := range []string{"player-1", "player-2"} {
		if err := store.PutLedger(ctx, storage.LedgerRecord{
			GameID:           "game-1",
			PlayerID:         playerID,
			AvailableAttacks: 1,
			AvailableClaims:  1,
			LastResetAt:      base,
			UpdatedAt:        base,
		}); err != nil {
			t.Fatalf("seed ledger %s: %v", playerID, err)
		}
	}
	if err := store.ApplyClaim(ctx, storage.ClaimInput{
		Ownership: storage.OwnershipRecord{
			GameID:      "game-1",
			TerritoryID: "territory-1",
			OwnerID:     "player-1",
			ClaimedAt:   base,
			UpdatedAt:   base,
		},
		Cooldown: storage.CooldownRecord{
			GameID:      "game-1",
			TerritoryID: "territory-1",
			PlayerID:    "player-1",
			ExpiresAt:   base.Add(12 * time.Hour),
			CreatedAt:   base,
		},
		Audit: storage.AuditRecord{
			ID:          "audit-claim",
			GameID:      "game-1",
			TerritoryID: "territory-1",
			ActorID:     "player-1",
			Action:      "claim",
			CreatedAt:   base,
		},
		Now: base,
	}); err != nil {
		t.Fatalf("seed claim: %v", err)
	}
	if err := store.ApplyAttack(ctx, storage.AttackInput{
		Attack: storage.AttackRecord{
			ID:          "attack-1",
			GameID:      "game-1",
			TerritoryID: "territory-1",
			AttackerID:  "player-2",
			DefenderID:  "player-1",
			Status:      storage.AttackStatusPending,
			InitiatedAt: base,
			ExpiresAt:   base.Add(time.Hour),
		},
		Cooldown: storage.CooldownRecord{
			GameID:      "game-1",
			TerritoryID: "territory-1",
			PlayerID:    "player-2",
			ExpiresAt:   base.Add(12 * time.Hour),
			CreatedAt:   base,
		},
		Audit: storage.AuditRecord{
			ID:          "audit-attack",
			GameID:      "game-1",
			TerritoryID: "territory-1",
			ActorID:     "player-2",
			Action:      "attack",
			CreatedAt:   base,
		},
		Now: base,
	}); err != nil {
		t.Fatalf("seed attack: %v", err)
	}
}

func TestNewRequiresAddr(t *testing.T) {
	t.Parallel()

	if _, err := New(Options{}); err == nil {
		t.Fatal("expected error for missing addr")
	}
}

func TestRunSweeperOnce(t *testing.T) {
	t.Parallel()

	err := RunSweeper(context.Background(), SweeperOptions{
		DBPath: filepath.Join(t.TempDir(), "game.db"),
		Once:   true,
	})
	if err != nil {
		t.Fatalf("run sweeper: %v", err)
	}
}

package game

import (
	"errors"
	"testing"
	"time"

	apperrors "geobattle/internal/platform/errors"
)

func validGame() Game {
	return Game{
		ID:                   "game-1",
		Name:                 "World War",
		CreatorID:            "creator-1",
		CooldownDuration:     DefaultCooldown,
		DefenseWindow:        DefaultDefenseWindow,
		DailyAttackAllowance: DefaultAttacksPerDay,
		DailyClaimAllowance:  DefaultClaimsPerDay,
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	if err := validGame().Validate(); err != nil {
		t.Fatalf("valid game rejected: %v", err)
	}

	missingID := validGame()
	missingID.ID = " "
	if err := missingID.Validate(); apperrors.CodeOf(err) != apperrors.CodeGameIDRequired {
		t.Fatalf("expected game id error, got %v", err)
	}

	noCooldown := validGame()
	noCooldown.CooldownDuration = 0
	if err := noCooldown.Validate(); apperrors.CodeOf(err) != apperrors.CodeGameRulesInvalid {
		t.Fatalf("expected rules error for cooldown, got %v", err)
	}

	noWindow := validGame()
	noWindow.DefenseWindow = -time.Hour
	if err := noWindow.Validate(); apperrors.CodeOf(err) != apperrors.CodeGameRulesInvalid {
		t.Fatalf("expected rules error for defense window, got %v", err)
	}

	negativeAllowance := validGame()
	negativeAllowance.DailyClaimAllowance = -1
	if err := negativeAllowance.Validate(); !errors.Is(err, apperrors.New(apperrors.CodeGameRulesInvalid, "")) {
		t.Fatalf("expected rules error for allowance, got %v", err)
	}
}

func TestIsCreator(t *testing.T) {
	t.Parallel()

	g := validGame()
	if !g.IsCreator("creator-1") {
		t.Fatal("expected creator match")
	}
	if g.IsCreator("player-2") {
		t.Fatal("expected non-creator mismatch")
	}
	if g.IsCreator("") {
		t.Fatal("expected empty player id to never match")
	}
}

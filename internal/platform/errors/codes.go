// Package errors provides structured error handling for engine rules.
package errors

import "net/http"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Validation errors
	CodeGameIDRequired      Code = "GAME_ID_REQUIRED"
	CodeTerritoryIDRequired Code = "TERRITORY_ID_REQUIRED"
	CodePlayerIDRequired    Code = "PLAYER_ID_REQUIRED"
	CodeActionInvalid       Code = "ACTION_INVALID"
	CodeGrantDeltaRequired  Code = "GRANT_DELTA_REQUIRED"

	// Identity errors
	CodeUnauthenticated Code = "UNAUTHENTICATED"
	CodeNotGameCreator  Code = "NOT_GAME_CREATOR"
	CodeSelfAttack      Code = "SELF_ATTACK"

	// Lookup errors
	CodeNotFound              Code = "NOT_FOUND"
	CodeGameNotFound          Code = "GAME_NOT_FOUND"
	CodeTerritoryNotFound     Code = "TERRITORY_NOT_FOUND"
	CodePendingAttackNotFound Code = "PENDING_ATTACK_NOT_FOUND"
	CodePlayerNotInGame       Code = "PLAYER_NOT_IN_GAME"

	// Combat rule conflicts
	CodeTerritoryDisabled     Code = "TERRITORY_DISABLED"
	CodeTerritoryAlreadyOwned Code = "TERRITORY_ALREADY_OWNED"
	CodeTerritoryNotOwned     Code = "TERRITORY_NOT_OWNED"
	CodeTerritoryUnderAttack  Code = "TERRITORY_UNDER_ATTACK"
	CodeTerritoryOnCooldown   Code = "TERRITORY_ON_COOLDOWN"
	CodeAlreadyInGame         Code = "ALREADY_IN_GAME"

	// Resource exhaustion
	CodeInsufficientAttacks Code = "INSUFFICIENT_ATTACKS"
	CodeInsufficientClaims  Code = "INSUFFICIENT_CLAIMS"
	CodeGameMembershipLimit Code = "GAME_MEMBERSHIP_LIMIT"

	// Internal errors
	CodeGameRulesInvalid Code = "GAME_RULES_INVALID"
	CodeStorageFailure   Code = "STORAGE_FAILURE"
)

// HTTPStatus maps domain codes to HTTP status codes.
func (c Code) HTTPStatus() int {
	switch c {
	// Bad request - validation failures, malformed input
	case CodeGameIDRequired,
		CodeTerritoryIDRequired,
		CodePlayerIDRequired,
		CodeActionInvalid,
		CodeGrantDeltaRequired:
		return http.StatusBadRequest

	// Unauthorized - missing or invalid identity
	case CodeUnauthenticated:
		return http.StatusUnauthorized

	// Forbidden - identity is valid but the action is not allowed
	case CodeNotGameCreator,
		CodeSelfAttack:
		return http.StatusForbidden

	// Not found - entity absent
	case CodeNotFound,
		CodeGameNotFound,
		CodeTerritoryNotFound,
		CodePendingAttackNotFound,
		CodePlayerNotInGame:
		return http.StatusNotFound

	// Conflict - current state disallows the transition
	case CodeTerritoryDisabled,
		CodeTerritoryAlreadyOwned,
		CodeTerritoryNotOwned,
		CodeTerritoryUnderAttack,
		CodeTerritoryOnCooldown,
		CodeAlreadyInGame:
		return http.StatusConflict

	// Too many requests - per-day action budget spent
	case CodeInsufficientAttacks,
		CodeInsufficientClaims,
		CodeGameMembershipLimit:
		return http.StatusTooManyRequests

	default:
		return http.StatusInternalServerError
	}
}

package httpapi

import (
	"crypto/ed25519"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"geobattle/internal/platform/config"
	apperrors "geobattle/internal/platform/errors"
	"geobattle/internal/platform/requestctx"
)

// TokenVerifier checks a bearer token and reports the player it belongs to.
type TokenVerifier interface {
	VerifyAccessToken(token string) (string, error)
}

// authEnv holds raw env values before post-parse validation.
type authEnv struct {
	Issuer    string `env:"GEOBATTLE_AUTH_ISSUER"`
	Audience  string `env:"GEOBATTLE_AUTH_AUDIENCE"`
	PublicKey string `env:"GEOBATTLE_AUTH_PUBLIC_KEY"`
}

// AuthConfig defines how access tokens are verified.
type AuthConfig struct {
	Issuer   string
	Audience string
	Key      ed25519.PublicKey
	Now      func() time.Time
}

// LoadAuthConfigFromEnv reads access token verification configuration.
func LoadAuthConfigFromEnv(now func() time.Time) (AuthConfig, error) {
	var raw authEnv
	if err := config.ParseEnv(&raw); err != nil {
		return AuthConfig{}, fmt.Errorf("parse auth env: %w", err)
	}
	issuer := strings.TrimSpace(raw.Issuer)
	audience := strings.TrimSpace(raw.Audience)
	publicKey := strings.TrimSpace(raw.PublicKey)
	if issuer == "" {
		return AuthConfig{}, fmt.Errorf("GEOBATTLE_AUTH_ISSUER is required")
	}
	if audience == "" {
		return AuthConfig{}, fmt.Errorf("GEOBATTLE_AUTH_AUDIENCE is required")
	}
	if publicKey == "" {
		return AuthConfig{}, fmt.Errorf("GEOBATTLE_AUTH_PUBLIC_KEY is required")
	}
	keyBytes, err := decodeBase64(publicKey)
	if err != nil {
		return AuthConfig{}, fmt.Errorf("decode auth public key: %w", err)
	}
	if len(keyBytes) != ed25519.PublicKeySize {
		return AuthConfig{}, fmt.Errorf("auth public key must be %d bytes", ed25519.PublicKeySize)
	}
	if now == nil {
		now = time.Now
	}
	return AuthConfig{
		Issuer:   issuer,
		Audience: audience,
		Key:      ed25519.PublicKey(keyBytes),
		Now:      now,
	}, nil
}

// accessClaims is the internal claims type used for JWT parsing.
type accessClaims struct {
	jwt.RegisteredClaims
}

// EdDSAVerifier verifies Ed25519-signed access tokens where the subject
// is the player id.
type EdDSAVerifier struct {
	cfg AuthConfig
}

// NewEdDSAVerifier wires a verifier from its configuration.
func NewEdDSAVerifier(cfg AuthConfig) (*EdDSAVerifier, error) {
	if cfg.Issuer == "" || cfg.Audience == "" {
		return nil, fmt.Errorf("auth issuer and audience are required")
	}
	if len(cfg.Key) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("auth public key must be %d bytes", ed25519.PublicKeySize)
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &EdDSAVerifier{cfg: cfg}, nil
}

// VerifyAccessToken checks the token signature and claims and returns
// the authenticated player id.
func (v *EdDSAVerifier) VerifyAccessToken(token string) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", apperrors.New(apperrors.CodeUnauthenticated, "access token is required")
	}

	var parsed accessClaims
	_, err := jwt.ParseWithClaims(token, &parsed, func(token *jwt.Token) (any, error) {
		return v.cfg.Key, nil
	},
		jwt.WithValidMethods([]string{"EdDSA"}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		return "", mapJWTError(err)
	}

	if parsed.Issuer != v.cfg.Issuer {
		return "", apperrors.New(apperrors.CodeUnauthenticated, "access token issuer mismatch")
	}
	if !audienceContains(parsed.Audience, v.cfg.Audience) {
		return "", apperrors.New(apperrors.CodeUnauthenticated, "access token audience mismatch")
	}
	if parsed.ExpiresAt == nil {
		return "", apperrors.New(apperrors.CodeUnauthenticated, "access token exp is required")
	}
	now := v.cfg.Now().UTC()
	if !parsed.ExpiresAt.Time.UTC().After(now) {
		return "", apperrors.New(apperrors.CodeUnauthenticated, "access token is expired")
	}
	if parsed.NotBefore != nil && now.Before(parsed.NotBefore.Time.UTC()) {
		return "", apperrors.New(apperrors.CodeUnauthenticated, "access token not active yet")
	}
	playerID := strings.TrimSpace(parsed.Subject)
	if playerID == "" {
		return "", apperrors.New(apperrors.CodeUnauthenticated, "access token subject is required")
	}
	return playerID, nil
}

// requirePlayer authenticates the bearer token and stores the player id
// on the request context.
func (s *Server) requirePlayer(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		playerID, err := s.authenticate(r)
		if err != nil {
			s.writeError(w, err)
			return
		}
		next(w, r.WithContext(requestctx.WithPlayerID(r.Context(), playerID)))
	}
}

func (s *Server) authenticate(r *http.Request) (string, error) {
	if s.verifier == nil {
		return "", apperrors.New(apperrors.CodeUnauthenticated, "authentication is not configured")
	}
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", apperrors.New(apperrors.CodeUnauthenticated, "bearer token is required")
	}
	return s.verifier.VerifyAccessToken(token)
}

// mapJWTError translates jwt library errors to application errors.
func mapJWTError(err error) error {
	if errors.Is(err, jwt.ErrTokenSignatureInvalid) || errors.Is(err, jwt.ErrEd25519Verification) {
		return apperrors.New(apperrors.CodeUnauthenticated, "access token signature is invalid")
	}
	if errors.Is(err, jwt.ErrTokenUnverifiable) {
		return apperrors.New(apperrors.CodeUnauthenticated, "access token alg is invalid")
	}
	return apperrors.New(apperrors.CodeUnauthenticated, "access token is invalid")
}

// audienceContains reports whether the audience list contains the given value.
func audienceContains(aud jwt.ClaimStrings, value string) bool {
	for _, item := range aud {
		if item == value {
			return true
		}
	}
	return false
}

func decodeBase64(value string) ([]byte, error) {
	if value == "" {
		return nil, errors.New("empty base64 value")
	}
	decoded, err := base64.RawStdEncoding.DecodeString(value)
	if err == nil {
		return decoded, nil
	}
	return base64.StdEncoding.DecodeString(value)
}

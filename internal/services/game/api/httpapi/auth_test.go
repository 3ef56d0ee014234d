package httpapi

import (
	"crypto/ed25519"
	"encoding/base64"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	apperrors "geobattle/internal/platform/errors"
)

func newTestKeys(t *testing.T) (ed25519.PublicKey, ed25519.PrivateKey) {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	return pub, priv
}

func signToken(t *testing.T, priv ed25519.PrivateKey, claims jwt.RegisteredClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims).SignedString(priv)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func baseClaims(now time.Time) jwt.RegisteredClaims {
	return jwt.RegisteredClaims{
		Issuer:    "geobattle-auth",
		Audience:  jwt.ClaimStrings{"geobattle-game"},
		Subject:   "player-1",
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		IssuedAt:  jwt.NewNumericDate(now),
	}
}

func newTestVerifier(t *testing.T, pub ed25519.PublicKey, now time.Time) *EdDSAVerifier {
	t.Helper()
	verifier, err := NewEdDSAVerifier(AuthConfig{
		Issuer:   "geobattle-auth",
		Audience: "geobattle-game",
		Key:      pub,
		Now:      func() time.Time { return now },
	})
	if err != nil {
		t.Fatalf("new verifier: %v", err)
	}
	return verifier
}

func TestVerifyAccessToken(t *testing.T) {
	t.Parallel()
	pub, priv := newTestKeys(t)
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	verifier := newTestVerifier(t, pub, now)

	token := signToken(t, priv, baseClaims(now))
	playerID, err := verifier.VerifyAccessToken(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if playerID != "player-1" {
		t.Fatalf("player id = %q, want %q", playerID, "player-1")
	}
}

func TestVerifyAccessTokenRejections(t *testing.T) {
	t.Parallel()
	pub, priv := newTestKeys(t)
	_, otherPriv := newTestKeys(t)
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	verifier := newTestVerifier(t, pub, now)

	expired := baseClaims(now)
	expired.ExpiresAt = jwt.NewNumericDate(now.Add(-time.Minute))

	wrongIssuer := baseClaims(now)
	wrongIssuer.Issuer = "someone-else"

	wrongAudience := baseClaims(now)
	wrongAudience.Audience = jwt.ClaimStrings{"other-service"}

	noSubject := baseClaims(now)
	noSubject.Subject = ""

	notYetActive := baseClaims(now)
	notYetActive.NotBefore = jwt.NewNumericDate(now.Add(time.Hour))

	cases := []struct {
		name  string
		token string
	}{
		{name: "empty", token: ""},
		{name: "garbage", token: "not-a-jwt"},
		{name: "wrong key", token: signToken(t, otherPriv, baseClaims(now))},
		{name: "expired", token: signToken(t, priv, expired)},
		{name: "wrong issuer", token: signToken(t, priv, wrongIssuer)},
		{name: "wrong audience", token: signToken(t, priv, wrongAudience)},
		{name: "missing subject", token: signToken(t, priv, noSubject)},
		{name: "not yet active", token: signToken(t, priv, notYetActive)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := verifier.VerifyAccessToken(tc.token)
			if err == nil {
				t.Fatal("expected verification error")
			}
			if code := apperrors.CodeOf(err); code != apperrors.CodeUnauthenticated {
				t.Fatalf("code = %q, want %q", code, apperrors.CodeUnauthenticated)
			}
		})
	}
}

func TestLoadAuthConfigFromEnv(t *testing.T) {
	pub, _ := newTestKeys(t)
	t.Setenv("GEOBATTLE_AUTH_ISSUER", "geobattle-auth")
	t.Setenv("GEOBATTLE_AUTH_AUDIENCE", "geobattle-game")
	t.Setenv("GEOBATTLE_AUTH_PUBLIC_KEY", base64.StdEncoding.EncodeToString(pub))

	cfg, err := LoadAuthConfigFromEnv(nil)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Issuer != "geobattle-auth" || cfg.Audience != "geobattle-game" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if !cfg.Key.Equal(pub) {
		t.Fatal("public key mismatch")
	}
}

func TestLoadAuthConfigFromEnvRejectsBadKey(t *testing.T) {
	t.Setenv("GEOBATTLE_AUTH_ISSUER", "geobattle-auth")
	t.Setenv("GEOBATTLE_AUTH_AUDIENCE", "geobattle-game")
	t.Setenv("GEOBATTLE_AUTH_PUBLIC_KEY", base64.StdEncoding.EncodeToString([]byte("short")))

	if _, err := LoadAuthConfigFromEnv(nil); err == nil {
		t.Fatal("expected short key error")
	}
}

package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/propscout/propscout-backend/pkg/config"
	"github.com/propscout/propscout-backend/pkg/enums"
)

var testCfg = config.JWTConfig{Secret: "test-secret", Issuer: "propscout", ExpirationMinutes: 30}

func signRaw(t *testing.T, claims AccessTokenClaims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testCfg.Secret))
	require.NoError(t, err)
	return signed
}

func TestMintAndParse(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Second)
	userID := uuid.New()

	token, err := MintAccessToken(testCfg, now, AccessTokenPayload{UserID: userID, Role: enums.RoleScout, JTI: "jti-1"})
	require.NoError(t, err)

	claims, err := ParseAccessToken(testCfg, token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, enums.RoleScout, claims.Role)
	assert.Equal(t, userID.String(), claims.Subject)
	assert.Equal(t, "jti-1", claims.ID)
	assert.True(t, claims.ExpiresAt.Time.Equal(now.Add(30*time.Minute)))
}

func TestMintValidatesInput(t *testing.T) {
	_, err := MintAccessToken(testCfg, time.Now(), AccessTokenPayload{UserID: uuid.New()})
	assert.Error(t, err, "empty role")

	_, err = MintAccessToken(testCfg, time.Now(), AccessTokenPayload{Role: enums.RoleClient})
	assert.Error(t, err, "missing user")

	noTTL := testCfg
	noTTL.ExpirationMinutes = 0
	_, err = MintAccessToken(noTTL, time.Now(), AccessTokenPayload{UserID: uuid.New(), Role: enums.RoleClient})
	assert.Error(t, err)
}

func TestParseRejectsTampering(t *testing.T) {
	token, err := MintAccessToken(testCfg, time.Now(), AccessTokenPayload{UserID: uuid.New(), Role: enums.RoleClient})
	require.NoError(t, err)

	_, err = ParseAccessToken(testCfg, token+"x")
	assert.ErrorIs(t, err, ErrTokenInvalid)

	other := testCfg
	other.Secret = "another-secret"
	_, err = ParseAccessToken(other, token)
	assert.ErrorIs(t, err, ErrTokenInvalid)

	wrongIssuer := testCfg
	wrongIssuer.Issuer = "someone-else"
	_, err = ParseAccessToken(wrongIssuer, token)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestParseExpired(t *testing.T) {
	token, err := MintAccessToken(testCfg, time.Now().Add(-2*time.Hour), AccessTokenPayload{UserID: uuid.New(), Role: enums.RoleAdmin})
	require.NoError(t, err)

	_, err = ParseAccessToken(testCfg, token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestParseToleratesSmallSkew(t *testing.T) {
	id := uuid.New()
	token := signRaw(t, AccessTokenClaims{
		UserID: id,
		Role:   enums.RoleClient,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    testCfg.Issuer,
			Subject:   id.String(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-10 * time.Second)),
		},
	})
	_, err := ParseAccessToken(testCfg, token)
	assert.NoError(t, err)
}

func TestParseRejectsBadClaims(t *testing.T) {
	id := uuid.New()
	exp := jwt.NewNumericDate(time.Now().Add(time.Minute))

	cases := map[string]AccessTokenClaims{
		"unknown role":     {UserID: id, Role: "owner", RegisteredClaims: jwt.RegisteredClaims{Issuer: testCfg.Issuer, Subject: id.String(), ExpiresAt: exp}},
		"subject mismatch": {UserID: id, Role: enums.RoleClient, RegisteredClaims: jwt.RegisteredClaims{Issuer: testCfg.Issuer, Subject: uuid.NewString(), ExpiresAt: exp}},
		"no expiry":        {UserID: id, Role: enums.RoleClient, RegisteredClaims: jwt.RegisteredClaims{Issuer: testCfg.Issuer, Subject: id.String()}},
	}
	for name, claims := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseAccessToken(testCfg, signRaw(t, claims))
			assert.ErrorIs(t, err, ErrTokenInvalid)
		})
	}
}

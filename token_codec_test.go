package identity_test

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-identity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateTokenRoundTrip(t *testing.T) {
	key := testPrivateKey(t)

	payload := identity.TokenPayload{
		ID:       42,
		Username: "johndoe",
		Email:    "john@example.com",
		Extra:    map[string]string{"tenant": "acme"},
	}

	token, err := identity.CreateToken(payload, time.Hour, key)
	require.NoError(t, err)
	assert.Len(t, strings.Split(token, "."), 3)

	decoded, err := identity.VerifyToken(token, &key.PublicKey)
	require.NoError(t, err)

	assert.Equal(t, int64(42), decoded.ID)
	assert.Equal(t, "johndoe", decoded.Username)
	assert.Equal(t, "john@example.com", decoded.Email)
	assert.Equal(t, "acme", decoded.Extra["tenant"])
	assert.WithinDuration(t, time.Now().Add(time.Hour), decoded.ExpirationDate, 10*time.Second)
}

func TestCreateTokenPayloadWireShape(t *testing.T) {
	key := testPrivateKey(t)

	token, err := identity.CreateToken(identity.TokenPayload{
		ID:       42,
		Username: "johndoe",
		Email:    "john@example.com",
		Extra:    map[string]string{"tenant": "acme"},
	}, time.Hour, key)
	require.NoError(t, err)

	segments := strings.Split(token, ".")
	require.Len(t, segments, 3)

	raw, err := base64.RawURLEncoding.DecodeString(segments[1])
	require.NoError(t, err)

	claims := map[string]any{}
	require.NoError(t, json.Unmarshal(raw, &claims))

	assert.Equal(t, float64(42), claims["id"])
	assert.Equal(t, "johndoe", claims["username"])
	assert.Equal(t, "john@example.com", claims["email"])
	assert.Equal(t, "acme", claims["tenant"], "extra claims are spread top-level")
	assert.NotContains(t, claims, "uid")
	assert.NotContains(t, claims, "extra")
}

func TestCreateTokenExtraCannotShadowIdentityClaims(t *testing.T) {
	key := testPrivateKey(t)

	token, err := identity.CreateToken(identity.TokenPayload{
		ID:       42,
		Username: "johndoe",
		Email:    "john@example.com",
		Extra:    map[string]string{"username": "impostor", "exp": "0"},
	}, time.Hour, key)
	require.NoError(t, err)

	decoded, err := identity.VerifyToken(token, &key.PublicKey)
	require.NoError(t, err)
	assert.Equal(t, "johndoe", decoded.Username)
}

func TestCreateTokenUniquePerMint(t *testing.T) {
	key := testPrivateKey(t)
	payload := identity.TokenPayload{ID: 1, Username: "johndoe", Email: "john@example.com"}

	first, err := identity.CreateToken(payload, time.Hour, key)
	require.NoError(t, err)
	second, err := identity.CreateToken(payload, time.Hour, key)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestCreateTokenNilKey(t *testing.T) {
	_, err := identity.CreateToken(identity.TokenPayload{}, time.Hour, nil)
	assert.Error(t, err)
}

func TestVerifyTokenRejectsWrongKeypair(t *testing.T) {
	key := testPrivateKey(t)

	otherKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	token, err := identity.CreateToken(identity.TokenPayload{ID: 1, Username: "johndoe"}, time.Hour, key)
	require.NoError(t, err)

	_, err = identity.VerifyToken(token, &otherKey.PublicKey)
	assert.Error(t, err)
	assert.True(t, identity.IsTokenInvalid(err))
}

func TestVerifyTokenRejectsExpired(t *testing.T) {
	key := testPrivateKey(t)

	token, err := identity.CreateToken(identity.TokenPayload{ID: 1, Username: "johndoe"}, -time.Minute, key)
	require.NoError(t, err)

	_, err = identity.VerifyToken(token, &key.PublicKey)
	assert.Error(t, err)
	assert.True(t, identity.IsTokenExpired(err))
}

func TestVerifyTokenRejectsBareStringPayload(t *testing.T) {
	key := testPrivateKey(t)
	token := bareStringToken(t, key)

	_, err := identity.VerifyToken(token, &key.PublicKey)
	assert.Error(t, err)
	assert.True(t, identity.IsTokenInvalid(err))
}

func TestVerifyTokenRejectsWrongAlgorithm(t *testing.T) {
	key := testPrivateKey(t)

	hmacToken := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"uid":      1,
		"username": "johndoe",
		"exp":      time.Now().Add(time.Hour).Unix(),
	})
	signed, err := hmacToken.SignedString([]byte("not-an-rsa-key"))
	require.NoError(t, err)

	_, err = identity.VerifyToken(signed, &key.PublicKey)
	assert.Error(t, err)
	assert.True(t, identity.IsTokenInvalid(err))
}

func TestDecodeTokenSkipsSignatureAndExpiry(t *testing.T) {
	key := testPrivateKey(t)

	token, err := identity.CreateToken(identity.TokenPayload{ID: 7, Username: "johndoe", Email: "john@example.com"}, -time.Minute, key)
	require.NoError(t, err)

	payload, err := identity.DecodeToken(token)
	require.NoError(t, err)

	assert.Equal(t, "johndoe", payload.Username)
	assert.True(t, payload.ExpirationDate.Before(time.Now()))
}

func TestDecodeTokenRejectsBareStringPayload(t *testing.T) {
	key := testPrivateKey(t)
	token := bareStringToken(t, key)

	_, err := identity.DecodeToken(token)
	assert.Error(t, err)
}

func TestParseKeyPEMHelpers(t *testing.T) {
	priv, err := identity.ParsePrivateKeyPEM([]byte(testPrivateKeyPEM(t)))
	require.NoError(t, err)
	assert.NotNil(t, priv)

	pub, err := identity.ParsePublicKeyPEM([]byte(testPublicKeyPEM(t)))
	require.NoError(t, err)
	assert.NotNil(t, pub)

	_, err = identity.ParsePrivateKeyPEM([]byte("not a key"))
	assert.Error(t, err)

	_, err = identity.ParsePublicKeyPEM([]byte("not a key"))
	assert.Error(t, err)
}

// bareStringToken builds a correctly signed JWT whose payload is a JSON
// string rather than an object.
func bareStringToken(t *testing.T, key *rsa.PrivateKey) string {
	t.Helper()

	enc := base64.RawURLEncoding
	header := enc.EncodeToString([]byte(`{"alg":"RS256","typ":"JWT"}`))
	payload := enc.EncodeToString([]byte(`"just a string"`))
	signingInput := header + "." + payload

	sig, err := jwt.SigningMethodRS256.Sign(signingInput, key)
	require.NoError(t, err)

	return signingInput + "." + enc.EncodeToString(sig)
}

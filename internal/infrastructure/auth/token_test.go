package auth

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/honeynil/RecipeService/internal/models"
	pkgerrors "github.com/honeynil/RecipeService/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestTokenCodec_RoundTrip(t *testing.T) {
	now := time.Now()
	codec := NewTokenCodec("secret", DefaultTokenTTL).WithClock(fixedClock(now))

	identities := []models.Identity{
		{ID: "8a0c2f4e-1111-4c3a-9d9a-0f1a2b3c4d5e", Name: "Demo User", Email: "demo@example.com"},
		{ID: "u-2", Name: "", Email: "empty-name@example.com"},
		{ID: "u-3", Name: "Ünïcödé Cook", Email: "cook@example.com"},
	}

	for _, identity := range identities {
		token, err := codec.Issue(identity)
		require.NoError(t, err)
		assert.Len(t, strings.Split(token, "."), 3)

		claims, err := codec.Decode(token)
		require.NoError(t, err)
		assert.Equal(t, identity, claims.Identity())
		assert.True(t, claims.ExpiresAt.After(now))
		assert.WithinDuration(t, now.Add(7*24*time.Hour), claims.ExpiresAt, time.Second)
	}
}

func TestTokenCodec_Expired(t *testing.T) {
	issuedAt := time.Now().Add(-8 * 24 * time.Hour)
	issuer := NewTokenCodec("secret", DefaultTokenTTL).WithClock(fixedClock(issuedAt))
	token, err := issuer.Issue(models.Identity{ID: "u-1"})
	require.NoError(t, err)

	_, err = NewTokenCodec("secret", DefaultTokenTTL).Decode(token)
	assert.ErrorIs(t, err, pkgerrors.ErrTokenExpired)
}

func TestTokenCodec_ExpiryBoundary(t *testing.T) {
	issuedAt := time.Unix(1_700_000_000, 0)
	codec := NewTokenCodec("secret", time.Hour).WithClock(fixedClock(issuedAt))
	token, err := codec.Issue(models.Identity{ID: "u-1"})
	require.NoError(t, err)

	codec.WithClock(fixedClock(issuedAt.Add(time.Hour)))
	_, err = codec.Decode(token)
	assert.ErrorIs(t, err, pkgerrors.ErrTokenExpired, "exp == now is expired")

	codec.WithClock(fixedClock(issuedAt.Add(time.Hour - time.Second)))
	_, err = codec.Decode(token)
	assert.NoError(t, err)
}

func TestTokenCodec_RejectsForeignSignature(t *testing.T) {
	token, err := NewTokenCodec("other-secret", DefaultTokenTTL).Issue(models.Identity{ID: "u-1"})
	require.NoError(t, err)

	_, err = NewTokenCodec("secret", DefaultTokenTTL).Decode(token)
	assert.ErrorIs(t, err, pkgerrors.ErrInvalidSignature)
}

func TestTokenCodec_RejectsTamperedPayload(t *testing.T) {
	codec := NewTokenCodec("secret", DefaultTokenTTL)
	token, err := codec.Issue(models.Identity{ID: "u-1", Name: "A"})
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	forged := base64.RawURLEncoding.EncodeToString([]byte(`{"userId":"u-2","name":"B","exp":4102444800}`))
	_, err = codec.Decode(parts[0] + "." + forged + "." + parts[2])
	assert.ErrorIs(t, err, pkgerrors.ErrInvalidSignature)
}

func TestTokenCodec_RejectsPlaceholderSignature(t *testing.T) {
	header := base64.StdEncoding.EncodeToString([]byte(`{"alg":"HS256","typ":"JWT"}`))
	payload := base64.StdEncoding.EncodeToString([]byte(`{"userId":"u-1","name":"A","email":"a@example.com","exp":4102444800}`))
	signature := base64.StdEncoding.EncodeToString([]byte("mock_signature"))

	_, err := NewTokenCodec("secret", DefaultTokenTTL).Decode(header + "." + payload + "." + signature)
	assert.Error(t, err)
}

func TestTokenCodec_RejectsNoneAlgorithm(t *testing.T) {
	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"userId": "u-1",
		"exp":    time.Now().Add(time.Hour).Unix(),
	})
	token, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = NewTokenCodec("secret", DefaultTokenTTL).Decode(token)
	assert.ErrorIs(t, err, pkgerrors.ErrInvalidSignature)
}

func TestTokenCodec_Malformed(t *testing.T) {
	codec := NewTokenCodec("secret", DefaultTokenTTL)
	for _, raw := range []string{"garbage", "a.b", "a.!!!.c", "..."} {
		_, err := codec.Decode(raw)
		assert.ErrorIs(t, err, pkgerrors.ErrMalformedToken, raw)
	}
}

func TestTokenCodec_MissingUserID(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = NewTokenCodec("secret", DefaultTokenTTL).Decode(signed)
	assert.ErrorIs(t, err, pkgerrors.ErrMalformedToken)
}

func TestTokenCodec_IssueRequiresID(t *testing.T) {
	_, err := NewTokenCodec("secret", DefaultTokenTTL).Issue(models.Identity{Name: "nobody"})
	assert.Error(t, err)
}

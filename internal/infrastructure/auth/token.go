package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/honeynil/RecipeService/internal/models"
	pkgerrors "github.com/honeynil/RecipeService/pkg/errors"
)

const DefaultTokenTTL = 7 * 24 * time.Hour

type sessionClaims struct {
	UserID string `json:"userId"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// TokenCodec issues and verifies HS256-signed session tokens.
type TokenCodec struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenCodec(secret string, ttl time.Duration) *TokenCodec {
	if secret == "" {
		panic("auth: token secret must not be empty")
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenCodec{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// WithClock overrides the time source used for issuance and expiry checks.
func (c *TokenCodec) WithClock(now func() time.Time) *TokenCodec {
	c.now = now
	return c
}

func (c *TokenCodec) TTL() time.Duration {
	return c.ttl
}

// Issue signs a token for identity that expires after the codec TTL.
func (c *TokenCodec) Issue(identity models.Identity) (string, error) {
	if identity.ID == "" {
		return "", fmt.Errorf("issue token: %w", pkgerrors.ErrNilUser)
	}
	now := c.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, sessionClaims{
		UserID: identity.ID,
		Name:   identity.Name,
		Email:  identity.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
		},
	})
	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Decode verifies the signature before trusting any claim. Expiry is reported
// as ErrTokenExpired, a bad MAC as ErrInvalidSignature, anything else that
// cannot be parsed as ErrMalformedToken.
func (c *TokenCodec) Decode(tokenString string) (models.TokenClaims, error) {
	claims := &sessionClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (interface{}, error) {
			return c.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(c.now),
		jwt.WithExpirationRequired(),
	)
	switch {
	case err == nil:
	case errors.Is(err, jwt.ErrTokenExpired):
		return models.TokenClaims{}, pkgerrors.ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return models.TokenClaims{}, pkgerrors.ErrInvalidSignature
	default:
		return models.TokenClaims{}, fmt.Errorf("%w: %v", pkgerrors.ErrMalformedToken, err)
	}

	if claims.UserID == "" {
		return models.TokenClaims{}, fmt.Errorf("%w: missing userId", pkgerrors.ErrMalformedToken)
	}

	return models.TokenClaims{
		UserID:    claims.UserID,
		Name:      claims.Name,
		Email:     claims.Email,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

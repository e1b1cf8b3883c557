package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenTTL is the absolute lifetime of a session token.
const TokenTTL = 12 * time.Hour

// ErrMissingSigningKey is returned when no token secret is configured.
var ErrMissingSigningKey = errors.New("auth: token signing key is required")

// TokenPayload is the content of a verified session token.
type TokenPayload struct {
	SessionID uuid.UUID
	UserID    uuid.UUID
}

type sessionClaims struct {
	SessionID string `json:"sid"`
	UserID    string `json:"uid"`
	jwt.RegisteredClaims
}

// Codec issues and verifies HS256 session tokens.
type Codec struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewCodec returns a Codec signing with secret.
func NewCodec(secret string) (*Codec, error) {
	if secret == "" {
		return nil, ErrMissingSigningKey
	}
	return &Codec{secret: []byte(secret), ttl: TokenTTL, now: time.Now}, nil
}

// Issue signs a token for the session and returns it with its expiry.
func (c *Codec) Issue(payload TokenPayload) (string, time.Time, error) {
	now := c.now()
	claims := sessionClaims{
		SessionID: payload.SessionID.String(),
		UserID:    payload.UserID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("auth: sign token: %w", err)
	}
	return signed, claims.ExpiresAt.Time, nil
}

// Resolve verifies raw and returns its payload. Any failure, including a bad
// signature, a foreign algorithm, expiry or malformed ids, yields false. Segments
// must be canonical base64url, so no two encodings of one token both verify.
func (c *Codec) Resolve(raw string) (TokenPayload, bool) {
	if raw == "" {
		return TokenPayload{}, false
	}
	claims := &sessionClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithStrictDecoding(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		return TokenPayload{}, false
	}
	sessionID, err := uuid.Parse(claims.SessionID)
	if err != nil {
		return TokenPayload{}, false
	}
	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return TokenPayload{}, false
	}
	return TokenPayload{SessionID: sessionID, UserID: userID}, true
}

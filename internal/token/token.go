// Package token issues and verifies the credentials handed out by the
// authentication API: signed stateless session tokens and one-time password
// reset tokens.
package token

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// resetTokenBytes is the entropy of the plaintext reset token handed to the
// user. 20 random bytes hex-encode to a 40 character URL-safe token.
const resetTokenBytes = 20

var ErrInvalidToken = errors.New("invalid token")

// Service signs and verifies session tokens and derives one-time reset
// tokens. Session tokens are HS256 JWTs; validity is entirely determined by
// signature and expiry, no store lookup is needed.
type Service struct {
	secret     []byte
	issuer     string
	sessionTTL time.Duration
	resetTTL   time.Duration
}

// NewService creates a new token Service.
func NewService(secret, issuer string, sessionTTL, resetTTL time.Duration) *Service {
	return &Service{
		secret:     []byte(secret),
		issuer:     issuer,
		sessionTTL: sessionTTL,
		resetTTL:   resetTTL,
	}
}

// SignSession produces a signed, time-bounded session token bound to userID.
func (s *Service) SignSession(userID string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		ID:        uuid.NewString(),
		Issuer:    s.issuer,
		Audience:  jwt.ClaimStrings{s.issuer},
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.sessionTTL)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenStr, err := token.SignedString(s.secret)
	if err != nil {
		return "", err
	}

	return tokenStr, nil
}

// VerifySession validates a session token and returns the user ID it is
// bound to.
func (s *Service) VerifySession(tokenStr string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}

		return s.secret, nil
	},
		jwt.WithExpirationRequired(),
		jwt.WithAudience(s.issuer),
		jwt.WithIssuer(s.issuer),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
	)
	if err != nil {
		return "", err
	}

	if !token.Valid || claims.Subject == "" {
		return "", ErrInvalidToken
	}

	return claims.Subject, nil
}

// IssueResetToken generates a one-time password reset token. The plaintext is
// cryptographically random and is never stored server side; only its hash is,
// together with the expiry.
func (s *Service) IssueResetToken() (plaintext, hash string, expiresAt time.Time, err error) {
	buf := make([]byte, resetTokenBytes)
	if _, err = rand.Read(buf); err != nil {
		return "", "", time.Time{}, err
	}

	plaintext = hex.EncodeToString(buf)
	hash = s.HashResetToken(plaintext)
	expiresAt = time.Now().Add(s.resetTTL)

	return plaintext, hash, expiresAt, nil
}

// HashResetToken derives the stored lookup key from a plaintext reset token.
// It is deterministic so a client-supplied plaintext can be translated back
// into the key.
func (s *Service) HashResetToken(plaintext string) string {
	sum := sha256.Sum256([]byte(plaintext))
	return hex.EncodeToString(sum[:])
}

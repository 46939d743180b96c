// Package token issues the short-lived signed credentials the calling engine
// accepts as proof of identity. The issuer is pure with respect to external
// state: it never touches the directory, and expiry enforcement belongs to
// the engine, not to this package.
package token

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/nvdoan/wavelink-backend/internal/apperror"
)

// Lifetime is how long an issued credential stays valid. The issuer only
// stamps the expiry metadata; the engine rejects expired credentials.
const Lifetime = 24 * time.Hour

const issuerName = "wavelink"

// ErrSigning means the identity was empty or malformed and no credential
// could be produced for it.
var ErrSigning = errors.New("token: malformed identity")

// Issuer signs user credentials with a shared HMAC secret.
type Issuer struct {
	secret []byte
	now    func() time.Time
}

// NewIssuer creates an Issuer. The secret must be configured; a missing or
// too-short secret is a startup configuration failure.
func NewIssuer(secret string) (*Issuer, error) {
	if len(secret) < 16 {
		return nil, fmt.Errorf("%w: JWT secret missing or shorter than 16 characters",
			apperror.ErrConfiguration)
	}
	return &Issuer{secret: []byte(secret), now: time.Now}, nil
}

type claims struct {
	jwt.RegisteredClaims
}

// Issue creates a signed credential for userID, valid for Lifetime.
func (i *Issuer) Issue(userID string) (string, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" || strings.ContainsAny(userID, " \t\n") {
		return "", fmt.Errorf("%w: %q", ErrSigning, userID)
	}

	now := i.now()
	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(Lifetime)),
			Issuer:    issuerName,
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("token: signing credential: %w", err)
	}
	return signed, nil
}

// Validate parses and verifies a credential and returns the user id it was
// issued for. Used by the HTTP façade to authenticate Bearer credentials.
func (i *Issuer) Validate(credential string) (string, error) {
	tok, err := jwt.ParseWithClaims(
		credential,
		&claims{},
		func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("token: unexpected signing method: %v", t.Header["alg"])
			}
			return i.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuerName),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", fmt.Errorf("token: credential expired")
		}
		return "", fmt.Errorf("token: invalid credential: %w", err)
	}

	c, ok := tok.Claims.(*claims)
	if !ok || !tok.Valid || c.Subject == "" {
		return "", fmt.Errorf("token: invalid credential claims")
	}
	return c.Subject, nil
}

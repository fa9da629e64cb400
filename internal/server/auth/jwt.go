// Package auth issues and verifies access tokens and describes the verified
// caller identity handed to downstream services.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/bulletin/internal/common"
	"github.com/dmitrijs2005/bulletin/internal/server/models"
	"github.com/golang-jwt/jwt/v5"
)

// Claims is the access token payload: the registered claims (sub, iat, exp)
// plus the username and role.
type Claims struct {
	jwt.RegisteredClaims
	UserName string      `json:"username"`
	Role     models.Role `json:"role"`
}

// TokenCodec signs and verifies HS256 access tokens. It is stateless:
// verification never touches storage, so an access token stays valid until
// it expires.
type TokenCodec struct {
	secret []byte
	now    func() time.Time
}

// NewTokenCodec returns a codec signing with secret.
func NewTokenCodec(secret []byte) *TokenCodec {
	return &TokenCodec{secret: secret, now: time.Now}
}

// WithClock returns a copy of the codec that reads the time from now.
func (c *TokenCodec) WithClock(now func() time.Time) *TokenCodec {
	return &TokenCodec{secret: c.secret, now: now}
}

// Issue returns a signed token for the user, valid for ttl.
func (c *TokenCodec) Issue(userID, userName string, role models.Role, ttl time.Duration) (string, error) {
	now := c.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		UserName: userName,
		Role:     role,
	})

	s, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}
	return s, nil
}

// Verify checks the signature and expiry of tokenString and returns the
// identity it asserts. Expired tokens yield common.ErrTokenExpired; anything
// else that fails yields common.ErrInvalidToken.
func (c *TokenCodec) Verify(tokenString string) (Identity, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Identity{}, common.ErrTokenExpired
		}
		return Identity{}, common.ErrInvalidToken
	}
	if !token.Valid || claims.Subject == "" || !claims.Role.Valid() {
		return Identity{}, common.ErrInvalidToken
	}

	return NewIdentity(claims.Subject, claims.UserName, claims.Role), nil
}

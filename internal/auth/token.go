// Package auth issues and verifies the bearer credentials gating mutation
// endpoints, and holds the ownership predicate.
package auth

import (
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	apierrors "github.com/doghouse/doghouse/internal/errors"
)

// Issuer mints and verifies signed access tokens. Tokens name a user id and
// an expiry; they are not bound to a session and cannot be revoked before
// they expire.
type Issuer struct {
	secret []byte
	ttl    time.Duration
}

// NewIssuer creates an Issuer signing with secret. Tokens expire after ttl.
func NewIssuer(secret []byte, ttl time.Duration) *Issuer {
	return &Issuer{secret: secret, ttl: ttl}
}

// Issue returns a signed token for userID.
func (i *Issuer) Issue(userID int64) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": strconv.FormatInt(userID, 10),
		"exp": now.Add(i.ttl).Unix(),
		"iat": now.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(i.secret)
}

// Verify checks the signature and expiry of tokenString and recovers the
// user id it names. Every failure mode maps to a 401.
func (i *Issuer) Verify(tokenString string) (int64, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return i.secret, nil
	})
	if err != nil || !token.Valid {
		return 0, apierrors.Unauthenticated("Invalid token").Wrap(err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, apierrors.Unauthenticated("Invalid claims")
	}
	sub, ok := claims["sub"].(string)
	if !ok {
		return 0, apierrors.Unauthenticated("Invalid user ID in token")
	}
	userID, err := strconv.ParseInt(sub, 10, 64)
	if err != nil {
		return 0, apierrors.Unauthenticated("Invalid user ID in token")
	}
	return userID, nil
}

// CanMutate reports whether requester may mutate a resource owned by owner.
func CanMutate(requesterID, ownerID int64) bool {
	return requesterID == ownerID
}

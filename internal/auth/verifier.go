// Package auth checks the bearer tokens UI collaborators present to the notifier.
// Tokens are Supabase session JWTs signed with the project's HS256 secret; the
// notifier serves a single user, so the token subject must be that user.
package auth

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

var signingMethod = jwt.SigningMethodHS256

var (
	ErrMissingToken    = errors.New("missing token")
	ErrSubjectMismatch = errors.New("token subject does not match session user")
)

type Verifier struct {
	secret []byte
	userID string
}

// NewVerifier builds a Verifier. With an empty secret every request is let through
// as userID.
func NewVerifier(secret, userID string) *Verifier {
	return &Verifier{secret: []byte(secret), userID: userID}
}

// Enabled reports whether tokens are checked at all.
func (v *Verifier) Enabled() bool {
	return v != nil && len(v.secret) > 0
}

// UserID is the session user every accepted token resolves to.
func (v *Verifier) UserID() string {
	return v.userID
}

// Verify validates tokenString and returns its subject.
func (v *Verifier) Verify(tokenString string) (string, error) {
	if !v.Enabled() {
		return v.userID, nil
	}
	if tokenString == "" {
		return "", ErrMissingToken
	}

	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(token *jwt.Token) (interface{}, error) {
			if token.Method != signingMethod {
				return nil, fmt.Errorf("unexpected signing method %s", token.Header["alg"])
			}
			return v.secret, nil
		},
		jwt.WithValidMethods([]string{signingMethod.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return "", fmt.Errorf("parse token: %w", err)
	}
	if v.userID != "" && claims.Subject != v.userID {
		return "", ErrSubjectMismatch
	}
	return claims.Subject, nil
}

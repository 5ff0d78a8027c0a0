// Package auth mints and validates the access tokens accepted by the
// processor API.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/docforge/docforge/internal/common"
)

// Claims carries the identity the client reads back out of the token:
// user id, email, billing plan, and the admin flag.
type Claims struct {
	jwt.RegisteredClaims
	UserID  string `json:"uid"`
	Email   string `json:"email"`
	Plan    string `json:"plan"`
	IsAdmin bool   `json:"admin"`
}

// Identity is the claim subset handlers work with.
type Identity struct {
	UserID  string
	Email   string
	Plan    string
	IsAdmin bool
}

func GenerateToken(id Identity, secretKey []byte, validityDuration time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(validityDuration)),
		},
		UserID:  id.UserID,
		Email:   id.Email,
		Plan:    id.Plan,
		IsAdmin: id.IsAdmin,
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// ParseToken verifies the signature and expiry and returns the embedded
// identity. Expired tokens map to ErrTokenExpired so the API can answer 401
// and let the client refresh.
func ParseToken(tokenString string, secretKey []byte) (*Identity, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, common.ErrInvalidToken
	}
	if !token.Valid {
		return nil, common.ErrInvalidToken
	}

	return &Identity{
		UserID:  claims.UserID,
		Email:   claims.Email,
		Plan:    claims.Plan,
		IsAdmin: claims.IsAdmin,
	}, nil
}

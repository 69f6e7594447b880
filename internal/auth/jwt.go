package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims identifies the caller a validated token belongs to. This service
// never issues its own identity tokens in production — an external identity
// collaborator does that — so the claim set stays minimal: just enough to
// resolve and authorize a universe owner.
type Claims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// TokenManager validates HS256-signed identity tokens and, for local
// development and test fixtures, issues them.
type TokenManager struct {
	signingKey []byte
}

// NewTokenManager builds a TokenManager over signingKey, which should be at
// least 32 bytes for HS256.
func NewTokenManager(signingKey []byte) (*TokenManager, error) {
	if len(signingKey) == 0 {
		return nil, errors.New("signing key must not be empty")
	}
	return &TokenManager{signingKey: signingKey}, nil
}

// GenerateToken issues a short-lived identity token for userID. Production
// tokens come from the external identity collaborator; this exists for
// local development and test fixtures only.
func (tm *TokenManager) GenerateToken(userID string) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    "cosmos-backend",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(24 * time.Hour)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(tm.signingKey)
}

// ValidateToken parses and validates tokenString, returning the Claims it
// carries.
func (tm *TokenManager) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return tm.signingKey, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.UserID == "" {
		return nil, errors.New("token missing user_id claim")
	}
	return claims, nil
}

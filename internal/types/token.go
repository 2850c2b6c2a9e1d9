package types

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenClaims represents the claims in a JWT token.
type TokenClaims struct {
	jwt.RegisteredClaims
	UserID  uuid.UUID `json:"user_id"`
	IsStaff bool      `json:"is_staff"`
}

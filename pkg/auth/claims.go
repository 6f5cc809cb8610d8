package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/propscout/propscout-backend/pkg/enums"
)

// AccessTokenPayload is what the caller supplies when minting. An empty JTI
// gets a random one.
type AccessTokenPayload struct {
	UserID uuid.UUID
	Role   enums.Role
	JTI    string
}

// AccessTokenClaims is the decoded body of a PropScout access token. The
// subject always mirrors user_id.
type AccessTokenClaims struct {
	UserID uuid.UUID  `json:"user_id"`
	Role   enums.Role `json:"role"`
	jwt.RegisteredClaims
}

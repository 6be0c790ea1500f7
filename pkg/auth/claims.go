package auth

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/cartelabolao/cartela-admin/pkg/enums"
)

type AccessTokenPayload struct {
	UserID uuid.UUID
	Role   enums.UserRole
	// JTI doubles as the session key; a fresh one is generated when empty.
	JTI string
}

// AccessTokenClaims is the JWT body handed to dashboard operators. The role
// is embedded so RequireRole never needs a database round trip.
type AccessTokenClaims struct {
	UserID uuid.UUID      `json:"user_id"`
	Role   enums.UserRole `json:"role"`
	jwt.RegisteredClaims
}

var errMissingSubject = errors.New("token has no user")

// Validate runs after the registered claims checks (jwt.ClaimsValidator).
func (c AccessTokenClaims) Validate() error {
	if c.UserID == uuid.Nil {
		return errMissingSubject
	}
	if c.Subject != "" && c.Subject != c.UserID.String() {
		return fmt.Errorf("token subject %q does not match user", c.Subject)
	}
	if !c.Role.IsValid() {
		return fmt.Errorf("invalid user role %q", c.Role)
	}
	if c.ID == "" {
		return fmt.Errorf("token has no session id")
	}
	return nil
}

package auth

import (
	"github.com/cartelabolao/cartela-admin/internal/users"
)

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,max=256"`
}

// RefreshRequest travels with the (possibly expired) access token in the
// Authorization header.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// TokenPair is the body of login and refresh. ExpiresIn is the access token
// lifetime in seconds.
type TokenPair struct {
	AccessToken  string         `json:"access_token"`
	RefreshToken string         `json:"refresh_token"`
	TokenType    string         `json:"token_type"`
	ExpiresIn    int64          `json:"expires_in"`
	User         *users.UserDTO `json:"user"`
}

package entity

import (
	"time"

	"github.com/google/uuid"
)

// Credential is the stored OAuth token material for one (user, provider) pair.
// A nil AccessTokenExpiresAt means the access token is never refreshed.
type Credential struct {
	ID                    string     `db:"id"`
	UserID                uuid.UUID  `db:"user_id"`
	ProviderID            string     `db:"provider_id"`
	AccessToken           string     `db:"access_token"`
	AccessTokenExpiresAt  *time.Time `db:"access_token_expires_at"`
	RefreshToken          *string    `db:"refresh_token"`
	RefreshTokenExpiresAt *time.Time `db:"refresh_token_expires_at"`
	CreatedAt             time.Time  `db:"created_at"`
	UpdatedAt             time.Time  `db:"updated_at"`
}

func (c *Credential) HasRefreshToken() bool {
	return c.RefreshToken != nil && *c.RefreshToken != ""
}

// TokenSet is a validated token endpoint response.
type TokenSet struct {
	AccessToken  string  `json:"access_token"`
	RefreshToken *string `json:"refresh_token,omitempty"`
	ExpiresIn    *int64  `json:"expires_in,omitempty"`
	TokenType    *string `json:"token_type,omitempty"`
}

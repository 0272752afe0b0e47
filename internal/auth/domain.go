package auth

import "time"

const (
	// TokenTTL is the fixed validity window of a session token.
	TokenTTL = time.Hour
	// BcryptCost is the work factor for password hashes.
	BcryptCost = 10
	// MaxPasswordBytes is the bcrypt input limit.
	MaxPasswordBytes = 72
)

// Session is returned to the client after a successful login.
type Session struct {
	UserID    string    `json:"-"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// SessionRecord is the persisted form of the single live token of a user.
type SessionRecord struct {
	UserID    string    `json:"userId"`
	Token     string    `json:"token"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// RegisterInput carries a registration request.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

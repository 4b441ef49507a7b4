package domain

import "time"

type Role string

const (
	RoleHost   Role = "host"
	RoleAdmin  Role = "admin"
	RolePlayer Role = "player"
)

// Valid reports whether r is one of the known game roles.
func (r Role) Valid() bool {
	switch r {
	case RoleHost, RoleAdmin, RolePlayer:
		return true
	}
	return false
}

// Claims is the decoded payload of an identity token. A token without GameID and Role is
// account scoped; one with both is bound to that game.
type Claims struct {
	UserID    string    `json:"user_id"`
	Username  string    `json:"username"`
	GameID    string    `json:"game_id,omitempty"`
	Role      Role      `json:"role,omitempty"`
	ExpiresAt time.Time `json:"-"`
}

func (c Claims) GameScoped() bool {
	return c.GameID != "" && c.Role != ""
}

// Upgrade returns the claims bound to gameID with role. The receiver is left untouched.
func (c Claims) Upgrade(gameID string, role Role) Claims {
	return Claims{
		UserID:   c.UserID,
		Username: c.Username,
		GameID:   gameID,
		Role:     role,
	}
}

type Credentials struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

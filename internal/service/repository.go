package service

import (
	"context"
	"time"

	"github.com/greathunt/game-engine/internal/domain"
)

// Repository is the store of users, games and players.
//
// UpdateGame and UpdatePlayer load the current row with a write lock, apply fn to it and persist
// the result. If fn returns an error nothing is written and the error is returned as is.
// WithTransaction runs fn against a repository bound to a single transaction; calling it again on
// the transactional repository joins the outer transaction.
type Repository interface {
	FindUserByUsername(ctx context.Context, username string) (domain.User, error)
	FindUserByID(ctx context.Context, id string) (domain.User, error)
	// CountUsers serialises concurrent signups when called inside a transaction.
	CountUsers(ctx context.Context) (int, error)
	InsertUser(ctx context.Context, user domain.User) (domain.User, error)
	DeleteUser(ctx context.Context, username string) error

	FindGameByID(ctx context.Context, id string) (domain.Game, error)
	InsertGame(ctx context.Context, game domain.Game) (domain.Game, error)
	UpdateGame(ctx context.Context, id string, fn func(g *domain.Game) error) (domain.Game, error)
	ListGames(ctx context.Context, filter domain.GameFilter) ([]domain.Game, error)
	// CountGames serialises concurrent game creation when called inside a transaction.
	CountGames(ctx context.Context) (int, error)
	DeleteGame(ctx context.Context, id string) error
	// PullFromRosters removes username from the players and admins of every game.
	PullFromRosters(ctx context.Context, username string) error
	// DeleteGamesByHost deletes every game hosted by username and returns their ids.
	DeleteGamesByHost(ctx context.Context, username string) ([]string, error)

	FindPlayer(ctx context.Context, gameID, username string) (domain.Player, error)
	ListPlayers(ctx context.Context, gameID string) ([]domain.Player, error)
	InsertPlayer(ctx context.Context, player domain.Player) error
	UpdatePlayer(ctx context.Context, gameID, username string, fn func(p *domain.Player) error) (domain.Player, error)
	DeletePlayer(ctx context.Context, gameID, username string) error
	DeletePlayersByUsername(ctx context.Context, username string) error
	DeletePlayersByGame(ctx context.Context, gameID string) error

	WithTransaction(ctx context.Context, fn func(repo Repository) error) error
}

// TokenSigner signs and verifies identity tokens.
type TokenSigner interface {
	Sign(claims domain.Claims, secret []byte, ttl time.Duration) (string, error)
	Verify(token string, secret []byte) (domain.Claims, error)
}

// Clock returns the current time. Tests substitute a fixed clock.
type Clock func() time.Time

func epochMillis(t time.Time) int64 {
	return t.UnixMilli()
}

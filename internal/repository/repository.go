package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/greathunt/game-engine/internal/repository/dao"
	"github.com/greathunt/game-engine/internal/service"
)

var (
	ErrUsernameTaken  = dao.ErrUsernameTaken
	ErrUserNotFound   = dao.ErrUserNotFound
	ErrGameNotFound   = dao.ErrGameNotFound
	ErrPlayerNotFound = dao.ErrPlayerNotFound
	ErrAlreadyJoined  = dao.ErrAlreadyJoined
)

// Repository is the postgres backed service.Repository.
type Repository struct {
	db      *gorm.DB
	users   *dao.UserDAO
	games   *dao.GameDAO
	players *dao.PlayerDAO
	inTx    bool
}

var _ service.Repository = (*Repository)(nil)

func NewRepository(db *gorm.DB) *Repository {
	return newRepository(db, false)
}

func newRepository(db *gorm.DB, inTx bool) *Repository {
	return &Repository{
		db:      db,
		users:   dao.NewUserDAO(db),
		games:   dao.NewGameDAO(db),
		players: dao.NewPlayerDAO(db),
		inTx:    inTx,
	}
}

func (r *Repository) WithTransaction(ctx context.Context, fn func(repo service.Repository) error) error {
	if r.inTx {
		return fn(r)
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(newRepository(tx, true))
	})
}

// locked runs fn in a transaction unless the repository is already inside one, so row locks taken
// by fn are held until fn's writes are done.
func (r *Repository) locked(ctx context.Context, fn func(repo *Repository) error) error {
	if r.inTx {
		return fn(r)
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(newRepository(tx, true))
	})
}

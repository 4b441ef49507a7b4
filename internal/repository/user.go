package repository

import (
	"context"
	"fmt"

	"github.com/greathunt/game-engine/internal/domain"
	"github.com/greathunt/game-engine/internal/repository/dao"
)

const usersLockKey = "users"

func (r *Repository) FindUserByUsername(ctx context.Context, username string) (domain.User, error) {
	found, err := r.users.FindByUsername(ctx, username)
	if err != nil {
		return domain.User{}, fmt.Errorf("r.users.FindByUsername -> %w", err)
	}

	return userDaoToDomain(found), nil
}

func (r *Repository) FindUserByID(ctx context.Context, id string) (domain.User, error) {
	found, err := r.users.FindByID(ctx, id)
	if err != nil {
		return domain.User{}, fmt.Errorf("r.users.FindByID -> %w", err)
	}

	return userDaoToDomain(found), nil
}

func (r *Repository) CountUsers(ctx context.Context) (int, error) {
	if r.inTx {
		if err := dao.Lock(ctx, r.db, usersLockKey); err != nil {
			return 0, fmt.Errorf("dao.Lock -> %w", err)
		}
	}

	n, err := r.users.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("r.users.Count -> %w", err)
	}

	return int(n), nil
}

func (r *Repository) InsertUser(ctx context.Context, user domain.User) (domain.User, error) {
	created, err := r.users.Insert(ctx, dao.User{
		ID:       user.ID,
		Username: user.Username,
		Password: user.Password,
	})
	if err != nil {
		return domain.User{}, fmt.Errorf("r.users.Insert -> %w", err)
	}

	return userDaoToDomain(created), nil
}

func (r *Repository) DeleteUser(ctx context.Context, username string) error {
	if err := r.users.DeleteByUsername(ctx, username); err != nil {
		return fmt.Errorf("r.users.DeleteByUsername -> %w", err)
	}

	return nil
}

func userDaoToDomain(u dao.User) domain.User {
	return domain.User{
		ID:        u.ID,
		Username:  u.Username,
		Password:  u.Password,
		CreatedAt: u.CreatedAt,
	}
}

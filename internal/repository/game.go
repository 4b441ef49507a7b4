package repository

import (
	"context"
	"fmt"
	"slices"

	"github.com/greathunt/game-engine/internal/domain"
	"github.com/greathunt/game-engine/internal/repository/dao"
)

const gamesLockKey = "games"

func (r *Repository) FindGameByID(ctx context.Context, id string) (domain.Game, error) {
	found, err := r.games.FindByID(ctx, id)
	if err != nil {
		return domain.Game{}, fmt.Errorf("r.games.FindByID -> %w", err)
	}

	return gameDaoToDomain(found), nil
}

func (r *Repository) InsertGame(ctx context.Context, game domain.Game) (domain.Game, error) {
	created, err := r.games.Insert(ctx, gameDomainToDao(game))
	if err != nil {
		return domain.Game{}, fmt.Errorf("r.games.Insert -> %w", err)
	}

	return gameDaoToDomain(created), nil
}

func (r *Repository) UpdateGame(ctx context.Context, id string, fn func(g *domain.Game) error) (domain.Game, error) {
	var updated domain.Game

	err := r.locked(ctx, func(repo *Repository) error {
		found, err := repo.games.FindByIDForUpdate(ctx, id)
		if err != nil {
			return fmt.Errorf("repo.games.FindByIDForUpdate -> %w", err)
		}

		g := gameDaoToDomain(found)
		if err = fn(&g); err != nil {
			return err
		}
		g.ID = id

		row := gameDomainToDao(g)
		row.CreatedAt = found.CreatedAt
		saved, err := repo.games.Save(ctx, row)
		if err != nil {
			return fmt.Errorf("repo.games.Save -> %w", err)
		}

		updated = gameDaoToDomain(saved)
		return nil
	})
	if err != nil {
		return domain.Game{}, err
	}

	return updated, nil
}

func (r *Repository) ListGames(ctx context.Context, filter domain.GameFilter) ([]domain.Game, error) {
	found, err := r.games.List(ctx, string(filter.State), filter.Host)
	if err != nil {
		return nil, fmt.Errorf("r.games.List -> %w", err)
	}

	games := make([]domain.Game, len(found))
	for i, g := range found {
		games[i] = gameDaoToDomain(g)
	}

	return games, nil
}

func (r *Repository) CountGames(ctx context.Context) (int, error) {
	if r.inTx {
		if err := dao.Lock(ctx, r.db, gamesLockKey); err != nil {
			return 0, fmt.Errorf("dao.Lock -> %w", err)
		}
	}

	n, err := r.games.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("r.games.Count -> %w", err)
	}

	return int(n), nil
}

func (r *Repository) DeleteGame(ctx context.Context, id string) error {
	if err := r.games.Delete(ctx, id); err != nil {
		return fmt.Errorf("r.games.Delete -> %w", err)
	}

	return nil
}

func (r *Repository) PullFromRosters(ctx context.Context, username string) error {
	return r.locked(ctx, func(repo *Repository) error {
		found, err := repo.games.FindByMemberForUpdate(ctx, username)
		if err != nil {
			return fmt.Errorf("repo.games.FindByMemberForUpdate -> %w", err)
		}

		for _, g := range found {
			g.Players = slices.DeleteFunc(g.Players, func(s string) bool { return s == username })
			g.Admins = slices.DeleteFunc(g.Admins, func(s string) bool { return s == username })
			if _, err = repo.games.Save(ctx, g); err != nil {
				return fmt.Errorf("repo.games.Save -> %w", err)
			}
		}

		return nil
	})
}

func (r *Repository) DeleteGamesByHost(ctx context.Context, username string) ([]string, error) {
	ids, err := r.games.DeleteByHost(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("r.games.DeleteByHost -> %w", err)
	}

	slices.Sort(ids)
	return ids, nil
}

func gameDaoToDomain(g dao.Game) domain.Game {
	tasks := make([]domain.Task, len(g.Tasks))
	for i, t := range g.Tasks {
		tasks[i] = domain.Task{
			ID:            t.ID,
			Type:          domain.TaskType(t.Type),
			Question:      t.Question,
			Clue:          t.Clue,
			AnswerChoices: nonNil(t.AnswerChoices),
			Answers:       nonNil(t.Answers),
			Attempts:      t.Attempts,
			Required:      t.Required,
			Points:        t.Points,
			ScalePoints:   t.ScalePoints,
		}
	}

	return domain.Game{
		ID: g.ID,
		Settings: domain.GameSettings{
			Name:             g.Name,
			Duration:         g.Duration,
			StartTime:        g.StartTime,
			EndTime:          g.EndTime,
			Ordered:          g.Ordered,
			MinPlayers:       g.MinPlayers,
			MaxPlayers:       g.MaxPlayers,
			JoinMidGame:      g.JoinMidGame,
			NumRequiredTasks: g.NumRequiredTasks,
		},
		Tasks:     tasks,
		State:     domain.GameState(g.State),
		Host:      g.Host,
		Admins:    nonNil([]string(g.Admins)),
		Players:   nonNil([]string(g.Players)),
		CreatedAt: g.CreatedAt,
	}
}

func gameDomainToDao(g domain.Game) dao.Game {
	tasks := make([]dao.Task, len(g.Tasks))
	for i, t := range g.Tasks {
		tasks[i] = dao.Task{
			ID:            t.ID,
			Type:          string(t.Type),
			Question:      t.Question,
			Clue:          t.Clue,
			AnswerChoices: nonNil(t.AnswerChoices),
			Answers:       nonNil(t.Answers),
			Attempts:      t.Attempts,
			Required:      t.Required,
			Points:        t.Points,
			ScalePoints:   t.ScalePoints,
		}
	}

	return dao.Game{
		ID:               g.ID,
		Name:             g.Settings.Name,
		Duration:         g.Settings.Duration,
		StartTime:        g.Settings.StartTime,
		EndTime:          g.Settings.EndTime,
		Ordered:          g.Settings.Ordered,
		MinPlayers:       g.Settings.MinPlayers,
		MaxPlayers:       g.Settings.MaxPlayers,
		JoinMidGame:      g.Settings.JoinMidGame,
		NumRequiredTasks: g.Settings.NumRequiredTasks,
		Tasks:            tasks,
		State:            string(g.State),
		Host:             g.Host,
		Admins:           nonNil(g.Admins),
		Players:          nonNil(g.Players),
		CreatedAt:        g.CreatedAt,
	}
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

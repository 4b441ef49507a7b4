package repository

import (
	"context"
	"fmt"

	"github.com/greathunt/game-engine/internal/domain"
	"github.com/greathunt/game-engine/internal/repository/dao"
)

func (r *Repository) FindPlayer(ctx context.Context, gameID, username string) (domain.Player, error) {
	found, err := r.players.Find(ctx, gameID, username)
	if err != nil {
		return domain.Player{}, fmt.Errorf("r.players.Find -> %w", err)
	}

	return playerDaoToDomain(found), nil
}

func (r *Repository) ListPlayers(ctx context.Context, gameID string) ([]domain.Player, error) {
	found, err := r.players.ListByGame(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("r.players.ListByGame -> %w", err)
	}

	players := make([]domain.Player, len(found))
	for i, p := range found {
		players[i] = playerDaoToDomain(p)
	}

	return players, nil
}

func (r *Repository) InsertPlayer(ctx context.Context, player domain.Player) error {
	if err := r.players.Insert(ctx, playerDomainToDao(player)); err != nil {
		return fmt.Errorf("r.players.Insert -> %w", err)
	}

	return nil
}

func (r *Repository) UpdatePlayer(ctx context.Context, gameID, username string, fn func(p *domain.Player) error) (domain.Player, error) {
	var updated domain.Player

	err := r.locked(ctx, func(repo *Repository) error {
		found, err := repo.players.FindForUpdate(ctx, gameID, username)
		if err != nil {
			return fmt.Errorf("repo.players.FindForUpdate -> %w", err)
		}

		p := playerDaoToDomain(found)
		if err = fn(&p); err != nil {
			return err
		}
		p.GameID, p.Username = gameID, username

		row := playerDomainToDao(p)
		row.CreatedAt = found.CreatedAt
		saved, err := repo.players.Save(ctx, row)
		if err != nil {
			return fmt.Errorf("repo.players.Save -> %w", err)
		}

		updated = playerDaoToDomain(saved)
		return nil
	})
	if err != nil {
		return domain.Player{}, err
	}

	return updated, nil
}

func (r *Repository) DeletePlayer(ctx context.Context, gameID, username string) error {
	if err := r.players.Delete(ctx, gameID, username); err != nil {
		return fmt.Errorf("r.players.Delete -> %w", err)
	}

	return nil
}

func (r *Repository) DeletePlayersByUsername(ctx context.Context, username string) error {
	if err := r.players.DeleteByUsername(ctx, username); err != nil {
		return fmt.Errorf("r.players.DeleteByUsername -> %w", err)
	}

	return nil
}

func (r *Repository) DeletePlayersByGame(ctx context.Context, gameID string) error {
	if err := r.players.DeleteByGame(ctx, gameID); err != nil {
		return fmt.Errorf("r.players.DeleteByGame -> %w", err)
	}

	return nil
}

func playerDaoToDomain(p dao.Player) domain.Player {
	subs := make([]domain.TaskSubmission, len(p.TasksSubmitted))
	for i, s := range p.TasksSubmitted {
		subs[i] = domain.TaskSubmission{
			ID:             s.ID,
			TaskID:         s.TaskID,
			Answers:        nonNil(s.Answers),
			SubmissionTime: s.SubmissionTime,
			Success:        s.Success,
		}
	}

	return domain.Player{
		GameID:         p.GameID,
		Username:       p.Username,
		Points:         p.Points,
		TasksSubmitted: subs,
		Done:           p.Done,
	}
}

func playerDomainToDao(p domain.Player) dao.Player {
	subs := make([]dao.TaskSubmission, len(p.TasksSubmitted))
	for i, s := range p.TasksSubmitted {
		subs[i] = dao.TaskSubmission{
			ID:             s.ID,
			TaskID:         s.TaskID,
			Answers:        nonNil(s.Answers),
			SubmissionTime: s.SubmissionTime,
			Success:        s.Success,
		}
	}

	return dao.Player{
		GameID:         p.GameID,
		Username:       p.Username,
		Points:         p.Points,
		TasksSubmitted: subs,
		Done:           p.Done,
	}
}

package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/greathunt/game-engine/internal/config"
	"github.com/greathunt/game-engine/internal/domain"
	"github.com/greathunt/game-engine/internal/pkg/apperr"
)

// GameLifecycle owns the not ready -> ready -> running -> ended state machine.
//
// Games are never ended by a timer. A running timed game past its end time is moved to ended by
// the next lifecycle operation that loads it.
type GameLifecycle struct {
	repo   Repository
	tokens *TokenAuthority
	conf   *config.GameConfig
	now    Clock
}

func NewGameLifecycle(repo Repository, tokens *TokenAuthority, conf *config.GameConfig, now Clock) *GameLifecycle {
	if now == nil {
		now = time.Now
	}
	return &GameLifecycle{
		repo:   repo,
		tokens: tokens,
		conf:   conf,
		now:    now,
	}
}

// Create stores a new game hosted by the caller and returns host credentials for it.
func (s *GameLifecycle) Create(ctx context.Context, claims domain.Claims, settings domain.GameSettings, tasks []domain.Task) (domain.CreateGameConfirmation, error) {
	if err := s.validate(settings, tasks); err != nil {
		return domain.CreateGameConfirmation{}, err
	}

	settings.StartTime, settings.EndTime = 0, 0

	game := domain.Game{
		ID:       uuid.NewString(),
		Settings: settings,
		Tasks:    make([]domain.Task, len(tasks)),
		State:    domain.StateNotReady,
		Host:     claims.Username,
		Admins:   []string{},
		Players:  []string{},
	}
	if settings.MinPlayers == 0 {
		game.State = domain.StateReady
	}

	taskIDs := make([]string, len(tasks))
	for i, t := range tasks {
		t = t.Clone()
		t.ID = uuid.NewString()
		if !settings.Timed() {
			t.ScalePoints = false
		}
		if t.Answers == nil {
			t.Answers = []int{}
		}
		game.Tasks[i] = t
		taskIDs[i] = t.ID
	}

	err := s.repo.WithTransaction(ctx, func(repo Repository) error {
		n, err := repo.CountGames(ctx)
		if err != nil {
			return fmt.Errorf("repo.CountGames -> %w", err)
		}
		if s.conf.MaxGames > 0 && n >= s.conf.MaxGames {
			return apperr.Detail(apperr.ErrCapacity, "max games reached")
		}

		if _, err = repo.InsertGame(ctx, game); err != nil {
			return fmt.Errorf("repo.InsertGame -> %w", err)
		}

		return nil
	})
	if err != nil {
		return domain.CreateGameConfirmation{}, err
	}

	creds, err := s.tokens.Upgrade(claims, game.ID, domain.RoleHost)
	if err != nil {
		return domain.CreateGameConfirmation{}, fmt.Errorf("s.tokens.Upgrade -> %w", err)
	}

	zap.L().Info("game created",
		zap.String("game_id", game.ID),
		zap.String("username", claims.Username),
		zap.String("state", string(game.State)),
	)

	return domain.CreateGameConfirmation{
		Credentials: creds,
		GameID:      game.ID,
		TaskIDs:     taskIDs,
	}, nil
}

func (s *GameLifecycle) validate(settings domain.GameSettings, tasks []domain.Task) error {
	switch {
	case settings.Duration < 0:
		return apperr.Detail(apperr.ErrInvalidInput, "duration must not be negative")
	case settings.MinPlayers < 0 || settings.MaxPlayers < 0:
		return apperr.Detail(apperr.ErrInvalidInput, "player limits must not be negative")
	case settings.MaxPlayers > 0 && settings.MaxPlayers < settings.MinPlayers:
		return apperr.Detail(apperr.ErrInvalidInput, "max players is below min players")
	case settings.NumRequiredTasks < 0 || settings.NumRequiredTasks > len(tasks):
		return apperr.Detail(apperr.ErrInvalidInput, "required task count must be between 0 and the number of tasks")
	}

	if s.conf.MaxTasks > 0 && len(tasks) > s.conf.MaxTasks {
		return apperr.Detail(apperr.ErrCapacity, "max tasks is %d", s.conf.MaxTasks)
	}

	for i, t := range tasks {
		if !t.Type.Valid() {
			return apperr.Detail(apperr.ErrInvalidInput, "task %d: unknown type %q", i, t.Type)
		}
		if t.Attempts < 0 {
			return apperr.Detail(apperr.ErrInvalidInput, "task %d: attempts must not be negative", i)
		}
		for _, a := range t.Answers {
			if a < 0 || a >= len(t.AnswerChoices) {
				return apperr.Detail(apperr.ErrInvalidInput, "task %d: answer index %d out of range", i, a)
			}
		}
	}

	return nil
}

// Start moves a ready game to running and stamps its start and end times.
func (s *GameLifecycle) Start(ctx context.Context, claims domain.Claims, gameID string) (domain.GameTimes, error) {
	if err := checkClaims(claims, gameID, managerRoles); err != nil {
		return domain.GameTimes{}, err
	}

	now := epochMillis(s.now())
	game, err := s.repo.UpdateGame(ctx, gameID, func(g *domain.Game) error {
		if g.State != domain.StateReady {
			return apperr.Detail(apperr.ErrInvalidState, "game is %s, not ready", g.State)
		}
		g.State = domain.StateRunning
		g.Settings.StartTime = now
		g.Settings.EndTime = 0
		if g.Settings.Timed() {
			g.Settings.EndTime = now + g.Settings.Duration
		}
		return nil
	})
	if err != nil {
		return domain.GameTimes{}, fmt.Errorf("s.repo.UpdateGame -> %w", err)
	}

	zap.L().Info("game started", zap.String("game_id", gameID), zap.String("username", claims.Username))

	return domain.GameTimes{StartTime: game.Settings.StartTime, EndTime: game.Settings.EndTime}, nil
}

// Stop ends a running game early.
func (s *GameLifecycle) Stop(ctx context.Context, claims domain.Claims, gameID string) (domain.GameTimes, error) {
	if err := checkClaims(claims, gameID, managerRoles); err != nil {
		return domain.GameTimes{}, err
	}

	if _, err := s.load(ctx, gameID); err != nil {
		return domain.GameTimes{}, err
	}

	now := epochMillis(s.now())
	game, err := s.repo.UpdateGame(ctx, gameID, func(g *domain.Game) error {
		if g.State != domain.StateRunning {
			return apperr.Detail(apperr.ErrInvalidState, "game is %s, not running", g.State)
		}
		g.State = domain.StateEnded
		g.Settings.EndTime = now
		return nil
	})
	if err != nil {
		return domain.GameTimes{}, fmt.Errorf("s.repo.UpdateGame -> %w", err)
	}

	zap.L().Info("game stopped", zap.String("game_id", gameID), zap.String("username", claims.Username))

	return domain.GameTimes{StartTime: game.Settings.StartTime, EndTime: game.Settings.EndTime}, nil
}

// Restart creates a new game from an ended one. The ended game is left as is.
func (s *GameLifecycle) Restart(ctx context.Context, claims domain.Claims, gameID string) (domain.CreateGameConfirmation, error) {
	if err := checkClaims(claims, gameID, managerRoles); err != nil {
		return domain.CreateGameConfirmation{}, err
	}

	game, err := s.load(ctx, gameID)
	if err != nil {
		return domain.CreateGameConfirmation{}, err
	}
	if game.State != domain.StateEnded {
		return domain.CreateGameConfirmation{}, apperr.Detail(apperr.ErrInvalidState, "game is %s, not ended", game.State)
	}

	confirmation, err := s.Create(ctx, claims, game.Settings, game.Tasks)
	if err != nil {
		return domain.CreateGameConfirmation{}, fmt.Errorf("s.Create -> %w", err)
	}

	zap.L().Info("game restarted", zap.String("game_id", gameID), zap.String("new_game_id", confirmation.GameID))

	return confirmation, nil
}

// Get returns the full game, including task answers, to its host and admins.
func (s *GameLifecycle) Get(ctx context.Context, claims domain.Claims, gameID string) (domain.Game, error) {
	if err := checkClaims(claims, gameID, managerRoles); err != nil {
		return domain.Game{}, err
	}

	return s.load(ctx, gameID)
}

func (s *GameLifecycle) GetPublic(ctx context.Context, gameID string) (domain.PublicGame, error) {
	game, err := s.load(ctx, gameID)
	if err != nil {
		return domain.PublicGame{}, err
	}

	return game.Public(), nil
}

func (s *GameLifecycle) ListPublic(ctx context.Context, filter domain.GameFilter) ([]domain.PublicGame, error) {
	// Expire first so a state filter sees current states.
	all, err := s.repo.ListGames(ctx, domain.GameFilter{Host: filter.Host})
	if err != nil {
		return nil, fmt.Errorf("s.repo.ListGames -> %w", err)
	}

	now := epochMillis(s.now())
	games := make([]domain.PublicGame, 0, len(all))
	for _, g := range all {
		if g.Expired(now) {
			if g, err = s.expire(ctx, g.ID, now); err != nil {
				return nil, err
			}
		}
		if filter.Match(g) {
			games = append(games, g.Public())
		}
	}

	return games, nil
}

// Delete removes a game and every player row in it.
func (s *GameLifecycle) Delete(ctx context.Context, claims domain.Claims, gameID string) error {
	if err := checkClaims(claims, gameID, managerRoles); err != nil {
		return err
	}

	err := s.repo.WithTransaction(ctx, func(repo Repository) error {
		if err := repo.DeleteGame(ctx, gameID); err != nil {
			return fmt.Errorf("repo.DeleteGame -> %w", err)
		}
		if err := repo.DeletePlayersByGame(ctx, gameID); err != nil {
			return fmt.Errorf("repo.DeletePlayersByGame -> %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	zap.L().Info("game deleted", zap.String("game_id", gameID), zap.String("username", claims.Username))

	return nil
}

// load finds a game, ending it first if its time ran out.
func (s *GameLifecycle) load(ctx context.Context, gameID string) (domain.Game, error) {
	game, err := s.repo.FindGameByID(ctx, gameID)
	if err != nil {
		return domain.Game{}, fmt.Errorf("s.repo.FindGameByID -> %w", err)
	}

	now := epochMillis(s.now())
	if !game.Expired(now) {
		return game, nil
	}

	return s.expire(ctx, gameID, now)
}

func (s *GameLifecycle) expire(ctx context.Context, gameID string, now int64) (domain.Game, error) {
	ended := false
	game, err := s.repo.UpdateGame(ctx, gameID, func(g *domain.Game) error {
		if g.Expired(now) {
			g.State = domain.StateEnded
			ended = true
		}
		return nil
	})
	if err != nil {
		return domain.Game{}, fmt.Errorf("s.repo.UpdateGame -> %w", err)
	}

	if ended {
		zap.L().Info("game time is up", zap.String("game_id", gameID))
	}

	return game, nil
}

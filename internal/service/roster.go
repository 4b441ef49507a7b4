package service

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/greathunt/game-engine/internal/config"
	"github.com/greathunt/game-engine/internal/domain"
	"github.com/greathunt/game-engine/internal/pkg/apperr"
)

// RosterManager handles who is in a game and with which role.
type RosterManager struct {
	repo      Repository
	tokens    *TokenAuthority
	lifecycle *GameLifecycle
	conf      *config.GameConfig
}

func NewRosterManager(repo Repository, tokens *TokenAuthority, lifecycle *GameLifecycle, conf *config.GameConfig) *RosterManager {
	return &RosterManager{
		repo:      repo,
		tokens:    tokens,
		lifecycle: lifecycle,
		conf:      conf,
	}
}

// Join adds the caller to a game as a player or admin and returns credentials bound to it.
// Admins are listed in both players and admins. The join that brings the player count to
// minPlayers moves a not ready game to ready.
func (s *RosterManager) Join(ctx context.Context, claims domain.Claims, gameID string, role domain.Role, adminCode string) (domain.Credentials, error) {
	switch role {
	case domain.RolePlayer:
	case domain.RoleAdmin:
		if !s.tokens.ValidAdminCode(adminCode) {
			return domain.Credentials{}, apperr.Detail(apperr.ErrForbidden, "invalid admin code")
		}
	default:
		return domain.Credentials{}, apperr.Detail(apperr.ErrInvalidInput, "cannot join as %q", role)
	}

	if _, err := s.lifecycle.load(ctx, gameID); err != nil {
		return domain.Credentials{}, err
	}

	username := claims.Username
	becameReady := false
	err := s.repo.WithTransaction(ctx, func(repo Repository) error {
		game, err := repo.UpdateGame(ctx, gameID, func(g *domain.Game) error {
			if g.HasMember(username) {
				return apperr.ErrAlreadyJoined
			}

			switch g.State {
			case domain.StateEnded:
				return apperr.Detail(apperr.ErrInvalidState, "game has ended")
			case domain.StateRunning:
				if !g.Settings.JoinMidGame {
					return apperr.Detail(apperr.ErrInvalidState, "game does not allow joining mid game")
				}
			}

			if g.Settings.MaxPlayers > 0 && len(g.Players) >= g.Settings.MaxPlayers {
				return apperr.Detail(apperr.ErrCapacity, "game is full")
			}
			if s.conf.MaxPlayers > 0 && len(g.Players) >= s.conf.MaxPlayers {
				return apperr.Detail(apperr.ErrCapacity, "max players reached")
			}
			if role == domain.RoleAdmin && s.conf.MaxAdmins > 0 && len(g.Admins) >= s.conf.MaxAdmins {
				return apperr.Detail(apperr.ErrCapacity, "max admins reached")
			}

			g.Players = append(g.Players, username)
			if role == domain.RoleAdmin {
				g.Admins = append(g.Admins, username)
			}

			becameReady = false
			if g.State == domain.StateNotReady && len(g.Players) == g.Settings.MinPlayers {
				g.State = domain.StateReady
				becameReady = true
			}

			return nil
		})
		if err != nil {
			return fmt.Errorf("repo.UpdateGame -> %w", err)
		}

		if role != domain.RolePlayer {
			return nil
		}

		err = repo.InsertPlayer(ctx, domain.Player{
			GameID:         gameID,
			Username:       username,
			TasksSubmitted: []domain.TaskSubmission{},
			Done:           game.Settings.NumRequiredTasks == 0,
		})
		if err != nil {
			return fmt.Errorf("repo.InsertPlayer -> %w", err)
		}

		return nil
	})
	if err != nil {
		return domain.Credentials{}, err
	}

	zap.L().Info("player joined",
		zap.String("game_id", gameID),
		zap.String("username", username),
		zap.String("role", string(role)),
	)
	if becameReady {
		zap.L().Info("game is ready", zap.String("game_id", gameID))
	}

	creds, err := s.tokens.Upgrade(claims, gameID, role)
	if err != nil {
		return domain.Credentials{}, fmt.Errorf("s.tokens.Upgrade -> %w", err)
	}

	return creds, nil
}

// Leave removes the caller from the game's roster and drops their player row.
func (s *RosterManager) Leave(ctx context.Context, claims domain.Claims, gameID string) error {
	if err := checkClaims(claims, gameID, []domain.Role{domain.RolePlayer, domain.RoleAdmin}); err != nil {
		return err
	}

	if err := s.remove(ctx, gameID, claims.Username); err != nil {
		return err
	}

	zap.L().Info("player left", zap.String("game_id", gameID), zap.String("username", claims.Username))

	return nil
}

// DeletePlayer removes username from a game on behalf of its host or an admin.
func (s *RosterManager) DeletePlayer(ctx context.Context, claims domain.Claims, gameID, username string) error {
	if err := checkClaims(claims, gameID, managerRoles); err != nil {
		return err
	}

	if err := s.remove(ctx, gameID, username); err != nil {
		return err
	}

	zap.L().Info("player deleted",
		zap.String("game_id", gameID),
		zap.String("username", username),
		zap.String("by", claims.Username),
	)

	return nil
}

func (s *RosterManager) remove(ctx context.Context, gameID, username string) error {
	return s.repo.WithTransaction(ctx, func(repo Repository) error {
		_, err := repo.UpdateGame(ctx, gameID, func(g *domain.Game) error {
			if !slices.Contains(g.Players, username) && !slices.Contains(g.Admins, username) {
				return apperr.ErrPlayerNotFound
			}
			g.Players = slices.DeleteFunc(g.Players, func(s string) bool { return s == username })
			g.Admins = slices.DeleteFunc(g.Admins, func(s string) bool { return s == username })
			return nil
		})
		if err != nil {
			return fmt.Errorf("repo.UpdateGame -> %w", err)
		}

		// Admins have no player row.
		if err = repo.DeletePlayer(ctx, gameID, username); err != nil && !errors.Is(err, apperr.ErrPlayerNotFound) {
			return fmt.Errorf("repo.DeletePlayer -> %w", err)
		}

		return nil
	})
}

// DeleteUser removes an account everywhere: its player rows, its roster entries and the games it
// hosts. adminCode must be a configured admin code.
func (s *RosterManager) DeleteUser(ctx context.Context, adminCode, username string) (domain.User, error) {
	if !s.tokens.ValidAdminCode(adminCode) {
		return domain.User{}, apperr.Detail(apperr.ErrForbidden, "invalid admin code")
	}

	var deleted domain.User
	var hosted []string
	err := s.repo.WithTransaction(ctx, func(repo Repository) error {
		user, err := repo.FindUserByUsername(ctx, username)
		if err != nil {
			return fmt.Errorf("repo.FindUserByUsername -> %w", err)
		}
		deleted = user

		if err = repo.DeleteUser(ctx, username); err != nil {
			return fmt.Errorf("repo.DeleteUser -> %w", err)
		}
		if err = repo.DeletePlayersByUsername(ctx, username); err != nil {
			return fmt.Errorf("repo.DeletePlayersByUsername -> %w", err)
		}
		if err = repo.PullFromRosters(ctx, username); err != nil {
			return fmt.Errorf("repo.PullFromRosters -> %w", err)
		}

		hosted, err = repo.DeleteGamesByHost(ctx, username)
		if err != nil {
			return fmt.Errorf("repo.DeleteGamesByHost -> %w", err)
		}
		for _, id := range hosted {
			if err = repo.DeletePlayersByGame(ctx, id); err != nil {
				return fmt.Errorf("repo.DeletePlayersByGame -> %w", err)
			}
		}

		return nil
	})
	if err != nil {
		return domain.User{}, err
	}

	zap.L().Info("user deleted", zap.String("username", username), zap.Strings("hosted_games", hosted))

	return deleted, nil
}

// ViewAllPlayers returns full player rows, submissions included, to the game's host and admins.
func (s *RosterManager) ViewAllPlayers(ctx context.Context, claims domain.Claims, gameID string) ([]domain.Player, error) {
	if err := checkClaims(claims, gameID, managerRoles); err != nil {
		return nil, err
	}

	players, err := s.repo.ListPlayers(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("s.repo.ListPlayers -> %w", err)
	}

	return players, nil
}

// ViewPlayer returns a full player row to managers of the game or to the player themself.
func (s *RosterManager) ViewPlayer(ctx context.Context, claims domain.Claims, gameID, username string) (domain.Player, error) {
	if err := checkClaims(claims, gameID, nil); err != nil {
		return domain.Player{}, err
	}
	if !CanViewPrivatePlayer(claims, username) {
		return domain.Player{}, apperr.ErrForbidden
	}

	player, err := s.repo.FindPlayer(ctx, gameID, username)
	if err != nil {
		return domain.Player{}, fmt.Errorf("s.repo.FindPlayer -> %w", err)
	}

	return player, nil
}

func (s *RosterManager) ViewAllPublicPlayers(ctx context.Context, gameID string) ([]domain.PublicPlayer, error) {
	if _, err := s.repo.FindGameByID(ctx, gameID); err != nil {
		return nil, fmt.Errorf("s.repo.FindGameByID -> %w", err)
	}

	players, err := s.repo.ListPlayers(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("s.repo.ListPlayers -> %w", err)
	}

	public := make([]domain.PublicPlayer, len(players))
	for i, p := range players {
		public[i] = p.Public()
	}

	return public, nil
}

func (s *RosterManager) ViewPublicPlayer(ctx context.Context, gameID, username string) (domain.PublicPlayer, error) {
	player, err := s.repo.FindPlayer(ctx, gameID, username)
	if err != nil {
		return domain.PublicPlayer{}, fmt.Errorf("s.repo.FindPlayer -> %w", err)
	}

	return player.Public(), nil
}

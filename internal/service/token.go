package service

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/greathunt/game-engine/internal/config"
	"github.com/greathunt/game-engine/internal/domain"
	"github.com/greathunt/game-engine/internal/pkg/apperr"
)

type TokenAuthority struct {
	repo   Repository
	signer TokenSigner
	auth   *config.AuthConfig
	game   *config.GameConfig
}

func NewTokenAuthority(repo Repository, signer TokenSigner, auth *config.AuthConfig, game *config.GameConfig) *TokenAuthority {
	return &TokenAuthority{
		repo:   repo,
		signer: signer,
		auth:   auth,
		game:   game,
	}
}

// ValidAdminCode reports whether code is one of the configured admin codes.
func (s *TokenAuthority) ValidAdminCode(code string) bool {
	return code != "" && slices.Contains(s.game.AdminCodes, code)
}

// Signup creates an account. Once max_users accounts exist only callers holding an admin code
// may sign up.
func (s *TokenAuthority) Signup(ctx context.Context, username, password, code string) (domain.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return domain.User{}, fmt.Errorf("bcrypt.GenerateFromPassword -> %w", err)
	}

	var created domain.User
	err = s.repo.WithTransaction(ctx, func(repo Repository) error {
		n, err := repo.CountUsers(ctx)
		if err != nil {
			return fmt.Errorf("repo.CountUsers -> %w", err)
		}
		if s.game.MaxUsers > 0 && n >= s.game.MaxUsers && !s.ValidAdminCode(code) {
			return apperr.Detail(apperr.ErrCapacity, "max users reached")
		}

		_, err = repo.FindUserByUsername(ctx, username)
		if err == nil {
			return apperr.ErrUsernameTaken
		}
		if !errors.Is(err, apperr.ErrUserNotFound) {
			return fmt.Errorf("repo.FindUserByUsername -> %w", err)
		}

		created, err = repo.InsertUser(ctx, domain.User{
			ID:       uuid.NewString(),
			Username: username,
			Password: string(hash),
		})
		if err != nil {
			return fmt.Errorf("repo.InsertUser -> %w", err)
		}

		return nil
	})
	if err != nil {
		return domain.User{}, err
	}

	zap.L().Info("user signed up", zap.String("username", username))

	return created, nil
}

// Login issues an account scoped token pair.
func (s *TokenAuthority) Login(ctx context.Context, username, password string) (domain.Credentials, error) {
	user, err := s.repo.FindUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, apperr.ErrUserNotFound) {
			return domain.Credentials{}, apperr.ErrInvalidCredentials
		}

		return domain.Credentials{}, fmt.Errorf("s.repo.FindUserByUsername -> %w", err)
	}

	if err = bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return domain.Credentials{}, apperr.ErrInvalidCredentials
	}

	return s.issue(domain.Claims{UserID: user.ID, Username: user.Username})
}

// Refresh mints a new access token from a refresh token, keeping its game binding.
// The user is looked up again so deleted accounts cannot refresh.
func (s *TokenAuthority) Refresh(ctx context.Context, refreshToken string) (string, error) {
	claims, err := s.signer.Verify(refreshToken, []byte(s.auth.RefreshSecret))
	if err != nil {
		return "", err
	}

	user, err := s.repo.FindUserByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, apperr.ErrUserNotFound) {
			return "", apperr.Detail(apperr.ErrInvalidToken, "user no longer exists")
		}

		return "", fmt.Errorf("s.repo.FindUserByID -> %w", err)
	}

	next := domain.Claims{UserID: user.ID, Username: user.Username}
	if claims.GameScoped() {
		next = next.Upgrade(claims.GameID, claims.Role)
	}

	token, err := s.signer.Sign(next, []byte(s.auth.AccessSecret), s.auth.AccessTTL)
	if err != nil {
		return "", fmt.Errorf("s.signer.Sign -> %w", err)
	}

	return token, nil
}

// Verify decodes an access token and enforces the optional game binding and role set.
// See checkClaims for how gameID and roles are interpreted.
func (s *TokenAuthority) Verify(token, gameID string, roles []domain.Role) (domain.Claims, error) {
	claims, err := s.signer.Verify(token, []byte(s.auth.AccessSecret))
	if err != nil {
		return domain.Claims{}, err
	}

	if err = checkClaims(claims, gameID, roles); err != nil {
		return domain.Claims{}, err
	}

	return claims, nil
}

// Upgrade issues a token pair bound to gameID with role.
func (s *TokenAuthority) Upgrade(claims domain.Claims, gameID string, role domain.Role) (domain.Credentials, error) {
	return s.issue(claims.Upgrade(gameID, role))
}

func (s *TokenAuthority) issue(claims domain.Claims) (domain.Credentials, error) {
	access, err := s.signer.Sign(claims, []byte(s.auth.AccessSecret), s.auth.AccessTTL)
	if err != nil {
		return domain.Credentials{}, fmt.Errorf("s.signer.Sign -> %w", err)
	}

	refresh, err := s.signer.Sign(claims, []byte(s.auth.RefreshSecret), s.auth.RefreshTTL)
	if err != nil {
		return domain.Credentials{}, fmt.Errorf("s.signer.Sign -> %w", err)
	}

	return domain.Credentials{
		AccessToken:  access,
		RefreshToken: refresh,
	}, nil
}

// Package jwthelper signs and verifies identity tokens as HS256 JWTs.
package jwthelper

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/greathunt/game-engine/internal/domain"
	"github.com/greathunt/game-engine/internal/pkg/apperr"
)

type tokenClaims struct {
	jwt.RegisteredClaims
	UserID   string      `json:"user_id"`
	Username string      `json:"username"`
	GameID   string      `json:"game_id,omitempty"`
	Role     domain.Role `json:"role,omitempty"`
}

type Signer struct {
	// Now is used for issued-at, expiry and validation. Defaults to time.Now.
	Now func() time.Time
}

func NewSigner() *Signer {
	return &Signer{Now: time.Now}
}

func (s *Signer) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

// Sign issues a token for claims valid for ttl.
func (s *Signer) Sign(claims domain.Claims, secret []byte, ttl time.Duration) (string, error) {
	if len(secret) == 0 {
		return "", errors.New("jwthelper: empty signing secret")
	}

	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   claims.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		UserID:   claims.UserID,
		Username: claims.Username,
		GameID:   claims.GameID,
		Role:     claims.Role,
	})

	signed, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("token.SignedString -> %w", err)
	}

	return signed, nil
}

// Verify checks the signature and expiry of token. Every failure is reported as apperr.ErrInvalidToken.
func (s *Signer) Verify(token string, secret []byte) (domain.Claims, error) {
	if token == "" {
		return domain.Claims{}, apperr.Detail(apperr.ErrInvalidToken, "token is required")
	}

	var parsed tokenClaims
	_, err := jwt.ParseWithClaims(token, &parsed, func(t *jwt.Token) (any, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return domain.Claims{}, mapJWTError(err)
	}

	if parsed.UserID == "" || parsed.Username == "" {
		return domain.Claims{}, apperr.Detail(apperr.ErrInvalidToken, "missing subject")
	}
	if (parsed.GameID == "") != (parsed.Role == "") {
		return domain.Claims{}, apperr.Detail(apperr.ErrInvalidToken, "partial game binding")
	}

	return domain.Claims{
		UserID:    parsed.UserID,
		Username:  parsed.Username,
		GameID:    parsed.GameID,
		Role:      parsed.Role,
		ExpiresAt: parsed.ExpiresAt.Time,
	}, nil
}

func mapJWTError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return apperr.Wrap(apperr.ErrInvalidToken, "token is expired", err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return apperr.Wrap(apperr.ErrInvalidToken, "signature is invalid", err)
	case errors.Is(err, jwt.ErrTokenMalformed):
		return apperr.Wrap(apperr.ErrInvalidToken, "token is malformed", err)
	case errors.Is(err, jwt.ErrTokenUnverifiable):
		return apperr.Wrap(apperr.ErrInvalidToken, "token alg is invalid", err)
	default:
		return apperr.Wrap(apperr.ErrInvalidToken, "", err)
	}
}

package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsMatchesByCode(t *testing.T) {
	wrapped := fmt.Errorf("s.repo.FindGameByID -> %w", Detail(ErrGameNotFound, "id %s", "abc"))

	assert.True(t, errors.Is(wrapped, ErrGameNotFound))
	assert.False(t, errors.Is(wrapped, ErrUserNotFound))
	assert.Equal(t, KindNotFound, KindOf(wrapped))
	assert.Equal(t, "game not found: id abc", Message(wrapped))
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := Wrap(ErrInvalidToken, "", cause)

	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "invalid token", err.Message)
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{name: "plain error", err: errors.New("boom"), want: KindInternal},
		{name: "auth", err: ErrForbidden, want: KindAuth},
		{name: "state", err: ErrInvalidState, want: KindState},
		{name: "conflict", err: ErrAlreadyJoined, want: KindConflict},
		{name: "limit", err: ErrMaxAttempts, want: KindLimitExceeded},
		{name: "validation", err: ErrInvalidInput, want: KindValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestMessageHidesPlainErrors(t *testing.T) {
	assert.Equal(t, "internal server error", Message(errors.New("pq: relation does not exist")))
}

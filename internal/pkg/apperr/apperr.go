// Package apperr defines the error kinds surfaced by the game engine.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error for callers that need to translate it, e.g. into an HTTP status.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindAuth
	KindState
	KindConflict
	KindNotFound
	KindLimitExceeded
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuth:
		return "auth"
	case KindState:
		return "state"
	case KindConflict:
		return "conflict"
	case KindNotFound:
		return "not_found"
	case KindLimitExceeded:
		return "limit_exceeded"
	default:
		return "internal"
	}
}

// Error is an engine error with a machine readable code.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error carrying the same code.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
}

func New(kind Kind, code, message string) *Error {
	return &Error{
		Kind:    kind,
		Code:    code,
		Message: message,
	}
}

// Wrap returns a copy of sentinel carrying err as its cause and detail as an extended message.
func Wrap(sentinel *Error, detail string, err error) *Error {
	msg := sentinel.Message
	if detail != "" {
		msg = sentinel.Message + ": " + detail
	}
	return &Error{
		Kind:    sentinel.Kind,
		Code:    sentinel.Code,
		Message: msg,
		Err:     err,
	}
}

// Detail returns a copy of sentinel with a more specific message.
func Detail(sentinel *Error, format string, args ...any) *Error {
	return Wrap(sentinel, fmt.Sprintf(format, args...), nil)
}

// KindOf returns the kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Message returns the user facing message of the first *Error in err's chain.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "internal server error"
}

var (
	ErrInvalidInput = New(KindValidation, "INVALID_INPUT", "invalid input")

	ErrInvalidCredentials = New(KindAuth, "INVALID_CREDENTIALS", "invalid credentials")
	ErrInvalidToken       = New(KindAuth, "INVALID_TOKEN", "invalid token")
	ErrWrongGame          = New(KindAuth, "WRONG_GAME", "invalid token; wrong game")
	ErrForbidden          = New(KindAuth, "FORBIDDEN", "insufficient role")

	ErrInvalidState = New(KindState, "INVALID_STATE", "invalid game state")

	ErrUsernameTaken = New(KindConflict, "USERNAME_TAKEN", "user already exists")
	ErrAlreadyJoined = New(KindConflict, "ALREADY_JOINED", "user already in game")

	ErrUserNotFound   = New(KindNotFound, "USER_NOT_FOUND", "user not found")
	ErrGameNotFound   = New(KindNotFound, "GAME_NOT_FOUND", "game not found")
	ErrTaskNotFound   = New(KindNotFound, "TASK_NOT_FOUND", "task not found")
	ErrPlayerNotFound = New(KindNotFound, "PLAYER_NOT_FOUND", "player not found")

	ErrMaxAttempts = New(KindLimitExceeded, "MAX_ATTEMPTS", "max attempts reached")
	ErrCapacity    = New(KindLimitExceeded, "CAPACITY", "capacity reached")
)

package request

import (
	"errors"
	"regexp"

	"github.com/dlclark/regexp2"
	validation "github.com/go-ozzo/ozzo-validation"
)

const (
	// At least one visible character, no whitespace anywhere, within bcrypt's 72 byte limit.
	passwordRegexPattern = `^(?=.*\S)(?!.*\s).{6,72}$`
	usernameRegexPattern = `^[A-Za-z0-9_.-]+$`
)

var (
	errInvalidPassword = errors.New("the password must be 6 to 72 characters without spaces")

	passwordExp = regexp2.MustCompile(passwordRegexPattern, regexp2.None)
	usernameExp = regexp.MustCompile(usernameRegexPattern)
)

func validPassword(value interface{}) error {
	s, _ := value.(string)
	ok, err := passwordExp.MatchString(s)
	if err != nil || !ok {
		return errInvalidPassword
	}
	return nil
}

type SignupRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Code     string `json:"code,omitempty"`
}

func (req *SignupRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Username, validation.Required, validation.Length(3, 32), validation.Match(usernameExp)),
		validation.Field(&req.Password, validation.Required, validation.By(validPassword)),
	)
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (req *LoginRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Username, validation.Required),
		validation.Field(&req.Password, validation.Required),
	)
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (req *RefreshRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.RefreshToken, validation.Required),
	)
}

package request

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

// ValidateID checks a game or task id taken from the URL path.
func ValidateID(id string) error {
	return validation.Validate(id, validation.Required, is.UUID)
}

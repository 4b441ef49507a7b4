package request

import (
	validation "github.com/go-ozzo/ozzo-validation"

	"github.com/greathunt/game-engine/internal/domain"
)

type JoinGameRequest struct {
	Role string `json:"role"`
	Code string `json:"code,omitempty"`
}

func (req *JoinGameRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Role, validation.Required, validation.In(string(domain.RolePlayer), string(domain.RoleAdmin))),
	)
}

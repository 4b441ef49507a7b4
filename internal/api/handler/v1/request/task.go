package request

import (
	validation "github.com/go-ozzo/ozzo-validation"

	"github.com/greathunt/game-engine/internal/pkg/sanitize"
)

type SubmitTaskRequest struct {
	Answers []string `json:"answers"`
}

func (req *SubmitTaskRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Answers, validation.Length(0, 100)),
	)
}

func (req *SubmitTaskRequest) Sanitized() []string {
	if req.Answers == nil {
		return []string{}
	}
	return sanitize.Strings(req.Answers)
}

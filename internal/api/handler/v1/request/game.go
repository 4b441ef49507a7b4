package request

import (
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation"

	"github.com/greathunt/game-engine/internal/domain"
	"github.com/greathunt/game-engine/internal/pkg/sanitize"
)

const (
	ActionStart   = "start"
	ActionStop    = "stop"
	ActionRestart = "restart"
)

type GameSettingsRequest struct {
	Name             string `json:"name"`
	Duration         int64  `json:"duration"`
	Ordered          bool   `json:"ordered"`
	MinPlayers       int    `json:"min_players"`
	MaxPlayers       int    `json:"max_players"`
	JoinMidGame      bool   `json:"join_mid_game"`
	NumRequiredTasks int    `json:"num_required_tasks"`
}

func (req *GameSettingsRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Name, validation.Required, validation.Length(1, 100)),
		validation.Field(&req.Duration, validation.Min(int64(0))),
		validation.Field(&req.MinPlayers, validation.Min(0)),
		validation.Field(&req.MaxPlayers, validation.Min(0)),
		validation.Field(&req.NumRequiredTasks, validation.Min(0)),
	)
}

type TaskRequest struct {
	Type          string   `json:"type"`
	Question      string   `json:"question"`
	Clue          string   `json:"clue"`
	AnswerChoices []string `json:"answer_choices"`
	Answers       []int    `json:"answers"`
	Attempts      int      `json:"attempts"`
	Required      bool     `json:"required"`
	Points        int      `json:"points"`
	ScalePoints   bool     `json:"scale_points"`
}

func (req *TaskRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Type, validation.Required, validation.In(string(domain.TaskTypeMultipleChoice), string(domain.TaskTypeText))),
		validation.Field(&req.Question, validation.Required, validation.Length(1, 1000)),
		validation.Field(&req.Clue, validation.Length(0, 1000)),
		validation.Field(&req.Attempts, validation.Min(0)),
	)
}

type CreateGameRequest struct {
	Settings GameSettingsRequest `json:"settings"`
	Tasks    []TaskRequest       `json:"tasks"`
}

func (req *CreateGameRequest) Validate() error {
	if err := req.Settings.Validate(); err != nil {
		return fmt.Errorf("settings: %w", err)
	}
	for i := range req.Tasks {
		if err := req.Tasks[i].Validate(); err != nil {
			return fmt.Errorf("tasks[%d]: %w", i, err)
		}
	}
	return nil
}

// ToDomain returns sanitized settings and tasks. Start and end times are always left to the engine.
func (req *CreateGameRequest) ToDomain() (domain.GameSettings, []domain.Task) {
	settings := domain.GameSettings{
		Name:             sanitize.String(req.Settings.Name),
		Duration:         req.Settings.Duration,
		Ordered:          req.Settings.Ordered,
		MinPlayers:       req.Settings.MinPlayers,
		MaxPlayers:       req.Settings.MaxPlayers,
		JoinMidGame:      req.Settings.JoinMidGame,
		NumRequiredTasks: req.Settings.NumRequiredTasks,
	}

	tasks := make([]domain.Task, len(req.Tasks))
	for i, t := range req.Tasks {
		tasks[i] = domain.Task{
			Type:          domain.TaskType(t.Type),
			Question:      sanitize.String(t.Question),
			Clue:          sanitize.String(t.Clue),
			AnswerChoices: sanitize.Strings(t.AnswerChoices),
			Answers:       t.Answers,
			Attempts:      t.Attempts,
			Required:      t.Required,
			Points:        t.Points,
			ScalePoints:   t.ScalePoints,
		}
		if tasks[i].AnswerChoices == nil {
			tasks[i].AnswerChoices = []string{}
		}
	}

	return settings, tasks
}

type ActionRequest struct {
	Action string `json:"action"`
}

func (req *ActionRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Action, validation.Required, validation.In(ActionStart, ActionStop, ActionRestart)),
	)
}

package domain

import "slices"

type TaskType string

const (
	TaskTypeMultipleChoice TaskType = "multiple choice"
	TaskTypeText           TaskType = "text"
)

func (t TaskType) Valid() bool {
	return t == TaskTypeMultipleChoice || t == TaskTypeText
}

// Task is immutable once embedded in a game.
//
// Answers holds indices into AnswerChoices; an empty list accepts any answer.
// Attempts is the per-player limit for the task, 0 meaning unlimited.
type Task struct {
	ID            string   `json:"id"`
	Type          TaskType `json:"type"`
	Question      string   `json:"question"`
	Clue          string   `json:"clue"`
	AnswerChoices []string `json:"answer_choices"`
	Answers       []int    `json:"answers"`
	Attempts      int      `json:"attempts"`
	Required      bool     `json:"required"`
	Points        int      `json:"points"`
	ScalePoints   bool     `json:"scale_points"`
}

// PublicTask is a Task without its answer key.
type PublicTask struct {
	ID            string   `json:"id"`
	Type          TaskType `json:"type"`
	Question      string   `json:"question"`
	Clue          string   `json:"clue"`
	AnswerChoices []string `json:"answer_choices"`
	Attempts      int      `json:"attempts"`
	Required      bool     `json:"required"`
	Points        int      `json:"points"`
	ScalePoints   bool     `json:"scale_points"`
}

func (t Task) Public() PublicTask {
	return PublicTask{
		ID:            t.ID,
		Type:          t.Type,
		Question:      t.Question,
		Clue:          t.Clue,
		AnswerChoices: slices.Clone(t.AnswerChoices),
		Attempts:      t.Attempts,
		Required:      t.Required,
		Points:        t.Points,
		ScalePoints:   t.ScalePoints,
	}
}

// Accepts reports whether every correct choice is present in answers. Extra answers do not
// invalidate a submission.
func (t Task) Accepts(answers []string) bool {
	for _, i := range t.Answers {
		if i < 0 || i >= len(t.AnswerChoices) {
			return false
		}
		if !slices.Contains(answers, t.AnswerChoices[i]) {
			return false
		}
	}
	return true
}

func (t Task) Clone() Task {
	c := t
	c.AnswerChoices = slices.Clone(t.AnswerChoices)
	c.Answers = slices.Clone(t.Answers)
	return c
}

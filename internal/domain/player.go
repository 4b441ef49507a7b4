package domain

import "slices"

// Player holds the per-game stats of a user who joined as a player.
type Player struct {
	GameID         string           `json:"game_id"`
	Username       string           `json:"username"`
	Points         int              `json:"points"`
	TasksSubmitted []TaskSubmission `json:"tasks_submitted"`
	Done           bool             `json:"done"`
}

// TaskSubmission is appended to a player's history and never edited.
type TaskSubmission struct {
	ID             string   `json:"id"`
	TaskID         string   `json:"task_id"`
	Answers        []string `json:"answers"`
	SubmissionTime int64    `json:"submission_time"`
	Success        bool     `json:"success"`
}

type PublicPlayer struct {
	GameID            string `json:"game_id"`
	Username          string `json:"username"`
	Points            int    `json:"points"`
	NumTasksSubmitted int    `json:"num_tasks_submitted"`
	NumTasksCompleted int    `json:"num_tasks_completed"`
	Done              bool   `json:"done"`
}

// Attempts counts prior submissions for taskID.
func (p Player) Attempts(taskID string) int {
	n := 0
	for _, s := range p.TasksSubmitted {
		if s.TaskID == taskID {
			n++
		}
	}
	return n
}

// Completed counts successful submissions.
func (p Player) Completed() int {
	n := 0
	for _, s := range p.TasksSubmitted {
		if s.Success {
			n++
		}
	}
	return n
}

func (p Player) Public() PublicPlayer {
	return PublicPlayer{
		GameID:            p.GameID,
		Username:          p.Username,
		Points:            p.Points,
		NumTasksSubmitted: len(p.TasksSubmitted),
		NumTasksCompleted: p.Completed(),
		Done:              p.Done,
	}
}

func (p Player) Clone() Player {
	c := p
	c.TasksSubmitted = make([]TaskSubmission, len(p.TasksSubmitted))
	for i, s := range p.TasksSubmitted {
		s.Answers = slices.Clone(s.Answers)
		c.TasksSubmitted[i] = s
	}
	return c
}

type SubmissionResult struct {
	SubmissionTime int64 `json:"submission_time"`
	Success        bool  `json:"success"`
}

package domain

import (
	"slices"
	"time"
)

type GameState string

const (
	StateNotReady GameState = "not ready"
	StateReady    GameState = "ready"
	StateRunning  GameState = "running"
	StateEnded    GameState = "ended"
)

var stateOrder = []GameState{StateNotReady, StateReady, StateRunning, StateEnded}

// CanTransition reports whether to directly follows s. Games only move forward one step at a time.
func (s GameState) CanTransition(to GameState) bool {
	i := slices.Index(stateOrder, s)
	return i >= 0 && i+1 < len(stateOrder) && stateOrder[i+1] == to
}

// GameSettings times are epoch milliseconds. Duration is in milliseconds, 0 for an untimed game.
// EndTime is 0 for an untimed game and may be earlier than StartTime+Duration if stopped early.
type GameSettings struct {
	Name             string `json:"name"`
	Duration         int64  `json:"duration"`
	StartTime        int64  `json:"start_time"`
	EndTime          int64  `json:"end_time"`
	Ordered          bool   `json:"ordered"`
	MinPlayers       int    `json:"min_players"`
	MaxPlayers       int    `json:"max_players"`
	JoinMidGame      bool   `json:"join_mid_game"`
	NumRequiredTasks int    `json:"num_required_tasks"`
}

func (s GameSettings) Timed() bool {
	return s.Duration > 0
}

type Game struct {
	ID        string       `json:"id"`
	Settings  GameSettings `json:"settings"`
	Tasks     []Task       `json:"tasks"`
	State     GameState    `json:"state"`
	Host      string       `json:"host"`
	Admins    []string     `json:"admins"`
	Players   []string     `json:"players"`
	CreatedAt time.Time    `json:"created_at"`
}

type PublicGame struct {
	ID       string       `json:"id"`
	Settings GameSettings `json:"settings"`
	NumTasks int          `json:"num_tasks"`
	State    GameState    `json:"state"`
	Host     string       `json:"host"`
	Admins   []string     `json:"admins"`
	Players  []string     `json:"players"`
}

func (g Game) Public() PublicGame {
	return PublicGame{
		ID:       g.ID,
		Settings: g.Settings,
		NumTasks: len(g.Tasks),
		State:    g.State,
		Host:     g.Host,
		Admins:   slices.Clone(g.Admins),
		Players:  slices.Clone(g.Players),
	}
}

func (g Game) FindTask(taskID string) (Task, bool) {
	for _, t := range g.Tasks {
		if t.ID == taskID {
			return t, true
		}
	}
	return Task{}, false
}

// HasMember reports whether username is the host or on the roster.
func (g Game) HasMember(username string) bool {
	return g.Host == username || slices.Contains(g.Players, username) || slices.Contains(g.Admins, username)
}

// Expired reports whether a running timed game has passed its end time at now (epoch ms).
func (g Game) Expired(now int64) bool {
	return g.State == StateRunning && g.Settings.Timed() && g.Settings.EndTime != 0 && now >= g.Settings.EndTime
}

func (g Game) Clone() Game {
	c := g
	c.Tasks = make([]Task, len(g.Tasks))
	for i, t := range g.Tasks {
		c.Tasks[i] = t.Clone()
	}
	c.Admins = slices.Clone(g.Admins)
	c.Players = slices.Clone(g.Players)
	return c
}

// GameFilter restricts ListGames. Zero values match everything.
type GameFilter struct {
	State GameState
	Host  string
}

func (f GameFilter) Match(g Game) bool {
	if f.State != "" && g.State != f.State {
		return false
	}
	if f.Host != "" && g.Host != f.Host {
		return false
	}
	return true
}

// CreateGameConfirmation is returned to the creator of a game. Credentials are bound to the new
// game with the host role.
type CreateGameConfirmation struct {
	Credentials Credentials `json:"credentials"`
	GameID      string      `json:"game_id"`
	TaskIDs     []string    `json:"task_ids"`
}

type GameTimes struct {
	StartTime int64 `json:"start_time"`
	EndTime   int64 `json:"end_time"`
}

package service_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greathunt/game-engine/internal/config"
	"github.com/greathunt/game-engine/internal/domain"
	"github.com/greathunt/game-engine/internal/pkg/apperr"
)

func TestGameLifecycle_Create(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t)

	confirmation, host := e.createGame(t,
		domain.GameSettings{Name: "hunt", MinPlayers: 2, NumRequiredTasks: 1},
		anyAnswerTask(10), choiceTask(20, 0, true),
	)

	assert.Equal(t, confirmation.GameID, host.GameID)
	assert.Equal(t, domain.RoleHost, host.Role)
	require.Len(t, confirmation.TaskIDs, 2)
	assert.NotEqual(t, confirmation.TaskIDs[0], confirmation.TaskIDs[1])

	game, err := e.lifecycle.Get(ctx, host, confirmation.GameID)
	require.NoError(t, err)
	assert.Equal(t, domain.StateNotReady, game.State)
	assert.Equal(t, "host-hunt", game.Host)
	assert.Empty(t, game.Players)
	assert.False(t, game.Tasks[1].ScalePoints, "untimed games never scale")
	assert.Equal(t, confirmation.TaskIDs[0], game.Tasks[0].ID)

	players, err := e.roster.ViewAllPublicPlayers(ctx, confirmation.GameID)
	require.NoError(t, err)
	assert.Empty(t, players, "the host is not a player")

	ready, _ := e.createGame(t, domain.GameSettings{Name: "open"})
	public, err := e.lifecycle.GetPublic(ctx, ready.GameID)
	require.NoError(t, err)
	assert.Equal(t, domain.StateReady, public.State)
}

func TestGameLifecycle_Create_Rejects(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t, func(c *config.GameConfig) {
		c.MaxTasks = 2
		c.MaxGames = 1
	})
	host := e.user(t, "host")

	tests := []struct {
		name     string
		settings domain.GameSettings
		tasks    []domain.Task
		want     *apperr.Error
	}{
		{
			name:     "too many tasks",
			settings: domain.GameSettings{},
			tasks:    []domain.Task{anyAnswerTask(1), anyAnswerTask(1), anyAnswerTask(1)},
			want:     apperr.ErrCapacity,
		},
		{
			name:     "answer out of range",
			settings: domain.GameSettings{},
			tasks:    []domain.Task{{Type: domain.TaskTypeMultipleChoice, AnswerChoices: []string{"A"}, Answers: []int{1}}},
			want:     apperr.ErrInvalidInput,
		},
		{
			name:     "unknown task type",
			settings: domain.GameSettings{},
			tasks:    []domain.Task{{Type: "essay"}},
			want:     apperr.ErrInvalidInput,
		},
		{
			name:     "more required than tasks",
			settings: domain.GameSettings{NumRequiredTasks: 2},
			tasks:    []domain.Task{anyAnswerTask(1)},
			want:     apperr.ErrInvalidInput,
		},
		{
			name:     "max below min",
			settings: domain.GameSettings{MinPlayers: 3, MaxPlayers: 2},
			want:     apperr.ErrInvalidInput,
		},
		{
			name:     "negative duration",
			settings: domain.GameSettings{Duration: -1},
			want:     apperr.ErrInvalidInput,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.lifecycle.Create(ctx, host, tt.settings, tt.tasks)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	_, err := e.lifecycle.Create(ctx, host, domain.GameSettings{Name: "one"}, nil)
	require.NoError(t, err)
	_, err = e.lifecycle.Create(ctx, host, domain.GameSettings{Name: "two"}, nil)
	assert.ErrorIs(t, err, apperr.ErrCapacity)
}

func TestGameLifecycle_StateMachine(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t)

	confirmation, host := e.createGame(t, domain.GameSettings{Name: "timed", Duration: time.Hour.Milliseconds(), MinPlayers: 1})
	gameID := confirmation.GameID

	_, err := e.lifecycle.Start(ctx, host, gameID)
	assert.ErrorIs(t, err, apperr.ErrInvalidState, "not ready yet")
	_, err = e.lifecycle.Stop(ctx, host, gameID)
	assert.ErrorIs(t, err, apperr.ErrInvalidState)

	player := e.join(t, "alice", gameID, domain.RolePlayer)

	_, err = e.lifecycle.Start(ctx, player, gameID)
	assert.ErrorIs(t, err, apperr.ErrForbidden, "players cannot start")

	times, err := e.lifecycle.Start(ctx, host, gameID)
	require.NoError(t, err)
	start := e.clock.Now().UnixMilli()
	assert.Equal(t, start, times.StartTime)
	assert.Equal(t, start+time.Hour.Milliseconds(), times.EndTime)

	_, err = e.lifecycle.Start(ctx, host, gameID)
	assert.ErrorIs(t, err, apperr.ErrInvalidState, "already running")
	_, err = e.lifecycle.Restart(ctx, host, gameID)
	assert.ErrorIs(t, err, apperr.ErrInvalidState, "not ended")

	e.clock.Advance(10 * time.Minute)
	times, err = e.lifecycle.Stop(ctx, host, gameID)
	require.NoError(t, err)
	assert.Equal(t, e.clock.Now().UnixMilli(), times.EndTime)

	_, err = e.lifecycle.Stop(ctx, host, gameID)
	assert.ErrorIs(t, err, apperr.ErrInvalidState, "ended is terminal")
	_, err = e.lifecycle.Start(ctx, host, gameID)
	assert.ErrorIs(t, err, apperr.ErrInvalidState, "no backward motion")

	restarted, err := e.lifecycle.Restart(ctx, host, gameID)
	require.NoError(t, err)
	assert.NotEqual(t, gameID, restarted.GameID)

	old, err := e.lifecycle.GetPublic(ctx, gameID)
	require.NoError(t, err)
	assert.Equal(t, domain.StateEnded, old.State)

	fresh, err := e.lifecycle.GetPublic(ctx, restarted.GameID)
	require.NoError(t, err)
	assert.Equal(t, domain.StateNotReady, fresh.State)
	assert.Zero(t, fresh.Settings.StartTime)
	assert.Empty(t, fresh.Players)
}

func TestGameLifecycle_TransitionsNeverSkip(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t)

	confirmation, host := e.createGame(t, domain.GameSettings{Name: "seq", MinPlayers: 1})
	gameID := confirmation.GameID

	joined := 0
	ops := []struct {
		name string
		run  func() error
	}{
		{"stop", func() error { _, err := e.lifecycle.Stop(ctx, host, gameID); return err }},
		{"start", func() error { _, err := e.lifecycle.Start(ctx, host, gameID); return err }},
		{"restart", func() error { _, err := e.lifecycle.Restart(ctx, host, gameID); return err }},
		{"join", func() error {
			joined++
			claims := e.user(t, fmt.Sprintf("player-%d", joined))
			_, err := e.roster.Join(ctx, claims, gameID, domain.RolePlayer, "")
			return err
		}},
	}

	prev := domain.StateNotReady
	for round := 0; round < 3; round++ {
		for _, op := range ops {
			_ = op.run()

			game, err := e.repo.FindGameByID(ctx, gameID)
			require.NoError(t, err)
			if game.State != prev {
				assert.True(t, prev.CanTransition(game.State), "%s: %s -> %s", op.name, prev, game.State)
				prev = game.State
			}
		}
	}
	assert.Equal(t, domain.StateEnded, prev)
}

func TestGameLifecycle_PullBasedEnd(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t)

	confirmation, host := e.createGame(t, domain.GameSettings{Name: "short", Duration: time.Minute.Milliseconds()})
	gameID := confirmation.GameID

	times, err := e.lifecycle.Start(ctx, host, gameID)
	require.NoError(t, err)

	e.clock.Advance(2 * time.Minute)

	games, err := e.lifecycle.ListPublic(ctx, domain.GameFilter{State: domain.StateRunning})
	require.NoError(t, err)
	assert.Empty(t, games)

	game, err := e.lifecycle.Get(ctx, host, gameID)
	require.NoError(t, err)
	assert.Equal(t, domain.StateEnded, game.State)
	assert.Equal(t, times.EndTime, game.Settings.EndTime)

	_, err = e.lifecycle.Stop(ctx, host, gameID)
	assert.ErrorIs(t, err, apperr.ErrInvalidState)
}

func TestGameLifecycle_ListPublic(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t)

	e.createGame(t, domain.GameSettings{Name: "a"})
	e.createGame(t, domain.GameSettings{Name: "b", MinPlayers: 3})

	all, err := e.lifecycle.ListPublic(ctx, domain.GameFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	ready, err := e.lifecycle.ListPublic(ctx, domain.GameFilter{State: domain.StateReady})
	require.NoError(t, err)
	require.Len(t, ready, 1)
	assert.Equal(t, "a", ready[0].Settings.Name)
}

func TestGameLifecycle_Delete(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t)

	confirmation, host := e.createGame(t, domain.GameSettings{Name: "doomed"})
	gameID := confirmation.GameID
	player := e.join(t, "alice", gameID, domain.RolePlayer)

	assert.ErrorIs(t, e.lifecycle.Delete(ctx, player, gameID), apperr.ErrForbidden)

	require.NoError(t, e.lifecycle.Delete(ctx, host, gameID))

	_, err := e.lifecycle.GetPublic(ctx, gameID)
	assert.ErrorIs(t, err, apperr.ErrGameNotFound)
	_, err = e.repo.FindPlayer(ctx, gameID, "alice")
	assert.ErrorIs(t, err, apperr.ErrPlayerNotFound)
}

func TestGameLifecycle_Get_RequiresManager(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t)

	confirmation, _ := e.createGame(t, domain.GameSettings{Name: "private"})
	other, _ := e.createGame(t, domain.GameSettings{Name: "other"})
	player := e.join(t, "alice", confirmation.GameID, domain.RolePlayer)
	admin := e.join(t, "bob", confirmation.GameID, domain.RoleAdmin)

	_, err := e.lifecycle.Get(ctx, player, confirmation.GameID)
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	_, err = e.lifecycle.Get(ctx, admin, other.GameID)
	assert.ErrorIs(t, err, apperr.ErrWrongGame)

	game, err := e.lifecycle.Get(ctx, admin, confirmation.GameID)
	require.NoError(t, err)
	assert.Equal(t, []string{"bob"}, game.Admins)
}

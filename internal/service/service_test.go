package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/greathunt/game-engine/internal/config"
	"github.com/greathunt/game-engine/internal/domain"
	"github.com/greathunt/game-engine/internal/pkg/jwthelper"
	"github.com/greathunt/game-engine/internal/repository/memory"
	"github.com/greathunt/game-engine/internal/service"
)

const adminCode = "letmein"

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type engine struct {
	repo      *memory.Repository
	clock     *fakeClock
	tokens    *service.TokenAuthority
	lifecycle *service.GameLifecycle
	roster    *service.RosterManager
	tasks     *service.TaskScoringEngine
}

func newEngine(t *testing.T, mutate ...func(*config.GameConfig)) *engine {
	t.Helper()

	clock := &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	auth := &config.AuthConfig{
		AccessSecret:  "access",
		RefreshSecret: "refresh",
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    3 * time.Hour,
	}
	game := &config.GameConfig{
		AdminCodes: []string{adminCode},
		MaxUsers:   100,
		MaxGames:   10,
		MaxTasks:   20,
		MaxPlayers: 100,
		MaxAdmins:  5,
	}
	for _, m := range mutate {
		m(game)
	}

	repo := memory.New()
	tokens := service.NewTokenAuthority(repo, &jwthelper.Signer{Now: clock.Now}, auth, game)
	lifecycle := service.NewGameLifecycle(repo, tokens, game, clock.Now)

	return &engine{
		repo:      repo,
		clock:     clock,
		tokens:    tokens,
		lifecycle: lifecycle,
		roster:    service.NewRosterManager(repo, tokens, lifecycle, game),
		tasks:     service.NewTaskScoringEngine(repo, lifecycle),
	}
}

// user signs up and logs in username, returning its account scoped claims.
func (e *engine) user(t *testing.T, username string) domain.Claims {
	t.Helper()
	ctx := context.Background()

	_, err := e.tokens.Signup(ctx, username, "password1", "")
	require.NoError(t, err)

	creds, err := e.tokens.Login(ctx, username, "password1")
	require.NoError(t, err)

	return e.verify(t, creds)
}

func (e *engine) verify(t *testing.T, creds domain.Credentials) domain.Claims {
	t.Helper()
	claims, err := e.tokens.Verify(creds.AccessToken, "", nil)
	require.NoError(t, err)
	return claims
}

// createGame creates a game hosted by a fresh user and returns the host's claims.
func (e *engine) createGame(t *testing.T, settings domain.GameSettings, tasks ...domain.Task) (domain.CreateGameConfirmation, domain.Claims) {
	t.Helper()

	host := e.user(t, "host-"+settings.Name)
	confirmation, err := e.lifecycle.Create(context.Background(), host, settings, tasks)
	require.NoError(t, err)

	return confirmation, e.verify(t, confirmation.Credentials)
}

func (e *engine) join(t *testing.T, username, gameID string, role domain.Role) domain.Claims {
	t.Helper()

	claims := e.user(t, username)
	code := ""
	if role == domain.RoleAdmin {
		code = adminCode
	}
	creds, err := e.roster.Join(context.Background(), claims, gameID, role, code)
	require.NoError(t, err)

	return e.verify(t, creds)
}

func anyAnswerTask(points int) domain.Task {
	return domain.Task{
		Type:     domain.TaskTypeText,
		Question: "anything",
		Answers:  []int{},
		Points:   points,
	}
}

func choiceTask(points, attempts int, scale bool) domain.Task {
	return domain.Task{
		Type:          domain.TaskTypeMultipleChoice,
		Question:      "pick A and B",
		AnswerChoices: []string{"A", "B", "C"},
		Answers:       []int{0, 1},
		Attempts:      attempts,
		Points:        points,
		ScalePoints:   scale,
	}
}

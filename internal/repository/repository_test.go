package repository

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/greathunt/game-engine/internal/domain"
	"github.com/greathunt/game-engine/internal/pkg/apperr"
	"github.com/greathunt/game-engine/internal/repository/dao"
	"github.com/greathunt/game-engine/internal/service"
)

var testDB *gorm.DB

func TestMain(m *testing.M) {
	flag.Parse()
	if testing.Short() {
		os.Exit(m.Run())
	}

	pool, err := dockertest.NewPool("")
	if err != nil || pool.Client.Ping() != nil {
		log.Println("docker unavailable, skipping postgres tests")
		os.Exit(m.Run())
	}

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "postgres",
		Tag:        "16-alpine",
		Env: []string{
			"POSTGRES_USER=game",
			"POSTGRES_PASSWORD=secret",
			"POSTGRES_DB=game",
		},
	}, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		log.Printf("could not start postgres: %v", err)
		os.Exit(m.Run())
	}
	_ = resource.Expire(180)

	dsn := fmt.Sprintf("postgres://game:secret@%s/game?sslmode=disable", resource.GetHostPort("5432/tcp"))
	pool.MaxWait = 90 * time.Second
	err = pool.Retry(func() error {
		var err error
		testDB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
		if err != nil {
			return err
		}
		sqlDB, err := testDB.DB()
		if err != nil {
			return err
		}
		return sqlDB.Ping()
	})
	if err != nil {
		log.Printf("could not connect to postgres: %v", err)
		testDB = nil
	}

	code := m.Run()
	_ = pool.Purge(resource)
	os.Exit(code)
}

func newTestRepository(t *testing.T) *Repository {
	t.Helper()
	if testDB == nil {
		t.Skip("postgres not available")
	}
	require.NoError(t, dao.DropTables(testDB))
	require.NoError(t, dao.InitTables(testDB))
	return NewRepository(testDB)
}

func insertGame(t *testing.T, r *Repository, host string, minPlayers int) domain.Game {
	t.Helper()
	g, err := r.InsertGame(context.Background(), domain.Game{
		ID:       uuid.NewString(),
		Settings: domain.GameSettings{Name: "hunt", MinPlayers: minPlayers},
		Tasks: []domain.Task{{
			ID:            uuid.NewString(),
			Type:          domain.TaskTypeMultipleChoice,
			Question:      "2+2?",
			AnswerChoices: []string{"3", "4"},
			Answers:       []int{1},
			Points:        10,
		}},
		State: domain.StateNotReady,
		Host:  host,
	})
	require.NoError(t, err)
	return g
}

func TestRepository_Users(t *testing.T) {
	ctx := context.Background()
	r := newTestRepository(t)

	u, err := r.InsertUser(ctx, domain.User{ID: uuid.NewString(), Username: "alice", Password: "hash"})
	require.NoError(t, err)

	_, err = r.InsertUser(ctx, domain.User{ID: uuid.NewString(), Username: "alice", Password: "hash"})
	assert.ErrorIs(t, err, apperr.ErrUsernameTaken)

	found, err := r.FindUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", found.Username)

	err = r.WithTransaction(ctx, func(tx service.Repository) error {
		n, err := tx.CountUsers(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, n)
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, r.DeleteUser(ctx, "alice"))
	_, err = r.FindUserByUsername(ctx, "alice")
	assert.ErrorIs(t, err, apperr.ErrUserNotFound)
}

func TestRepository_GameRoundTrip(t *testing.T) {
	ctx := context.Background()
	r := newTestRepository(t)
	g := insertGame(t, r, "host", 0)

	found, err := r.FindGameByID(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, g.Tasks, found.Tasks)
	assert.Empty(t, found.Players)

	boom := errors.New("boom")
	_, err = r.UpdateGame(ctx, g.ID, func(g *domain.Game) error {
		g.State = domain.StateReady
		return boom
	})
	assert.ErrorIs(t, err, boom)

	found, err = r.FindGameByID(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StateNotReady, found.State)

	_, err = r.FindGameByID(ctx, uuid.NewString())
	assert.ErrorIs(t, err, apperr.ErrGameNotFound)
}

func TestRepository_ConcurrentUpdateGame(t *testing.T) {
	ctx := context.Background()
	r := newTestRepository(t)
	const joiners = 8
	g := insertGame(t, r, "host", joiners)

	transitions := make(chan struct{}, joiners)
	var eg errgroup.Group
	for i := 0; i < joiners; i++ {
		name := fmt.Sprintf("player-%d", i)
		eg.Go(func() error {
			_, err := r.UpdateGame(ctx, g.ID, func(g *domain.Game) error {
				g.Players = append(g.Players, name)
				if g.State == domain.StateNotReady && len(g.Players) == g.Settings.MinPlayers {
					g.State = domain.StateReady
					transitions <- struct{}{}
				}
				return nil
			})
			return err
		})
	}
	require.NoError(t, eg.Wait())
	close(transitions)

	assert.Len(t, transitions, 1)
	found, err := r.FindGameByID(ctx, g.ID)
	require.NoError(t, err)
	assert.Len(t, found.Players, joiners)
	assert.Equal(t, domain.StateReady, found.State)
}

func TestRepository_PlayersAndCascades(t *testing.T) {
	ctx := context.Background()
	r := newTestRepository(t)
	g1 := insertGame(t, r, "host", 0)
	g2 := insertGame(t, r, "alice", 0)

	for _, g := range []domain.Game{g1, g2} {
		_, err := r.UpdateGame(ctx, g.ID, func(g *domain.Game) error {
			g.Players = append(g.Players, "bob")
			g.Admins = append(g.Admins, "bob")
			return nil
		})
		require.NoError(t, err)
		require.NoError(t, r.InsertPlayer(ctx, domain.Player{GameID: g.ID, Username: "bob"}))
	}
	assert.ErrorIs(t, r.InsertPlayer(ctx, domain.Player{GameID: g1.ID, Username: "bob"}), apperr.ErrAlreadyJoined)

	p, err := r.UpdatePlayer(ctx, g1.ID, "bob", func(p *domain.Player) error {
		p.Points = 42
		p.TasksSubmitted = append(p.TasksSubmitted, domain.TaskSubmission{
			ID: uuid.NewString(), TaskID: g1.Tasks[0].ID, Answers: []string{"4"}, SubmissionTime: 1, Success: true,
		})
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, p.Points)
	assert.Len(t, p.TasksSubmitted, 1)

	err = r.WithTransaction(ctx, func(tx service.Repository) error {
		if err := tx.PullFromRosters(ctx, "bob"); err != nil {
			return err
		}
		return tx.DeletePlayersByUsername(ctx, "bob")
	})
	require.NoError(t, err)

	for _, g := range []domain.Game{g1, g2} {
		found, err := r.FindGameByID(ctx, g.ID)
		require.NoError(t, err)
		assert.Empty(t, found.Players)
		assert.Empty(t, found.Admins)

		players, err := r.ListPlayers(ctx, g.ID)
		require.NoError(t, err)
		assert.Empty(t, players)
	}

	ids, err := r.DeleteGamesByHost(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, []string{g2.ID}, ids)

	games, err := r.ListGames(ctx, domain.GameFilter{})
	require.NoError(t, err)
	require.Len(t, games, 1)
	assert.Equal(t, g1.ID, games[0].ID)
}

func TestRepository_TransactionRollback(t *testing.T) {
	ctx := context.Background()
	r := newTestRepository(t)
	g := insertGame(t, r, "host", 0)

	boom := errors.New("boom")
	err := r.WithTransaction(ctx, func(tx service.Repository) error {
		require.NoError(t, tx.DeleteGame(ctx, g.ID))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = r.FindGameByID(ctx, g.ID)
	assert.NoError(t, err)
}

package api_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greathunt/game-engine/internal/api"
	v1 "github.com/greathunt/game-engine/internal/api/handler/v1"
	"github.com/greathunt/game-engine/internal/api/handler/v1/response"
	"github.com/greathunt/game-engine/internal/config"
	"github.com/greathunt/game-engine/internal/domain"
	"github.com/greathunt/game-engine/internal/repository/memory"
)

const adminCode = "letmein"

func newTestServer(t *testing.T) *api.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	conf := &config.AppConfig{
		API:      &config.APIConfig{Environment: "test", Port: "0", BaseURL: "localhost"},
		Gin:      &config.GinConfig{Mode: gin.TestMode},
		Postgres: &config.PostgresConfig{},
		Storage:  &config.StorageConfig{Driver: config.StorageMemory},
		Auth: &config.AuthConfig{
			AccessSecret:  "access",
			RefreshSecret: "refresh",
			AccessTTL:     15 * time.Minute,
			RefreshTTL:    3 * time.Hour,
		},
		Game: &config.GameConfig{
			AdminCodes: []string{adminCode},
			MaxUsers:   100,
			MaxGames:   10,
			MaxTasks:   20,
			MaxPlayers: 100,
			MaxAdmins:  5,
		},
	}

	s := api.NewServer(conf, memory.New())
	t.Cleanup(s.Close)

	return s
}

type call struct {
	method string
	path   string
	token  string
	body   any
	header map[string]string
}

func do(t *testing.T, s *api.Server, c call) *httptest.ResponseRecorder {
	t.Helper()

	var body bytes.Buffer
	if c.body != nil {
		require.NoError(t, json.NewEncoder(&body).Encode(c.body))
	}

	req := httptest.NewRequest(c.method, c.path, &body)
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	for k, v := range c.header {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	s.Router.ServeHTTP(w, req)

	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func login(t *testing.T, s *api.Server, username string) domain.Credentials {
	t.Helper()

	w := do(t, s, call{method: http.MethodPost, path: "/api/v1/auth/signup", body: map[string]string{
		"username": username,
		"password": "secret1",
	}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = do(t, s, call{method: http.MethodPost, path: "/api/v1/auth/login", body: map[string]string{
		"username": username,
		"password": "secret1",
	}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	return decode[domain.Credentials](t, w)
}

func createGame(t *testing.T, s *api.Server, token string) domain.CreateGameConfirmation {
	t.Helper()

	w := do(t, s, call{method: http.MethodPost, path: "/api/v1/games", token: token, body: map[string]any{
		"settings": map[string]any{"name": "hunt", "min_players": 1, "num_required_tasks": 1},
		"tasks": []map[string]any{
			{"type": "text", "question": "say anything", "answers": []int{}, "points": 5},
		},
	}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	return decode[domain.CreateGameConfirmation](t, w)
}

func TestServer_Healthcheck(t *testing.T) {
	s := newTestServer(t)

	w := do(t, s, call{method: http.MethodGet, path: "/"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestServer_Auth(t *testing.T) {
	s := newTestServer(t)
	creds := login(t, s, "alice")

	tests := []struct {
		name   string
		call   call
		status int
		code   string
	}{
		{
			name:   "duplicate signup",
			call:   call{method: http.MethodPost, path: "/api/v1/auth/signup", body: map[string]string{"username": "alice", "password": "secret1"}},
			status: http.StatusConflict,
			code:   "USERNAME_TAKEN",
		},
		{
			name:   "short password",
			call:   call{method: http.MethodPost, path: "/api/v1/auth/signup", body: map[string]string{"username": "bob", "password": "abc"}},
			status: http.StatusBadRequest,
		},
		{
			name:   "missing body",
			call:   call{method: http.MethodPost, path: "/api/v1/auth/login"},
			status: http.StatusBadRequest,
		},
		{
			name:   "wrong password",
			call:   call{method: http.MethodPost, path: "/api/v1/auth/login", body: map[string]string{"username": "alice", "password": "wrong-one"}},
			status: http.StatusUnauthorized,
			code:   "INVALID_CREDENTIALS",
		},
		{
			name:   "refresh with an access token",
			call:   call{method: http.MethodPost, path: "/api/v1/auth/refresh", body: map[string]string{"refresh_token": creds.AccessToken}},
			status: http.StatusUnauthorized,
			code:   "INVALID_TOKEN",
		},
		{
			name:   "create game without a token",
			call:   call{method: http.MethodPost, path: "/api/v1/games", body: map[string]any{}},
			status: http.StatusUnauthorized,
			code:   "INVALID_TOKEN",
		},
		{
			name:   "garbage token",
			call:   call{method: http.MethodGet, path: "/api/v1/games", token: "garbage"},
			status: http.StatusUnauthorized,
			code:   "INVALID_TOKEN",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, s, tt.call)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
			if tt.code != "" {
				assert.Equal(t, tt.code, decode[response.Err](t, w).Code)
			}
		})
	}

	w := do(t, s, call{method: http.MethodPost, path: "/api/v1/auth/refresh", body: map[string]string{"refresh_token": creds.RefreshToken}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.NotEmpty(t, decode[response.RefreshResponse](t, w).AccessToken)
}

func TestServer_GameFlow(t *testing.T) {
	s := newTestServer(t)

	host := login(t, s, "host")
	confirmation := createGame(t, s, host.AccessToken)
	gameID := confirmation.GameID
	hostToken := confirmation.Credentials.AccessToken
	games := "/api/v1/games/" + gameID

	alice := login(t, s, "alice")
	w := do(t, s, call{method: http.MethodPost, path: games + "/players", token: alice.AccessToken, body: map[string]string{"role": "player"}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	aliceToken := decode[domain.Credentials](t, w).AccessToken

	w = do(t, s, call{method: http.MethodPost, path: games + "/players", token: aliceToken, body: map[string]string{"role": "player"}})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(t, s, call{method: http.MethodGet, path: games})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, domain.StateReady, decode[domain.PublicGame](t, w).State)

	w = do(t, s, call{method: http.MethodPost, path: games + "/actions", token: aliceToken, body: map[string]string{"action": "start"}})
	assert.Equal(t, http.StatusForbidden, w.Code, "players cannot start")

	w = do(t, s, call{method: http.MethodPost, path: games + "/actions", token: hostToken, body: map[string]string{"action": "start"}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	started := decode[response.ActionResponse](t, w)
	require.NotNil(t, started.Times)
	assert.NotZero(t, started.Times.StartTime)

	w = do(t, s, call{method: http.MethodPost, path: games + "/actions", token: hostToken, body: map[string]string{"action": "start"}})
	assert.Equal(t, http.StatusConflict, w.Code)

	submit := games + "/tasks/" + confirmation.TaskIDs[0] + "/submit"
	w = do(t, s, call{method: http.MethodPost, path: submit, token: aliceToken, body: map[string]any{"answers": []string{"<b>hello</b>"}}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.True(t, decode[domain.SubmissionResult](t, w).Success)

	w = do(t, s, call{method: http.MethodPost, path: submit, token: alice.AccessToken, body: map[string]any{"answers": []string{}}})
	assert.Equal(t, http.StatusForbidden, w.Code, "account tokens are not bound to the game")

	w = do(t, s, call{method: http.MethodGet, path: games + "/players/alice"})
	require.Equal(t, http.StatusOK, w.Code)
	public := decode[domain.PublicPlayer](t, w)
	assert.Equal(t, 5, public.Points)
	assert.True(t, public.Done)
	assert.NotContains(t, w.Body.String(), "tasks_submitted")

	w = do(t, s, call{method: http.MethodGet, path: games + "/players/alice?public=false", token: aliceToken})
	require.Equal(t, http.StatusOK, w.Code)
	private := decode[domain.Player](t, w)
	require.Len(t, private.TasksSubmitted, 1)
	assert.Equal(t, []string{"hello"}, private.TasksSubmitted[0].Answers)

	w = do(t, s, call{method: http.MethodPost, path: games + "/actions", token: hostToken, body: map[string]string{"action": "stop"}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = do(t, s, call{method: http.MethodPost, path: games + "/actions", token: hostToken, body: map[string]string{"action": "restart"}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	restarted := decode[response.ActionResponse](t, w)
	require.NotNil(t, restarted.Game)
	assert.NotEqual(t, gameID, restarted.Game.GameID)

	w = do(t, s, call{method: http.MethodGet, path: "/api/v1/games?state=ended"})
	require.Equal(t, http.StatusOK, w.Code)
	ended := decode[[]domain.PublicGame](t, w)
	require.Len(t, ended, 1)
	assert.Equal(t, gameID, ended[0].ID)

	w = do(t, s, call{method: http.MethodDelete, path: games, token: hostToken})
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = do(t, s, call{method: http.MethodGet, path: games})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestServer_PrivateViews(t *testing.T) {
	s := newTestServer(t)

	host := login(t, s, "host")
	confirmation := createGame(t, s, host.AccessToken)
	tasks := "/api/v1/games/" + confirmation.GameID + "/tasks"

	alice := login(t, s, "alice")
	w := do(t, s, call{method: http.MethodPost, path: "/api/v1/games/" + confirmation.GameID + "/players", token: alice.AccessToken, body: map[string]string{"role": "player"}})
	require.Equal(t, http.StatusOK, w.Code)
	aliceToken := decode[domain.Credentials](t, w).AccessToken

	tests := []struct {
		name   string
		path   string
		token  string
		status int
	}{
		{name: "public tasks", path: tasks, status: http.StatusOK},
		{name: "private without token", path: tasks + "?public=false", status: http.StatusUnauthorized},
		{name: "private as player", path: tasks + "?public=false", token: aliceToken, status: http.StatusForbidden},
		{name: "private as host", path: tasks + "?public=false", token: confirmation.Credentials.AccessToken, status: http.StatusOK},
		{name: "private game as host", path: "/api/v1/games/" + confirmation.GameID + "?public=false", token: confirmation.Credentials.AccessToken, status: http.StatusOK},
		{name: "one public task", path: tasks + "/" + confirmation.TaskIDs[0], status: http.StatusOK},
		{name: "malformed game id", path: "/api/v1/games/not-a-uuid", status: http.StatusBadRequest},
		{name: "unknown task", path: tasks + "/6f1c7d1e-8b88-4a47-9d2a-2f7d7a1c2b3e", status: http.StatusNotFound},
		{name: "unknown state filter", path: "/api/v1/games?state=paused", status: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, s, call{method: http.MethodGet, path: tt.path, token: tt.token})
			assert.Equal(t, tt.status, w.Code, w.Body.String())
		})
	}

	w = do(t, s, call{method: http.MethodGet, path: tasks})
	assert.NotContains(t, w.Body.String(), `"answers"`)

	w = do(t, s, call{method: http.MethodGet, path: tasks + "?public=false", token: confirmation.Credentials.AccessToken})
	assert.Contains(t, w.Body.String(), `"answers"`)
}

func TestServer_Roster(t *testing.T) {
	s := newTestServer(t)

	host := login(t, s, "host")
	confirmation := createGame(t, s, host.AccessToken)
	players := "/api/v1/games/" + confirmation.GameID + "/players"

	bob := login(t, s, "bob")
	w := do(t, s, call{method: http.MethodPost, path: players, token: bob.AccessToken, body: map[string]string{"role": "admin", "code": "nope"}})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(t, s, call{method: http.MethodPost, path: players, token: bob.AccessToken, body: map[string]string{"role": "admin", "code": adminCode}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	bobToken := decode[domain.Credentials](t, w).AccessToken

	w = do(t, s, call{method: http.MethodPost, path: players, token: bob.AccessToken, body: map[string]string{"role": "host"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	alice := login(t, s, "alice")
	w = do(t, s, call{method: http.MethodPost, path: players, token: alice.AccessToken, body: map[string]string{"role": "player"}})
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, s, call{method: http.MethodDelete, path: players + "/alice", token: bobToken})
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = do(t, s, call{method: http.MethodGet, path: players})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[[]domain.PublicPlayer](t, w))

	w = do(t, s, call{method: http.MethodDelete, path: players, token: bobToken})
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = do(t, s, call{method: http.MethodDelete, path: "/api/v1/users/host"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(t, s, call{method: http.MethodDelete, path: "/api/v1/users/host", header: map[string]string{"X-Admin-Code": adminCode}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "host", decode[domain.User](t, w).Username)
	assert.NotContains(t, w.Body.String(), "password")

	w = do(t, s, call{method: http.MethodGet, path: "/api/v1/games/" + confirmation.GameID})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestServer_Live(t *testing.T) {
	s := newTestServer(t)
	ts := httptest.NewServer(s.Router)
	defer ts.Close()

	host := login(t, s, "host")
	confirmation := createGame(t, s, host.AccessToken)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/v1/games/" + confirmation.GameID + "/live"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	defer resp.Body.Close()

	read := func() v1.Scoreboard {
		t.Helper()
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
		var board v1.Scoreboard
		require.NoError(t, conn.ReadJSON(&board))
		return board
	}

	snapshot := read()
	assert.Equal(t, "scoreboard", snapshot.Type)
	assert.Equal(t, confirmation.GameID, snapshot.GameID)
	assert.Empty(t, snapshot.Players)

	alice := login(t, s, "alice")
	w := do(t, s, call{method: http.MethodPost, path: "/api/v1/games/" + confirmation.GameID + "/players", token: alice.AccessToken, body: map[string]string{"role": "player"}})
	require.Equal(t, http.StatusOK, w.Code)

	board := read()
	require.Len(t, board.Players, 1)
	assert.Equal(t, "alice", board.Players[0].Username)

	_, resp, err = websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/api/v1/games/6f1c7d1e-8b88-4a47-9d2a-2f7d7a1c2b3e/live", nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

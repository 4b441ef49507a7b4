// Package memory is an in-process Repository used by tests and the memory storage driver.
package memory

import (
	"context"
	"slices"
	"sort"
	"sync"

	"github.com/greathunt/game-engine/internal/domain"
	"github.com/greathunt/game-engine/internal/pkg/apperr"
	"github.com/greathunt/game-engine/internal/service"
)

type data struct {
	users   map[string]domain.User
	games   map[string]domain.Game
	players map[string][]domain.Player
}

func newData() *data {
	return &data{
		users:   make(map[string]domain.User),
		games:   make(map[string]domain.Game),
		players: make(map[string][]domain.Player),
	}
}

func (d *data) clone() *data {
	c := newData()
	for k, u := range d.users {
		c.users[k] = u
	}
	for k, g := range d.games {
		c.games[k] = g.Clone()
	}
	for k, ps := range d.players {
		cp := make([]domain.Player, len(ps))
		for i, p := range ps {
			cp[i] = p.Clone()
		}
		c.players[k] = cp
	}
	return c
}

type nopLocker struct{}

func (nopLocker) Lock()   {}
func (nopLocker) Unlock() {}

// Repository keeps everything in maps guarded by a single mutex. A transaction holds the mutex
// for its whole duration and works on a copy that replaces the live data on commit.
type Repository struct {
	mu sync.Locker
	d  *data
	tx bool
}

var _ service.Repository = (*Repository)(nil)

func New() *Repository {
	return &Repository{
		mu: &sync.Mutex{},
		d:  newData(),
	}
}

func (r *Repository) WithTransaction(ctx context.Context, fn func(repo service.Repository) error) error {
	if r.tx {
		return fn(r)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	tx := &Repository{mu: nopLocker{}, d: r.d.clone(), tx: true}
	if err := fn(tx); err != nil {
		return err
	}
	r.d = tx.d

	return nil
}

func (r *Repository) FindUserByUsername(_ context.Context, username string) (domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.d.users[username]
	if !ok {
		return domain.User{}, apperr.ErrUserNotFound
	}
	return u, nil
}

func (r *Repository) FindUserByID(_ context.Context, id string) (domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.d.users {
		if u.ID == id {
			return u, nil
		}
	}
	return domain.User{}, apperr.ErrUserNotFound
}

func (r *Repository) CountUsers(_ context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.d.users), nil
}

func (r *Repository) InsertUser(_ context.Context, user domain.User) (domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.d.users[user.Username]; ok {
		return domain.User{}, apperr.ErrUsernameTaken
	}
	r.d.users[user.Username] = user
	return user, nil
}

func (r *Repository) DeleteUser(_ context.Context, username string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.d.users[username]; !ok {
		return apperr.ErrUserNotFound
	}
	delete(r.d.users, username)
	return nil
}

func (r *Repository) FindGameByID(_ context.Context, id string) (domain.Game, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	g, ok := r.d.games[id]
	if !ok {
		return domain.Game{}, apperr.ErrGameNotFound
	}
	return g.Clone(), nil
}

func (r *Repository) InsertGame(_ context.Context, game domain.Game) (domain.Game, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.d.games[game.ID]; ok {
		return domain.Game{}, apperr.Detail(apperr.ErrInvalidInput, "duplicate game id %s", game.ID)
	}
	r.d.games[game.ID] = game.Clone()
	return game, nil
}

func (r *Repository) UpdateGame(_ context.Context, id string, fn func(g *domain.Game) error) (domain.Game, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	g, ok := r.d.games[id]
	if !ok {
		return domain.Game{}, apperr.ErrGameNotFound
	}

	updated := g.Clone()
	if err := fn(&updated); err != nil {
		return domain.Game{}, err
	}
	updated.ID = id
	r.d.games[id] = updated.Clone()

	return updated, nil
}

func (r *Repository) ListGames(_ context.Context, filter domain.GameFilter) ([]domain.Game, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	games := make([]domain.Game, 0, len(r.d.games))
	for _, g := range r.d.games {
		if filter.Match(g) {
			games = append(games, g.Clone())
		}
	}
	sort.Slice(games, func(i, j int) bool {
		if games[i].CreatedAt.Equal(games[j].CreatedAt) {
			return games[i].ID < games[j].ID
		}
		return games[i].CreatedAt.Before(games[j].CreatedAt)
	})

	return games, nil
}

func (r *Repository) CountGames(_ context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.d.games), nil
}

func (r *Repository) DeleteGame(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.d.games[id]; !ok {
		return apperr.ErrGameNotFound
	}
	delete(r.d.games, id)
	return nil
}

func (r *Repository) PullFromRosters(_ context.Context, username string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, g := range r.d.games {
		if !slices.Contains(g.Players, username) && !slices.Contains(g.Admins, username) {
			continue
		}
		g = g.Clone()
		g.Players = slices.DeleteFunc(g.Players, func(s string) bool { return s == username })
		g.Admins = slices.DeleteFunc(g.Admins, func(s string) bool { return s == username })
		r.d.games[id] = g
	}
	return nil
}

func (r *Repository) DeleteGamesByHost(_ context.Context, username string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var ids []string
	for id, g := range r.d.games {
		if g.Host == username {
			ids = append(ids, id)
			delete(r.d.games, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (r *Repository) FindPlayer(_ context.Context, gameID, username string) (domain.Player, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.d.playerIndex(gameID, username)
	if i < 0 {
		return domain.Player{}, apperr.ErrPlayerNotFound
	}
	return r.d.players[gameID][i].Clone(), nil
}

func (r *Repository) ListPlayers(_ context.Context, gameID string) ([]domain.Player, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ps := r.d.players[gameID]
	out := make([]domain.Player, len(ps))
	for i, p := range ps {
		out[i] = p.Clone()
	}
	return out, nil
}

func (r *Repository) InsertPlayer(_ context.Context, player domain.Player) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.d.playerIndex(player.GameID, player.Username) >= 0 {
		return apperr.ErrAlreadyJoined
	}
	r.d.players[player.GameID] = append(r.d.players[player.GameID], player.Clone())
	return nil
}

func (r *Repository) UpdatePlayer(_ context.Context, gameID, username string, fn func(p *domain.Player) error) (domain.Player, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.d.playerIndex(gameID, username)
	if i < 0 {
		return domain.Player{}, apperr.ErrPlayerNotFound
	}

	updated := r.d.players[gameID][i].Clone()
	if err := fn(&updated); err != nil {
		return domain.Player{}, err
	}
	updated.GameID, updated.Username = gameID, username
	r.d.players[gameID][i] = updated.Clone()

	return updated, nil
}

func (r *Repository) DeletePlayer(_ context.Context, gameID, username string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.d.playerIndex(gameID, username)
	if i < 0 {
		return apperr.ErrPlayerNotFound
	}
	r.d.players[gameID] = slices.Delete(r.d.players[gameID], i, i+1)
	return nil
}

func (r *Repository) DeletePlayersByUsername(_ context.Context, username string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for gameID, ps := range r.d.players {
		r.d.players[gameID] = slices.DeleteFunc(ps, func(p domain.Player) bool { return p.Username == username })
	}
	return nil
}

func (r *Repository) DeletePlayersByGame(_ context.Context, gameID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.d.players, gameID)
	return nil
}

func (d *data) playerIndex(gameID, username string) int {
	return slices.IndexFunc(d.players[gameID], func(p domain.Player) bool { return p.Username == username })
}

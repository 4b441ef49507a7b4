package dao

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/greathunt/game-engine/internal/pkg/apperr"
)

var ErrGameNotFound = apperr.ErrGameNotFound

// Task is stored inside the games row; tasks never change once a game exists.
type Task struct {
	ID            string   `json:"id"`
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

type Game struct {
	ID string `gorm:"primaryKey;type:uuid"`

	Name             string `gorm:"not null"`
	Duration         int64  `gorm:"not null"`
	StartTime        int64  `gorm:"not null"`
	EndTime          int64  `gorm:"not null"`
	Ordered          bool   `gorm:"not null"`
	MinPlayers       int    `gorm:"not null"`
	MaxPlayers       int    `gorm:"not null"`
	JoinMidGame      bool   `gorm:"not null"`
	NumRequiredTasks int    `gorm:"not null"`

	Tasks   datatypes.JSONSlice[Task]   `gorm:"not null"`
	State   string                      `gorm:"index;not null"`
	Host    string                      `gorm:"index;not null"`
	Admins  datatypes.JSONSlice[string] `gorm:"not null"`
	Players datatypes.JSONSlice[string] `gorm:"not null"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

type GameDAO struct {
	db *gorm.DB
}

func NewGameDAO(db *gorm.DB) *GameDAO {
	return &GameDAO{
		db: db,
	}
}

func (d *GameDAO) Insert(ctx context.Context, game Game) (Game, error) {
	if err := d.db.WithContext(ctx).Create(&game).Error; err != nil {
		return Game{}, err
	}
	return game, nil
}

func (d *GameDAO) FindByID(ctx context.Context, id string) (Game, error) {
	return d.find(d.db.WithContext(ctx), id)
}

// FindByIDForUpdate locks the row until the surrounding transaction ends.
func (d *GameDAO) FindByIDForUpdate(ctx context.Context, id string) (Game, error) {
	return d.find(d.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (d *GameDAO) find(db *gorm.DB, id string) (Game, error) {
	var game Game

	result := db.First(&game, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Game{}, ErrGameNotFound
		}

		return Game{}, result.Error
	}

	return game, nil
}

func (d *GameDAO) Save(ctx context.Context, game Game) (Game, error) {
	if err := d.db.WithContext(ctx).Save(&game).Error; err != nil {
		return Game{}, err
	}
	return game, nil
}

func (d *GameDAO) List(ctx context.Context, state, host string) ([]Game, error) {
	q := d.db.WithContext(ctx).Order("created_at, id")
	if state != "" {
		q = q.Where("state = ?", state)
	}
	if host != "" {
		q = q.Where("host = ?", host)
	}

	var games []Game
	if err := q.Find(&games).Error; err != nil {
		return nil, err
	}
	return games, nil
}

func (d *GameDAO) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := d.db.WithContext(ctx).Model(&Game{}).Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

func (d *GameDAO) Delete(ctx context.Context, id string) error {
	result := d.db.WithContext(ctx).Delete(&Game{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrGameNotFound
	}
	return nil
}

// FindByMemberForUpdate locks every game listing username as a player or admin.
func (d *GameDAO) FindByMemberForUpdate(ctx context.Context, username string) ([]Game, error) {
	member, err := json.Marshal([]string{username})
	if err != nil {
		return nil, err
	}

	var games []Game
	err = d.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("players @> ?::jsonb OR admins @> ?::jsonb", string(member), string(member)).
		Order("id").
		Find(&games).Error
	if err != nil {
		return nil, err
	}
	return games, nil
}

func (d *GameDAO) DeleteByHost(ctx context.Context, host string) ([]string, error) {
	var games []Game
	result := d.db.WithContext(ctx).
		Clauses(clause.Returning{Columns: []clause.Column{{Name: "id"}}}).
		Where("host = ?", host).
		Delete(&games)
	if result.Error != nil {
		return nil, result.Error
	}

	ids := make([]string, len(games))
	for i, g := range games {
		ids[i] = g.ID
	}
	return ids, nil
}

// Lock takes a transaction scoped advisory lock on key, serialising count-then-insert sequences.
func Lock(ctx context.Context, db *gorm.DB, key string) error {
	return db.WithContext(ctx).Exec("SELECT pg_advisory_xact_lock(hashtext(?))", key).Error
}

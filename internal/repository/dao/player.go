package dao

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/greathunt/game-engine/internal/pkg/apperr"
)

var (
	ErrPlayerNotFound = apperr.ErrPlayerNotFound
	ErrAlreadyJoined  = apperr.ErrAlreadyJoined
)

type TaskSubmission struct {
	ID             string   `json:"id"`
	TaskID         string   `json:"task_id"`
	Answers        []string `json:"answers"`
	SubmissionTime int64    `json:"submission_time"`
	Success        bool     `json:"success"`
}

type Player struct {
	GameID   string `gorm:"primaryKey;type:uuid"`
	Username string `gorm:"primaryKey;index"`

	Points         int                                 `gorm:"not null"`
	TasksSubmitted datatypes.JSONSlice[TaskSubmission] `gorm:"not null"`
	Done           bool                                `gorm:"not null"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

type PlayerDAO struct {
	db *gorm.DB
}

func NewPlayerDAO(db *gorm.DB) *PlayerDAO {
	return &PlayerDAO{
		db: db,
	}
}

func (d *PlayerDAO) Insert(ctx context.Context, player Player) error {
	err := d.db.WithContext(ctx).Create(&player).Error
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return ErrAlreadyJoined
		}
		return err
	}
	return nil
}

func (d *PlayerDAO) Find(ctx context.Context, gameID, username string) (Player, error) {
	return d.find(d.db.WithContext(ctx), gameID, username)
}

func (d *PlayerDAO) FindForUpdate(ctx context.Context, gameID, username string) (Player, error) {
	return d.find(d.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), gameID, username)
}

func (d *PlayerDAO) find(db *gorm.DB, gameID, username string) (Player, error) {
	var player Player

	result := db.First(&player, "game_id = ? AND username = ?", gameID, username)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Player{}, ErrPlayerNotFound
		}

		return Player{}, result.Error
	}

	return player, nil
}

func (d *PlayerDAO) Save(ctx context.Context, player Player) (Player, error) {
	if err := d.db.WithContext(ctx).Save(&player).Error; err != nil {
		return Player{}, err
	}
	return player, nil
}

func (d *PlayerDAO) ListByGame(ctx context.Context, gameID string) ([]Player, error) {
	var players []Player
	if err := d.db.WithContext(ctx).Where("game_id = ?", gameID).Order("created_at, username").Find(&players).Error; err != nil {
		return nil, err
	}
	return players, nil
}

func (d *PlayerDAO) Delete(ctx context.Context, gameID, username string) error {
	result := d.db.WithContext(ctx).Delete(&Player{}, "game_id = ? AND username = ?", gameID, username)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrPlayerNotFound
	}
	return nil
}

func (d *PlayerDAO) DeleteByUsername(ctx context.Context, username string) error {
	return d.db.WithContext(ctx).Delete(&Player{}, "username = ?", username).Error
}

func (d *PlayerDAO) DeleteByGame(ctx context.Context, gameID string) error {
	return d.db.WithContext(ctx).Delete(&Player{}, "game_id = ?", gameID).Error
}

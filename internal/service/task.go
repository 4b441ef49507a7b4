package service

import (
	"context"
	"fmt"
	"math"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/greathunt/game-engine/internal/domain"
	"github.com/greathunt/game-engine/internal/pkg/apperr"
)

// TaskScoringEngine judges submissions and keeps player scores.
type TaskScoringEngine struct {
	repo      Repository
	lifecycle *GameLifecycle
}

func NewTaskScoringEngine(repo Repository, lifecycle *GameLifecycle) *TaskScoringEngine {
	return &TaskScoringEngine{
		repo:      repo,
		lifecycle: lifecycle,
	}
}

// SubmitTask records an answer from a player of a running game.
//
// The attempt limit check, the appended submission and the point change happen in one player
// update, so concurrent submissions for the same task see each other.
func (s *TaskScoringEngine) SubmitTask(ctx context.Context, claims domain.Claims, gameID, taskID string, answers []string) (domain.SubmissionResult, error) {
	if err := checkClaims(claims, gameID, []domain.Role{domain.RolePlayer}); err != nil {
		return domain.SubmissionResult{}, err
	}

	if _, err := s.lifecycle.load(ctx, gameID); err != nil {
		return domain.SubmissionResult{}, err
	}

	var result domain.SubmissionResult
	var points int
	err := s.repo.WithTransaction(ctx, func(repo Repository) error {
		game, err := repo.FindGameByID(ctx, gameID)
		if err != nil {
			return fmt.Errorf("repo.FindGameByID -> %w", err)
		}

		now := epochMillis(s.lifecycle.now())
		if game.State != domain.StateRunning || game.Expired(now) {
			return apperr.Detail(apperr.ErrInvalidState, "game is not running")
		}

		task, ok := game.FindTask(taskID)
		if !ok {
			return apperr.ErrTaskNotFound
		}

		_, err = repo.UpdatePlayer(ctx, gameID, claims.Username, func(p *domain.Player) error {
			if task.Attempts != 0 && p.Attempts(taskID) >= task.Attempts {
				return apperr.ErrMaxAttempts
			}

			success := len(task.Answers) == 0 || task.Accepts(answers)
			points = scorePoints(task, success, now, game.Settings)

			if success && !p.Done && p.Completed() >= game.Settings.NumRequiredTasks-1 {
				p.Done = true
			}

			p.Points += points
			p.TasksSubmitted = append(p.TasksSubmitted, domain.TaskSubmission{
				ID:             uuid.NewString(),
				TaskID:         taskID,
				Answers:        append([]string{}, answers...),
				SubmissionTime: now,
				Success:        success,
			})

			result = domain.SubmissionResult{SubmissionTime: now, Success: success}
			return nil
		})
		if err != nil {
			return fmt.Errorf("repo.UpdatePlayer -> %w", err)
		}

		return nil
	})
	if err != nil {
		return domain.SubmissionResult{}, err
	}

	zap.L().Info("task submitted",
		zap.String("game_id", gameID),
		zap.String("username", claims.Username),
		zap.String("task_id", taskID),
		zap.Bool("success", result.Success),
		zap.Int("points", points),
	)

	return result, nil
}

// scorePoints returns the point change for a submission made at submissionTime (epoch ms).
// Failures always cost the task's full value. Scaled successes decay linearly to zero over the
// game's duration; untimed games never scale.
func scorePoints(task domain.Task, success bool, submissionTime int64, settings domain.GameSettings) int {
	if !success {
		return -abs(task.Points)
	}
	if !task.ScalePoints || settings.Duration <= 0 {
		return task.Points
	}

	elapsed := float64(submissionTime-settings.StartTime) / float64(settings.Duration)
	elapsed = math.Min(math.Max(elapsed, 0), 1)

	return int(math.Round(float64(task.Points) * (1 - elapsed)))
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// ViewAllTasks returns tasks with their answer keys to the game's host and admins.
func (s *TaskScoringEngine) ViewAllTasks(ctx context.Context, claims domain.Claims, gameID string) ([]domain.Task, error) {
	if err := checkClaims(claims, gameID, managerRoles); err != nil {
		return nil, err
	}

	game, err := s.repo.FindGameByID(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("s.repo.FindGameByID -> %w", err)
	}

	return game.Tasks, nil
}

func (s *TaskScoringEngine) ViewTask(ctx context.Context, claims domain.Claims, gameID, taskID string) (domain.Task, error) {
	if err := checkClaims(claims, gameID, managerRoles); err != nil {
		return domain.Task{}, err
	}

	game, err := s.repo.FindGameByID(ctx, gameID)
	if err != nil {
		return domain.Task{}, fmt.Errorf("s.repo.FindGameByID -> %w", err)
	}

	task, ok := game.FindTask(taskID)
	if !ok {
		return domain.Task{}, apperr.ErrTaskNotFound
	}

	return task, nil
}

func (s *TaskScoringEngine) ViewAllPublicTasks(ctx context.Context, gameID string) ([]domain.PublicTask, error) {
	game, err := s.repo.FindGameByID(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("s.repo.FindGameByID -> %w", err)
	}

	tasks := make([]domain.PublicTask, len(game.Tasks))
	for i, t := range game.Tasks {
		tasks[i] = t.Public()
	}

	return tasks, nil
}

func (s *TaskScoringEngine) ViewPublicTask(ctx context.Context, gameID, taskID string) (domain.PublicTask, error) {
	game, err := s.repo.FindGameByID(ctx, gameID)
	if err != nil {
		return domain.PublicTask{}, fmt.Errorf("s.repo.FindGameByID -> %w", err)
	}

	task, ok := game.FindTask(taskID)
	if !ok {
		return domain.PublicTask{}, apperr.ErrTaskNotFound
	}

	return task.Public(), nil
}

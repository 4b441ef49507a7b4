package response

import "github.com/greathunt/game-engine/internal/domain"

// ActionResponse carries the times of a start or stop, or the new game created by a restart.
type ActionResponse struct {
	Action string                         `json:"action"`
	Times  *domain.GameTimes              `json:"times,omitempty"`
	Game   *domain.CreateGameConfirmation `json:"game,omitempty"`
}

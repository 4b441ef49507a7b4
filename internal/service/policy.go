package service

import (
	"slices"

	"github.com/greathunt/game-engine/internal/domain"
	"github.com/greathunt/game-engine/internal/pkg/apperr"
)

var managerRoles = []domain.Role{domain.RoleHost, domain.RoleAdmin}

func CanViewPrivateGame(role domain.Role) bool {
	return slices.Contains(managerRoles, role)
}

// CanViewPrivatePlayer allows managers of the game and the player themself.
func CanViewPrivatePlayer(claims domain.Claims, username string) bool {
	return slices.Contains(managerRoles, claims.Role) || claims.Username == username
}

func CanViewPrivateTasks(role domain.Role) bool {
	return slices.Contains(managerRoles, role)
}

// checkClaims enforces a game binding and a role set on already verified claims.
// An empty gameID skips the binding check. A nil roles slice means no role restriction; a non-nil
// empty slice admits nobody.
func checkClaims(claims domain.Claims, gameID string, roles []domain.Role) error {
	if gameID != "" && claims.GameID != gameID {
		return apperr.ErrWrongGame
	}
	if roles != nil && !slices.Contains(roles, claims.Role) {
		return apperr.ErrForbidden
	}
	return nil
}

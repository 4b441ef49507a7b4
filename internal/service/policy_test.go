package service_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/greathunt/game-engine/internal/domain"
	"github.com/greathunt/game-engine/internal/service"
)

func TestCanViewPrivate(t *testing.T) {
	tests := []struct {
		name    string
		claims  domain.Claims
		target  string
		manager bool
		player  bool
	}{
		{name: "host", claims: domain.Claims{Username: "h", Role: domain.RoleHost}, target: "alice", manager: true, player: true},
		{name: "admin", claims: domain.Claims{Username: "a", Role: domain.RoleAdmin}, target: "alice", manager: true, player: true},
		{name: "self", claims: domain.Claims{Username: "alice", Role: domain.RolePlayer}, target: "alice", player: true},
		{name: "other player", claims: domain.Claims{Username: "bob", Role: domain.RolePlayer}, target: "alice"},
		{name: "unscoped", claims: domain.Claims{Username: "carol"}, target: "alice"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.manager, service.CanViewPrivateGame(tt.claims.Role))
			assert.Equal(t, tt.manager, service.CanViewPrivateTasks(tt.claims.Role))
			assert.Equal(t, tt.player, service.CanViewPrivatePlayer(tt.claims, tt.target))
		})
	}
}

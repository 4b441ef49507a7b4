package v1

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/greathunt/game-engine/internal/api/handler/v1/request"
	"github.com/greathunt/game-engine/internal/api/handler/v1/response"
	"github.com/greathunt/game-engine/internal/api/middleware"
	"github.com/greathunt/game-engine/internal/domain"
)

type GameService interface {
	Create(ctx context.Context, claims domain.Claims, settings domain.GameSettings, tasks []domain.Task) (domain.CreateGameConfirmation, error)
	Start(ctx context.Context, claims domain.Claims, gameID string) (domain.GameTimes, error)
	Stop(ctx context.Context, claims domain.Claims, gameID string) (domain.GameTimes, error)
	Restart(ctx context.Context, claims domain.Claims, gameID string) (domain.CreateGameConfirmation, error)
	Get(ctx context.Context, claims domain.Claims, gameID string) (domain.Game, error)
	GetPublic(ctx context.Context, gameID string) (domain.PublicGame, error)
	ListPublic(ctx context.Context, filter domain.GameFilter) ([]domain.PublicGame, error)
	Delete(ctx context.Context, claims domain.Claims, gameID string) error
}

type GameHandler struct {
	svc GameService
}

func NewGameHandler(svc GameService) *GameHandler {
	return &GameHandler{
		svc: svc,
	}
}

// HandleListGames godoc
// @Summary      List games
// @Tags         games
// @Produce      json
// @Param        state  query     string false "Filter by state" Enums(not ready, ready, running, ended)
// @Param        host   query     string false "Filter by host username"
// @Success      200    {array}   domain.PublicGame
// @Failure      400    {object}  response.Err
// @Failure      500    {object}  response.Err
// @Router       /games [get]
func (h *GameHandler) HandleListGames(ctx *gin.Context) {
	filter := domain.GameFilter{
		State: domain.GameState(ctx.Query("state")),
		Host:  ctx.Query("host"),
	}
	switch filter.State {
	case "", domain.StateNotReady, domain.StateReady, domain.StateRunning, domain.StateEnded:
	default:
		response.RenderErr(ctx, response.ErrBadRequest(fmt.Errorf("unknown state %q", filter.State)))
		return
	}

	games, err := h.svc.ListPublic(ctx.Request.Context(), filter)
	if err != nil {
		response.RenderErr(ctx, response.FromError(err))
		return
	}

	ctx.JSON(http.StatusOK, games)
}

// HandleCreateGame godoc
// @Summary      Create a game
// @Description  The caller becomes the host and receives credentials bound to the new game.
// @Tags         games
// @Accept       json
// @Produce      json
// @Param        request  body      request.CreateGameRequest true "request body"
// @Success      201      {object}  domain.CreateGameConfirmation
// @Failure      400      {object}  response.Err
// @Failure      401      {object}  response.Err
// @Failure      429      {object}  response.Err
// @Failure      500      {object}  response.Err
// @Router       /games [post]
// @Security     BearerAuth
func (h *GameHandler) HandleCreateGame(ctx *gin.Context) {
	var req request.CreateGameRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	settings, tasks := req.ToDomain()
	confirmation, err := h.svc.Create(ctx.Request.Context(), middleware.Claims(ctx), settings, tasks)
	if err != nil {
		response.RenderErr(ctx, response.FromError(err))
		return
	}

	ctx.JSON(http.StatusCreated, confirmation)
}

// HandleGetGame godoc
// @Summary      Get a game
// @Description  With public=false the full game, answers included, is returned to its host and admins.
// @Tags         games
// @Produce      json
// @Param        gameID  path      string true  "Game ID"
// @Param        public  query     bool   false "Public view" default(true)
// @Success      200     {object}  domain.PublicGame
// @Failure      400     {object}  response.Err
// @Failure      401     {object}  response.Err
// @Failure      403     {object}  response.Err
// @Failure      404     {object}  response.Err
// @Failure      500     {object}  response.Err
// @Router       /games/{gameID} [get]
func (h *GameHandler) HandleGetGame(ctx *gin.Context) {
	ids, respErr := pathIDs(ctx, "gameID")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	claims, private, respErr := privateView(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	if private {
		game, err := h.svc.Get(ctx.Request.Context(), claims, ids[0])
		if err != nil {
			response.RenderErr(ctx, response.FromError(err))
			return
		}
		ctx.JSON(http.StatusOK, game)
		return
	}

	game, err := h.svc.GetPublic(ctx.Request.Context(), ids[0])
	if err != nil {
		response.RenderErr(ctx, response.FromError(err))
		return
	}

	ctx.JSON(http.StatusOK, game)
}

// HandleDeleteGame godoc
// @Summary      Delete a game and its players
// @Tags         games
// @Param        gameID  path      string true "Game ID"
// @Success      204
// @Failure      401     {object}  response.Err
// @Failure      403     {object}  response.Err
// @Failure      404     {object}  response.Err
// @Failure      500     {object}  response.Err
// @Router       /games/{gameID} [delete]
// @Security     BearerAuth
func (h *GameHandler) HandleDeleteGame(ctx *gin.Context) {
	ids, respErr := pathIDs(ctx, "gameID")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	if err := h.svc.Delete(ctx.Request.Context(), middleware.Claims(ctx), ids[0]); err != nil {
		response.RenderErr(ctx, response.FromError(err))
		return
	}

	ctx.Status(http.StatusNoContent)
}

// HandleGameAction godoc
// @Summary      Start, stop or restart a game
// @Description  Restart creates a new game with the same settings and tasks and returns it.
// @Tags         games
// @Accept       json
// @Produce      json
// @Param        gameID   path      string true "Game ID"
// @Param        request  body      request.ActionRequest true "request body"
// @Success      200      {object}  response.ActionResponse
// @Failure      400      {object}  response.Err
// @Failure      401      {object}  response.Err
// @Failure      403      {object}  response.Err
// @Failure      404      {object}  response.Err
// @Failure      409      {object}  response.Err
// @Failure      500      {object}  response.Err
// @Router       /games/{gameID}/actions [post]
// @Security     BearerAuth
func (h *GameHandler) HandleGameAction(ctx *gin.Context) {
	ids, respErr := pathIDs(ctx, "gameID")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	var req request.ActionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	claims := middleware.Claims(ctx)
	resp := response.ActionResponse{Action: req.Action}

	switch req.Action {
	case request.ActionStart, request.ActionStop:
		run := h.svc.Start
		if req.Action == request.ActionStop {
			run = h.svc.Stop
		}
		times, err := run(ctx.Request.Context(), claims, ids[0])
		if err != nil {
			response.RenderErr(ctx, response.FromError(err))
			return
		}
		resp.Times = &times

	case request.ActionRestart:
		confirmation, err := h.svc.Restart(ctx.Request.Context(), claims, ids[0])
		if err != nil {
			response.RenderErr(ctx, response.FromError(err))
			return
		}
		resp.Game = &confirmation
	}

	ctx.JSON(http.StatusOK, resp)
}

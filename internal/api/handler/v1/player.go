package v1

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/greathunt/game-engine/internal/api/handler/v1/request"
	"github.com/greathunt/game-engine/internal/api/handler/v1/response"
	"github.com/greathunt/game-engine/internal/api/middleware"
	"github.com/greathunt/game-engine/internal/domain"
)

type RosterService interface {
	Join(ctx context.Context, claims domain.Claims, gameID string, role domain.Role, adminCode string) (domain.Credentials, error)
	Leave(ctx context.Context, claims domain.Claims, gameID string) error
	DeletePlayer(ctx context.Context, claims domain.Claims, gameID, username string) error
	ViewAllPlayers(ctx context.Context, claims domain.Claims, gameID string) ([]domain.Player, error)
	ViewPlayer(ctx context.Context, claims domain.Claims, gameID, username string) (domain.Player, error)
	ViewAllPublicPlayers(ctx context.Context, gameID string) ([]domain.PublicPlayer, error)
	ViewPublicPlayer(ctx context.Context, gameID, username string) (domain.PublicPlayer, error)
}

type PlayerHandler struct {
	svc  RosterService
	live Publisher
}

func NewPlayerHandler(svc RosterService, live Publisher) *PlayerHandler {
	return &PlayerHandler{
		svc:  svc,
		live: live,
	}
}

// HandleGetPlayers godoc
// @Summary      List the players of a game
// @Description  With public=false host and admins get full rows including submissions.
// @Tags         players
// @Produce      json
// @Param        gameID  path      string true  "Game ID"
// @Param        public  query     bool   false "Public view" default(true)
// @Success      200     {array}   domain.PublicPlayer
// @Failure      400     {object}  response.Err
// @Failure      401     {object}  response.Err
// @Failure      403     {object}  response.Err
// @Failure      404     {object}  response.Err
// @Failure      500     {object}  response.Err
// @Router       /games/{gameID}/players [get]
func (h *PlayerHandler) HandleGetPlayers(ctx *gin.Context) {
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
		players, err := h.svc.ViewAllPlayers(ctx.Request.Context(), claims, ids[0])
		if err != nil {
			response.RenderErr(ctx, response.FromError(err))
			return
		}
		ctx.JSON(http.StatusOK, players)
		return
	}

	players, err := h.svc.ViewAllPublicPlayers(ctx.Request.Context(), ids[0])
	if err != nil {
		response.RenderErr(ctx, response.FromError(err))
		return
	}

	ctx.JSON(http.StatusOK, players)
}

// HandleJoinGame godoc
// @Summary      Join a game as a player or admin
// @Description  Admins must provide a valid admin code. Returns credentials bound to the game.
// @Tags         players
// @Accept       json
// @Produce      json
// @Param        gameID   path      string true "Game ID"
// @Param        request  body      request.JoinGameRequest true "request body"
// @Success      200      {object}  domain.Credentials
// @Failure      400      {object}  response.Err
// @Failure      401      {object}  response.Err
// @Failure      403      {object}  response.Err
// @Failure      404      {object}  response.Err
// @Failure      409      {object}  response.Err
// @Failure      429      {object}  response.Err
// @Failure      500      {object}  response.Err
// @Router       /games/{gameID}/players [post]
// @Security     BearerAuth
func (h *PlayerHandler) HandleJoinGame(ctx *gin.Context) {
	ids, respErr := pathIDs(ctx, "gameID")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	var req request.JoinGameRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	creds, err := h.svc.Join(ctx.Request.Context(), middleware.Claims(ctx), ids[0], domain.Role(req.Role), req.Code)
	if err != nil {
		response.RenderErr(ctx, response.FromError(err))
		return
	}

	h.live.Publish(ctx.Request.Context(), ids[0])

	ctx.JSON(http.StatusOK, creds)
}

// HandleLeaveGame godoc
// @Summary      Leave a game
// @Tags         players
// @Param        gameID  path      string true "Game ID"
// @Success      204
// @Failure      401     {object}  response.Err
// @Failure      403     {object}  response.Err
// @Failure      404     {object}  response.Err
// @Failure      500     {object}  response.Err
// @Router       /games/{gameID}/players [delete]
// @Security     BearerAuth
func (h *PlayerHandler) HandleLeaveGame(ctx *gin.Context) {
	ids, respErr := pathIDs(ctx, "gameID")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	if err := h.svc.Leave(ctx.Request.Context(), middleware.Claims(ctx), ids[0]); err != nil {
		response.RenderErr(ctx, response.FromError(err))
		return
	}

	h.live.Publish(ctx.Request.Context(), ids[0])

	ctx.Status(http.StatusNoContent)
}

// HandleGetPlayer godoc
// @Summary      Get one player of a game
// @Description  With public=false host, admins and the player themself get the full row.
// @Tags         players
// @Produce      json
// @Param        gameID    path      string true  "Game ID"
// @Param        username  path      string true  "Username"
// @Param        public    query     bool   false "Public view" default(true)
// @Success      200       {object}  domain.PublicPlayer
// @Failure      400       {object}  response.Err
// @Failure      401       {object}  response.Err
// @Failure      403       {object}  response.Err
// @Failure      404       {object}  response.Err
// @Failure      500       {object}  response.Err
// @Router       /games/{gameID}/players/{username} [get]
func (h *PlayerHandler) HandleGetPlayer(ctx *gin.Context) {
	ids, respErr := pathIDs(ctx, "gameID")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}
	username := ctx.Param("username")

	claims, private, respErr := privateView(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	if private {
		player, err := h.svc.ViewPlayer(ctx.Request.Context(), claims, ids[0], username)
		if err != nil {
			response.RenderErr(ctx, response.FromError(err))
			return
		}
		ctx.JSON(http.StatusOK, player)
		return
	}

	player, err := h.svc.ViewPublicPlayer(ctx.Request.Context(), ids[0], username)
	if err != nil {
		response.RenderErr(ctx, response.FromError(err))
		return
	}

	ctx.JSON(http.StatusOK, player)
}

// HandleDeletePlayer godoc
// @Summary      Remove a player from a game
// @Tags         players
// @Param        gameID    path      string true "Game ID"
// @Param        username  path      string true "Username"
// @Success      204
// @Failure      401       {object}  response.Err
// @Failure      403       {object}  response.Err
// @Failure      404       {object}  response.Err
// @Failure      500       {object}  response.Err
// @Router       /games/{gameID}/players/{username} [delete]
// @Security     BearerAuth
func (h *PlayerHandler) HandleDeletePlayer(ctx *gin.Context) {
	ids, respErr := pathIDs(ctx, "gameID")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	if err := h.svc.DeletePlayer(ctx.Request.Context(), middleware.Claims(ctx), ids[0], ctx.Param("username")); err != nil {
		response.RenderErr(ctx, response.FromError(err))
		return
	}

	h.live.Publish(ctx.Request.Context(), ids[0])

	ctx.Status(http.StatusNoContent)
}

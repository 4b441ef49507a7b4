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

type TaskService interface {
	SubmitTask(ctx context.Context, claims domain.Claims, gameID, taskID string, answers []string) (domain.SubmissionResult, error)
	ViewAllTasks(ctx context.Context, claims domain.Claims, gameID string) ([]domain.Task, error)
	ViewTask(ctx context.Context, claims domain.Claims, gameID, taskID string) (domain.Task, error)
	ViewAllPublicTasks(ctx context.Context, gameID string) ([]domain.PublicTask, error)
	ViewPublicTask(ctx context.Context, gameID, taskID string) (domain.PublicTask, error)
}

type TaskHandler struct {
	svc  TaskService
	live Publisher
}

func NewTaskHandler(svc TaskService, live Publisher) *TaskHandler {
	return &TaskHandler{
		svc:  svc,
		live: live,
	}
}

// HandleGetTasks godoc
// @Summary      List the tasks of a game
// @Description  Answers are only included with public=false for host and admins.
// @Tags         tasks
// @Produce      json
// @Param        gameID  path      string true  "Game ID"
// @Param        public  query     bool   false "Public view" default(true)
// @Success      200     {array}   domain.PublicTask
// @Failure      400     {object}  response.Err
// @Failure      401     {object}  response.Err
// @Failure      403     {object}  response.Err
// @Failure      404     {object}  response.Err
// @Failure      500     {object}  response.Err
// @Router       /games/{gameID}/tasks [get]
func (h *TaskHandler) HandleGetTasks(ctx *gin.Context) {
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
		tasks, err := h.svc.ViewAllTasks(ctx.Request.Context(), claims, ids[0])
		if err != nil {
			response.RenderErr(ctx, response.FromError(err))
			return
		}
		ctx.JSON(http.StatusOK, tasks)
		return
	}

	tasks, err := h.svc.ViewAllPublicTasks(ctx.Request.Context(), ids[0])
	if err != nil {
		response.RenderErr(ctx, response.FromError(err))
		return
	}

	ctx.JSON(http.StatusOK, tasks)
}

// HandleGetTask godoc
// @Summary      Get one task of a game
// @Tags         tasks
// @Produce      json
// @Param        gameID  path      string true  "Game ID"
// @Param        taskID  path      string true  "Task ID"
// @Param        public  query     bool   false "Public view" default(true)
// @Success      200     {object}  domain.PublicTask
// @Failure      400     {object}  response.Err
// @Failure      401     {object}  response.Err
// @Failure      403     {object}  response.Err
// @Failure      404     {object}  response.Err
// @Failure      500     {object}  response.Err
// @Router       /games/{gameID}/tasks/{taskID} [get]
func (h *TaskHandler) HandleGetTask(ctx *gin.Context) {
	ids, respErr := pathIDs(ctx, "gameID", "taskID")
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
		task, err := h.svc.ViewTask(ctx.Request.Context(), claims, ids[0], ids[1])
		if err != nil {
			response.RenderErr(ctx, response.FromError(err))
			return
		}
		ctx.JSON(http.StatusOK, task)
		return
	}

	task, err := h.svc.ViewPublicTask(ctx.Request.Context(), ids[0], ids[1])
	if err != nil {
		response.RenderErr(ctx, response.FromError(err))
		return
	}

	ctx.JSON(http.StatusOK, task)
}

// HandleSubmitTask godoc
// @Summary      Submit answers for a task
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Param        gameID   path      string true "Game ID"
// @Param        taskID   path      string true "Task ID"
// @Param        request  body      request.SubmitTaskRequest true "request body"
// @Success      200      {object}  domain.SubmissionResult
// @Failure      400      {object}  response.Err
// @Failure      401      {object}  response.Err
// @Failure      403      {object}  response.Err
// @Failure      404      {object}  response.Err
// @Failure      409      {object}  response.Err
// @Failure      429      {object}  response.Err
// @Failure      500      {object}  response.Err
// @Router       /games/{gameID}/tasks/{taskID}/submit [post]
// @Security     BearerAuth
func (h *TaskHandler) HandleSubmitTask(ctx *gin.Context) {
	ids, respErr := pathIDs(ctx, "gameID", "taskID")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	var req request.SubmitTaskRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	result, err := h.svc.SubmitTask(ctx.Request.Context(), middleware.Claims(ctx), ids[0], ids[1], req.Sanitized())
	if err != nil {
		response.RenderErr(ctx, response.FromError(err))
		return
	}

	h.live.Publish(ctx.Request.Context(), ids[0])

	ctx.JSON(http.StatusOK, result)
}

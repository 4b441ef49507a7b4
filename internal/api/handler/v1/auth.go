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

type AuthService interface {
	Signup(ctx context.Context, username, password, code string) (domain.User, error)
	Login(ctx context.Context, username, password string) (domain.Credentials, error)
	Refresh(ctx context.Context, refreshToken string) (string, error)
}

type UserService interface {
	DeleteUser(ctx context.Context, adminCode, username string) (domain.User, error)
}

type AuthHandler struct {
	svc   AuthService
	users UserService
}

func NewAuthHandler(svc AuthService, users UserService) *AuthHandler {
	return &AuthHandler{
		svc:   svc,
		users: users,
	}
}

// HandleSignup godoc
// @Summary      Signup a new user
// @Description  A valid admin code in the body bypasses the user limit.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request  body      request.SignupRequest true "request body"
// @Success      201      {object}  response.SignupResponse
// @Failure      400      {object}  response.Err
// @Failure      409      {object}  response.Err
// @Failure      429      {object}  response.Err
// @Failure      500      {object}  response.Err
// @Router       /auth/signup [post]
func (h *AuthHandler) HandleSignup(ctx *gin.Context) {
	var req request.SignupRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	user, err := h.svc.Signup(ctx.Request.Context(), req.Username, req.Password, req.Code)
	if err != nil {
		response.RenderErr(ctx, response.FromError(err))
		return
	}

	ctx.JSON(http.StatusCreated, response.SignupResponse{
		ID:       user.ID,
		Username: user.Username,
	})
}

// HandleLogin godoc
// @Summary      Login a user
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request  body      request.LoginRequest true "request body"
// @Success      200      {object}  domain.Credentials
// @Failure      400      {object}  response.Err
// @Failure      401      {object}  response.Err
// @Failure      500      {object}  response.Err
// @Router       /auth/login [post]
func (h *AuthHandler) HandleLogin(ctx *gin.Context) {
	var req request.LoginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	creds, err := h.svc.Login(ctx.Request.Context(), req.Username, req.Password)
	if err != nil {
		response.RenderErr(ctx, response.FromError(err))
		return
	}

	ctx.JSON(http.StatusOK, creds)
}

// HandleRefresh godoc
// @Summary      Exchange a refresh token for a new access token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request  body      request.RefreshRequest true "request body"
// @Success      200      {object}  response.RefreshResponse
// @Failure      400      {object}  response.Err
// @Failure      401      {object}  response.Err
// @Failure      500      {object}  response.Err
// @Router       /auth/refresh [post]
func (h *AuthHandler) HandleRefresh(ctx *gin.Context) {
	var req request.RefreshRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	token, err := h.svc.Refresh(ctx.Request.Context(), req.RefreshToken)
	if err != nil {
		response.RenderErr(ctx, response.FromError(err))
		return
	}

	ctx.JSON(http.StatusOK, response.RefreshResponse{AccessToken: token})
}

// HandleDeleteUser godoc
// @Summary      Delete a user everywhere
// @Description  Removes the account, its player rows, its roster entries and every game it hosts.
// @Tags         users
// @Produce      json
// @Param        username      path      string true "Username"
// @Param        X-Admin-Code  header    string true "Admin code"
// @Success      200           {object}  domain.User
// @Failure      403           {object}  response.Err
// @Failure      404           {object}  response.Err
// @Failure      500           {object}  response.Err
// @Router       /users/{username} [delete]
func (h *AuthHandler) HandleDeleteUser(ctx *gin.Context) {
	user, err := h.users.DeleteUser(ctx.Request.Context(), ctx.GetHeader(middleware.HeaderAdminCode), ctx.Param("username"))
	if err != nil {
		response.RenderErr(ctx, response.FromError(err))
		return
	}

	ctx.JSON(http.StatusOK, user)
}

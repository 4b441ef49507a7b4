package api

import (
	"context"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	swaggerfiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/greathunt/game-engine/docs"
	v1 "github.com/greathunt/game-engine/internal/api/handler/v1"
	"github.com/greathunt/game-engine/internal/api/middleware"
	"github.com/greathunt/game-engine/internal/config"
	"github.com/greathunt/game-engine/internal/pkg/jwthelper"
	"github.com/greathunt/game-engine/internal/service"
)

type Server struct {
	Config *config.AppConfig
	Router *gin.Engine

	tokens *service.TokenAuthority
	stop   context.CancelFunc
}

// NewServer wires the engine services on top of repo and mounts every route. Close stops the live
// scoreboard hub.
func NewServer(conf *config.AppConfig, repo service.Repository) *Server {
	gin.SetMode(conf.Gin.Mode)
	engine := gin.New()

	tokens := service.NewTokenAuthority(repo, jwthelper.NewSigner(), conf.Auth, conf.Game)
	lifecycle := service.NewGameLifecycle(repo, tokens, conf.Game, nil)
	roster := service.NewRosterManager(repo, tokens, lifecycle, conf.Game)
	tasks := service.NewTaskScoringEngine(repo, lifecycle)

	ctx, stop := context.WithCancel(context.Background())
	liveHandler := v1.NewLiveHandler(roster, conf.API.AllowedCORSDomains)
	go liveHandler.Run(ctx)

	s := &Server{
		Config: conf,
		Router: engine,
		tokens: tokens,
		stop:   stop,
	}

	s.MountMiddlewares()
	s.MountHandlers(
		v1.NewAuthHandler(tokens, roster),
		v1.NewGameHandler(lifecycle),
		v1.NewPlayerHandler(roster, liveHandler),
		v1.NewTaskHandler(tasks, liveHandler),
		liveHandler,
	)

	return s
}

func (s *Server) Close() {
	s.stop()
}

func (s *Server) MountMiddlewares() {
	// Logger and Recovery are needed unless we use gin.Default().
	s.Router.Use(gin.Logger())
	s.Router.Use(gin.Recovery())
	s.Router.Use(requestid.New())
	s.Router.Use(middleware.ConfigCORS(s.Config.API.AllowedCORSDomains))
}

func (s *Server) MountHandlers(
	authHandler *v1.AuthHandler,
	gameHandler *v1.GameHandler,
	playerHandler *v1.PlayerHandler,
	taskHandler *v1.TaskHandler,
	liveHandler *v1.LiveHandler,
) {
	const basePath = "/api/v1"

	authenticator := middleware.NewAuthenticator(s.tokens)

	auth := s.Router.Group(basePath)
	{
		auth.POST("/auth/signup", authHandler.HandleSignup)
		auth.POST("/auth/login", authHandler.HandleLogin)
		auth.POST("/auth/refresh", authHandler.HandleRefresh)
		auth.DELETE("/users/:username", authHandler.HandleDeleteUser)
	}

	// Public views, with an optional token for ?public=false.
	views := s.Router.Group(basePath, authenticator.OptionalJWT())
	{
		views.GET("/games", gameHandler.HandleListGames)
		views.GET("/games/:gameID", gameHandler.HandleGetGame)
		views.GET("/games/:gameID/players", playerHandler.HandleGetPlayers)
		views.GET("/games/:gameID/players/:username", playerHandler.HandleGetPlayer)
		views.GET("/games/:gameID/tasks", taskHandler.HandleGetTasks)
		views.GET("/games/:gameID/tasks/:taskID", taskHandler.HandleGetTask)
		views.GET("/games/:gameID/live", liveHandler.HandleLive)
	}

	games := s.Router.Group(basePath, authenticator.VerifyJWT())
	{
		games.POST("/games", gameHandler.HandleCreateGame)
		games.DELETE("/games/:gameID", gameHandler.HandleDeleteGame)
		games.POST("/games/:gameID/actions", gameHandler.HandleGameAction)
		games.POST("/games/:gameID/players", playerHandler.HandleJoinGame)
		games.DELETE("/games/:gameID/players", playerHandler.HandleLeaveGame)
		games.DELETE("/games/:gameID/players/:username", playerHandler.HandleDeletePlayer)
		games.POST("/games/:gameID/tasks/:taskID/submit", taskHandler.HandleSubmitTask)
	}

	s.Router.GET("/", v1.HandleHealthcheck)

	// Setup Swagger UI.
	docs.SwaggerInfo.Host = s.Config.API.BaseURL
	docs.SwaggerInfo.BasePath = basePath
	docs.SwaggerInfo.Title = "Game engine API"
	docs.SwaggerInfo.Description = "Session authority for timed, task based multiplayer games."
	docs.SwaggerInfo.Version = "1.0"
	s.Router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerfiles.Handler))
}

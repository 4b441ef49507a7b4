package app

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/greathunt/game-engine/internal/api"
	"github.com/greathunt/game-engine/internal/config"
	"github.com/greathunt/game-engine/internal/db"
	"github.com/greathunt/game-engine/internal/logger"
	"github.com/greathunt/game-engine/internal/repository"
	"github.com/greathunt/game-engine/internal/repository/memory"
	"github.com/greathunt/game-engine/internal/service"
)

func Start() error {
	conf, err := config.Load("./cmd/app/config.yml")
	if err != nil {
		return fmt.Errorf("failed to initialize config -> %w", err)
	}

	if err = logger.Init(conf.API.Environment); err != nil {
		return fmt.Errorf("failed to initialize logger -> %w", err)
	}

	repo, err := openRepository(conf)
	if err != nil {
		return fmt.Errorf("failed to initialize storage -> %w", err)
	}

	s := api.NewServer(conf, repo)
	defer s.Close()

	addr := ":" + s.Config.API.Port
	zap.L().Info(fmt.Sprintf("starting server at %v", addr), zap.String("storage", conf.Storage.Driver))
	if err = s.Router.Run(addr); err != nil {
		return fmt.Errorf("failed to start the server -> %w", err)
	}

	return nil
}

func openRepository(conf *config.AppConfig) (service.Repository, error) {
	if conf.Storage.Driver == config.StorageMemory {
		zap.L().Warn("using in-memory storage, nothing survives a restart")
		return memory.New(), nil
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL != "" {
		postgresDB, err := db.OpenPostgresWithURL(dbURL, conf.Postgres, conf.API.Environment)
		if err != nil {
			return nil, err
		}
		return repository.NewRepository(postgresDB), nil
	}

	postgresDB, err := db.OpenPostgres(conf.Postgres, conf.API.Environment)
	if err != nil {
		return nil, err
	}

	return repository.NewRepository(postgresDB), nil
}

package main

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/todoapp/todoapp-go/internal/config"
	"github.com/todoapp/todoapp-go/internal/crypto"
	"github.com/todoapp/todoapp-go/internal/handler"
	"github.com/todoapp/todoapp-go/internal/httpserver"
	"github.com/todoapp/todoapp-go/internal/logutil"
	"github.com/todoapp/todoapp-go/internal/repository"
	"github.com/todoapp/todoapp-go/internal/service"
)

func serveCmd() *cli.Command {
	var cfg config.Config
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the HTTP API",
		Flags: config.Flags(&cfg),
		Action: func(c *cli.Context) error {
			return serve(c.Context, cfg)
		},
	}
}

func serve(ctx context.Context, cfg config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := logutil.New(cfg.LogLevel, cfg.Env)
	if err != nil {
		return err
	}
	log.Logger = logger
	ctx = logutil.WithLogger(ctx, logger)

	hasher, err := crypto.NewHasher(cfg.HashAlgorithm, cfg.HashParams(), cfg.BcryptCost)
	if err != nil {
		return err
	}
	issuer, err := crypto.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		return err
	}

	client, err := repository.Connect(ctx, cfg.MongoURI)
	if err != nil {
		return err
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := client.Disconnect(disconnectCtx); err != nil {
			logger.Warn().Err(err).Msg("MongoDB disconnect failed")
		}
	}()

	db := client.Database(cfg.MongoDB)
	if err := repository.EnsureIndexes(ctx, db); err != nil {
		return err
	}
	logger.Info().Str("db", cfg.MongoDB).Msg("Connected to MongoDB")

	authService := service.NewAuthService(repository.NewUserRepository(db), hasher, issuer)
	todoService := service.NewTodoService(repository.NewTodoRepository(db))

	router := handler.NewRouter(logger, authService, todoService, handler.RouterConfig{
		CORSOrigins:    cfg.AllowedOrigins(),
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
	})

	logger.Info().Str("env", cfg.Env).Str("hash", hasher.Algorithm()).Msg("Server configured")
	return httpserver.Serve(ctx, cfg.Addr(), router)
}

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"clientbook-backend/internal/application/recalc"
	"clientbook-backend/internal/config"
	"clientbook-backend/internal/interfaces/router"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load")
	}
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	app, deps, err := router.CreateApp(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("app create")
	}

	sqlDB, err := deps.DB.DB()
	if err != nil {
		log.Fatal().Err(err).Msg("database handle")
	}
	if err := sqlDB.Ping(); err != nil {
		log.Fatal().Err(err).Str("driver", cfg.DatabaseDriver).Msg("Database connection failed")
	}
	log.Info().Str("driver", cfg.DatabaseDriver).Msg("Database connected")
	if err := deps.Rdb.Ping(context.Background()).Err(); err != nil {
		log.Fatal().Err(err).Msg("Redis connection failed")
	}
	log.Info().Msg("Redis connected")

	scheduler, err := recalc.StartScheduler(deps.Recalc, cfg.RecalcCron, nil)
	if err != nil {
		log.Fatal().Err(err).Msg("scheduler")
	}

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		log.Info().Msg("Shutting down")
		if scheduler != nil {
			// Wait for a running recalculation so its lock is released.
			<-scheduler.Stop().Done()
		}
		_ = app.Shutdown()
	}()

	log.Info().Str("port", cfg.Port).Str("lock_backend", cfg.LockBackend).Msg("Server running")
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("listen")
	}
	_ = deps.Rdb.Close()
	_ = sqlDB.Close()
}

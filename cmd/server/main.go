package main

import (
	"context"

	"github.com/joho/godotenv"

	"github.com/arkx-app/odoo-matchmaker/internal/app"
	"github.com/arkx-app/odoo-matchmaker/internal/cache"
	"github.com/arkx-app/odoo-matchmaker/internal/config"
	"github.com/arkx-app/odoo-matchmaker/internal/db"
	"github.com/arkx-app/odoo-matchmaker/internal/logger"
	"github.com/arkx-app/odoo-matchmaker/internal/server"
	"github.com/arkx-app/odoo-matchmaker/internal/service/match"
)

func main() {
	_ = godotenv.Load()
	cfg := config.New()

	// Init logger (global singleton)
	logger.InitFromConfig(cfg)
	log := logger.L()

	// Init DB
	database, err := db.NewDB(cfg)
	if err != nil {
		log.Error("failed to init db", "err", err)
		return
	}

	// Init Redis
	redisCache := cache.NewRedisCache(cfg)
	if err := redisCache.Ping(context.Background()); err != nil {
		log.Error("failed to connect to redis", "err", err)
		return
	}

	appCtx := app.New(database, redisCache, log)

	registrars := []server.Registrar{
		match.NewRegistrar(appCtx),
	}

	if cfg.App.ENV == "development" {
		if err := db.SeedTestData(database); err != nil {
			log.Error("failed to seed", "err", err)
		}
	}

	addr := cfg.HTTP.Host + ":" + cfg.HTTP.Port
	log.Info("starting HTTP server", "addr", addr)

	if err := server.StartHTTPServer(cfg, registrars...); err != nil {
		log.Error("failed to start HTTP server", "err", err)
	}
}

package main

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/blueooh/taja/internal/httpserver"
	"github.com/blueooh/taja/internal/rooms"
	"github.com/blueooh/taja/internal/sentences"
)

func main() {
	_ = godotenv.Load()
	if lvl, err := zerolog.ParseLevel(getEnv("LOG_LEVEL", "info")); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	if err := sentences.Init(); err != nil {
		log.Fatal().Err(err).Msg("failed to load sentence pool")
	}

	db, err := httpserver.OpenDB(getEnv("DB_PATH", "./data/app.db"))
	if err != nil {
		log.Fatal().Err(err).Msg("open database")
	}
	defer db.Close()
	if err := httpserver.Migrate(db, getEnv("SQL_DIR", "sql")); err != nil {
		log.Fatal().Err(err).Msg("migrate database")
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
		Password: os.Getenv("REDIS_PASSWORD"),
	})
	defer rdb.Close()

	dir := rooms.NewDirectory(rdb, log.Logger)
	sweeper, err := rooms.NewSweeper(dir, time.Minute, log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("build sweeper")
	}
	sweeper.Start()
	defer func() { _ = sweeper.Stop() }()

	srv := httpserver.New(db, rdb, log.Logger)
	port := getEnv("PORT", "5180")
	log.Info().Str("port", port).Msg("starting taja server")
	if err := srv.Start(":" + port); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}

func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

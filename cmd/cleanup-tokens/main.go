// Command cleanup-tokens deletes revocation records of tokens that have
// already expired. The server runs the same purge on a schedule; this
// command is for one-off runs from an external cron.
//
// Exit codes: 0 = success, 1 = error.
package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/heartmarshall/presence-dashboard/internal/adapter/postgres"
	"github.com/heartmarshall/presence-dashboard/internal/adapter/postgres/token"
	"github.com/heartmarshall/presence-dashboard/internal/app"
	"github.com/heartmarshall/presence-dashboard/internal/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := app.NewLogger(cfg.Log)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		logger.Error("connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	now := time.Now()
	deleted, err := token.New(pool).DeleteExpired(ctx, now)
	if err != nil {
		logger.Error("token cleanup failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("token cleanup completed",
		slog.Int64("deleted", deleted),
		slog.Time("before", now),
	)
}

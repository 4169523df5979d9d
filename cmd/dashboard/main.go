// Command dashboard serves the client dashboard API.
//
// Configuration is read from CONFIG_PATH (default ./config.yaml) and the
// environment. SIGINT and SIGTERM trigger a graceful shutdown.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/heartmarshall/presence-dashboard/internal/app"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx); err != nil {
		log.Fatalf("dashboard: %v", err)
	}
}

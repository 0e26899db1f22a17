package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Lameir47/MapaAD/internal/config"
	"github.com/Lameir47/MapaAD/internal/db"
	"github.com/Lameir47/MapaAD/internal/ingest"
)

func main() {
	log.Println("Starting ADO sheet poller...")

	cfg := config.Load()
	if cfg.SheetSource == "" {
		log.Fatalf("SHEET_SOURCE is required")
	}
	log.Printf("Config loaded: poll_interval=%v, refresh_after=%v, retention=%d",
		cfg.PollInterval, cfg.RefreshInterval, cfg.SnapshotRetention)

	database, err := db.Connect(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	if err := database.EnsureSchema(context.Background()); err != nil {
		log.Fatalf("Failed to ensure database schema: %v", err)
	}
	log.Println("Database initialized")

	refresher := ingest.NewRefresher(
		ingest.NewSheetLoader(cfg),
		database,
		cfg.SheetSource,
		cfg.RefreshInterval,
		cfg.SnapshotRetention,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log.Println("Running initial refresh check...")
	pollOnce(ctx, refresher)

	go func() {
		ticker := time.NewTicker(cfg.PollInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				pollOnce(ctx, refresher)
			case <-ctx.Done():
				log.Println("Polling loop stopped")
				return
			}
		}
	}()

	log.Printf("Poller running (check every %v)", cfg.PollInterval)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	log.Println("Shutting down...")
	cancel()

	// Give the loop time to finish
	time.Sleep(100 * time.Millisecond)
	log.Println("Goodbye!")
}

func pollOnce(ctx context.Context, refresher *ingest.Refresher) {
	refreshed, err := refresher.RefreshIfStale(ctx)
	if err != nil {
		log.Printf("Refresh error: %v", err)
		return
	}
	if refreshed {
		log.Println("New snapshot stored")
	}
}

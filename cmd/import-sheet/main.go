package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/Lameir47/MapaAD/internal/config"
	"github.com/Lameir47/MapaAD/internal/db"
	"github.com/Lameir47/MapaAD/internal/ingest"
	"github.com/Lameir47/MapaAD/repository"
)

func main() {
	cfg := config.Load()

	// Command line flags
	source := flag.String("source", cfg.SheetSource, "Sheet to import: .xlsx/.csv path or http(s) CSV export URL")
	sheetName := flag.String("sheet", cfg.SheetName, "Worksheet name for .xlsx files (default: first sheet)")
	dbPath := flag.String("db", cfg.DatabasePath, "Path to SQLite database")
	postgresURL := flag.String("postgres", "", "Also write the snapshot to this Postgres database")
	keep := flag.Int("keep", cfg.SnapshotRetention, "Number of snapshots to keep")
	flag.Parse()

	if *source == "" {
		log.Println("No sheet source given")
		flag.Usage()
		os.Exit(2)
	}
	cfg.SheetName = *sheetName

	ctx := context.Background()

	database, err := db.Connect(*dbPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer database.Close()
	log.Printf("Connected to database: %s", *dbPath)

	if err := database.EnsureSchema(ctx); err != nil {
		log.Fatalf("Failed to ensure schema: %v", err)
	}

	loader := ingest.NewSheetLoader(cfg)
	d, err := loader.Load(ctx, *source)
	if err != nil {
		log.Fatalf("Failed to load sheet: %v", err)
	}
	if d.Len() == 0 {
		log.Fatalf("Sheet %s has no usable rows, nothing imported", *source)
	}

	if err := database.InsertSnapshot(ctx, d); err != nil {
		log.Fatalf("Failed to store snapshot: %v", err)
	}
	log.Printf("Imported snapshot %s: %d cities", d.SnapshotID, d.Len())

	if err := database.Cleanup(ctx, *keep); err != nil {
		log.Printf("Warning: cleanup failed: %v", err)
	}

	if *postgresURL != "" {
		repo, err := repository.NewPostgresCityRepository(ctx, *postgresURL)
		if err != nil {
			log.Fatalf("Failed to connect to Postgres: %v", err)
		}
		defer repo.Close()

		if err := repo.InsertDataset(ctx, d); err != nil {
			log.Fatalf("Failed to write snapshot to Postgres: %v", err)
		}
		log.Printf("Snapshot %s written to Postgres", d.SnapshotID)
	}

	log.Println("Import complete")
}

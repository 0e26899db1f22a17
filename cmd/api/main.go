package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Lameir47/MapaAD/handlers"
	"github.com/Lameir47/MapaAD/internal/config"
	"github.com/Lameir47/MapaAD/internal/dataset"
	"github.com/Lameir47/MapaAD/internal/db"
	"github.com/Lameir47/MapaAD/internal/ingest"
	"github.com/Lameir47/MapaAD/models"
	"github.com/Lameir47/MapaAD/repository"
)

func main() {
	cfg := config.Load()
	log.Printf("Config loaded: port=%s, cache_ttl=%v", cfg.Port, cfg.CacheTTL)

	source, closeSource := openSource(cfg)
	defer closeSource()

	metrics := handlers.NewMetrics(prometheus.DefaultRegisterer)

	cache := dataset.NewCache(source, cfg.CacheTTL)
	cache.OnReload = metrics.ObserveReload

	// Warm the cache so /health reflects the dataset from the start
	if _, err := cache.Current(context.Background()); err != nil {
		log.Printf("Warning: initial dataset load failed: %v", err)
	}

	cityHandler := handlers.NewCityHandler(cache, metrics)
	healthHandler := handlers.NewHealthHandler(cache)

	// Setup router
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}))

	handlers.Mount(r, cityHandler, healthHandler)
	r.Handle("/metrics", promhttp.Handler())

	// Static file serving (if configured)
	if cfg.StaticDir != "" {
		fs := http.FileServer(http.Dir(cfg.StaticDir))
		r.Handle("/*", fs)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("API server starting on :%s", cfg.Port)
		log.Println("Map endpoints:")
		log.Println("  GET  /api/regions")
		log.Println("  GET  /api/stations?region=")
		log.Println("  GET  /api/cities?region=&station=&clear=")
		log.Println("  GET  /api/cities/markers")
		log.Println("  GET  /api/cities/geojson")
		log.Println("  GET  /api/legend")
		log.Println("  POST /api/refresh")
		log.Println("Health:")
		log.Println("  GET  /health")
		log.Println("  GET  /metrics")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	log.Println("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Warning: server shutdown: %v", err)
	}
	log.Println("Goodbye!")
}

// openSource picks where the dataset comes from: the sheet itself when
// SHEET_SOURCE is set, otherwise the newest stored snapshot in Postgres
// (DATABASE_URL) or SQLite.
func openSource(cfg *config.Config) (dataset.Source, func()) {
	if cfg.SheetSource != "" {
		log.Printf("Reading ADO sheet directly: %s", cfg.SheetSource)
		loader := ingest.NewSheetLoader(cfg)
		return dataset.SourceFunc(func(ctx context.Context) (*models.Dataset, error) {
			return loader.Load(ctx, cfg.SheetSource)
		}), func() {}
	}

	if cfg.DatabaseURL != "" {
		log.Println("Connecting to Postgres snapshot store")
		repo, err := repository.NewPostgresCityRepository(context.Background(), cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to connect to Postgres: %v", err)
		}
		return repo, repo.Close
	}

	log.Printf("Connecting to SQLite database: %s", cfg.DatabasePath)
	database, err := db.Connect(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to initialize SQLite database: %v", err)
	}
	if err := database.EnsureSchema(context.Background()); err != nil {
		log.Fatalf("Failed to ensure database schema: %v", err)
	}
	log.Println("SQLite database connection established")

	return repository.NewSQLiteCityRepository(database.Conn()), func() { database.Close() }
}

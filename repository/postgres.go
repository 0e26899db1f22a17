package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Lameir47/MapaAD/internal/db"
	"github.com/Lameir47/MapaAD/models"
)

// PostgresCityRepository reads dataset snapshots from a Postgres database
// that uses the same ado_snapshots/ado_cities tables as the SQLite store
type PostgresCityRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresCityRepository(ctx context.Context, databaseURL string) (*PostgresCityRepository, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresCityRepository{pool: pool}, nil
}

func (r *PostgresCityRepository) Close() {
	r.pool.Close()
}

func (r *PostgresCityRepository) LatestDataset(ctx context.Context) (*models.Dataset, error) {
	var d models.Dataset
	var loadedAtStr string

	err := r.pool.QueryRow(ctx, `
		SELECT snapshot_id, source, loaded_at_utc
		FROM ado_snapshots
		ORDER BY loaded_at_utc DESC
		LIMIT 1
	`).Scan(&d.SnapshotID, &d.Source, &loadedAtStr)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoSnapshot
		}
		return nil, fmt.Errorf("failed to query latest snapshot: %w", err)
	}

	if t, err := time.Parse(db.TimestampLayout, loadedAtStr); err == nil {
		d.LoadedAt = t
	}

	rows, err := r.pool.Query(ctx, fmt.Sprintf(citiesQuery, "$1"), d.SnapshotID)
	if err != nil {
		return nil, fmt.Errorf("failed to query cities: %w", err)
	}
	defer rows.Close()

	d.Cities = make([]models.City, 0)
	for rows.Next() {
		var c models.City
		var served, hub int
		err := rows.Scan(
			&c.ID,
			&c.City,
			&c.Region,
			&c.Latitude,
			&c.Longitude,
			&c.ADO,
			&c.Station,
			&served,
			&c.ServiceLabel,
			&hub,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan city row: %w", err)
		}
		c.Served = served != 0
		c.Hub = hub != 0
		d.Cities = append(d.Cities, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating city rows: %w", err)
	}

	return &d, nil
}

// InsertDataset stores a dataset as a new snapshot, for deployments where the
// poller writes to Postgres instead of SQLite
func (r *PostgresCityRepository) InsertDataset(ctx context.Context, d *models.Dataset) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		"INSERT INTO ado_snapshots (snapshot_id, source, loaded_at_utc, row_count) VALUES ($1, $2, $3, $4)",
		d.SnapshotID, d.Source, d.LoadedAt.UTC().Format(db.TimestampLayout), len(d.Cities),
	)
	if err != nil {
		return fmt.Errorf("failed to create snapshot: %w", err)
	}

	batch := &pgx.Batch{}
	for _, c := range d.Cities {
		batch.Queue(`
			INSERT INTO ado_cities (
				snapshot_id, row_id, city, region, latitude, longitude,
				ado, station, served, service_label, hub
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		`, d.SnapshotID, c.ID, c.City, c.Region, c.Latitude, c.Longitude,
			c.ADO, c.Station, boolToInt(c.Served), c.ServiceLabel, boolToInt(c.Hub))
	}

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to insert cities: %w", err)
	}

	return tx.Commit(ctx)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

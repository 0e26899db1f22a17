package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Lameir47/MapaAD/internal/db"
	"github.com/Lameir47/MapaAD/models"
)

// ErrNoSnapshot is returned when no dataset snapshot has been stored yet
var ErrNoSnapshot = errors.New("no dataset snapshot stored")

const citiesQuery = `
	SELECT
		row_id,
		city,
		region,
		latitude,
		longitude,
		ado,
		station,
		served,
		service_label,
		hub
	FROM ado_cities
	WHERE snapshot_id = %s
	ORDER BY row_id
`

// SQLiteCityRepository reads dataset snapshots written by the poller
type SQLiteCityRepository struct {
	db *sql.DB
}

// NewSQLiteCityRepository creates a new SQLiteCityRepository
func NewSQLiteCityRepository(db *sql.DB) *SQLiteCityRepository {
	return &SQLiteCityRepository{db: db}
}

// LatestDataset returns the most recently loaded snapshot with all its rows
func (r *SQLiteCityRepository) LatestDataset(ctx context.Context) (*models.Dataset, error) {
	var d models.Dataset
	var loadedAtStr string

	err := r.db.QueryRowContext(ctx, `
		SELECT snapshot_id, source, loaded_at_utc
		FROM ado_snapshots
		ORDER BY loaded_at_utc DESC
		LIMIT 1
	`).Scan(&d.SnapshotID, &d.Source, &loadedAtStr)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoSnapshot
		}
		return nil, fmt.Errorf("failed to query latest snapshot: %w", err)
	}

	if t, err := time.Parse(db.TimestampLayout, loadedAtStr); err == nil {
		d.LoadedAt = t
	}

	cities, err := r.citiesForSnapshot(ctx, d.SnapshotID)
	if err != nil {
		return nil, err
	}
	d.Cities = cities

	return &d, nil
}

func (r *SQLiteCityRepository) citiesForSnapshot(ctx context.Context, snapshotID string) ([]models.City, error) {
	rows, err := r.db.QueryContext(ctx, fmt.Sprintf(citiesQuery, "?"), snapshotID)
	if err != nil {
		return nil, fmt.Errorf("failed to query cities: %w", err)
	}
	defer rows.Close()

	cities := make([]models.City, 0)
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
		cities = append(cities, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating city rows: %w", err)
	}

	return cities, nil
}

package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Lameir47/MapaAD/models"
)

// TimestampLayout is fixed width so loaded_at_utc sorts chronologically as text
const TimestampLayout = "2006-01-02T15:04:05.000000Z07:00"

// SnapshotInfo describes one stored snapshot
type SnapshotInfo struct {
	SnapshotID string
	Source     string
	LoadedAt   time.Time
	RowCount   int
}

// InsertSnapshot stores a dataset as a new snapshot in a single transaction.
// A dataset without a snapshot id gets a new one.
func (db *DB) InsertSnapshot(ctx context.Context, d *models.Dataset) error {
	if d == nil {
		return errors.New("dataset cannot be nil")
	}
	if d.SnapshotID == "" {
		d.SnapshotID = uuid.New().String()
	}
	if d.LoadedAt.IsZero() {
		d.LoadedAt = time.Now().UTC()
	}

	db.LockWrite()
	defer db.UnlockWrite()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		"INSERT INTO ado_snapshots (snapshot_id, source, loaded_at_utc, row_count) VALUES (?, ?, ?, ?)",
		d.SnapshotID, d.Source, d.LoadedAt.UTC().Format(TimestampLayout), len(d.Cities),
	)
	if err != nil {
		return fmt.Errorf("failed to create snapshot: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO ado_cities (
			snapshot_id, row_id, city, region, latitude, longitude,
			ado, station, served, service_label, hub
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare city statement: %w", err)
	}
	defer stmt.Close()

	for _, c := range d.Cities {
		_, err := stmt.ExecContext(ctx,
			d.SnapshotID, c.ID, c.City, c.Region, c.Latitude, c.Longitude,
			c.ADO, c.Station, boolToInt(c.Served), c.ServiceLabel, boolToInt(c.Hub),
		)
		if err != nil {
			return fmt.Errorf("failed to insert city %d (%s): %w", c.ID, c.City, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit snapshot: %w", err)
	}

	return nil
}

// LatestSnapshot returns the most recently loaded snapshot, or nil when none exists
func (db *DB) LatestSnapshot(ctx context.Context) (*SnapshotInfo, error) {
	var info SnapshotInfo
	var loadedAt string

	err := db.conn.QueryRowContext(ctx, `
		SELECT snapshot_id, source, loaded_at_utc, row_count
		FROM ado_snapshots
		ORDER BY loaded_at_utc DESC
		LIMIT 1
	`).Scan(&info.SnapshotID, &info.Source, &loadedAt, &info.RowCount)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query latest snapshot: %w", err)
	}

	info.LoadedAt, err = time.Parse(TimestampLayout, loadedAt)
	if err != nil {
		return nil, fmt.Errorf("invalid loaded_at_utc %q: %w", loadedAt, err)
	}

	return &info, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

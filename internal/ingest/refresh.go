package ingest

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/Lameir47/MapaAD/internal/db"
	"github.com/Lameir47/MapaAD/models"
)

// ErrEmptySheet is returned when the sheet loads but has no usable rows.
// The previous snapshot is kept in that case.
var ErrEmptySheet = errors.New("sheet has no usable rows")

// Loader reads the ADO sheet
type Loader interface {
	Load(ctx context.Context, source string) (*models.Dataset, error)
}

// Store persists dataset snapshots
type Store interface {
	LatestSnapshot(ctx context.Context) (*db.SnapshotInfo, error)
	InsertSnapshot(ctx context.Context, d *models.Dataset) error
	Cleanup(ctx context.Context, keep int) error
}

// Refresher copies the sheet into the snapshot store when the stored copy is stale
type Refresher struct {
	loader    Loader
	store     Store
	source    string
	maxAge    time.Duration
	retention int

	now func() time.Time
}

// NewRefresher creates a Refresher for one sheet source
func NewRefresher(loader Loader, store Store, source string, maxAge time.Duration, retention int) *Refresher {
	return &Refresher{
		loader:    loader,
		store:     store,
		source:    source,
		maxAge:    maxAge,
		retention: retention,
		now:       time.Now,
	}
}

// RefreshIfStale loads the sheet when the newest snapshot is missing or older
// than maxAge. It reports whether a new snapshot was written.
func (r *Refresher) RefreshIfStale(ctx context.Context) (bool, error) {
	info, err := r.store.LatestSnapshot(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to read latest snapshot: %w", err)
	}

	if !isStaleOrMissing(info, r.maxAge, r.now()) {
		log.Printf("Snapshot %s is fresh (loaded %s), skipping refresh", info.SnapshotID, info.LoadedAt.Format(time.RFC3339))
		return false, nil
	}

	if err := r.Refresh(ctx); err != nil {
		return false, err
	}
	return true, nil
}

// Refresh loads the sheet and stores it as a new snapshot unconditionally,
// then prunes old snapshots
func (r *Refresher) Refresh(ctx context.Context) error {
	log.Printf("Refreshing ADO sheet from %s...", r.source)

	d, err := r.loader.Load(ctx, r.source)
	if err != nil {
		return fmt.Errorf("failed to load sheet: %w", err)
	}
	if d.Len() == 0 {
		return ErrEmptySheet
	}

	if err := r.store.InsertSnapshot(ctx, d); err != nil {
		return fmt.Errorf("failed to store snapshot: %w", err)
	}
	log.Printf("Snapshot %s stored with %d cities", d.SnapshotID, d.Len())

	if err := r.store.Cleanup(ctx, r.retention); err != nil {
		log.Printf("Warning: snapshot cleanup failed: %v", err)
	}

	return nil
}

func isStaleOrMissing(info *db.SnapshotInfo, maxAge time.Duration, now time.Time) bool {
	if info == nil {
		return true
	}
	if info.LoadedAt.IsZero() {
		return true
	}
	return now.Sub(info.LoadedAt) > maxAge
}

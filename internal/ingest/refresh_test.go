package ingest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Lameir47/MapaAD/internal/config"
	"github.com/Lameir47/MapaAD/internal/db"
	"github.com/Lameir47/MapaAD/models"
)

type fakeLoader struct {
	dataset *models.Dataset
	err     error
	calls   int
}

func (l *fakeLoader) Load(ctx context.Context, source string) (*models.Dataset, error) {
	l.calls++
	return l.dataset, l.err
}

type fakeStore struct {
	latest   *db.SnapshotInfo
	inserted []*models.Dataset
	cleanups []int
}

func (s *fakeStore) LatestSnapshot(ctx context.Context) (*db.SnapshotInfo, error) {
	return s.latest, nil
}

func (s *fakeStore) InsertSnapshot(ctx context.Context, d *models.Dataset) error {
	s.inserted = append(s.inserted, d)
	return nil
}

func (s *fakeStore) Cleanup(ctx context.Context, keep int) error {
	s.cleanups = append(s.cleanups, keep)
	return nil
}

func sampleDataset() *models.Dataset {
	return &models.Dataset{
		SnapshotID: "new",
		Cities:     []models.City{{ID: 0, City: "Campinas", Region: "SP", Station: "X1"}},
	}
}

func TestIsStaleOrMissing_Missing(t *testing.T) {
	if !isStaleOrMissing(nil, time.Hour, time.Now()) {
		t.Error("isStaleOrMissing should return true when no snapshot exists")
	}
}

func TestIsStaleOrMissing_Fresh(t *testing.T) {
	now := time.Now()
	info := &db.SnapshotInfo{SnapshotID: "a", LoadedAt: now.Add(-5 * time.Minute)}
	if isStaleOrMissing(info, 10*time.Minute, now) {
		t.Error("isStaleOrMissing should return false for a fresh snapshot")
	}
}

func TestIsStaleOrMissing_Stale(t *testing.T) {
	now := time.Now()
	info := &db.SnapshotInfo{SnapshotID: "a", LoadedAt: now.Add(-11 * time.Minute)}
	if !isStaleOrMissing(info, 10*time.Minute, now) {
		t.Error("isStaleOrMissing should return true for a stale snapshot")
	}
}

func TestIsStaleOrMissing_ZeroTime(t *testing.T) {
	if !isStaleOrMissing(&db.SnapshotInfo{SnapshotID: "a"}, time.Hour, time.Now()) {
		t.Error("isStaleOrMissing should return true for a snapshot without load time")
	}
}

func TestRefreshIfStale_SkipsFresh(t *testing.T) {
	loader := &fakeLoader{dataset: sampleDataset()}
	store := &fakeStore{latest: &db.SnapshotInfo{SnapshotID: "old", LoadedAt: time.Now()}}
	r := NewRefresher(loader, store, "ado.csv", time.Hour, 3)

	refreshed, err := r.RefreshIfStale(context.Background())
	if err != nil {
		t.Fatalf("RefreshIfStale failed: %v", err)
	}
	if refreshed || loader.calls != 0 {
		t.Error("fresh snapshot should not trigger a reload")
	}
}

func TestRefreshIfStale_LoadsWhenMissing(t *testing.T) {
	loader := &fakeLoader{dataset: sampleDataset()}
	store := &fakeStore{}
	r := NewRefresher(loader, store, "ado.csv", time.Hour, 3)

	refreshed, err := r.RefreshIfStale(context.Background())
	if err != nil {
		t.Fatalf("RefreshIfStale failed: %v", err)
	}
	if !refreshed {
		t.Error("missing snapshot should trigger a reload")
	}
	if len(store.inserted) != 1 || store.inserted[0].SnapshotID != "new" {
		t.Errorf("expected the loaded dataset to be stored, got %v", store.inserted)
	}
	if len(store.cleanups) != 1 || store.cleanups[0] != 3 {
		t.Errorf("expected cleanup keeping 3 snapshots, got %v", store.cleanups)
	}
}

func TestRefresh_EmptySheetKeepsPrevious(t *testing.T) {
	loader := &fakeLoader{dataset: &models.Dataset{SnapshotID: "empty"}}
	store := &fakeStore{}
	r := NewRefresher(loader, store, "ado.csv", time.Hour, 3)

	err := r.Refresh(context.Background())
	if !errors.Is(err, ErrEmptySheet) {
		t.Fatalf("expected ErrEmptySheet, got %v", err)
	}
	if len(store.inserted) != 0 {
		t.Error("an empty sheet must not be stored")
	}
}

func TestRefresh_LoaderError(t *testing.T) {
	loader := &fakeLoader{err: errors.New("boom")}
	store := &fakeStore{}
	r := NewRefresher(loader, store, "ado.csv", time.Hour, 3)

	if err := r.Refresh(context.Background()); err == nil {
		t.Error("expected loader error to be returned")
	}
}

func TestRefreshWithSQLite(t *testing.T) {
	database, err := db.Connect(t.TempDir() + "/ado.db")
	if err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer database.Close()

	ctx := context.Background()
	if err := database.EnsureSchema(ctx); err != nil {
		t.Fatalf("EnsureSchema failed: %v", err)
	}

	loader := &fakeLoader{dataset: sampleDataset()}
	r := NewRefresher(loader, database, "ado.csv", time.Hour, 1)

	if _, err := r.RefreshIfStale(ctx); err != nil {
		t.Fatalf("first RefreshIfStale failed: %v", err)
	}

	loader.dataset = &models.Dataset{SnapshotID: "second", Cities: sampleDataset().Cities}
	refreshed, err := r.RefreshIfStale(ctx)
	if err != nil {
		t.Fatalf("second RefreshIfStale failed: %v", err)
	}
	if refreshed {
		t.Error("second refresh inside the window should be skipped")
	}

	info, err := database.LatestSnapshot(ctx)
	if err != nil || info == nil || info.SnapshotID != "new" {
		t.Errorf("unexpected latest snapshot: %+v, %v", info, err)
	}
}

func TestNewSheetLoader(t *testing.T) {
	cfg := &config.Config{
		SheetName:    "ADO",
		FetchTimeout: 5 * time.Second,
		Columns:      map[string]string{"city": "Cidade"},
	}

	loader := NewSheetLoader(cfg)
	if loader.SheetName != "ADO" {
		t.Errorf("SheetName = %q, want ADO", loader.SheetName)
	}
	if loader.Columns.City != "Cidade" {
		t.Errorf("city column = %q, want Cidade", loader.Columns.City)
	}
	if loader.Client.Timeout != 5*time.Second {
		t.Errorf("timeout = %v, want 5s", loader.Client.Timeout)
	}
}

package handlers

import (
	"net/http"
	"time"

	"github.com/Lameir47/MapaAD/models"
)

// SnapshotReader returns the last loaded dataset without loading one
type SnapshotReader interface {
	Last() *models.Dataset
}

// HealthHandler handles GET /health
type HealthHandler struct {
	snapshots SnapshotReader
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(snapshots SnapshotReader) *HealthHandler {
	return &HealthHandler{snapshots: snapshots}
}

// HealthResponse is the JSON response for GET /health
type HealthResponse struct {
	Status     string     `json:"status"`
	Dataset    string     `json:"dataset"`
	Count      int        `json:"count"`
	SnapshotID string     `json:"snapshotId,omitempty"`
	LoadedAt   *time.Time `json:"loadedAt,omitempty"`
	Timestamp  time.Time  `json:"timestamp"`
}

// GetHealth reports whether a dataset has been loaded
func (h *HealthHandler) GetHealth(w http.ResponseWriter, r *http.Request) {
	d := h.snapshots.Last()
	if d == nil {
		writeJSON(w, http.StatusServiceUnavailable, "no-store", HealthResponse{
			Status:    "error",
			Dataset:   "not loaded",
			Timestamp: time.Now().UTC(),
		})
		return
	}

	response := HealthResponse{
		Status:     "ok",
		Dataset:    "loaded",
		Count:      d.Len(),
		SnapshotID: d.SnapshotID,
		Timestamp:  time.Now().UTC(),
	}
	if !d.LoadedAt.IsZero() {
		loadedAt := d.LoadedAt.UTC()
		response.LoadedAt = &loadedAt
	}

	writeJSON(w, http.StatusOK, "no-store", response)
}

package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/Lameir47/MapaAD/internal/filter"
	"github.com/Lameir47/MapaAD/internal/mapview"
	"github.com/Lameir47/MapaAD/models"
)

// EmptyMessage is shown when a selection matches no cities
const EmptyMessage = "no cities match this region/station"

// DatasetProvider defines the interface for reading the current dataset
type DatasetProvider interface {
	Current(ctx context.Context) (*models.Dataset, error)
	// Reload forces a load; stale is set when the previous dataset was kept
	// because the load failed
	Reload(ctx context.Context) (d *models.Dataset, stale bool, err error)
}

// RefreshResponse is the JSON response for POST /api/refresh
type RefreshResponse struct {
	Status     string `json:"status"`
	SnapshotID string `json:"snapshotId"`
	Count      int    `json:"count"`
}

// CityHandler handles HTTP requests for the ADO map
type CityHandler struct {
	provider DatasetProvider
	metrics  *Metrics
}

// NewCityHandler creates a new handler with the given dataset provider.
// metrics may be nil.
func NewCityHandler(provider DatasetProvider, metrics *Metrics) *CityHandler {
	return &CityHandler{provider: provider, metrics: metrics}
}

// RegionsResponse is the JSON response for GET /api/regions
type RegionsResponse struct {
	Regions []string `json:"regions"`
}

// StationsResponse is the JSON response for GET /api/stations
type StationsResponse struct {
	Region   string   `json:"region"`
	Stations []string `json:"stations"`
}

// CitiesResponse is the JSON response for GET /api/cities
type CitiesResponse struct {
	Selection  filter.Selection    `json:"selection"`
	Rows       []models.WorkingRow `json:"rows"`
	Stations   []string            `json:"stations"`
	Summary    mapview.Summary     `json:"summary"`
	Viewport   mapview.Viewport    `json:"viewport"`
	Empty      bool                `json:"empty"`
	Message    string              `json:"message,omitempty"`
	SnapshotID string              `json:"snapshotId"`
}

// MarkersResponse is the JSON response for GET /api/cities/markers
type MarkersResponse struct {
	Selection  filter.Selection `json:"selection"`
	Markers    []mapview.Marker `json:"markers"`
	Count      int              `json:"count"`
	Viewport   mapview.Viewport `json:"viewport"`
	Empty      bool             `json:"empty"`
	Message    string           `json:"message,omitempty"`
	SnapshotID string           `json:"snapshotId"`
}

// LegendResponse is the JSON response for GET /api/legend
type LegendResponse struct {
	Legend []mapview.Band `json:"legend"`
}

// GetRegions handles GET /api/regions
// Returns the region options, "ALL" first
func (h *CityHandler) GetRegions(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	d, ok := h.dataset(w, r, "regions")
	if !ok {
		return
	}

	regions := append([]string{models.All}, filter.AvailableRegions(d.Cities)...)

	h.metrics.observe("regions", start, false)
	writeJSON(w, http.StatusOK, "public, max-age=60", RegionsResponse{Regions: regions})
}

// GetStations handles GET /api/stations?region=
// Returns the station options for a region, "ALL" first
func (h *CityHandler) GetStations(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	d, ok := h.dataset(w, r, "stations")
	if !ok {
		return
	}

	sel := filter.Selection{Region: r.URL.Query().Get("region")}.Normalize()
	subset := filter.RegionSubset(d.Cities, sel.Region)
	stations := append([]string{models.All}, filter.AvailableStations(d.Cities, subset, sel.Region)...)

	h.metrics.observe("stations", start, false)
	writeJSON(w, http.StatusOK, "public, max-age=60", StationsResponse{
		Region:   sel.Region,
		Stations: stations,
	})
}

// GetCities handles GET /api/cities?region=&station=&clear=
// Returns the working set with summary and viewport
func (h *CityHandler) GetCities(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	sel, ok := h.selection(w, r, "cities")
	if !ok {
		return
	}
	d, ok := h.dataset(w, r, "cities")
	if !ok {
		return
	}

	res := filter.Apply(d.Cities, sel)
	response := CitiesResponse{
		Selection:  res.Selection,
		Rows:       res.Rows,
		Stations:   res.Stations,
		Summary:    mapview.Summarize(res.Rows),
		Viewport:   mapview.ComputeViewport(res.Rows),
		Empty:      res.Empty,
		SnapshotID: d.SnapshotID,
	}
	if res.Empty {
		response.Message = EmptyMessage
		h.countEmpty()
	}

	h.metrics.observe("cities", start, false)
	writeJSON(w, http.StatusOK, "public, max-age=30", response)
}

// GetMarkers handles GET /api/cities/markers?region=&station=&clear=
// Returns ready-to-draw markers
func (h *CityHandler) GetMarkers(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	sel, ok := h.selection(w, r, "markers")
	if !ok {
		return
	}
	d, ok := h.dataset(w, r, "markers")
	if !ok {
		return
	}

	res := filter.Apply(d.Cities, sel)
	response := MarkersResponse{
		Selection:  res.Selection,
		Markers:    mapview.Markers(res.Rows),
		Count:      len(res.Rows),
		Viewport:   mapview.ComputeViewport(res.Rows),
		Empty:      res.Empty,
		SnapshotID: d.SnapshotID,
	}
	if res.Empty {
		response.Message = EmptyMessage
		h.countEmpty()
	}

	h.metrics.observe("markers", start, false)
	writeJSON(w, http.StatusOK, "public, max-age=30", response)
}

// GetGeoJSON handles GET /api/cities/geojson?region=&station=&clear=
// Returns the working set as a GeoJSON FeatureCollection
func (h *CityHandler) GetGeoJSON(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	sel, ok := h.selection(w, r, "geojson")
	if !ok {
		return
	}
	d, ok := h.dataset(w, r, "geojson")
	if !ok {
		return
	}

	res := filter.Apply(d.Cities, sel)
	if res.Empty {
		h.countEmpty()
	}

	h.metrics.observe("geojson", start, false)
	w.Header().Set("X-Snapshot-Id", d.SnapshotID)
	writeJSON(w, http.StatusOK, "public, max-age=30", mapview.FeatureCollection(res.Rows))
}

// GetLegend handles GET /api/legend
func (h *CityHandler) GetLegend(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, "public, max-age=3600", LegendResponse{Legend: mapview.Legend()})
}

// Refresh handles POST /api/refresh
// Reloads the dataset. Answers 502 with status "stale" when the reload failed
// and the previous snapshot is still being served.
func (h *CityHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	d, stale, err := h.provider.Reload(ctx)
	if err != nil {
		h.metrics.observe("refresh", start, true)
		writeError(w, http.StatusServiceUnavailable, "ADO dataset unavailable", map[string]interface{}{
			"internal": err.Error(),
		})
		return
	}

	response := RefreshResponse{
		Status:     "reloaded",
		SnapshotID: d.SnapshotID,
		Count:      d.Len(),
	}
	status := http.StatusOK
	if stale {
		response.Status = "stale"
		status = http.StatusBadGateway
	}

	h.metrics.observe("refresh", start, stale)
	writeJSON(w, status, "no-store", response)
}

// selection reads region, station and clear from the query string
func (h *CityHandler) selection(w http.ResponseWriter, r *http.Request, route string) (filter.Selection, bool) {
	q := r.URL.Query()
	sel := filter.Selection{
		Region:  q.Get("region"),
		Station: q.Get("station"),
	}

	if raw := q.Get("clear"); raw != "" {
		cleared, err := strconv.ParseBool(raw)
		if err != nil {
			h.metrics.observe(route, time.Now(), true)
			writeError(w, http.StatusBadRequest, "clear must be a boolean", map[string]interface{}{
				"clear": raw,
			})
			return sel, false
		}
		sel.Clear = cleared
	}

	return sel, true
}

// dataset loads the current dataset or writes a 503
func (h *CityHandler) dataset(w http.ResponseWriter, r *http.Request, route string) (*models.Dataset, bool) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	d, err := h.provider.Current(ctx)
	if err != nil {
		h.metrics.observe(route, time.Now(), true)
		writeError(w, http.StatusServiceUnavailable, "ADO dataset unavailable", map[string]interface{}{
			"internal": err.Error(),
		})
		return nil, false
	}
	return d, true
}

func (h *CityHandler) countEmpty() {
	if h.metrics != nil {
		h.metrics.EmptyResults.Inc()
	}
}

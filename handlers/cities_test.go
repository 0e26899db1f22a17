package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/Lameir47/MapaAD/internal/mapview"
	"github.com/Lameir47/MapaAD/models"
)

type fakeProvider struct {
	dataset *models.Dataset
	err     error
	stale   bool
	reloads int
}

func (p *fakeProvider) Current(ctx context.Context) (*models.Dataset, error) {
	if p.err != nil {
		return nil, p.err
	}
	return p.dataset, nil
}

func (p *fakeProvider) Reload(ctx context.Context) (*models.Dataset, bool, error) {
	p.reloads++
	if p.err != nil {
		return nil, false, p.err
	}
	return p.dataset, p.stale, nil
}

func (p *fakeProvider) Last() *models.Dataset {
	if p.err != nil {
		return nil
	}
	return p.dataset
}

// exampleDataset is the five-city scenario: SP and RJ, station X1 spanning both
func exampleDataset() *models.Dataset {
	return &models.Dataset{
		SnapshotID: "snap-1",
		LoadedAt:   time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC),
		Cities: []models.City{
			{ID: 0, City: "Campinas", Region: "SP", Latitude: -22.9, Longitude: -47.06, ADO: 120, Station: "X1"},
			{ID: 1, City: "Santos", Region: "SP", Latitude: -23.96, Longitude: -46.33, ADO: 15, Station: "X2"},
			{ID: 2, City: "Niteroi", Region: "RJ", Latitude: -22.88, Longitude: -43.1, ADO: 40, Station: "X1"},
			{ID: 3, City: "Sorocaba", Region: "SP", Latitude: -23.5, Longitude: -47.45, ADO: 60, Station: "N/A"},
			{ID: 4, City: "Petropolis", Region: "RJ", Latitude: -22.5, Longitude: -43.18, ADO: 200, Station: "X3", Served: true},
		},
	}
}

func setupRouter(t *testing.T, p *fakeProvider) (http.Handler, *Metrics) {
	t.Helper()
	m := NewMetrics(prometheus.NewRegistry())
	r := chi.NewRouter()
	Mount(r, NewCityHandler(p, m), NewHealthHandler(p))
	return r, m
}

func doRequest(t *testing.T, h http.Handler, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
}

func TestGetRegions(t *testing.T) {
	h, _ := setupRouter(t, &fakeProvider{dataset: exampleDataset()})

	rec := doRequest(t, h, http.MethodGet, "/api/regions")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp RegionsResponse
	decode(t, rec, &resp)
	want := []string{"ALL", "RJ", "SP"}
	if len(resp.Regions) != len(want) {
		t.Fatalf("regions = %v, want %v", resp.Regions, want)
	}
	for i := range want {
		if resp.Regions[i] != want[i] {
			t.Errorf("regions[%d] = %q, want %q", i, resp.Regions[i], want[i])
		}
	}
}

func TestGetStations(t *testing.T) {
	h, _ := setupRouter(t, &fakeProvider{dataset: exampleDataset()})

	tests := []struct {
		name   string
		target string
		want   []string
	}{
		{"all regions", "/api/stations", []string{"ALL", "X1", "X2", "X3"}},
		{"SP only", "/api/stations?region=SP", []string{"ALL", "X1", "X2"}},
		{"unknown region", "/api/stations?region=XX", []string{"ALL"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, h, http.MethodGet, tt.target)
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200", rec.Code)
			}
			var resp StationsResponse
			decode(t, rec, &resp)
			if len(resp.Stations) != len(tt.want) {
				t.Fatalf("stations = %v, want %v", resp.Stations, tt.want)
			}
			for i := range tt.want {
				if resp.Stations[i] != tt.want[i] {
					t.Errorf("stations[%d] = %q, want %q", i, resp.Stations[i], tt.want[i])
				}
			}
		})
	}
}

func TestGetCitiesMergesStation(t *testing.T) {
	h, _ := setupRouter(t, &fakeProvider{dataset: exampleDataset()})

	rec := doRequest(t, h, http.MethodGet, "/api/cities?region=SP&station=X1")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if cc := rec.Header().Get("Cache-Control"); cc == "" {
		t.Error("expected a Cache-Control header")
	}

	var resp CitiesResponse
	decode(t, rec, &resp)

	wantIDs := []int{1, 3, 0, 2}
	wantHighlighted := []bool{false, false, true, true}
	if len(resp.Rows) != len(wantIDs) {
		t.Fatalf("got %d rows, want %d", len(resp.Rows), len(wantIDs))
	}
	for i, row := range resp.Rows {
		if row.ID != wantIDs[i] || row.Highlighted != wantHighlighted[i] {
			t.Errorf("row %d = (id %d, highlighted %v), want (id %d, highlighted %v)",
				i, row.ID, row.Highlighted, wantIDs[i], wantHighlighted[i])
		}
	}

	if resp.Empty || resp.Message != "" {
		t.Errorf("non-empty result should not carry a message: %+v", resp)
	}
	if resp.Summary.Highlighted != 2 {
		t.Errorf("summary highlighted = %d, want 2", resp.Summary.Highlighted)
	}
	if resp.Viewport.Zoom != 6 {
		t.Errorf("viewport zoom = %v, want 6", resp.Viewport.Zoom)
	}
	if resp.SnapshotID != "snap-1" {
		t.Errorf("snapshotId = %q", resp.SnapshotID)
	}
}

func TestGetCitiesClear(t *testing.T) {
	h, _ := setupRouter(t, &fakeProvider{dataset: exampleDataset()})

	rec := doRequest(t, h, http.MethodGet, "/api/cities?region=SP&station=X1&clear=true")
	var resp CitiesResponse
	decode(t, rec, &resp)

	if resp.Selection.Station != models.All {
		t.Errorf("clear should reset station to ALL, got %q", resp.Selection.Station)
	}
	if len(resp.Rows) != 3 {
		t.Errorf("got %d rows, want the 3 SP cities", len(resp.Rows))
	}
	for _, row := range resp.Rows {
		if row.Highlighted {
			t.Errorf("row %d should not be highlighted after clear", row.ID)
		}
	}
}

func TestGetCitiesInvalidClear(t *testing.T) {
	h, _ := setupRouter(t, &fakeProvider{dataset: exampleDataset()})

	rec := doRequest(t, h, http.MethodGet, "/api/cities?clear=maybe")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	var resp ErrorResponse
	decode(t, rec, &resp)
	if resp.Error == "" {
		t.Error("expected an error message")
	}
}

func TestGetCitiesEmpty(t *testing.T) {
	h, m := setupRouter(t, &fakeProvider{dataset: exampleDataset()})

	rec := doRequest(t, h, http.MethodGet, "/api/cities?region=XX")
	if rec.Code != http.StatusOK {
		t.Fatalf("empty result should be 200, got %d", rec.Code)
	}

	var resp CitiesResponse
	decode(t, rec, &resp)
	if !resp.Empty || resp.Message != EmptyMessage {
		t.Errorf("expected empty state, got %+v", resp)
	}
	if resp.Rows == nil {
		t.Error("rows should encode as [] not null")
	}
	if !resp.Viewport.Empty {
		t.Error("viewport should be marked empty")
	}
	if got := testutil.ToFloat64(m.EmptyResults); got != 1 {
		t.Errorf("empty_results = %v, want 1", got)
	}
}

func TestDatasetUnavailable(t *testing.T) {
	h, m := setupRouter(t, &fakeProvider{err: errors.New("sheet unreachable")})

	for _, target := range []string{"/api/regions", "/api/stations", "/api/cities", "/api/cities/markers", "/api/cities/geojson"} {
		rec := doRequest(t, h, http.MethodGet, target)
		if rec.Code != http.StatusServiceUnavailable {
			t.Errorf("%s: status = %d, want 503", target, rec.Code)
		}
	}
	if got := testutil.ToFloat64(m.Errors.WithLabelValues("cities")); got != 1 {
		t.Errorf("cities errors = %v, want 1", got)
	}
}

func TestGetMarkers(t *testing.T) {
	h, _ := setupRouter(t, &fakeProvider{dataset: exampleDataset()})

	rec := doRequest(t, h, http.MethodGet, "/api/cities/markers?region=RJ")
	var resp MarkersResponse
	decode(t, rec, &resp)

	if resp.Count != 2 || len(resp.Markers) != 2 {
		t.Fatalf("expected 2 RJ markers, got %+v", resp)
	}
	// Petropolis is served
	if resp.Markers[1].Color != mapview.BandServed.Color {
		t.Errorf("Petropolis color = %q, want %q", resp.Markers[1].Color, mapview.BandServed.Color)
	}
	if resp.Markers[0].Radius != mapview.RadiusDefault {
		t.Errorf("unhighlighted radius = %v", resp.Markers[0].Radius)
	}
}

func TestGetGeoJSON(t *testing.T) {
	h, _ := setupRouter(t, &fakeProvider{dataset: exampleDataset()})

	rec := doRequest(t, h, http.MethodGet, "/api/cities/geojson?station=X1")
	var fc mapview.CityFeatureCollection
	decode(t, rec, &fc)

	// Every city: three outside X1 plus the two X1 cities highlighted
	if fc.Type != "FeatureCollection" || len(fc.Features) != 5 {
		t.Fatalf("unexpected collection %+v", fc)
	}
	highlighted := 0
	for _, f := range fc.Features {
		if f.Properties.Highlighted {
			highlighted++
		}
	}
	if highlighted != 2 {
		t.Errorf("highlighted features = %d, want 2", highlighted)
	}
	if rec.Header().Get("X-Snapshot-Id") != "snap-1" {
		t.Error("expected X-Snapshot-Id header")
	}
}

func TestGetLegend(t *testing.T) {
	h, _ := setupRouter(t, &fakeProvider{dataset: exampleDataset()})

	rec := doRequest(t, h, http.MethodGet, "/api/legend")
	var resp LegendResponse
	decode(t, rec, &resp)
	if len(resp.Legend) != len(mapview.Legend()) {
		t.Errorf("legend has %d entries, want %d", len(resp.Legend), len(mapview.Legend()))
	}
}

func TestRefresh(t *testing.T) {
	p := &fakeProvider{dataset: exampleDataset()}
	h, _ := setupRouter(t, p)

	rec := doRequest(t, h, http.MethodPost, "/api/refresh")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp RefreshResponse
	decode(t, rec, &resp)
	if resp.Status != "reloaded" || resp.SnapshotID != "snap-1" || resp.Count != 5 {
		t.Errorf("unexpected refresh response %+v", resp)
	}
	if p.reloads != 1 {
		t.Errorf("expected one reload, got %d", p.reloads)
	}

	if rec := doRequest(t, h, http.MethodGet, "/api/refresh"); rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET /api/refresh status = %d, want 405", rec.Code)
	}
}

func TestRefreshStale(t *testing.T) {
	h, m := setupRouter(t, &fakeProvider{dataset: exampleDataset(), stale: true})

	rec := doRequest(t, h, http.MethodPost, "/api/refresh")
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rec.Code)
	}
	var resp RefreshResponse
	decode(t, rec, &resp)
	if resp.Status != "stale" || resp.SnapshotID != "snap-1" {
		t.Errorf("stale reload should name the snapshot still served, got %+v", resp)
	}
	if got := testutil.ToFloat64(m.Errors.WithLabelValues("refresh")); got != 1 {
		t.Errorf("refresh errors = %v, want 1", got)
	}
}

func TestRefreshUnavailable(t *testing.T) {
	h, _ := setupRouter(t, &fakeProvider{err: errors.New("sheet unreachable")})

	if rec := doRequest(t, h, http.MethodPost, "/api/refresh"); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

func TestNonFiniteValueIsAnError(t *testing.T) {
	d := exampleDataset()
	d.Cities[0].ADO = math.NaN()
	h, _ := setupRouter(t, &fakeProvider{dataset: d})

	rec := doRequest(t, h, http.MethodGet, "/api/cities?region=SP")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	var resp ErrorResponse
	decode(t, rec, &resp)
	if resp.Error == "" {
		t.Error("expected an error body instead of an empty response")
	}
}

func TestHealth(t *testing.T) {
	h, _ := setupRouter(t, &fakeProvider{dataset: exampleDataset()})

	rec := doRequest(t, h, http.MethodGet, "/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp HealthResponse
	decode(t, rec, &resp)
	if resp.Count != 5 || resp.SnapshotID != "snap-1" || resp.LoadedAt == nil {
		t.Errorf("unexpected health %+v", resp)
	}

	down, _ := setupRouter(t, &fakeProvider{err: errors.New("down")})
	if rec := doRequest(t, down, http.MethodGet, "/health"); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status without dataset = %d, want 503", rec.Code)
	}
}

func TestObserveReload(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.ObserveReload(exampleDataset(), 10*time.Millisecond, nil)
	m.ObserveReload(nil, time.Millisecond, errors.New("boom"))

	if got := testutil.ToFloat64(m.Reloads); got != 2 {
		t.Errorf("reloads = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.ReloadErrors); got != 1 {
		t.Errorf("reload_errors = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.DatasetRows); got != 5 {
		t.Errorf("rows = %v, want 5", got)
	}
}

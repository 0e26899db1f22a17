package mapview

import "github.com/Lameir47/MapaAD/models"

const (
	zoomMany   = 6.0
	zoomSingle = 10.0
)

// Center is a map centre point
type Center struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Viewport is the initial map view for a working set
type Viewport struct {
	Center Center  `json:"center"`
	Zoom   float64 `json:"zoom"`
	Empty  bool    `json:"empty"`
}

// ComputeViewport centres the map on the mean position of the rows.
// One row zooms in close, several rows zoom out to the country level.
func ComputeViewport(rows []models.WorkingRow) Viewport {
	if len(rows) == 0 {
		return Viewport{Empty: true}
	}

	var lat, lng float64
	for _, r := range rows {
		lat += r.Latitude
		lng += r.Longitude
	}
	n := float64(len(rows))

	zoom := zoomSingle
	if len(rows) > 1 {
		zoom = zoomMany
	}

	return Viewport{
		Center: Center{Lat: lat / n, Lng: lng / n},
		Zoom:   zoom,
	}
}

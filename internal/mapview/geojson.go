package mapview

import (
	"strconv"

	"github.com/Lameir47/MapaAD/models"
)

// Marker is one city marker with its popup fields
type Marker struct {
	ID           int     `json:"id"`
	City         string  `json:"city"`
	Region       string  `json:"region"`
	Station      string  `json:"station"`
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	ADO          float64 `json:"ado"`
	ServiceLabel string  `json:"serviceLabel"`
	Highlighted  bool    `json:"highlighted"`
	Hub          bool    `json:"hub"`
	Band         string  `json:"band"`
	Color        string  `json:"color"`
	Radius       float64 `json:"radius"`
}

// CityFeatureCollection is a GeoJSON FeatureCollection of city markers
type CityFeatureCollection struct {
	Type     string        `json:"type"`
	Features []CityFeature `json:"features"`
}

// CityFeature is a GeoJSON point feature for one city
type CityFeature struct {
	Type       string        `json:"type"`
	ID         string        `json:"id"`
	Properties Marker        `json:"properties"`
	Geometry   PointGeometry `json:"geometry"`
}

// PointGeometry is a GeoJSON point, coordinates in [lng, lat] order
type PointGeometry struct {
	Type        string     `json:"type"`
	Coordinates [2]float64 `json:"coordinates"`
}

// NewMarker builds the marker for a row
func NewMarker(row models.WorkingRow) Marker {
	band := Classify(row)
	return Marker{
		ID:           row.ID,
		City:         row.City.City,
		Region:       row.Region,
		Station:      row.Station,
		Latitude:     row.Latitude,
		Longitude:    row.Longitude,
		ADO:          row.ADO,
		ServiceLabel: row.ServiceLabel,
		Highlighted:  row.Highlighted,
		Hub:          row.Hub,
		Band:         band.Key,
		Color:        band.Color,
		Radius:       Radius(row),
	}
}

// Markers builds markers for every row, keeping order
func Markers(rows []models.WorkingRow) []Marker {
	markers := make([]Marker, 0, len(rows))
	for _, r := range rows {
		markers = append(markers, NewMarker(r))
	}
	return markers
}

// FeatureCollection converts rows into GeoJSON
func FeatureCollection(rows []models.WorkingRow) CityFeatureCollection {
	features := make([]CityFeature, 0, len(rows))
	for _, r := range rows {
		features = append(features, CityFeature{
			Type:       "Feature",
			ID:         strconv.Itoa(r.ID),
			Properties: NewMarker(r),
			Geometry: PointGeometry{
				Type:        "Point",
				Coordinates: [2]float64{r.Longitude, r.Latitude},
			},
		})
	}

	return CityFeatureCollection{
		Type:     "FeatureCollection",
		Features: features,
	}
}

package models

import (
	"errors"
	"math"
	"strings"
	"time"
)

const (
	// All is the selector value meaning "no filter on this dimension"
	All = "ALL"

	// NoStation marks a city with no station assigned. It is never offered as a station option.
	NoStation = "N/A"
)

// City is one city-level row of the ADO sheet
// ID is the row position assigned at load time and is the identity key used for de-duplication
type City struct {
	// Identity (stable within a dataset)
	ID int `db:"row_id" json:"id"`

	// Location
	City      string  `db:"city" json:"city"`
	Region    string  `db:"region" json:"region"`
	Latitude  float64 `db:"latitude" json:"latitude"`
	Longitude float64 `db:"longitude" json:"longitude"`

	// Coverage metric
	ADO float64 `db:"ado" json:"ado"`

	// Station (XPT) grouping, NoStation when unassigned
	Station      string `db:"station" json:"station"`
	Served       bool   `db:"served" json:"served"`
	ServiceLabel string `db:"service_label" json:"serviceLabel,omitempty"`

	// Rendering-only attribute, never used for filtering
	Hub bool `db:"hub" json:"hub"`
}

// Validate checks if the City row has usable data
// Returns error if any validation fails
func (c *City) Validate() error {
	if strings.TrimSpace(c.City) == "" {
		return errors.New("city is required")
	}

	if strings.TrimSpace(c.Region) == "" {
		return errors.New("region is required")
	}

	if !isFinite(c.Latitude) || !isFinite(c.Longitude) || !isFinite(c.ADO) {
		return errors.New("latitude, longitude and ado must be finite numbers")
	}

	if c.Latitude < -90 || c.Latitude > 90 {
		return errors.New("latitude out of range: must be between -90 and 90")
	}

	if c.Longitude < -180 || c.Longitude > 180 {
		return errors.New("longitude out of range: must be between -180 and 180")
	}

	if c.ADO < 0 {
		return errors.New("ado must not be negative")
	}

	return nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// HasStation reports whether the row belongs to a selectable station
func (c *City) HasStation() bool {
	return !IsNoStation(c.Station)
}

// IsNoStation reports whether a station value denotes "no station assigned".
// The comparison ignores case and surrounding whitespace.
func IsNoStation(station string) bool {
	s := strings.ToUpper(strings.TrimSpace(station))
	return s == "" || s == NoStation
}

// Dataset is the full set of rows loaded in one refresh cycle
// It is treated as immutable once built
type Dataset struct {
	SnapshotID string    `json:"snapshotId"`
	Source     string    `json:"source"`
	LoadedAt   time.Time `json:"loadedAt"`
	Cities     []City    `json:"cities"`
}

// Len returns the number of rows in the dataset
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Cities)
}

// WorkingRow is a dataset row as it appears in a filtered result
type WorkingRow struct {
	City
	Highlighted bool `json:"highlighted"`
}

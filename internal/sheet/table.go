package sheet

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Lameir47/MapaAD/models"
)

var (
	// ErrNoHeader is returned when a source has no header row
	ErrNoHeader = errors.New("sheet has no header row")

	// ErrMissingColumn is returned when a required column is absent from the header
	ErrMissingColumn = errors.New("required column missing")
)

// Table is a raw sheet: one header row and the records below it
type Table struct {
	Header  []string
	Records [][]string
}

// Stats counts what happened to the records of a table while building rows
type Stats struct {
	Records int
	Kept    int
	Dropped int
}

type columnIndex struct {
	city, region, lat, lon, ado int
	station, served, label, hub int
}

func (c Columns) resolve(header []string) (columnIndex, error) {
	idx := headerIndex(header)

	lookup := func(name string) int {
		if name == "" {
			return -1
		}
		if i, ok := idx[normalizeHeader(name)]; ok {
			return i
		}
		return -1
	}

	ci := columnIndex{
		city:    lookup(c.City),
		region:  lookup(c.Region),
		lat:     lookup(c.Latitude),
		lon:     lookup(c.Longitude),
		ado:     lookup(c.ADO),
		station: lookup(c.Station),
		served:  lookup(c.Served),
		label:   lookup(c.ServiceLabel),
		hub:     lookup(c.Hub),
	}

	required := []struct {
		name string
		pos  int
	}{
		{c.City, ci.city},
		{c.Region, ci.region},
		{c.Latitude, ci.lat},
		{c.Longitude, ci.lon},
		{c.ADO, ci.ado},
		{c.Station, ci.station},
	}
	var missing []string
	for _, r := range required {
		if r.pos < 0 {
			missing = append(missing, r.name)
		}
	}
	if len(missing) > 0 {
		return ci, fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", "))
	}

	return ci, nil
}

// BuildCities converts a raw table into typed rows.
// Records missing a required value, or with a non-numeric coordinate or ADO,
// are dropped. A missing station becomes models.NoStation. Kept rows get IDs
// 0..n-1 in source order.
func BuildCities(t Table, cols Columns) ([]models.City, Stats, error) {
	if len(t.Header) == 0 {
		return nil, Stats{}, ErrNoHeader
	}

	ci, err := cols.resolve(t.Header)
	if err != nil {
		return nil, Stats{}, err
	}

	stats := Stats{Records: len(t.Records)}
	cities := make([]models.City, 0, len(t.Records))

	for _, rec := range t.Records {
		c, ok := buildCity(rec, ci)
		if !ok {
			stats.Dropped++
			continue
		}
		if err := c.Validate(); err != nil {
			stats.Dropped++
			continue
		}
		c.ID = len(cities)
		cities = append(cities, c)
	}

	stats.Kept = len(cities)
	return cities, stats, nil
}

func buildCity(rec []string, ci columnIndex) (models.City, bool) {
	city := field(rec, ci.city)
	region := field(rec, ci.region)
	if city == "" || region == "" {
		return models.City{}, false
	}

	lat, ok := ParseNumber(field(rec, ci.lat))
	if !ok {
		return models.City{}, false
	}
	lon, ok := ParseNumber(field(rec, ci.lon))
	if !ok {
		return models.City{}, false
	}
	ado, ok := ParseNumber(field(rec, ci.ado))
	if !ok {
		return models.City{}, false
	}

	station := field(rec, ci.station)
	if station == "" {
		station = models.NoStation
	}

	return models.City{
		City:         city,
		Region:       region,
		Latitude:     lat,
		Longitude:    lon,
		ADO:          ado,
		Station:      station,
		Served:       ParseFlag(field(rec, ci.served)),
		ServiceLabel: field(rec, ci.label),
		Hub:          ParseFlag(field(rec, ci.hub)),
	}, true
}

// field returns the trimmed value at position i, or "" when absent
func field(rec []string, i int) string {
	if i < 0 || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

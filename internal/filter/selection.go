package filter

import (
	"strings"

	"github.com/Lameir47/MapaAD/models"
)

// Selection is the state of the two map selectors plus the clear action
type Selection struct {
	Region  string `json:"region" yaml:"region"`
	Station string `json:"station" yaml:"station"`
	Clear   bool   `json:"clear" yaml:"clear"`
}

// Normalize trims both choices and maps empty values to models.All.
// Only the exact value models.All means every row; "all" or "All" is an
// ordinary region or station name. A station of "N/A" is not selectable and
// is treated as models.All.
func (s Selection) Normalize() Selection {
	s.Region = strings.TrimSpace(s.Region)
	s.Station = strings.TrimSpace(s.Station)

	if s.Region == "" {
		s.Region = models.All
	}
	if models.IsNoStation(s.Station) {
		s.Station = models.All
	}
	return s
}

// Resolve applies the clear action: a cleared selection always has station models.All
func (s Selection) Resolve() Selection {
	s = s.Normalize()
	if s.Clear {
		s.Station = models.All
		s.Clear = false
	}
	return s
}

// Result is everything the map needs for one selection
type Result struct {
	Selection Selection           `json:"selection"`
	Rows      []models.WorkingRow `json:"rows"`
	Stations  []string            `json:"stations"`
	Empty     bool                `json:"empty"`
}

// HighlightedCount returns the number of highlighted rows
func (r *Result) HighlightedCount() int {
	n := 0
	for _, row := range r.Rows {
		if row.Highlighted {
			n++
		}
	}
	return n
}

// Apply resolves sel and computes the working set and station options for it
func Apply(d []models.City, sel Selection) Result {
	sel = sel.Resolve()

	regionRows := RegionSubset(d, sel.Region)
	rows := ComputeWorkingSet(d, sel.Region, sel.Station)

	return Result{
		Selection: sel,
		Rows:      rows,
		Stations:  AvailableStations(d, regionRows, sel.Region),
		Empty:     len(rows) == 0,
	}
}

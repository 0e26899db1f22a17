// Package filter computes the working set shown on the ADO map from a dataset,
// a region choice and a station choice.
//
// Station members are always taken from the full dataset, so a station whose
// cities span several regions is shown completely even when a single region is
// selected. Rows are de-duplicated by their identity key (City.ID).
package filter

import (
	"sort"

	"github.com/Lameir47/MapaAD/models"
)

// RegionSubset returns the rows of d in the given region, in dataset order.
// models.All returns every row. An unknown region returns an empty slice.
func RegionSubset(d []models.City, region string) []models.City {
	if region == models.All {
		out := make([]models.City, len(d))
		copy(out, d)
		return out
	}

	out := make([]models.City, 0)
	for _, c := range d {
		if c.Region == region {
			out = append(out, c)
		}
	}
	return out
}

// ComputeWorkingSet merges the region filter with the station filter.
//
// With station == models.All the result is the region subset, nothing highlighted.
// Otherwise it is the region rows outside the station followed by every row of
// the station (from the whole dataset), the latter highlighted. No ID appears twice.
func ComputeWorkingSet(d []models.City, region, station string) []models.WorkingRow {
	regionRows := RegionSubset(d, region)

	if station == models.All {
		out := make([]models.WorkingRow, 0, len(regionRows))
		for _, c := range regionRows {
			out = append(out, models.WorkingRow{City: c})
		}
		return out
	}

	out := make([]models.WorkingRow, 0, len(regionRows))
	seen := make(map[int]struct{}, len(regionRows))

	// Region rows not in the selected station
	for _, c := range regionRows {
		if c.Station == station {
			continue
		}
		if _, dup := seen[c.ID]; dup {
			continue
		}
		seen[c.ID] = struct{}{}
		out = append(out, models.WorkingRow{City: c})
	}

	// Station rows from anywhere in the dataset
	for _, c := range d {
		if c.Station != station {
			continue
		}
		if _, dup := seen[c.ID]; dup {
			continue
		}
		seen[c.ID] = struct{}{}
		out = append(out, models.WorkingRow{City: c, Highlighted: true})
	}

	return out
}

// AvailableStations lists the stations a user may pick.
// With region == models.All candidates come from the full dataset, otherwise
// from regionSubset. "N/A" (any case or padding) and empty values are excluded.
// The result is distinct and sorted ascending.
func AvailableStations(d, regionSubset []models.City, region string) []string {
	candidates := regionSubset
	if region == models.All {
		candidates = d
	}

	set := make(map[string]struct{})
	for _, c := range candidates {
		if models.IsNoStation(c.Station) {
			continue
		}
		set[c.Station] = struct{}{}
	}

	return sortedKeys(set)
}

// AvailableRegions lists the distinct non-empty regions of d, sorted ascending
func AvailableRegions(d []models.City) []string {
	set := make(map[string]struct{})
	for _, c := range d {
		if c.Region == "" {
			continue
		}
		set[c.Region] = struct{}{}
	}

	return sortedKeys(set)
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

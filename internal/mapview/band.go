// Package mapview turns a working set into what the dashboard map draws:
// marker colours and sizes, the initial viewport, the legend and GeoJSON.
package mapview

import "github.com/Lameir47/MapaAD/models"

// Band is a marker colour class
type Band struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Color string `json:"color"`
}

var (
	BandHub         = Band{Key: "hub", Label: "Hub", Color: "#1f3c88"}
	BandHighlighted = Band{Key: "station", Label: "Selected station", Color: "#AD63D4"}
	BandServed      = Band{Key: "served", Label: "Served", Color: "#78c878"}
	BandHigh        = Band{Key: "ado_high", Label: "ADO >= 100", Color: "yellow"}
	BandCritical    = Band{Key: "ado_critical", Label: "ADO <= 20", Color: "red"}
	BandLow         = Band{Key: "ado_low", Label: "ADO 21-50", Color: "orange"}
	BandMedium      = Band{Key: "ado_medium", Label: "ADO 51-99", Color: "lightgray"}
	BandOther       = Band{Key: "other", Label: "Other", Color: "gray"}
)

const (
	RadiusDefault     = 5.0
	RadiusHighlighted = 6.5
)

// Classify picks the colour band of a row.
// Priority: hub, then highlighted, then served, then the ADO bands.
func Classify(row models.WorkingRow) Band {
	switch {
	case row.Hub:
		return BandHub
	case row.Highlighted:
		return BandHighlighted
	case row.Served:
		return BandServed
	}
	return adoBand(row.ADO)
}

func adoBand(ado float64) Band {
	switch {
	case ado >= 100:
		return BandHigh
	case ado <= 20:
		return BandCritical
	case ado <= 50:
		return BandLow
	case ado < 100:
		return BandMedium
	}
	// NaN lands here
	return BandOther
}

// Radius returns the marker radius for a row
func Radius(row models.WorkingRow) float64 {
	if row.Highlighted || row.Hub {
		return RadiusHighlighted
	}
	return RadiusDefault
}

// Legend returns the legend entries in display order
func Legend() []Band {
	return []Band{
		BandHub,
		BandHighlighted,
		BandServed,
		BandHigh,
		BandMedium,
		BandLow,
		BandCritical,
		BandOther,
	}
}

package sheet

import "strings"

// Columns maps each City field to its header in the source sheet
type Columns struct {
	City         string
	Region       string
	Latitude     string
	Longitude    string
	ADO          string
	Station      string
	Served       string
	ServiceLabel string
	Hub          string
}

// DefaultColumns returns the headers used by the ADO coverage sheet
func DefaultColumns() Columns {
	return Columns{
		City:         "min buyer_city",
		Region:       "min buyer_state",
		Latitude:     "latitude",
		Longitude:    "longitude",
		ADO:          "ADO",
		Station:      "Station Name",
		Served:       "CEP Atendido",
		ServiceLabel: "Atendimento XPT",
		Hub:          "Hub",
	}
}

// WithOverrides returns a copy of c with headers replaced from a
// field-name keyed map (e.g. {"city": "Cidade"}). Unknown keys are ignored.
func (c Columns) WithOverrides(overrides map[string]string) Columns {
	for field, header := range overrides {
		if strings.TrimSpace(header) == "" {
			continue
		}
		switch normalizeHeader(field) {
		case "city":
			c.City = header
		case "region", "state":
			c.Region = header
		case "latitude", "lat":
			c.Latitude = header
		case "longitude", "lon", "lng":
			c.Longitude = header
		case "ado":
			c.ADO = header
		case "station":
			c.Station = header
		case "served":
			c.Served = header
		case "service_label", "servicelabel":
			c.ServiceLabel = header
		case "hub":
			c.Hub = header
		}
	}
	return c
}

// normalizeHeader lower-cases a header and collapses inner whitespace
func normalizeHeader(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	return strings.ToLower(strings.Join(strings.Fields(h), " "))
}

// headerIndex maps normalized header names to column positions.
// The first occurrence wins when a header is repeated.
func headerIndex(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		key := normalizeHeader(h)
		if key == "" {
			continue
		}
		if _, exists := idx[key]; !exists {
			idx[key] = i
		}
	}
	return idx
}

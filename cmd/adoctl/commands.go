package main

import (
	"github.com/spf13/cobra"

	"github.com/Lameir47/MapaAD/internal/filter"
	"github.com/Lameir47/MapaAD/internal/mapview"
	"github.com/Lameir47/MapaAD/models"
)

func newRegionsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "regions",
		Short: "List the regions in the dataset",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := opts.loadDataset(cmd.Context())
			if err != nil {
				return err
			}
			regions := append([]string{models.All}, filter.AvailableRegions(d.Cities)...)
			return writeList(cmd.OutOrStdout(), opts.format, "regions", regions)
		},
	}
}

func newStationsCmd(opts *rootOptions) *cobra.Command {
	var region string

	cmd := &cobra.Command{
		Use:   "stations",
		Short: "List the stations selectable for a region",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := opts.loadDataset(cmd.Context())
			if err != nil {
				return err
			}
			sel := filter.Selection{Region: region}.Normalize()
			subset := filter.RegionSubset(d.Cities, sel.Region)
			stations := append([]string{models.All}, filter.AvailableStations(d.Cities, subset, sel.Region)...)
			return writeList(cmd.OutOrStdout(), opts.format, "stations", stations)
		},
	}

	cmd.Flags().StringVarP(&region, "region", "r", models.All, "Region to list stations for")
	return cmd
}

// filterReport is the output of the filter command
type filterReport struct {
	Selection filter.Selection `json:"selection" yaml:"selection"`
	Count     int              `json:"count" yaml:"count"`
	Empty     bool             `json:"empty" yaml:"empty"`
	Message   string           `json:"message,omitempty" yaml:"message,omitempty"`
	Viewport  viewportOut      `json:"viewport" yaml:"viewport"`
	Rows      []rowOut         `json:"rows" yaml:"rows"`
}

type viewportOut struct {
	Lat  float64 `json:"lat" yaml:"lat"`
	Lng  float64 `json:"lng" yaml:"lng"`
	Zoom float64 `json:"zoom" yaml:"zoom"`
}

type rowOut struct {
	ID          int     `json:"id" yaml:"id"`
	City        string  `json:"city" yaml:"city"`
	Region      string  `json:"region" yaml:"region"`
	Station     string  `json:"station" yaml:"station"`
	ADO         float64 `json:"ado" yaml:"ado"`
	Highlighted bool    `json:"highlighted" yaml:"highlighted"`
	Band        string  `json:"band" yaml:"band"`
}

func newFilterCmd(opts *rootOptions) *cobra.Command {
	var sel filter.Selection

	cmd := &cobra.Command{
		Use:   "filter",
		Short: "Print the cities shown on the map for a region/station selection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := opts.loadDataset(cmd.Context())
			if err != nil {
				return err
			}
			return writeReport(cmd.OutOrStdout(), opts.format, buildReport(d, sel))
		},
	}

	cmd.Flags().StringVarP(&sel.Region, "region", "r", models.All, "Region choice")
	cmd.Flags().StringVarP(&sel.Station, "station", "s", models.All, "Station choice")
	cmd.Flags().BoolVar(&sel.Clear, "clear", false, "Clear the station choice")
	return cmd
}

func buildReport(d *models.Dataset, sel filter.Selection) filterReport {
	res := filter.Apply(d.Cities, sel)
	vp := mapview.ComputeViewport(res.Rows)

	report := filterReport{
		Selection: res.Selection,
		Count:     len(res.Rows),
		Empty:     res.Empty,
		Viewport:  viewportOut{Lat: vp.Center.Lat, Lng: vp.Center.Lng, Zoom: vp.Zoom},
		Rows:      make([]rowOut, 0, len(res.Rows)),
	}
	if res.Empty {
		report.Message = "no cities match this region/station"
	}

	for _, r := range res.Rows {
		report.Rows = append(report.Rows, rowOut{
			ID:          r.ID,
			City:        r.City.City,
			Region:      r.Region,
			Station:     r.Station,
			ADO:         r.ADO,
			Highlighted: r.Highlighted,
			Band:        mapview.Classify(r).Key,
		})
	}
	return report
}

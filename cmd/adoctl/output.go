package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"gopkg.in/yaml.v3"
)

func writeList(out io.Writer, format, key string, items []string) error {
	if format == "table" {
		for _, item := range items {
			fmt.Fprintln(out, item)
		}
		return nil
	}
	return encode(out, format, map[string][]string{key: items})
}

func writeReport(out io.Writer, format string, report filterReport) error {
	if format != "table" {
		return encode(out, format, report)
	}

	if report.Empty {
		fmt.Fprintln(out, report.Message)
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCITY\tREGION\tSTATION\tADO\tHIGHLIGHTED\tBAND")
	for _, r := range report.Rows {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%g\t%t\t%s\n",
			r.ID, r.City, r.Region, r.Station, r.ADO, r.Highlighted, r.Band)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(out, "%d cities (region=%s, station=%s), center %.4f,%.4f zoom %g\n",
		report.Count, report.Selection.Region, report.Selection.Station,
		report.Viewport.Lat, report.Viewport.Lng, report.Viewport.Zoom)
	return nil
}

func encode(out io.Writer, format string, data interface{}) error {
	switch format {
	case "yaml":
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(data); err != nil {
			return fmt.Errorf("failed to encode YAML: %w", err)
		}
		return enc.Close()

	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(data)

	default:
		return fmt.Errorf("unsupported format: %s (use table, json or yaml)", format)
	}
}

// Package sheet loads the ADO coverage spreadsheet into typed city rows.
package sheet

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Lameir47/MapaAD/models"
)

// Loader reads a sheet from a local .xlsx/.csv file or an http(s) CSV export
type Loader struct {
	Columns   Columns
	SheetName string
	Client    *http.Client
}

// NewLoader creates a Loader with the default ADO sheet headers
func NewLoader(timeout time.Duration) *Loader {
	return &Loader{
		Columns: DefaultColumns(),
		Client:  &http.Client{Timeout: timeout},
	}
}

// Load reads source and returns a new dataset with a fresh snapshot ID
func (l *Loader) Load(ctx context.Context, source string) (*models.Dataset, error) {
	if strings.TrimSpace(source) == "" {
		return nil, fmt.Errorf("no sheet source configured")
	}

	table, err := l.readTable(ctx, source)
	if err != nil {
		return nil, err
	}

	cities, stats, err := BuildCities(table, l.Columns)
	if err != nil {
		return nil, fmt.Errorf("failed to build rows from %s: %w", source, err)
	}

	if stats.Dropped > 0 {
		log.Printf("Sheet parsed: %d rows kept, %d incomplete rows dropped", stats.Kept, stats.Dropped)
	} else {
		log.Printf("Sheet parsed: %d rows", stats.Kept)
	}

	return &models.Dataset{
		SnapshotID: uuid.New().String(),
		Source:     source,
		LoadedAt:   time.Now().UTC(),
		Cities:     cities,
	}, nil
}

func (l *Loader) readTable(ctx context.Context, source string) (Table, error) {
	if isURL(source) {
		return l.fetch(ctx, source)
	}

	f, err := os.Open(source)
	if err != nil {
		return Table{}, fmt.Errorf("failed to open sheet: %w", err)
	}
	defer f.Close()

	if isXLSX(source) {
		return ReadXLSX(f, l.SheetName)
	}
	return ReadCSV(f)
}

// fetch downloads a published sheet export
func (l *Loader) fetch(ctx context.Context, url string) (Table, error) {
	client := l.Client
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Table{}, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return Table{}, fmt.Errorf("failed to fetch sheet: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Table{}, fmt.Errorf("sheet fetch returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	contentType := resp.Header.Get("Content-Type")
	if isXLSX(url) || strings.Contains(contentType, "spreadsheetml") {
		return ReadXLSX(resp.Body, l.SheetName)
	}
	return ReadCSV(resp.Body)
}

func isURL(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

func isXLSX(source string) bool {
	path := source
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	return strings.EqualFold(filepath.Ext(path), ".xlsx")
}

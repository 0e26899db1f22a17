package ingest

import (
	"github.com/Lameir47/MapaAD/internal/config"
	"github.com/Lameir47/MapaAD/internal/sheet"
)

// NewSheetLoader builds a sheet loader with the configured headers, sheet name and fetch timeout
func NewSheetLoader(cfg *config.Config) *sheet.Loader {
	loader := sheet.NewLoader(cfg.FetchTimeout)
	loader.Columns = sheet.DefaultColumns().WithOverrides(cfg.Columns)
	loader.SheetName = cfg.SheetName
	return loader
}

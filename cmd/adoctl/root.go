package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Lameir47/MapaAD/internal/config"
	"github.com/Lameir47/MapaAD/internal/db"
	"github.com/Lameir47/MapaAD/internal/ingest"
	"github.com/Lameir47/MapaAD/models"
	"github.com/Lameir47/MapaAD/repository"
)

// rootOptions are the flags shared by every subcommand
type rootOptions struct {
	source string
	dbPath string
	format string
	cfg    *config.Config
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{cfg: config.Load()}

	cmd := &cobra.Command{
		Use:   "adoctl",
		Short: "Query the ADO coverage sheet from the command line",
		Long: `Query the ADO coverage sheet without running the API.

The dataset is read from a sheet (--source, .xlsx/.csv path or CSV export URL)
or, when no source is given, from the newest snapshot in the SQLite database.

Examples:
  adoctl regions --source ado.xlsx
  adoctl stations --region SP --source ado.xlsx
  adoctl filter --region SP --station "XPT Campinas" --format yaml
  adoctl filter --region SP --station "XPT Campinas" --clear`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&opts.source, "source", opts.cfg.SheetSource, "Sheet path or CSV export URL")
	cmd.PersistentFlags().StringVar(&opts.dbPath, "db", opts.cfg.DatabasePath, "SQLite database used when --source is empty")
	cmd.PersistentFlags().StringVarP(&opts.format, "format", "f", "table", "Output format: table, json or yaml")

	cmd.AddCommand(newRegionsCmd(opts))
	cmd.AddCommand(newStationsCmd(opts))
	cmd.AddCommand(newFilterCmd(opts))

	return cmd
}

// loadDataset reads the dataset from the sheet or the snapshot store
func (o *rootOptions) loadDataset(ctx context.Context) (*models.Dataset, error) {
	if o.source != "" {
		return ingest.NewSheetLoader(o.cfg).Load(ctx, o.source)
	}

	database, err := db.Connect(o.dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	defer database.Close()

	d, err := repository.NewSQLiteCityRepository(database.Conn()).LatestDataset(ctx)
	if err != nil {
		return nil, fmt.Errorf("read latest snapshot: %w", err)
	}
	return d, nil
}

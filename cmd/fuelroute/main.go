package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/rubiojr/fuelroute/internal/catalog"
	"github.com/rubiojr/fuelroute/internal/gasdb"
	"github.com/urfave/cli/v2"
)

const defaultCSV = "fuel-prices-for-be-assessment.csv"

func main() {
	app := &cli.App{
		Name:  "fuelroute",
		Usage: "Plan driving routes with fuel stops and an estimated fuel cost",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Enable debug logging",
				EnvVars: []string{"FUELROUTE_VERBOSE"},
			},
		},
		Commands: []*cli.Command{
			serveCommand(),
			selectCommand(),
			routeCommand(),
			importCommand(),
			popularCommand(),
			statusCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newLogger(c *cli.Context) *slog.Logger {
	if !c.Bool("verbose") {
		return slog.New(slog.DiscardHandler)
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func csvFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "csv",
		Usage:   "Fuel price CSV file",
		Value:   defaultCSV,
		EnvVars: []string{"FUELROUTE_CSV"},
	}
}

// dbFlag returns the database flag. An empty value means the CSV file is
// used as the catalog source.
func dbFlag(value string) *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "db",
		Usage:   "Database file",
		Value:   value,
		EnvVars: []string{"FUELROUTE_DB"},
	}
}

// openCatalog returns the catalog source selected by the --db and --csv flags.
// The returned storage is nil when the CSV file is used.
func openCatalog(c *cli.Context, logger *slog.Logger) (catalog.Source, *gasdb.Storage, error) {
	if dbPath := c.String("db"); dbPath != "" {
		storage, err := gasdb.NewStorage(c.Context, dbPath, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("error initializing storage: %w", err)
		}
		return storage, storage, nil
	}
	return catalog.NewFileSource(c.String("csv"), logger), nil, nil
}

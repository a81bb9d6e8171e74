package main

import (
	"fmt"

	"github.com/rubiojr/fuelroute/internal/catalog"
	"github.com/rubiojr/fuelroute/internal/gasdb"
	"github.com/urfave/cli/v2"
)

func importCommand() *cli.Command {
	return &cli.Command{
		Name:  "import",
		Usage: "Import a fuel price CSV file into the database",
		Flags: []cli.Flag{
			csvFlag(),
			dbFlag("fuel_prices.db"),
		},
		Action: importAction,
	}
}

func importAction(c *cli.Context) error {
	logger := newLogger(c)
	storage, err := gasdb.NewStorage(c.Context, c.String("db"), logger)
	if err != nil {
		return fmt.Errorf("error initializing storage: %w", err)
	}
	defer storage.Close()

	cat := catalog.LoadFile(c.String("csv"), logger)
	if cat.Len() == 0 {
		return fmt.Errorf("no fuel prices found in %s", c.String("csv"))
	}

	if err := storage.ImportCatalog(c.Context, cat); err != nil {
		return err
	}

	fmt.Printf("Imported %d stations from %s\n", cat.Len(), c.String("csv"))
	if skipped := cat.Skipped(); len(skipped) > 0 {
		fmt.Printf("Skipped %d rows:\n", len(skipped))
		for _, rowErr := range skipped {
			fmt.Printf("   %s\n", rowErr)
		}
	}
	return nil
}

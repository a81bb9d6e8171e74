package main

import (
	"fmt"

	"github.com/rubiojr/fuelroute/internal/gasdb"
	"github.com/urfave/cli/v2"
)

func statusCommand() *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "Show what the fuel price database holds",
		Flags: []cli.Flag{
			dbFlag("fuel_prices.db"),
		},
		Action: statusAction,
	}
}

func statusAction(c *cli.Context) error {
	storage, err := gasdb.NewStorage(c.Context, c.String("db"), newLogger(c))
	if err != nil {
		return fmt.Errorf("error initializing storage: %w", err)
	}
	defer storage.Close()

	count, err := storage.StationCount(c.Context)
	if err != nil {
		return err
	}
	lastImport, err := storage.LastImportDate(c.Context)
	if err != nil {
		return err
	}

	fmt.Printf("Database: %s\n", c.String("db"))
	fmt.Printf("   Stations: %d\n", count)
	if lastImport == nil {
		fmt.Println("   Last import: never")
		return nil
	}
	fmt.Printf("   Last import: %s\n", lastImport.Format("2006-01-02 15:04:05"))
	return nil
}

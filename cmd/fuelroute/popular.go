package main

import (
	"fmt"

	"github.com/rubiojr/fuelroute/internal/gasdb"
	"github.com/urfave/cli/v2"
)

func popularCommand() *cli.Command {
	return &cli.Command{
		Name:  "popular",
		Usage: "Show the most searched routes",
		Flags: []cli.Flag{
			dbFlag("fuel_prices.db"),
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Number of routes to show",
				Value: 10,
			},
		},
		Action: popularAction,
	}
}

func popularAction(c *cli.Context) error {
	storage, err := gasdb.NewStorage(c.Context, c.String("db"), newLogger(c))
	if err != nil {
		return fmt.Errorf("error initializing storage: %w", err)
	}
	defer storage.Close()

	routes, err := storage.PopularRoutes(c.Context, c.Int("limit"))
	if err != nil {
		return err
	}
	if len(routes) == 0 {
		fmt.Println("No route searches recorded.")
		return nil
	}

	for i, r := range routes {
		fmt.Printf("%d. %s -> %s: %d searches (last %s)\n", i+1, r.StartCity, r.EndCity, r.SearchCount, r.LastSearch.Format("2006-01-02"))
	}
	return nil
}

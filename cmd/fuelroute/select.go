package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/rubiojr/fuelroute/internal/selector"
	"github.com/urfave/cli/v2"
)

func selectCommand() *cli.Command {
	return &cli.Command{
		Name:  "select",
		Usage: "List the fuel stops in the start and end cities without routing",
		Flags: []cli.Flag{
			csvFlag(),
			dbFlag(""),
			&cli.StringFlag{
				Name:     "start",
				Usage:    "Start city",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "end",
				Usage:    "End city",
				Required: true,
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Print the selection as JSON",
			},
		},
		Action: selectAction,
	}
}

func selectAction(c *cli.Context) error {
	logger := newLogger(c)
	source, storage, err := openCatalog(c, logger)
	if err != nil {
		return err
	}
	if storage != nil {
		defer storage.Close()
	}

	cat := source.Load(c.Context)
	result := selector.SelectStops(cat, c.String("start"), c.String("end"))

	if c.Bool("json") {
		return printJSON(os.Stdout, result)
	}

	printStops(os.Stdout, result)
	if n := len(cat.Skipped()); n > 0 {
		fmt.Printf("Skipped %d unreadable fuel price rows\n", n)
	}
	return nil
}

func printStops(w io.Writer, result selector.Result) {
	if len(result.Stops) == 0 {
		fmt.Fprintln(w, "No fuel stops found.")
		return
	}

	for i, stop := range result.Stops {
		fmt.Fprintf(w, "%d. %s (%s)\n", i+1, stop.Name, stop.Address)
		fmt.Fprintf(w, "   City: %s\n", stop.City)
		fmt.Fprintf(w, "   Price: %.3f\n", stop.Price)
	}
	fmt.Fprintf(w, "\nFound %d fuel stops, total fuel cost: %.2f\n", len(result.Stops), result.TotalCost)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("error encoding JSON: %w", err)
	}
	return nil
}

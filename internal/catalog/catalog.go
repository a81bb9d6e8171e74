// Package catalog loads truck stop fuel price tables into memory.
package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"strconv"
	"strings"
)

const (
	ColumnName    = "Truckstop Name"
	ColumnAddress = "Address"
	ColumnPrice   = "Retail Price"
	ColumnCity    = "City"
)

var requiredColumns = []string{ColumnName, ColumnAddress, ColumnPrice, ColumnCity}

// Station is a single truck stop and its advertised retail price.
type Station struct {
	Name    string  `json:"truckshop_name"`
	Address string  `json:"address"`
	Price   float64 `json:"price"`
	City    string  `json:"city"`
}

// RowError describes a source row that was left out of the catalog.
type RowError struct {
	Line   int    `json:"line"`
	Reason string `json:"reason"`
}

func (e RowError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Reason)
}

// Catalog is an immutable, source ordered list of stations.
type Catalog struct {
	stations []Station
	skipped  []RowError
}

// New builds a catalog from already parsed stations.
func New(stations []Station) *Catalog {
	c := &Catalog{stations: make([]Station, len(stations))}
	copy(c.stations, stations)
	return c
}

// Empty returns a catalog without stations.
func Empty() *Catalog {
	return &Catalog{}
}

// Stations returns a copy of the stations in source order.
func (c *Catalog) Stations() []Station {
	out := make([]Station, len(c.stations))
	copy(out, c.stations)
	return out
}

// Len returns the number of stations.
func (c *Catalog) Len() int {
	return len(c.stations)
}

// Skipped returns the rows that could not be loaded.
func (c *Catalog) Skipped() []RowError {
	out := make([]RowError, len(c.skipped))
	copy(out, c.skipped)
	return out
}

// LoadFile reads a catalog from a CSV file. A missing or unreadable file
// yields an empty catalog.
func LoadFile(path string, logger *slog.Logger) *Catalog {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Warn("fuel price file not found", "path", path)
		} else {
			logger.Warn("error opening fuel price file", "path", path, "error", err)
		}
		return Empty()
	}
	defer f.Close()

	c := Read(f)
	if n := len(c.skipped); n > 0 {
		logger.Debug("skipped fuel price rows", "path", path, "count", n)
	}
	logger.Debug("fuel prices loaded", "path", path, "stations", c.Len())
	return c
}

// Read parses CSV fuel price data. Rows that cannot be parsed are recorded in
// Skipped and do not abort the load.
func Read(r io.Reader) *Catalog {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	c := &Catalog{}

	header, err := reader.Read()
	if err != nil {
		if err != io.EOF {
			c.skipped = append(c.skipped, RowError{Line: 1, Reason: fmt.Sprintf("error reading header: %v", err)})
		}
		return c
	}

	idx, err := headerIndex(header)
	if err != nil {
		c.skipped = append(c.skipped, RowError{Line: 1, Reason: err.Error()})
		return c
	}

	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				c.skipped = append(c.skipped, RowError{Line: perr.StartLine, Reason: perr.Err.Error()})
				continue
			}
			c.skipped = append(c.skipped, RowError{Reason: err.Error()})
			break
		}

		line, _ := reader.FieldPos(0)

		station, err := parseRow(row, idx)
		if err != nil {
			c.skipped = append(c.skipped, RowError{Line: line, Reason: err.Error()})
			continue
		}
		c.stations = append(c.stations, station)
	}

	return c
}

func headerIndex(header []string) (map[string]int, error) {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		// Repeated columns: the last one wins.
		idx[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}

	out := make(map[string]int, len(requiredColumns))
	var missing []string
	for _, col := range requiredColumns {
		i, ok := idx[strings.ToLower(col)]
		if !ok {
			missing = append(missing, col)
			continue
		}
		out[col] = i
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing columns: %s", strings.Join(missing, ", "))
	}
	return out, nil
}

func parseRow(row []string, idx map[string]int) (Station, error) {
	field := func(col string) (string, bool) {
		i := idx[col]
		if i >= len(row) {
			return "", false
		}
		return row[i], true
	}

	name, ok := field(ColumnName)
	if !ok {
		return Station{}, fmt.Errorf("missing %q", ColumnName)
	}
	address, ok := field(ColumnAddress)
	if !ok {
		return Station{}, fmt.Errorf("missing %q", ColumnAddress)
	}
	city, ok := field(ColumnCity)
	if !ok {
		return Station{}, fmt.Errorf("missing %q", ColumnCity)
	}
	priceStr, ok := field(ColumnPrice)
	if !ok {
		return Station{}, fmt.Errorf("missing %q", ColumnPrice)
	}

	if strings.TrimSpace(name) == "" {
		return Station{}, fmt.Errorf("empty %q", ColumnName)
	}

	price, err := ParsePrice(priceStr)
	if err != nil {
		return Station{}, err
	}

	return Station{
		Name:    name,
		Address: address,
		Price:   price,
		City:    city,
	}, nil
}

// ParsePrice parses a retail price. Only finite, non-negative values are accepted.
func ParsePrice(s string) (float64, error) {
	s = strings.TrimSpace(s)
	p, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid price %q", s)
	}
	if math.IsNaN(p) || math.IsInf(p, 0) || p < 0 {
		return 0, fmt.Errorf("price out of range %q", s)
	}
	return p, nil
}

package gasdb

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
	"github.com/patrickmn/go-cache"
	"github.com/rubiojr/fuelroute/internal/catalog"
)

const (
	defaultCacheExpirationMinutes = 10
	defaultCacheCleanupMinutes    = 30
	defaultCacheSize              = -1024 * 1024 // negative value for pages
	defaultPageSize               = 4096
	defaultPopularRoutesLimit     = 10
	catalogCacheKey               = "catalog"
)

// Storage persists imported fuel price catalogs and route search statistics.
type Storage struct {
	db    *sql.DB
	cache *cache.Cache
	log   *slog.Logger
}

func NewStorage(ctx context.Context, dbPath string, logger *slog.Logger) (*Storage, error) {
	db, err := sql.Open("sqlite3", "file:"+dbPath)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	if err := configureSQLitePragmas(ctx, db, defaultCacheSize); err != nil {
		db.Close()
		return nil, err
	}

	if err := createTables(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("error creating tables: %w", err)
	}

	c := cache.New(defaultCacheExpirationMinutes*time.Minute, defaultCacheCleanupMinutes*time.Minute)

	s := &Storage{
		db:    db,
		cache: c,
		log:   logger,
	}

	if err := s.CreateRouteSearchesTable(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("error creating route_searches table: %w", err)
	}

	return s, nil
}

func createTables(ctx context.Context, db *sql.DB) error {
	createTableSQL := `
	CREATE TABLE IF NOT EXISTS station_prices (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		address TEXT NOT NULL,
		city TEXT NOT NULL,
		price REAL NOT NULL,
		imported_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_station_prices_city ON station_prices(city COLLATE NOCASE);
	`

	_, err := db.ExecContext(ctx, createTableSQL)
	if err != nil {
		return fmt.Errorf("error creating table: %w", err)
	}
	return nil
}

func (s *Storage) CreateRouteSearchesTable(ctx context.Context) error {
	createTableSQL := `
	CREATE TABLE IF NOT EXISTS route_searches (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		start_city TEXT NOT NULL,
		end_city TEXT NOT NULL,
		search_count INTEGER NOT NULL DEFAULT 1,
		search_time TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		last_search TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(start_city, end_city)
	);
	`

	_, err := s.db.ExecContext(ctx, createTableSQL)
	if err != nil {
		return fmt.Errorf("error creating route_searches table: %w", err)
	}

	s.log.Debug("Route searches table created or verified")
	return nil
}

func (s *Storage) Close() error {
	if s.cache != nil {
		s.cache.Flush()
	}
	return s.db.Close()
}

// ImportCatalog replaces the stored stations with the ones in c.
func (s *Storage) ImportCatalog(ctx context.Context, c *catalog.Catalog) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error starting transaction: %w", err)
	}
	defer func() {
		if err := tx.Rollback(); err != nil && err != sql.ErrTxDone {
			s.log.Error("rollback error", "error", err)
		}
	}()

	if _, err := tx.ExecContext(ctx, "DELETE FROM station_prices"); err != nil {
		return fmt.Errorf("error clearing station prices: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO station_prices (name, address, city, price, imported_at)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("error preparing statement: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(time.DateTime)
	for _, station := range c.Stations() {
		if _, err := stmt.ExecContext(ctx, station.Name, station.Address, station.City, station.Price, now); err != nil {
			return fmt.Errorf("error inserting station %q: %w", station.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("error committing transaction: %w", err)
	}

	s.cache.Flush()
	s.log.Debug("Catalog imported", "stations", c.Len())

	return nil
}

// Catalog returns the stored stations in import order.
func (s *Storage) Catalog(ctx context.Context) (*catalog.Catalog, error) {
	if cached, found := s.cache.Get(catalogCacheKey); found {
		s.log.Debug("Using cached data", "key", catalogCacheKey)
		return cached.(*catalog.Catalog), nil
	}

	rows, err := s.db.QueryContext(ctx, "SELECT name, address, city, price FROM station_prices ORDER BY id ASC")
	if err != nil {
		return nil, fmt.Errorf("error querying station prices: %w", err)
	}
	defer rows.Close()

	var stations []catalog.Station
	for rows.Next() {
		var st catalog.Station
		if err := rows.Scan(&st.Name, &st.Address, &st.City, &st.Price); err != nil {
			return nil, fmt.Errorf("error scanning station: %w", err)
		}
		stations = append(stations, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row error: %w", err)
	}

	c := catalog.New(stations)
	s.cache.Set(catalogCacheKey, c, cache.DefaultExpiration)

	return c, nil
}

// Load implements catalog.Source. Database errors yield an empty catalog.
func (s *Storage) Load(ctx context.Context) *catalog.Catalog {
	c, err := s.Catalog(ctx)
	if err != nil {
		s.log.Error("Failed to load catalog from database", "error", err)
		return catalog.Empty()
	}
	return c
}

func (s *Storage) StationCount(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM station_prices").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("error counting stations: %w", err)
	}
	return count, nil
}

// LastImportDate returns when the stored catalog was imported, or nil if
// nothing was imported yet.
func (s *Storage) LastImportDate(ctx context.Context) (*time.Time, error) {
	var dateStr sql.NullString
	err := s.db.QueryRowContext(ctx, "SELECT MAX(imported_at) FROM station_prices").Scan(&dateStr)
	if err != nil {
		return nil, fmt.Errorf("error querying last import date: %w", err)
	}
	if !dateStr.Valid {
		return nil, nil
	}

	lastImport, err := time.Parse(time.DateTime, dateStr.String)
	if err != nil {
		return nil, fmt.Errorf("error parsing date %s: %w", dateStr.String, err)
	}

	return &lastImport, nil
}

// LogRouteSearch counts a search between two cities. City names are case folded.
func (s *Storage) LogRouteSearch(ctx context.Context, startCity, endCity string) error {
	start := strings.ToLower(strings.TrimSpace(startCity))
	end := strings.ToLower(strings.TrimSpace(endCity))

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO route_searches (start_city, end_city)
		VALUES (?, ?)
		ON CONFLICT(start_city, end_city) DO UPDATE
		SET search_count = search_count + 1, last_search = CURRENT_TIMESTAMP
	`, start, end)
	if err != nil {
		return fmt.Errorf("error logging route search: %w", err)
	}

	return nil
}

// RouteSearch represents a row in the route_searches table
type RouteSearch struct {
	StartCity   string    `json:"start_city"`
	EndCity     string    `json:"end_city"`
	SearchCount int64     `json:"search_count"`
	LastSearch  time.Time `json:"last_search"`
}

// PopularRoutes returns the most searched city pairs, most popular first.
// A limit <= 0 uses the default limit.
func (s *Storage) PopularRoutes(ctx context.Context, limit int) ([]RouteSearch, error) {
	if limit <= 0 {
		limit = defaultPopularRoutesLimit
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT start_city, end_city, search_count, last_search
		FROM route_searches
		ORDER BY search_count DESC, last_search DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("error querying popular routes: %w", err)
	}
	defer rows.Close()

	routes := []RouteSearch{}
	for rows.Next() {
		var r RouteSearch
		if err := rows.Scan(&r.StartCity, &r.EndCity, &r.SearchCount, &r.LastSearch); err != nil {
			return nil, fmt.Errorf("error scanning route search: %w", err)
		}
		routes = append(routes, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return routes, nil
}

func configureSQLitePragmas(ctx context.Context, db *sql.DB, cacheSize int) error {
	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout = 10000;"); err != nil {
		return fmt.Errorf("error setting busy timeout: %w", err)
	}

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode = WAL;"); err != nil {
		return fmt.Errorf("error setting journal mode: %w", err)
	}

	if _, err := db.ExecContext(ctx, "PRAGMA synchronous = NORMAL;"); err != nil {
		return fmt.Errorf("error setting synchronous: %w", err)
	}

	if _, err := db.ExecContext(ctx, fmt.Sprintf("PRAGMA cache_size = %d;", cacheSize)); err != nil {
		return fmt.Errorf("error setting cache size: %w", err)
	}
	if _, err := db.ExecContext(ctx, fmt.Sprintf("PRAGMA page_size = %d;", defaultPageSize)); err != nil {
		return fmt.Errorf("error setting page size: %w", err)
	}
	return nil
}

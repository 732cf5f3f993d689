package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/jonwraymond/toolhub/weather"
)

var (
	// ErrUnknownSystem is returned for a system alias with no configured table.
	ErrUnknownSystem = errors.New("sqlite: unknown system")

	// ErrInvalidTable is returned for a table name that is not a plain
	// identifier.
	ErrInvalidTable = errors.New("sqlite: invalid table name")

	// ErrNotFound is returned when no record matches.
	ErrNotFound = errors.New("sqlite: record not found")
)

var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,62}$`)

const createTable = `
CREATE TABLE IF NOT EXISTS %[1]s (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	location TEXT NOT NULL,
	weather_date TEXT NOT NULL,
	current_weather TEXT NOT NULL DEFAULT '',
	temperature TEXT NOT NULL DEFAULT '',
	humidity TEXT NOT NULL DEFAULT '',
	wind TEXT NOT NULL DEFAULT '',
	forecast BLOB,
	forecast_encoding TEXT NOT NULL DEFAULT 'identity',
	forecast_digest TEXT NOT NULL DEFAULT '',
	source TEXT NOT NULL DEFAULT '',
	created_time TEXT NOT NULL,
	updated_time TEXT NOT NULL,
	UNIQUE (location, weather_date)
);
CREATE INDEX IF NOT EXISTS idx_%[1]s_location_date ON %[1]s (location, weather_date);
`

const timeLayout = time.RFC3339Nano

// Store archives weather records in SQLite, one table per system alias.
//
// Contract:
//   - Concurrency: safe for concurrent use.
//   - Save upserts by (location, weather_date): a second save on the same
//     day updates the row and keeps its created_time.
//   - Tables are created on first use.
type Store struct {
	db     *sql.DB
	codec  *codec
	tables map[string]string
	now    func() time.Time

	mu       sync.Mutex
	migrated map[string]bool
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the clock used for created/updated times.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// Open opens the database at path. systems maps a system alias to the table
// its records go in.
func Open(path string, systems map[string]string, opts ...Option) (*Store, error) {
	tables := make(map[string]string, len(systems))
	for alias, table := range systems {
		if !tableName.MatchString(table) {
			return nil, fmt.Errorf("%w: %q for system %q", ErrInvalidTable, table, alias)
		}
		tables[alias] = table
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open weather db: %w", err)
	}
	// SQLite serializes writers; a single connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	c, err := newCodec()
	if err != nil {
		db.Close()
		return nil, err
	}

	s := &Store{
		db:       db,
		codec:    c,
		tables:   tables,
		now:      time.Now,
		migrated: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Systems returns the configured aliases, sorted.
func (s *Store) Systems() []string {
	out := make([]string, 0, len(s.tables))
	for alias := range s.tables {
		out = append(out, alias)
	}
	sort.Strings(out)
	return out
}

// Save upserts rec into the table of system and reports whether a new row
// was created.
func (s *Store) Save(ctx context.Context, system string, rec weather.Record) (created bool, err error) {
	table, err := s.table(ctx, system)
	if err != nil {
		return false, err
	}

	raw, err := json.Marshal(rec.Forecast)
	if err != nil {
		return false, fmt.Errorf("encode forecast: %w", err)
	}
	payload, encoding, digest, err := s.codec.encode(raw)
	if err != nil {
		return false, err
	}
	now := s.now().UTC().Format(timeLayout)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin save: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var id int64
	err = tx.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT id FROM %s WHERE location = ? AND weather_date = ?`, table),
		rec.Location, rec.Date,
	).Scan(&id)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		_, err = tx.ExecContext(ctx, fmt.Sprintf(`INSERT INTO %s
			(location, weather_date, current_weather, temperature, humidity, wind,
			 forecast, forecast_encoding, forecast_digest, source, created_time, updated_time)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, table),
			rec.Location, rec.Date, rec.Current, rec.Temperature, rec.Humidity, rec.Wind,
			payload, encoding, digest, rec.Source, now, now)
		created = true
	case err == nil:
		_, err = tx.ExecContext(ctx, fmt.Sprintf(`UPDATE %s SET
			current_weather = ?, temperature = ?, humidity = ?, wind = ?,
			forecast = ?, forecast_encoding = ?, forecast_digest = ?, source = ?, updated_time = ?
			WHERE id = ?`, table),
			rec.Current, rec.Temperature, rec.Humidity, rec.Wind,
			payload, encoding, digest, rec.Source, now, id)
	}
	if err != nil {
		return false, fmt.Errorf("save weather record: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return false, fmt.Errorf("commit weather record: %w", err)
	}
	return created, nil
}

// Latest returns the most recent record for location.
func (s *Store) Latest(ctx context.Context, system, location string) (weather.Record, error) {
	recs, err := s.List(ctx, system, location, 1)
	if err != nil {
		return weather.Record{}, err
	}
	if len(recs) == 0 {
		return weather.Record{}, fmt.Errorf("%w: %s", ErrNotFound, location)
	}
	return recs[0], nil
}

// List returns up to limit records for location, newest date first. A
// limit of zero or less returns every record.
func (s *Store) List(ctx context.Context, system, location string, limit int) ([]weather.Record, error) {
	table, err := s.table(ctx, system)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`SELECT
		location, weather_date, current_weather, temperature, humidity, wind,
		forecast, forecast_encoding, forecast_digest, source, created_time, updated_time
		FROM %s WHERE location = ? ORDER BY weather_date DESC LIMIT ?`, table),
		location, limit)
	if err != nil {
		return nil, fmt.Errorf("list weather records: %w", err)
	}
	defer rows.Close()

	var out []weather.Record
	for rows.Next() {
		rec, err := s.scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *Store) scan(rows *sql.Rows) (weather.Record, error) {
	var (
		rec              weather.Record
		payload          []byte
		encoding, digest string
		created, updated string
	)
	if err := rows.Scan(&rec.Location, &rec.Date, &rec.Current, &rec.Temperature, &rec.Humidity, &rec.Wind,
		&payload, &encoding, &digest, &rec.Source, &created, &updated); err != nil {
		return weather.Record{}, fmt.Errorf("scan weather record: %w", err)
	}

	if len(payload) > 0 {
		raw, err := s.codec.decode(payload, encoding, digest)
		if err != nil {
			return weather.Record{}, fmt.Errorf("record %s/%s: %w", rec.Location, rec.Date, err)
		}
		if err := json.Unmarshal(raw, &rec.Forecast); err != nil {
			return weather.Record{}, fmt.Errorf("decode forecast: %w", err)
		}
	}
	rec.CreatedAt, _ = time.Parse(timeLayout, created)
	rec.UpdatedAt, _ = time.Parse(timeLayout, updated)
	return rec, nil
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close releases the database and codec.
func (s *Store) Close() error {
	s.codec.close()
	return s.db.Close()
}

// table resolves system to its table, creating it on first use.
func (s *Store) table(ctx context.Context, system string) (string, error) {
	table, ok := s.tables[system]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownSystem, system)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.migrated[table] {
		return table, nil
	}
	if _, err := s.db.ExecContext(ctx, fmt.Sprintf(createTable, table)); err != nil {
		return "", fmt.Errorf("migrate %s: %w", table, err)
	}
	s.migrated[table] = true
	return table, nil
}

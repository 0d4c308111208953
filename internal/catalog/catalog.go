// Package catalog keeps a SQLite index of recorded logs so sessions can be
// listed and looked up without scanning every file.
package catalog

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/banshee-data/vrtelemetry/internal/monitoring"
	"github.com/banshee-data/vrtelemetry/internal/recorder"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// ErrNotFound is returned by Get when no recording has the session id.
var ErrNotFound = errors.New("recording not found")

// Recording is one catalogued log.
type Recording struct {
	SessionID     uuid.UUID `json:"session_id"`
	Path          string    `json:"path"`
	Frames        int       `json:"frames"`
	Duration      float64   `json:"duration_s"`
	FirstTsMs     int64     `json:"first_ts_ms"`
	LastTsMs      int64     `json:"last_ts_ms"`
	CreatedMs     int64     `json:"created_ms"`
	WriterVersion string    `json:"writer_version"`
	Info          string    `json:"info"`
	Actors        []string  `json:"actors"`
	Corrupt       int       `json:"corrupt"`
}

// FromSummary builds the catalogue entry for a summarised log.
func FromSummary(s *recorder.Summary) Recording {
	return Recording{
		SessionID:     s.Header.SessionID,
		Path:          s.Path,
		Frames:        s.Frames,
		Duration:      s.Duration,
		FirstTsMs:     s.FirstTimestamp,
		LastTsMs:      s.LastTimestamp,
		CreatedMs:     s.Header.CreatedMs,
		WriterVersion: s.Header.WriterVersion,
		Info:          s.Header.Info,
		Actors:        s.Actors,
		Corrupt:       s.Corrupt,
	}
}

// Catalog is the recordings database.
type Catalog struct {
	*sql.DB
}

// Open opens (creating if needed) the catalogue at path and migrates it to
// the latest schema. Use ":memory:" for a private in-memory catalogue.
func Open(path string) (*Catalog, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// A single connection keeps ":memory:" databases shared across queries.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`PRAGMA busy_timeout = 5000`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set pragmas: %w", err)
	}
	c := &Catalog{db}
	if err := c.MigrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	return c, nil
}

func (c *Catalog) newMigrate() (*migrate.Migrate, error) {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to open embedded migrations: %w", err)
	}
	driver, err := sqlite.WithInstance(c.DB, &sqlite.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to create sqlite driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	m.Log = migrateLogger{}
	return m, nil
}

// MigrateUp applies every pending migration.
func (c *Catalog) MigrateUp() error {
	m, err := c.newMigrate()
	if err != nil {
		return err
	}
	// Closing m would close the shared connection.
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration up failed: %w", err)
	}
	return nil
}

// MigrateVersion returns the schema version, or 0 before any migration.
func (c *Catalog) MigrateVersion() (uint, bool, error) {
	m, err := c.newMigrate()
	if err != nil {
		return 0, false, err
	}
	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return version, dirty, err
}

type migrateLogger struct{}

func (migrateLogger) Printf(format string, v ...interface{}) {
	monitoring.Logf("[migrate] "+format, v...)
}

func (migrateLogger) Verbose() bool { return false }

// Add inserts r, replacing any entry with the same session id or path.
func (c *Catalog) Add(ctx context.Context, r Recording) error {
	_, err := c.ExecContext(ctx, `
		INSERT OR REPLACE INTO recordings (
			session_id, path, frames, duration_s, first_ts_ms, last_ts_ms,
			created_ms, writer_version, info, actors, corrupt
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.SessionID.String(), r.Path, r.Frames, r.Duration, r.FirstTsMs, r.LastTsMs,
		r.CreatedMs, r.WriterVersion, r.Info, strings.Join(r.Actors, ","), r.Corrupt,
	)
	if err != nil {
		return fmt.Errorf("failed to add recording %s: %w", r.Path, err)
	}
	return nil
}

// Register catalogues a summarised log.
func (c *Catalog) Register(ctx context.Context, s *recorder.Summary) error {
	if err := c.Add(ctx, FromSummary(s)); err != nil {
		return err
	}
	monitoring.Logf("[Catalog] registered %s (%d frames, %.1fs)", s.Path, s.Frames, s.Duration)
	return nil
}

const selectRecording = `
	SELECT session_id, path, frames, duration_s, first_ts_ms, last_ts_ms,
	       created_ms, writer_version, info, actors, corrupt
	FROM recordings`

type scanner interface {
	Scan(dest ...any) error
}

func scanRecording(row scanner) (Recording, error) {
	var (
		r      Recording
		id     string
		actors string
	)
	err := row.Scan(&id, &r.Path, &r.Frames, &r.Duration, &r.FirstTsMs, &r.LastTsMs,
		&r.CreatedMs, &r.WriterVersion, &r.Info, &actors, &r.Corrupt)
	if err != nil {
		return r, err
	}
	if r.SessionID, err = uuid.Parse(id); err != nil {
		return r, fmt.Errorf("bad session id %q: %w", id, err)
	}
	if actors != "" {
		r.Actors = strings.Split(actors, ",")
	}
	return r, nil
}

// Get returns the recording with the given session id.
func (c *Catalog) Get(ctx context.Context, id uuid.UUID) (Recording, error) {
	row := c.QueryRowContext(ctx, selectRecording+` WHERE session_id = ?`, id.String())
	r, err := scanRecording(row)
	if errors.Is(err, sql.ErrNoRows) {
		return r, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return r, err
}

// List returns every recording, newest first.
func (c *Catalog) List(ctx context.Context) ([]Recording, error) {
	rows, err := c.QueryContext(ctx, selectRecording+` ORDER BY created_ms DESC, path`)
	if err != nil {
		return nil, fmt.Errorf("failed to list recordings: %w", err)
	}
	defer rows.Close()

	var out []Recording
	for rows.Next() {
		r, err := scanRecording(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Remove deletes the entry for path. Removing an unknown path is a no-op.
func (c *Catalog) Remove(ctx context.Context, path string) error {
	_, err := c.ExecContext(ctx, `DELETE FROM recordings WHERE path = ?`, path)
	return err
}

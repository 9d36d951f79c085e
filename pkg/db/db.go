// pkg/db/db.go
package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"  // PostgreSQL driver
	_ "modernc.org/sqlite" // SQLite driver
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// sqlitePragmas are applied to every SQLite connection.
const sqlitePragmas = "_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"

// Config holds database connection configuration.
type Config struct {
	// URI is postgres://..., postgresql://... or sqlite://<path>.
	URI          string
	MaxOpenConns int
}

// ParseURI resolves a storage URI into a database/sql driver name and DSN.
func ParseURI(uri string) (driver, dsn string, err error) {
	uri = strings.TrimSpace(uri)
	switch {
	case strings.HasPrefix(uri, "postgres://"), strings.HasPrefix(uri, "postgresql://"):
		return DriverPostgres, uri, nil
	case strings.HasPrefix(uri, "sqlite://"):
		path := strings.TrimPrefix(uri, "sqlite://")
		if path == "" {
			return "", "", fmt.Errorf("storage uri %q has no sqlite path", uri)
		}
		sep := "?"
		if strings.Contains(path, "?") {
			sep = "&"
		}
		return DriverSQLite, path + sep + sqlitePragmas, nil
	default:
		return "", "", fmt.Errorf("unsupported storage uri scheme in %q", redact(uri))
	}
}

// Open connects to the database named by cfg.URI, verifies the connection
// and applies the schema.
func Open(ctx context.Context, cfg Config) (*sqlx.DB, error) {
	driver, dsn, err := ParseURI(cfg.URI)
	if err != nil {
		return nil, err
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", driver, err)
	}

	maxOpen := cfg.MaxOpenConns
	if maxOpen <= 0 {
		maxOpen = 25
	}
	if driver == DriverSQLite {
		// A single writer connection serializes transactions instead of
		// surfacing SQLITE_BUSY to callers.
		maxOpen = 1
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(min(maxOpen, 10))
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err = db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping %s database: %w", driver, err)
	}

	if err := Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

// redact drops credentials from a URI before it reaches an error message.
func redact(uri string) string {
	scheme, rest, ok := strings.Cut(uri, "://")
	if !ok {
		return "<invalid>"
	}
	if at := strings.LastIndex(rest, "@"); at >= 0 {
		rest = "***@" + rest[at+1:]
	}
	return scheme + "://" + rest
}

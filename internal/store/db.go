package store

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"modernc.org/sqlite"
)

const sqlitePrefix = "sqlite:"

// Open connects to the identity database. URLs starting with "sqlite:" open
// an embedded SQLite database (e.g. "sqlite::memory:"); anything else is
// handed to the pgx driver.
func Open(ctx context.Context, databaseURL string) (*sql.DB, error) {
	driver, dsn := driverFor(databaseURL)
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if driver == "sqlite" {
		// every new connection to :memory: is a fresh database
		db.SetMaxOpenConns(1)
	} else {
		db.SetConnMaxIdleTime(5 * time.Minute)
		db.SetConnMaxLifetime(30 * time.Minute)
		db.SetMaxIdleConns(10)
		db.SetMaxOpenConns(20)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	return db, nil
}

func driverFor(databaseURL string) (driver, dsn string) {
	trimmed := strings.TrimSpace(databaseURL)
	if strings.HasPrefix(trimmed, sqlitePrefix) {
		return "sqlite", strings.TrimPrefix(trimmed, sqlitePrefix)
	}
	return "pgx", trimmed
}

var placeholderPattern = regexp.MustCompile(`\$\d+`)

// rebind rewrites Postgres-style $N placeholders for SQLite. Queries must use
// each placeholder once, in ascending order.
func rebind(db *sql.DB, query string) string {
	if _, ok := db.Driver().(*sqlite.Driver); ok {
		return placeholderPattern.ReplaceAllString(query, "?")
	}
	return query
}

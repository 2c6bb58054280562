package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"

	"clarifier/internal/platform/config"
)

const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "pgx"
)

//go:embed migrations
var migrations embed.FS

// Open connects to the durable store and verifies it with a ping.
// Postgres URLs select the pgx driver regardless of the configured driver.
func Open(cfg config.DatabaseConfig) (*sql.DB, string, error) {
	driver := cfg.Driver
	dsn := cfg.URL
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		driver = DriverPostgres
	}
	if driver == "" {
		driver = DriverSQLite
	}
	if driver == DriverSQLite && strings.HasPrefix(dsn, "file:") && !strings.Contains(dsn, "?") {
		dsn = dsn[5:]
	}
	if driver == DriverSQLite && dsn != ":memory:" && !strings.HasPrefix(dsn, "file:") {
		file, _, _ := strings.Cut(dsn, "?")
		if err := os.MkdirAll(filepath.Dir(file), 0755); err != nil {
			return nil, "", fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, "", err
	}

	maxConns := cfg.MaxConnections
	if maxConns <= 0 {
		maxConns = 10
	}
	db.SetMaxOpenConns(maxConns)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, "", err
	}

	return db, driver, nil
}

// Migrate applies the embedded schema for driver. Every statement is
// idempotent so it is safe to run on each start.
func Migrate(ctx context.Context, db *sql.DB, driver string) error {
	dir := path.Join("migrations", driver)
	entries, err := migrations.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("no migrations for driver %q: %w", driver, err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".sql") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		content, err := migrations.ReadFile(path.Join(dir, name))
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", name, err)
		}
		for _, stmt := range strings.Split(string(content), ";") {
			stmt = strings.TrimSpace(stmt)
			if stmt == "" {
				continue
			}
			if _, err := db.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("failed to execute migration %s: %w", name, err)
			}
		}
	}
	return nil
}

// Rebind rewrites ? placeholders into $n for drivers that need it.
func Rebind(driver, query string) string {
	if driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

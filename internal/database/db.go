package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/iliyamo/coworking-reservation/internal/config"
)

// Open connects to the configured store, verifies the connection and makes
// sure the schema exists.  The handle is meant to be opened once per process
// and closed on shutdown.
func Open(cfg *config.Config) (*sql.DB, Dialect, error) {
	switch cfg.DBDriver {
	case config.DriverMySQL:
		db, err := OpenMySQL(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
		return finish(db, MySQL, err)
	case config.DriverPostgres:
		db, err := OpenPostgres(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName, cfg.DBSSLMode)
		return finish(db, Postgres, err)
	case config.DriverSQLite:
		db, err := OpenSQLite(cfg.DBPath)
		return finish(db, SQLite, err)
	}
	return nil, "", fmt.Errorf("unsupported driver %q", cfg.DBDriver)
}

func finish(db *sql.DB, d Dialect, err error) (*sql.DB, Dialect, error) {
	if err != nil {
		return nil, "", err
	}
	if err := Migrate(context.Background(), db, d); err != nil {
		if cerr := db.Close(); cerr != nil {
			return nil, "", errors.Join(err, cerr)
		}
		return nil, "", err
	}
	return db, d, nil
}

// OpenMySQL connects to MySQL and verifies the connection.
func OpenMySQL(user, pass, host, port, name string) (*sql.DB, error) {
	auth := user
	if pass != "" {
		auth = fmt.Sprintf("%s:%s", user, pass)
	}
	// parseTime=true -> DATETIME -> time.Time | loc=UTC keeps times consistent
	// clientFoundRows=true -> RowsAffected counts matched rows, like the other drivers
	dsn := fmt.Sprintf("%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=UTC&clientFoundRows=true",
		auth, host, port, name)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}

	// Pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(30 * time.Minute)

	return ping(db)
}

// OpenPostgres connects through the pgx database/sql driver.
func OpenPostgres(user, pass, host, port, name, sslmode string) (*sql.DB, error) {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(user, pass),
		Host:     host + ":" + port,
		Path:     "/" + name,
		RawQuery: "sslmode=" + url.QueryEscape(sslmode),
	}
	db, err := sql.Open("pgx", u.String())
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	return ping(db)
}

// OpenSQLite opens (creating when needed) a SQLite file.  SQLite allows one
// writer at a time, so the pool is pinned to a single connection: every
// transaction runs to completion before the next begins.  Transactions
// begin IMMEDIATE so that a second process sharing the file waits on
// busy_timeout at BEGIN instead of failing when it first writes.
func OpenSQLite(path string) (*sql.DB, error) {
	dbPath := filepath.Clean(path)
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, err
		}
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_txlock=immediate", dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	return ping(db)
}

func ping(db *sql.DB) (*sql.DB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

package store

import (
	"database/sql"
	_ "embed"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// ledgerVersion is stamped into PRAGMA user_version of every ledger this
// build creates. A ledger with a higher version was written by a newer hpp.
const ledgerVersion = 1

// dsnParams configures every pooled connection.
const dsnParams = "?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000&_foreign_keys=on"

// ErrNewerLedger is returned when a ledger carries a version this build
// does not know.
var ErrNewerLedger = errors.New("ledger was written by a newer version of hpp")

// Store is the run ledger: every assembly run and the files it read.
type Store struct {
	db *sql.DB
}

// Open opens the ledger at path, creating the file and its tables if needed.
// Opening an existing ledger leaves its runs untouched.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+dsnParams)
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("open ledger: %w", err)
	}

	// Runs are recorded by one writer; a single connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := initLedger(db); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the ledger.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// initLedger checks the ledger version, then creates the run and load
// tables and stamps the version.
func initLedger(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read ledger version: %w", err)
	}
	if version > ledgerVersion {
		return fmt.Errorf("%w (version %d, supported %d)", ErrNewerLedger, version, ledgerVersion)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("create ledger tables: %w", err)
	}

	if version < ledgerVersion {
		if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", ledgerVersion)); err != nil {
			return fmt.Errorf("stamp ledger version: %w", err)
		}
	}
	return nil
}

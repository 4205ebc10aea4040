package addressbook

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/trebuchet-org/sling/internal/usecase"

	_ "modernc.org/sqlite"
)

// SQLiteStore keeps every network's book in one SQLite database
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore opens (and creates) the database at path
func NewSQLiteStore(ctx context.Context, path string, logger *slog.Logger) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	s := &SQLiteStore{db: db, logger: logger.With("component", "addressbook-sqlite")}
	if err := s.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Migrate creates the schema
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS addresses (
		network TEXT NOT NULL,
		name TEXT NOT NULL,
		address TEXT NOT NULL,
		created_at TEXT NOT NULL,
		PRIMARY KEY (network, name)
	);
	`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	return nil
}

// Open loads the book of network
func (s *SQLiteStore) Open(ctx context.Context, network string) (usecase.AddressBook, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, address FROM addresses WHERE network = ?`, network)
	if err != nil {
		return nil, fmt.Errorf("querying addresses: %w", err)
	}
	defer rows.Close()

	entries := make(map[string]common.Address)
	for rows.Next() {
		var name, hex string
		if err := rows.Scan(&name, &hex); err != nil {
			return nil, fmt.Errorf("scanning address: %w", err)
		}
		if !common.IsHexAddress(hex) {
			return nil, fmt.Errorf("invalid address %q for %s on %s", hex, name, network)
		}
		entries[name] = common.HexToAddress(hex)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading addresses: %w", err)
	}

	s.logger.Debug("opened address book", "network", network, "entries", len(entries))
	return newBook(network, entries, s), nil
}

func (s *SQLiteStore) put(ctx context.Context, network, name string, address common.Address, _ map[string]common.Address) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO addresses (network, name, address, created_at) VALUES (?, ?, ?, ?)`,
		network, name, address.Hex(), time.Now().UTC().Format(time.RFC3339))
	return err
}

func (s *SQLiteStore) remove(ctx context.Context, network, name string, _ map[string]common.Address) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM addresses WHERE network = ? AND name = ?`, network, name)
	return err
}

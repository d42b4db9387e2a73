package crypto

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// storeSchemaVersion is bumped when the key record shape changes. Records
// written by an incompatible version are dropped on load, never migrated
// in place: the user re-signs and the key is re-derived.
const storeSchemaVersion = 1

// Store persists the single active encryption identity in a local SQLite
// database. At most one record exists at a time.
type Store struct {
	db   *sql.DB
	path string
}

// KeyRecord is the serializable form of the active encryption identity.
type KeyRecord struct {
	KeyMaterial   []byte
	WalletAddress string
	CreatedAt     time.Time
}

// NewStore creates a store backed by the SQLite database at path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Open establishes the database connection and creates the schema.
func (s *Store) Open() error {
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("failed to create store directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return fmt.Errorf("failed to open key store: %w", err)
	}

	// WAL keeps concurrent readers cheap; the store is tiny either way.
	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to enable WAL: %w", err)
	}
	_, _ = db.Exec("PRAGMA synchronous=NORMAL;")

	schema := `
	CREATE TABLE IF NOT EXISTS encryption_key (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		key_material BLOB NOT NULL,
		wallet_address TEXT NOT NULL,
		schema_version INTEGER NOT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to create key store schema: %w", err)
	}

	s.db = db
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Save upserts the key record, overwriting any prior identity. Only one
// identity is active at a time.
func (s *Store) Save(material []byte, walletAddress string) error {
	if s.db == nil {
		return errors.New("key store is not open")
	}
	if len(material) != KeySize {
		return fmt.Errorf("key material must be %d bytes, got %d", KeySize, len(material))
	}

	_, err := s.db.Exec(`
		INSERT INTO encryption_key (id, key_material, wallet_address, schema_version, created_at)
		VALUES (1, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			key_material = excluded.key_material,
			wallet_address = excluded.wallet_address,
			schema_version = excluded.schema_version,
			created_at = excluded.created_at
	`, material, strings.ToLower(walletAddress), storeSchemaVersion, time.Now())
	if err != nil {
		return fmt.Errorf("failed to save key record: %w", err)
	}
	return nil
}

// Load returns the stored key record, or (nil, nil) when no usable record
// exists. Records written by an incompatible schema version are deleted and
// treated as absent rather than surfaced as errors.
func (s *Store) Load() (*KeyRecord, error) {
	if s.db == nil {
		return nil, nil
	}

	var rec KeyRecord
	var version int
	err := s.db.QueryRow(`
		SELECT key_material, wallet_address, schema_version, created_at
		FROM encryption_key WHERE id = 1
	`).Scan(&rec.KeyMaterial, &rec.WalletAddress, &version, &rec.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load key record: %w", err)
	}

	if version != storeSchemaVersion || len(rec.KeyMaterial) != KeySize {
		_ = s.Clear()
		return nil, nil
	}

	return &rec, nil
}

// Clear deletes the key record. Idempotent: clearing an empty store is not
// an error.
func (s *Store) Clear() error {
	if s.db == nil {
		return nil
	}
	if _, err := s.db.Exec(`DELETE FROM encryption_key WHERE id = 1`); err != nil {
		return fmt.Errorf("failed to clear key record: %w", err)
	}
	return nil
}

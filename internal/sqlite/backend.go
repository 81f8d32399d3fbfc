// Package sqlite implements the Backend interface on a local SQLite
// database. This is the local-first backend family: entities carry
// hash-prefixed identifiers ("et-a1b2c3d4") generated on creation and
// never reused.
package sqlite

import (
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// DBFileName is the database file created inside the data directory.
const DBFileName = "tether.db"

// idPrefix marks identifiers of this backend family.
const idPrefix = "et-"

// Backend persists entities and links in a SQLite database file.
type Backend struct {
	db  *sql.DB
	log *zap.Logger
}

// Open creates the data directory if needed, opens the database, and
// applies the schema. The caller must Close the returned backend.
func Open(dataDir string, log *zap.Logger) (*Backend, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	dbPath := filepath.Join(dataDir, DBFileName)
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	log.Debug("sqlite backend opened", zap.String("path", dbPath))
	return &Backend{db: db, log: log}, nil
}

// Close releases the database handle. Idempotent.
func (b *Backend) Close() error {
	if b.db == nil {
		return nil
	}
	err := b.db.Close()
	b.db = nil
	return err
}

// newEntityID returns a fresh hash-prefixed identifier. The token is the
// random tail of a UUID v7, so collisions across a database are
// vanishingly rare; the insert path still retries on a primary-key clash.
func newEntityID() string {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	s := id.String()
	return idPrefix + s[len(s)-8:]
}

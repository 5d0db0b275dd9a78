// Package htlcstore provides durable, SQLite-backed storage for HTLC
// records, their operation audit log, the relayer's UTXO inventory, and
// per-chain indexer checkpoints.
package htlcstore

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Store provides persistent storage for HTLC lifecycle state.
type Store struct {
	db     *sql.DB
	dbPath string
	mu     sync.RWMutex
}

// Config holds store configuration.
type Config struct {
	// DataDir is the directory the SQLite file lives in. Ignored if
	// DatabaseURL is set to ":memory:".
	DataDir string
	// DatabaseURL overrides DataDir entirely when non-empty; pass
	// ":memory:" for an in-memory database.
	DatabaseURL string
}

// New opens (and if necessary creates) the HTLC store.
func New(cfg *Config) (*Store, error) {
	var dsn string
	var dbPath string

	switch {
	case cfg.DatabaseURL == ":memory:":
		dbPath = ":memory:"
		dsn = "file::memory:?mode=memory&cache=shared"
	case cfg.DatabaseURL != "":
		dbPath = cfg.DatabaseURL
		dsn = cfg.DatabaseURL + "?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000"
	default:
		dataDir := expandPath(cfg.DataDir)
		if err := os.MkdirAll(dataDir, 0700); err != nil {
			return nil, fmt.Errorf("htlcstore: failed to create data directory: %w", err)
		}
		dbPath = filepath.Join(dataDir, "zcash-htlc.db")
		dsn = dbPath + "?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("htlcstore: failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("htlcstore: failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite only supports one writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	s := &Store{db: db, dbPath: dbPath}

	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("htlcstore: failed to initialize schema: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying database connection, for callers that need
// direct access (migrations, diagnostics).
func (s *Store) DB() *sql.DB {
	return s.db
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS zcash_htlcs (
		id TEXT PRIMARY KEY,
		p2sh_address TEXT NOT NULL,
		hash_lock TEXT NOT NULL,
		recipient_pubkey TEXT NOT NULL,
		refund_pubkey TEXT NOT NULL,
		timelock INTEGER NOT NULL,
		amount TEXT NOT NULL,
		redeem_script_hex TEXT NOT NULL,
		network TEXT NOT NULL,
		state INTEGER NOT NULL DEFAULT 0,
		txid TEXT,
		vout INTEGER,
		secret TEXT,
		signed_redeem_tx TEXT,
		recipient_address TEXT,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_htlcs_state ON zcash_htlcs(state);
	CREATE INDEX IF NOT EXISTS idx_htlcs_txid ON zcash_htlcs(txid);
	CREATE INDEX IF NOT EXISTS idx_htlcs_hash_lock ON zcash_htlcs(hash_lock);
	CREATE INDEX IF NOT EXISTS idx_htlcs_timelock ON zcash_htlcs(timelock);

	CREATE TABLE IF NOT EXISTS htlc_operations (
		id TEXT PRIMARY KEY,
		htlc_id TEXT NOT NULL,
		type TEXT NOT NULL,
		raw_tx_hex TEXT,
		signed_tx_hex TEXT,
		txid TEXT,
		status TEXT NOT NULL DEFAULT 'pending',
		broadcast_at INTEGER,
		confirmed_at INTEGER,
		block_height INTEGER,
		error_message TEXT,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL,
		FOREIGN KEY (htlc_id) REFERENCES zcash_htlcs(id)
	);

	CREATE INDEX IF NOT EXISTS idx_operations_htlc ON htlc_operations(htlc_id);
	CREATE INDEX IF NOT EXISTS idx_operations_status ON htlc_operations(status);

	CREATE TABLE IF NOT EXISTS relayer_utxos (
		id TEXT PRIMARY KEY,
		txid TEXT NOT NULL,
		vout INTEGER NOT NULL,
		amount TEXT NOT NULL,
		script_pubkey TEXT NOT NULL,
		confirmations INTEGER NOT NULL DEFAULT 0,
		address TEXT NOT NULL,
		spent INTEGER NOT NULL DEFAULT 0,
		spent_in_tx TEXT,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL,
		UNIQUE(txid, vout)
	);

	CREATE INDEX IF NOT EXISTS idx_relayer_utxos_address ON relayer_utxos(address);
	CREATE INDEX IF NOT EXISTS idx_relayer_utxos_spent ON relayer_utxos(spent);

	CREATE TABLE IF NOT EXISTS indexer_checkpoints (
		chain TEXT PRIMARY KEY,
		block_height INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

func expandPath(path string) string {
	if len(path) > 0 && path[0] == '~' {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[1:])
	}
	return path
}

func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
</content>
</invoke>

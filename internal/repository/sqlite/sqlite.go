// Package sqlite implements the repository interfaces on an embedded SQLite
// database.
//
// We use modernc.org/sqlite (a pure-Go translation of SQLite) rather than
// mattn/go-sqlite3, so the binary builds without CGo and cross-compiles
// cleanly. The driver registers itself with database/sql under the name
// "sqlite" via the blank import below.
package sqlite

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB pool and carries all repository methods. It is created
// once in main, handed to the services as the repository interfaces, and
// closed on shutdown.
type DB struct {
	conn *sql.DB
}

// New opens the database at dbPath (":memory:" for tests), applies pragmas,
// and runs migrations.
//
// The pragmas travel in the DSN, not a one-off Exec: both are per-connection
// state in SQLite, and database/sql is a pool. A connection opened later
// would miss an Exec'd pragma and run without foreign keys, which are the
// only guard on the donor_id/listing_id/requester_id references. WAL allows
// concurrent reads while a write is in flight, which a web server needs.
func New(dbPath string) (*DB, error) {
	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"

	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// An in-memory database exists per connection; a second pool connection
	// would see an empty schema. One connection keeps tests on the database
	// they migrated.
	if dbPath == ":memory:" {
		conn.SetMaxOpenConns(1)
	}

	// Surface a bad path or permissions problem now instead of on the
	// first query.
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the connection pool. Callers should defer this right after New.
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates the schema. CREATE TABLE IF NOT EXISTS keeps this safe to
// run on every start; a real migration tool can replace it once the schema
// starts evolving.
func (db *DB) migrate() error {
	// users mirrors the login provider's accounts. The id is the
	// provider's subject claim, which is why it is TEXT.
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id                TEXT PRIMARY KEY,
			email             TEXT NOT NULL DEFAULT '',
			first_name        TEXT NOT NULL DEFAULT '',
			last_name         TEXT NOT NULL DEFAULT '',
			profile_image_url TEXT NOT NULL DEFAULT '',
			created_at        DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at        DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS listings (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			donor_id    TEXT NOT NULL REFERENCES users(id),
			title       TEXT NOT NULL,
			description TEXT NOT NULL,
			quantity    TEXT NOT NULL,
			location    TEXT NOT NULL,
			image_url   TEXT,
			status      TEXT NOT NULL DEFAULT 'available'
			            CHECK (status IN ('available', 'reserved', 'completed')),
			expires_at  DATETIME NOT NULL,
			created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_listings_status_created
			ON listings(status, created_at);
	`)
	if err != nil {
		return fmt.Errorf("creating listings table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS requests (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			listing_id   INTEGER NOT NULL REFERENCES listings(id),
			requester_id TEXT NOT NULL REFERENCES users(id),
			status       TEXT NOT NULL DEFAULT 'pending'
			             CHECK (status IN ('pending', 'approved', 'rejected', 'completed')),
			message      TEXT,
			created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_requests_requester ON requests(requester_id);
		CREATE INDEX IF NOT EXISTS idx_requests_listing ON requests(listing_id);
	`)
	if err != nil {
		return fmt.Errorf("creating requests table: %w", err)
	}

	return nil
}

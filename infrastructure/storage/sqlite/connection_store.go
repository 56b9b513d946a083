package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"
)

// StoredConnection is a saved connection profile. Passwords are never
// persisted; they are resolved from the environment at dial time.
type StoredConnection struct {
	ID       string
	Name     string
	Host     string
	Port     int
	Username string
	DB       int
	UseTLS   bool
}

// Store errors.
var (
	ErrConnectionExists   = errors.New("connection already saved")
	ErrConnectionNotFound = errors.New("saved connection not found")
	ErrInvalidConnID      = errors.New("invalid connection id")
)

// ConnectionStore is a SQLite-backed store of saved connection profiles.
type ConnectionStore struct {
	db *sql.DB
}

// NewConnectionStore creates a connection store with the given
// configuration.
func NewConnectionStore(cfg Config, opts ...Option) (*ConnectionStore, error) {
	for _, opt := range opts {
		opt(&cfg)
	}

	db, err := openDB(cfg)
	if err != nil {
		return nil, err
	}

	s := &ConnectionStore{db: db}

	if cfg.AutoMigrate {
		if err := s.migrate(); err != nil {
			_ = db.Close()
			return nil, err
		}
	}

	return s, nil
}

// NewConnectionStoreFromDB creates a store from an existing database
// connection.
func NewConnectionStoreFromDB(db *sql.DB) (*ConnectionStore, error) {
	s := &ConnectionStore{db: db}

	if err := s.migrate(); err != nil {
		return nil, err
	}

	return s, nil
}

// migrate creates the connections table if it doesn't exist.
func (s *ConnectionStore) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS connections (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			host TEXT NOT NULL,
			port INTEGER NOT NULL,
			username TEXT,
			db INTEGER NOT NULL DEFAULT 0,
			use_tls INTEGER NOT NULL DEFAULT 0,
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_connections_name ON connections(name);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return errors.Join(ErrMigrationFailed, err)
	}
	return nil
}

// Save persists a new connection profile.
func (s *ConnectionStore) Save(ctx context.Context, conn StoredConnection) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if conn.ID == "" {
		return ErrInvalidConnID
	}

	now := time.Now().Unix()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO connections (id, name, host, port, username, db, use_tls, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		conn.ID, conn.Name, conn.Host, conn.Port, conn.Username, conn.DB, boolToInt(conn.UseTLS), now, now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConnectionExists
		}
		return err
	}
	return nil
}

// Get retrieves a saved connection by ID.
func (s *ConnectionStore) Get(ctx context.Context, id string) (StoredConnection, error) {
	if err := ctx.Err(); err != nil {
		return StoredConnection{}, err
	}
	if id == "" {
		return StoredConnection{}, ErrInvalidConnID
	}

	var (
		conn StoredConnection
		tls  int
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, host, port, username, db, use_tls FROM connections WHERE id = ?",
		id,
	).Scan(&conn.ID, &conn.Name, &conn.Host, &conn.Port, &conn.Username, &conn.DB, &tls)

	if errors.Is(err, sql.ErrNoRows) {
		return StoredConnection{}, ErrConnectionNotFound
	}
	if err != nil {
		return StoredConnection{}, err
	}

	conn.UseTLS = tls != 0
	return conn, nil
}

// List returns all saved connections ordered by name.
func (s *ConnectionStore) List(ctx context.Context) ([]StoredConnection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, host, port, username, db, use_tls FROM connections ORDER BY name",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var conns []StoredConnection
	for rows.Next() {
		var (
			conn StoredConnection
			tls  int
		)
		if err := rows.Scan(&conn.ID, &conn.Name, &conn.Host, &conn.Port, &conn.Username, &conn.DB, &tls); err != nil {
			return nil, err
		}
		conn.UseTLS = tls != 0
		conns = append(conns, conn)
	}
	return conns, rows.Err()
}

// Remove deletes a saved connection. Returns whether a row was removed.
func (s *ConnectionStore) Remove(ctx context.Context, id string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if id == "" {
		return false, ErrInvalidConnID
	}

	result, err := s.db.ExecContext(ctx, "DELETE FROM connections WHERE id = ?", id)
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Close closes the underlying database.
func (s *ConnectionStore) Close() error {
	return s.db.Close()
}

// boolToInt stores booleans as SQLite integers.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// isUniqueViolation detects primary-key conflicts without depending on
// driver-specific error types.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

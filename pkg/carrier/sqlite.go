package carrier

import (
	"database/sql"
	"time"

	"github.com/cockroachdb/errors"
	_ "github.com/mattn/go-sqlite3"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS wizard_state (
    namespace  TEXT     NOT NULL,
    key        TEXT     NOT NULL,
    value      BLOB     NOT NULL,
    updated_at DATETIME NOT NULL,
    PRIMARY KEY (namespace, key)
);`

// SQLiteStore keeps values in a SQLite database, one row per key.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLiteStore opens (or creates) the database at path and ensures the
// state table exists.
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrapf(err, "carrier: open sqlite %s", path)
	}
	// A single connection keeps ":memory:" databases coherent and serializes
	// writers the same way a file lock would.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "carrier: create wizard_state table")
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Load implements Store.
func (s *SQLiteStore) Load(namespace, key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRow(
		`SELECT value FROM wizard_state WHERE namespace = ? AND key = ?`,
		namespace, key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotSet
	}
	if err != nil {
		return nil, errors.Wrapf(err, "carrier: select %s/%s", namespace, key)
	}
	return value, nil
}

// Save implements Store.
func (s *SQLiteStore) Save(namespace, key string, value []byte) error {
	_, err := s.db.Exec(
		`INSERT INTO wizard_state (namespace, key, value, updated_at) VALUES (?, ?, ?, ?)
         ON CONFLICT(namespace, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		namespace, key, value, time.Now().UTC(),
	)
	if err != nil {
		return errors.Wrapf(err, "carrier: upsert %s/%s", namespace, key)
	}
	return nil
}

// Delete implements Store.
func (s *SQLiteStore) Delete(namespace, key string) error {
	_, err := s.db.Exec(`DELETE FROM wizard_state WHERE namespace = ? AND key = ?`, namespace, key)
	if err != nil {
		return errors.Wrapf(err, "carrier: delete %s/%s", namespace, key)
	}
	return nil
}

// Wipe implements Store.
func (s *SQLiteStore) Wipe(namespace string) error {
	_, err := s.db.Exec(`DELETE FROM wizard_state WHERE namespace = ?`, namespace)
	if err != nil {
		return errors.Wrapf(err, "carrier: wipe %s", namespace)
	}
	return nil
}

// Keys implements Store.
func (s *SQLiteStore) Keys(namespace string) ([]string, error) {
	rows, err := s.db.Query(`SELECT key FROM wizard_state WHERE namespace = ? ORDER BY key`, namespace)
	if err != nil {
		return nil, errors.Wrapf(err, "carrier: list keys %s", namespace)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, errors.Wrap(err, "carrier: scan key")
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

var _ Store = (*SQLiteStore)(nil)

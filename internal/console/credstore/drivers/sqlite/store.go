// Package sqlite provides a credential store on a SQLite file. Installations
// that already keep other console state in SQLite point `--store sqlite` at
// the same file.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/josearnulfoborja/inventarioplus-console/internal/console/credstore"
	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB
}

var _ credstore.Store = (*Store)(nil)

// NewStore opens the database at dsn. Callers must run ApplyMigrations
// before first use.
func NewStore(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening credential db: %w", err)
	}

	// Serialize writers; the store may be shared with another console process.
	if _, err := db.ExecContext(context.Background(), `PRAGMA busy_timeout = 5000;`); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Token() (string, error) {
	return s.get(credstore.KeyToken)
}

func (s *Store) Profile() (*credstore.Profile, error) {
	data, err := s.get(credstore.KeyProfile)
	if err != nil {
		return nil, err
	}
	return credstore.DecodeProfile([]byte(data))
}

// Set writes token and profile in one transaction, overwriting any prior
// session unconditionally.
func (s *Store) Set(token string, profile *credstore.Profile) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback() // safe to call even after commit
	}()

	if err := upsert(tx, credstore.KeyToken, []byte(token)); err != nil {
		return err
	}

	if profile == nil {
		// No stale snapshot may outlive the session it belonged to.
		if _, err := tx.Exec(`DELETE FROM credentials WHERE key = ?`, credstore.KeyProfile); err != nil {
			return err
		}
		return tx.Commit()
	}

	data, err := credstore.EncodeProfile(profile)
	if err != nil {
		return err
	}
	if err := upsert(tx, credstore.KeyProfile, data); err != nil {
		return err
	}

	return tx.Commit()
}

// Clear removes both keys in one statement.
func (s *Store) Clear() error {
	_, err := s.db.Exec(
		`DELETE FROM credentials WHERE key IN (?, ?)`,
		credstore.KeyToken, credstore.KeyProfile,
	)
	return err
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) get(key string) (string, error) {
	var value []byte
	err := s.db.QueryRow(`SELECT value FROM credentials WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", credstore.ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return string(value), nil
}

func upsert(tx *sql.Tx, key string, value []byte) error {
	_, err := tx.Exec(`
		INSERT INTO credentials (key, value, updated_at)
		VALUES (?, ?, strftime('%Y-%m-%dT%H:%M:%fZ', 'now'))
		ON CONFLICT (key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at
	`, key, value)
	return err
}

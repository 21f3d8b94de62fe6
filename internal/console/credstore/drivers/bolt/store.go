// Package bolt provides a file-backed credential store on bbolt. It is the
// console's default: a single small db file in the user's data directory
// plays the role the browser's origin-scoped localStorage played.
package bolt

import (
	"fmt"

	"github.com/josearnulfoborja/inventarioplus-console/internal/console/credstore"
	"go.etcd.io/bbolt"
)

var bucket = []byte("credentials")

type Store struct {
	db *bbolt.DB
}

var _ credstore.Store = (*Store)(nil)

// NewStore opens (or creates) the credential database at path.
func NewStore(path string) (*Store, error) {
	db, err := bbolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("opening credential db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initializing credential bucket: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Token() (string, error) {
	var token []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(bucket).Get([]byte(credstore.KeyToken))
		if v == nil {
			return credstore.ErrNotFound
		}
		// Value is only valid inside the transaction.
		token = append([]byte(nil), v...)
		return nil
	})
	if err != nil {
		return "", err
	}
	return string(token), nil
}

func (s *Store) Profile() (*credstore.Profile, error) {
	var data []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(bucket).Get([]byte(credstore.KeyProfile))
		if v == nil {
			return credstore.ErrNotFound
		}
		data = append([]byte(nil), v...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return credstore.DecodeProfile(data)
}

// Set writes token and profile in one transaction, overwriting any prior
// session unconditionally.
func (s *Store) Set(token string, profile *credstore.Profile) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucket)
		if err := b.Put([]byte(credstore.KeyToken), []byte(token)); err != nil {
			return err
		}

		if profile == nil {
			return b.Delete([]byte(credstore.KeyProfile))
		}

		data, err := credstore.EncodeProfile(profile)
		if err != nil {
			return err
		}
		return b.Put([]byte(credstore.KeyProfile), data)
	})
}

// Clear removes both keys in one transaction.
func (s *Store) Clear() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucket)
		if err := b.Delete([]byte(credstore.KeyToken)); err != nil {
			return err
		}
		return b.Delete([]byte(credstore.KeyProfile))
	})
}

func (s *Store) Close() error { return s.db.Close() }

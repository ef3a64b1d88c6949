// Package store persists named grading presets in a local bolt
// database. A preset is one full State snapshot in the binary state
// codec, so blobs written by builds with fewer effect groups still
// load; missing groups keep their defaults.
package store

import (
	"errors"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/gogpu/grade"
)

// ErrNoPreset is returned by Load when no preset has the given name.
var ErrNoPreset = errors.New("store: no such preset")

var bucketPresets = []byte("presets")

// Store is a preset database. All methods are safe for concurrent use;
// bolt serializes writers.
type Store struct {
	db *bolt.DB
}

// Open opens or creates the preset database at path. The file is held
// exclusively until Close; Open gives up after one second if another
// process has it locked.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0o644, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketPresets)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("store: init %s: %w", path, err)
	}
	grade.Logger().Debug("preset store opened", "path", path)
	return &Store{db: db}, nil
}

// Close releases the database file.
func (s *Store) Close() error { return s.db.Close() }

// Save stores state under name, replacing any preset already there.
func (s *Store) Save(name string, state *grade.State) error {
	if name == "" {
		return errors.New("store: empty preset name")
	}
	blob, err := state.MarshalBinary()
	if err != nil {
		return fmt.Errorf("store: encode preset %q: %w", name, err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketPresets).Put([]byte(name), blob)
	})
}

// Load returns the preset stored under name, or ErrNoPreset.
func (s *Store) Load(name string) (*grade.State, error) {
	var blob []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketPresets).Get([]byte(name))
		if v == nil {
			return ErrNoPreset
		}
		// Bolt memory is only valid inside the transaction.
		blob = append([]byte(nil), v...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	var st grade.State
	if err := st.UnmarshalBinary(blob); err != nil {
		return nil, fmt.Errorf("store: decode preset %q: %w", name, err)
	}
	return &st, nil
}

// Delete removes the preset stored under name. Deleting a missing
// preset is not an error.
func (s *Store) Delete(name string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketPresets).Delete([]byte(name))
	})
}

// List returns the stored preset names in lexical order.
func (s *Store) List() ([]string, error) {
	var names []string
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketPresets).Cursor()
		for k, _ := c.First(); k != nil; k, _ = c.Next() {
			names = append(names, string(k))
		}
		return nil
	})
	return names, err
}

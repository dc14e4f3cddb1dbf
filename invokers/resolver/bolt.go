package resolver

import (
	"context"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

var modulesBucket = []byte("modules")

// BoltResolver serves modules stored in a bbolt database, keyed by canonical URI string.
type BoltResolver struct {
	db *bolt.DB
}

// OpenBoltResolver opens or creates the database at path.
func OpenBoltResolver(path string) (*BoltResolver, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open module store %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(modulesBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create module bucket: %w", err)
	}
	return &BoltResolver{db: db}, nil
}

// Put stores module under uri, replacing any previous module.
func (r *BoltResolver) Put(uri URI, module []byte) error {
	if len(module) == 0 {
		return fmt.Errorf("%w: %s", ErrEmptyModule, uri)
	}
	return r.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(modulesBucket).Put([]byte(uri.String()), module)
	})
}

// Delete removes the module stored under uri. Deleting a missing URI is not an error.
func (r *BoltResolver) Delete(uri URI) error {
	return r.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(modulesBucket).Delete([]byte(uri.String()))
	})
}

// List returns the stored URIs in key order.
func (r *BoltResolver) List() ([]URI, error) {
	var uris []URI
	err := r.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(modulesBucket).ForEach(func(k, _ []byte) error {
			uri, err := ParseURI(string(k))
			if err != nil {
				return err
			}
			uris = append(uris, uri)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return uris, nil
}

func (r *BoltResolver) Resolve(_ context.Context, uri URI) ([]byte, error) {
	var module []byte
	err := r.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(modulesBucket).Get([]byte(uri.String()))
		if v == nil {
			return fmt.Errorf("%w: %s", ErrNotFound, uri)
		}
		// v is only valid for the life of the transaction
		module = append([]byte(nil), v...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return module, nil
}

// Close closes the database.
func (r *BoltResolver) Close() error {
	return r.db.Close()
}

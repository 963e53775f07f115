package boltkv

import (
	"time"

	"github.com/pkg/errors"
	"go.etcd.io/bbolt"

	"github.com/luminastudy/lumina/core"
)

var bucket = []byte("records")

// Store persists records in a single-file bbolt database. This is the
// default engine: it matches the original durability model of one local
// store per running client.
type Store struct {
	db *bbolt.DB
}

var _ core.KVStore = (*Store)(nil)

func Open(path string) (*Store, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, errors.Wrapf(err, "opening bolt db %s", path)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "creating records bucket")
	}
	return &Store{db: db}, nil
}

func (s *Store) Get(key string) ([]byte, error) {
	var out []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		val := tx.Bucket(bucket).Get([]byte(key))
		if val == nil {
			return core.ErrKeyNotFound
		}
		out = make([]byte, len(val))
		copy(out, val)
		return nil
	})
	return out, err
}

func (s *Store) Set(key string, value []byte) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucket).Put([]byte(key), value)
	})
}

func (s *Store) Delete(key string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucket).Delete([]byte(key))
	})
}

func (s *Store) Close() error { return s.db.Close() }

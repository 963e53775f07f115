package rediskv

import (
	"context"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/luminastudy/lumina/core"
)

// Store keeps the records in Redis, for deployments where several app
// processes share one roster. Records never expire.
type Store struct {
	client *redis.Client
}

var _ core.KVStore = (*Store)(nil)

func Open(conf *core.Config) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     conf.Redis.Address,
		Password: conf.Redis.Password,
		DB:       conf.Redis.DB,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrapf(err, "pinging redis at %s", conf.Redis.Address)
	}
	return &Store{client: client}, nil
}

func (s *Store) Get(key string) ([]byte, error) {
	val, err := s.client.Get(context.Background(), key).Bytes()
	if err == redis.Nil {
		return nil, core.ErrKeyNotFound
	}
	return val, errors.Wrapf(err, "getting %s", key)
}

func (s *Store) Set(key string, value []byte) error {
	return errors.Wrapf(s.client.Set(context.Background(), key, value, 0).Err(), "setting %s", key)
}

func (s *Store) Delete(key string) error {
	return errors.Wrapf(s.client.Del(context.Background(), key).Err(), "deleting %s", key)
}

func (s *Store) Close() error { return s.client.Close() }

package core

import "github.com/pkg/errors"

// Persisted record keys. The key names are part of the on-disk format and
// must not change between releases.
const (
	KeySession = "lumina_user"      // current session account snapshot
	KeyRoster  = "lumina_all_users" // full account roster
	KeyTasks   = "lumina_tasks"     // task collection
	KeyPlan    = "lumina_plan"      // current study plan (absent => no plan)
)

// ErrKeyNotFound is returned by KVStore.Get for absent keys.
var ErrKeyNotFound = errors.New("key not found")

// KVStore is a durable string-keyed blob store. Each Set/Delete must be
// atomic: a concurrent Get never observes a partially written value.
type KVStore interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte) error
	Delete(key string) error
	Close() error
}

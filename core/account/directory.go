package account

import (
	"encoding/json"
	"sync"

	"github.com/pkg/errors"

	"github.com/luminastudy/lumina/core"
)

var (
	ErrNotFound     = errors.New("account not found")
	ErrEmailExists  = errors.New("an account with this email already exists")
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotLoaded    = errors.New("account directory not loaded")
)

// Directory is the in-memory roster of all known accounts, loaded from and
// flushed to the persistent store. It is the source of truth for role,
// status and flag. Every mutation re-serializes the full roster; readers
// never observe a partially applied change.
type Directory struct {
	mu       sync.RWMutex
	store    core.KVStore
	accounts []Account // insertion order, for stable listings
	loaded   bool
}

func NewDirectory(store core.KVStore) *Directory {
	return &Directory{store: store}
}

// Load restores the roster from the persistent store, seeding the bootstrap
// accounts when no roster record exists. A corrupt record is treated as
// absent and reseeded rather than failing startup. Calling Load on an
// already-loaded directory is a no-op.
func (d *Directory) Load() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.loaded {
		return nil
	}

	data, err := d.store.Get(core.KeyRoster)
	if err != nil && errors.Cause(err) != core.ErrKeyNotFound {
		return errors.Wrap(err, "reading roster")
	}

	var accounts []Account
	if err == nil {
		if jErr := json.Unmarshal(data, &accounts); jErr != nil {
			accounts = nil // corrupt roster: reseed
		}
	}
	if accounts == nil {
		accounts = BootstrapAccounts()
	}

	d.accounts = accounts
	d.loaded = true
	return d.flush()
}

// All returns a copy of the roster in insertion order.
func (d *Directory) All() ([]Account, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if !d.loaded {
		return nil, ErrNotLoaded
	}
	out := make([]Account, len(d.accounts))
	copy(out, d.accounts)
	return out, nil
}

// FindByEmail matches case-insensitively after trimming whitespace.
func (d *Directory) FindByEmail(email string) (Account, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if !d.loaded {
		return Account{}, ErrNotLoaded
	}
	return d.findByEmail(email)
}

func (d *Directory) findByEmail(email string) (Account, error) {
	email = core.CleanString(email, true)
	for _, acct := range d.accounts {
		if core.CleanString(acct.Email, true) == email {
			return acct, nil
		}
	}
	return Account{}, ErrNotFound
}

func (d *Directory) Get(id string) (Account, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if !d.loaded {
		return Account{}, ErrNotLoaded
	}
	if i := d.index(id); i >= 0 {
		return d.accounts[i], nil
	}
	return Account{}, ErrNotFound
}

// CheckEmailUniqueness fails with ErrEmailExists when another account
// (excluding the given ones) already uses the email.
func (d *Directory) CheckEmailUniqueness(email string, excluded ...Account) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if !d.loaded {
		return ErrNotLoaded
	}
	acct, err := d.findByEmail(email)
	if err != nil {
		return nil
	}
	for _, excl := range excluded {
		if excl.ID == acct.ID {
			return nil
		}
	}
	return ErrEmailExists
}

// Upsert inserts the account if its id is unseen, else replaces the stored
// record, and flushes the full roster.
func (d *Directory) Upsert(acct Account) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.loaded {
		return ErrNotLoaded
	}
	if i := d.index(acct.ID); i >= 0 {
		d.accounts[i] = acct
	} else {
		d.accounts = append(d.accounts, acct)
	}
	return d.flush()
}

// SetRole sets the target's role. Admin only; the actor role is re-checked
// here regardless of any gating upstream.
func (d *Directory) SetRole(actor Role, targetID string, newRole Role) (Account, error) {
	return d.mutate(actor.IsAdmin(), targetID, func(acct *Account) {
		acct.Role = newRole
	})
}

// ToggleStatus flips the target between active and disabled. Admin only.
func (d *Directory) ToggleStatus(actor Role, targetID string) (Account, error) {
	return d.mutate(actor.IsAdmin(), targetID, func(acct *Account) {
		acct.Status = acct.Status.Toggle()
	})
}

// ToggleFlag flips the target's moderation flag. Moderator or admin.
func (d *Directory) ToggleFlag(actor Role, targetID string) (Account, error) {
	return d.mutate(actor.IsModerator(), targetID, func(acct *Account) {
		acct.IsFlagged = !acct.IsFlagged
	})
}

func (d *Directory) mutate(allowed bool, targetID string, fn func(*Account)) (Account, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.loaded {
		return Account{}, ErrNotLoaded
	}
	if !allowed {
		return Account{}, ErrUnauthorized
	}
	i := d.index(targetID)
	if i < 0 {
		return Account{}, ErrNotFound
	}
	fn(&d.accounts[i])
	if err := d.flush(); err != nil {
		return Account{}, err
	}
	return d.accounts[i], nil
}

func (d *Directory) index(id string) int {
	for i, acct := range d.accounts {
		if acct.ID == id {
			return i
		}
	}
	return -1
}

// flush re-serializes the whole roster; no partial writes.
// Callers must hold the write lock.
func (d *Directory) flush() error {
	data, err := json.Marshal(d.accounts)
	if err != nil {
		return errors.Wrap(err, "marshalling roster")
	}
	return errors.Wrap(d.store.Set(core.KeyRoster, data), "flushing roster")
}

package session

import (
	"context"
	"encoding/json"
	"fmt"
	"net/mail"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/luminastudy/lumina/core"
	"github.com/luminastudy/lumina/core/account"
)

var (
	// ErrAccountDisabled rejects logins against disabled accounts. Login
	// fails closed; the session is left untouched.
	ErrAccountDisabled = errors.New("your account has been disabled, please contact an admin")

	// ErrNoSession is returned when an operation needs an authenticated
	// account and there is none.
	ErrNoSession = errors.New("no active session")
)

// Session tracks the single currently-authenticated account of the running
// client. It is a denormalized pointer into the account directory: profile
// and premium mutations dual-write the directory record and the persisted
// session snapshot, and Restore re-resolves the snapshot against the
// directory instead of trusting it.
type Session struct {
	mu      sync.Mutex
	store   core.KVStore
	dir     *account.Directory
	mail    core.EmailService
	conf    *core.Config
	current *account.Account
}

func NewSession(store core.KVStore, dir *account.Directory, mail core.EmailService, conf *core.Config) *Session {
	return &Session{store: store, dir: dir, mail: mail, conf: conf}
}

// Current returns the authenticated account, if any.
func (s *Session) Current() (account.Account, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return account.Account{}, false
	}
	return *s.current, true
}

// IsAdmin is derived from the session account's role, never persisted.
func (s *Session) IsAdmin() bool {
	acct, ok := s.Current()
	return ok && acct.Role.IsAdmin()
}

func (s *Session) IsModerator() bool {
	acct, ok := s.Current()
	return ok && acct.Role.IsModerator()
}

// Restore reads the persisted session snapshot and resolves it against the
// directory by email, so roster-side changes made since the snapshot was
// written win. A snapshot pointing at a now-disabled account is cleared.
func (s *Session) Restore() (account.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.store.Get(core.KeySession)
	if err != nil {
		if errors.Cause(err) == core.ErrKeyNotFound {
			return account.Account{}, ErrNoSession
		}
		return account.Account{}, errors.Wrap(err, "reading session snapshot")
	}

	var snapshot account.Account
	if err := json.Unmarshal(data, &snapshot); err != nil {
		// corrupt snapshot: treat as absent
		_ = s.store.Delete(core.KeySession)
		return account.Account{}, ErrNoSession
	}

	acct, err := s.dir.FindByEmail(snapshot.Email)
	if err != nil {
		if errors.Cause(err) == account.ErrNotFound {
			return account.Account{}, ErrNoSession
		}
		return account.Account{}, errors.Wrap(err, "resolving session account")
	}
	if acct.Disabled() {
		if err := s.store.Delete(core.KeySession); err != nil {
			return account.Account{}, errors.Wrap(err, "clearing session snapshot")
		}
		return account.Account{}, ErrNoSession
	}

	s.current = &acct
	return acct, nil
}

// Login authenticates by email. The password is accepted but never verified;
// there is no credential layer in this trust model. An unseen email is
// auto-provisioned with a role derived from the address.
func (s *Session) Login(ctx context.Context, email, password string) (account.Account, error) {
	if err := s.simulateLatency(ctx); err != nil {
		return account.Account{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	email = core.CleanString(email, true)
	acct, err := s.dir.FindByEmail(email)
	switch errors.Cause(err) {
	case nil:
		if acct.Disabled() {
			return account.Account{}, ErrAccountDisabled
		}
	case account.ErrNotFound:
		acct = account.Account{
			ID:               uuid.New().String(),
			Email:            email,
			Name:             account.LocalPart(email),
			Role:             account.RoleForEmail(email),
			CreatedAt:        time.Now().UTC(),
			Status:           account.StatusActive,
			StudyHoursPerDay: s.conf.DefaultStudyHoursPerDay,
		}
		if err := s.dir.Upsert(acct); err != nil {
			return account.Account{}, errors.Wrap(err, "provisioning account")
		}
	default:
		return account.Account{}, errors.Wrap(err, "finding account by email")
	}

	if err := s.persist(acct); err != nil {
		return account.Account{}, err
	}
	s.current = &acct
	return acct, nil
}

// Register creates a new account. Unlike the auto-provision path it takes an
// explicit name, and it fails on an already-registered email rather than
// permitting duplicates.
func (s *Session) Register(ctx context.Context, na account.NewAccount) (account.Account, error) {
	if err := s.simulateLatency(ctx); err != nil {
		return account.Account{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	email := core.CleanString(na.Email, true)
	if err := s.dir.CheckEmailUniqueness(email); err != nil {
		if errors.Cause(err) == account.ErrEmailExists {
			return account.Account{}, core.NewValidationError(err, core.FieldError{Field: "email", Error: err.Error()})
		}
		return account.Account{}, errors.Wrap(err, "checking email uniqueness")
	}

	acct := account.Account{
		ID:               uuid.New().String(),
		Email:            email,
		Name:             core.CleanString(na.Name),
		Role:             account.RoleForEmail(email),
		CreatedAt:        time.Now().UTC(),
		Status:           account.StatusActive,
		StudyHoursPerDay: s.conf.DefaultStudyHoursPerDay,
	}
	if err := s.dir.Upsert(acct); err != nil {
		return account.Account{}, errors.Wrap(err, "creating account")
	}
	if err := s.persist(acct); err != nil {
		return account.Account{}, err
	}
	s.current = &acct

	s.sendWelcomeEmail(acct)
	return acct, nil
}

// Logout clears the session and its persisted snapshot; idempotent.
func (s *Session) Logout() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = nil
	return errors.Wrap(s.store.Delete(core.KeySession), "clearing session snapshot")
}

// UpdateProfile mutates name and study hours on both the session account and
// the directory record. No-op when logged out.
func (s *Session) UpdateProfile(up account.UpdateProfile) (account.Account, error) {
	return s.mutate(func(acct *account.Account) bool {
		acct.Name = up.Name
		acct.StudyHoursPerDay = up.StudyHoursPerDay
		return true
	})
}

// UpgradeToPremium sets the session account's role to premium.
func (s *Session) UpgradeToPremium() (account.Account, error) {
	return s.mutate(func(acct *account.Account) bool {
		acct.Role = account.RolePremium
		return true
	})
}

// CancelPremium reverts a premium role back to user. No-op on any other role.
func (s *Session) CancelPremium() (account.Account, error) {
	return s.mutate(func(acct *account.Account) bool {
		if acct.Role != account.RolePremium {
			return false
		}
		acct.Role = account.RoleUser
		return true
	})
}

// mutate applies fn to a copy of the session account and, when fn reports a
// change, dual-writes the directory record and the session snapshot.
func (s *Session) mutate(fn func(*account.Account) bool) (account.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return account.Account{}, ErrNoSession
	}
	acct := *s.current
	if !fn(&acct) {
		return acct, nil
	}
	if err := s.dir.Upsert(acct); err != nil {
		return account.Account{}, errors.Wrap(err, "updating directory record")
	}
	if err := s.persist(acct); err != nil {
		return account.Account{}, err
	}
	s.current = &acct
	return acct, nil
}

func (s *Session) persist(acct account.Account) error {
	data, err := json.Marshal(acct)
	if err != nil {
		return errors.Wrap(err, "marshalling session snapshot")
	}
	return errors.Wrap(s.store.Set(core.KeySession, data), "persisting session snapshot")
}

func (s *Session) simulateLatency(ctx context.Context) error {
	if s.conf.LoginLatency <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(s.conf.LoginLatency)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Session) sendWelcomeEmail(acct account.Account) {
	if s.mail == nil {
		return
	}
	s.mail.SendMessages(&core.EmailMessage{
		To:      []mail.Address{{Name: acct.Name, Address: acct.Email}},
		Subject: "Welcome to " + s.conf.AppName,
		Body: fmt.Sprintf(
			"Hi %s,\n\nYour %s account is ready. Log in to plan your study week.\n",
			acct.Name, s.conf.AppName,
		),
	})
}

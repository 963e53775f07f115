package testutil

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/luminastudy/lumina/core"
	"github.com/luminastudy/lumina/core/account"
)

// NewConfig returns a Config suitable for tests: no login latency, no
// external services.
func NewConfig() *core.Config {
	conf := &core.Config{
		AppName:                 "Lumina",
		Env:                     "TEST",
		Debug:                   false,
		TestMode:                true,
		SecretKey:               "secret",
		DefaultFromEmail:        "noreply@localhost",
		LoginLatency:            0,
		DefaultStudyHoursPerDay: 4,
	}
	conf.Server.JWTExpirationDelta = 10 * time.Minute
	conf.Server.JWTRefreshExpirationDelta = 4 * time.Hour
	return conf
}

// CreateAccount upserts an account into the directory and returns it.
func CreateAccount(
	t *testing.T,
	dir *account.Directory,
	name, email string,
	role account.Role,
	active bool,
	createdAt ...time.Time,
) account.Account {
	t.Helper()

	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	status := account.StatusActive
	if !active {
		status = account.StatusDisabled
	}
	acct := account.Account{
		ID:               uuid.New().String(),
		Email:            email,
		Name:             name,
		Role:             role,
		CreatedAt:        tstamp,
		Status:           status,
		StudyHoursPerDay: 4,
	}
	if err := dir.Upsert(acct); err != nil {
		t.Fatalf("CreateAccount() failed: %v", err)
	}
	return acct
}

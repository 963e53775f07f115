package main

import (
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/luminastudy/lumina/core"
	"github.com/luminastudy/lumina/core/account"
)

// addAccount updates or creates an account.Account; either way it ends up active.
func (cli *commandLine) addAccount(email, name string) error {
	email = core.CleanString(email, true)
	name = core.CleanString(name)

	acct, err := cli.dir.FindByEmail(email)
	if err != nil {
		if errors.Cause(err) != account.ErrNotFound {
			return err
		}
		acct = account.Account{
			ID:               uuid.New().String(),
			Email:            email,
			Role:             account.RoleForEmail(email),
			CreatedAt:        time.Now().UTC(),
			StudyHoursPerDay: cli.conf.DefaultStudyHoursPerDay,
		}
	}
	if name != "" {
		acct.Name = name
	}
	if acct.Name == "" {
		acct.Name = account.LocalPart(email)
	}
	acct.Status = account.StatusActive
	return cli.dir.Upsert(acct)
}

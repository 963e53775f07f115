package main

import (
	"errors"

	postgreskv "github.com/luminastudy/lumina/storage/kv/postgres"
)

var gooseRunFunc = postgreskv.RunMigration // mockable

func (cli *commandLine) migrate(args []string) error {
	if cli.db == nil {
		return errors.New("migrate requires the postgres storage engine")
	}
	arguments := make([]string, 0)
	if len(args) > 1 {
		arguments = append(arguments, args[1:]...)
	}
	return gooseRunFunc(args[0], cli.db, arguments...)
}

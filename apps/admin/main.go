package main

import (
	"log"
	"os"

	"github.com/luminastudy/lumina/core"
	"github.com/luminastudy/lumina/core/account"
	boltkv "github.com/luminastudy/lumina/storage/kv/bolt"
	memorykv "github.com/luminastudy/lumina/storage/kv/memory"
	postgreskv "github.com/luminastudy/lumina/storage/kv/postgres"
	rediskv "github.com/luminastudy/lumina/storage/kv/redis"
)

var logger *log.Logger

func main() {
	defer os.Exit(0)

	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	conf := core.NewConfig()

	store, err := openStore(conf)
	errAndDie(err)
	defer store.Close()

	dir := account.NewDirectory(store)
	errAndDie(dir.Load())

	cli := commandLine{conf: conf, dir: dir}
	if pg, ok := store.(*postgreskv.Store); ok {
		cli.db = pg.DB()
	}

	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

func openStore(conf *core.Config) (core.KVStore, error) {
	switch conf.Storage.Engine {
	case "memory":
		return memorykv.New(), nil
	case "postgres":
		return postgreskv.Open(conf)
	case "redis":
		return rediskv.Open(conf)
	default:
		return boltkv.Open(conf.Storage.Path)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err)
	}
}

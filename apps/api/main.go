package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	echoapi "github.com/luminastudy/lumina/apps/api/echo"
	"github.com/luminastudy/lumina/core"
	"github.com/luminastudy/lumina/core/account"
	"github.com/luminastudy/lumina/core/planner"
	"github.com/luminastudy/lumina/core/session"
	emailsvc "github.com/luminastudy/lumina/services/email"
	logsvc "github.com/luminastudy/lumina/services/logger"
	plangensvc "github.com/luminastudy/lumina/services/plangen"
	boltkv "github.com/luminastudy/lumina/storage/kv/bolt"
	memorykv "github.com/luminastudy/lumina/storage/kv/memory"
	postgreskv "github.com/luminastudy/lumina/storage/kv/postgres"
	rediskv "github.com/luminastudy/lumina/storage/kv/redis"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	logger := newLogger(conf)
	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	store, err := openStore(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up storage: %v", err), err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error(fmt.Sprintf("closing storage: %v", err), err)
		}
	}()

	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}

	directory := account.NewDirectory(store)
	if err := directory.Load(); err != nil {
		logger.Fatal(fmt.Sprintf("loading account directory: %v", err), err)
	}

	sess := session.NewSession(store, directory, mailSvc, conf)
	if acct, err := sess.Restore(); err == nil {
		logger.Info(fmt.Sprintf("restored session for %s", acct.Email))
	}

	plannerStore := planner.NewStore(store)
	if err := plannerStore.Load(); err != nil {
		logger.Fatal(fmt.Sprintf("loading planner store: %v", err), err)
	}

	var generator planner.Generator
	if conf.Gemini.APIKey != "" {
		generator, err = plangensvc.NewGeminiService(context.Background(), conf, logger)
		if err != nil {
			logger.Fatal(fmt.Sprintf("setting up plan generator: %v", err), err)
		}
	} else {
		logger.Warn("no Gemini API key configured; using canned plan generator")
		generator = plangensvc.NewDummyService()
	}

	validate := validator.New()
	translator := newTranslator()
	core.InitValidators(validate, translator)
	account.InitValidators(validate, translator)

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(echoapi.ServerDeps{
		Conf:       conf,
		Logger:     logger,
		Session:    sess,
		Directory:  directory,
		Planner:    plannerStore,
		Generator:  generator,
		Validate:   validate,
		Translator: translator,
	})

	go server.Start()

	// =========================================================================
	// Shutdown

	select {
	case err := <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err := server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}

func newLogger(conf *core.Config) core.Logger {
	std := log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	if conf.RollbarToken != "" && !conf.Debug {
		return logsvc.NewRollbarLogger(std, conf)
	}
	return logsvc.NewConsoleLogger(std)
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

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}

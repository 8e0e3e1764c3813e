package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"bookworld/internal/account"
	"bookworld/internal/catalog"
	"bookworld/internal/config"
	"bookworld/internal/listsync"
	"bookworld/internal/logger"
	"bookworld/internal/platform/openlibrary"
)

var errSignedOut = errors.New("not signed in, run `bookworld login` first")

// appEnv holds everything a command needs.
type appEnv struct {
	out     io.Writer
	log     *slog.Logger
	catalog *catalog.Service
	sampler *catalog.Sampler
	account *account.Client
	lists   *listsync.Store
	close   func() error
}

type envBuilder func(ctx context.Context) (*appEnv, error)

func buildEnv(ctx context.Context) (*appEnv, error) {
	cfg, err := config.LoadClient()
	if err != nil {
		return nil, err
	}
	log := logger.New(logger.Config{Writer: os.Stderr, Level: cfg.LogLevel})

	db, err := account.OpenSQLite(cfg.StatePath)
	if err != nil {
		return nil, fmt.Errorf("open state %s: %w", cfg.StatePath, err)
	}
	identities, err := account.NewIdentityStore(ctx, db)
	if err != nil {
		db.Close()
		return nil, err
	}

	provider := openlibrary.NewClient(openlibrary.Options{
		BaseURL:    cfg.OpenLibrary.BaseURL,
		UserAgent:  cfg.OpenLibrary.UserAgent,
		RPS:        cfg.OpenLibrary.RPS,
		MaxRetries: cfg.OpenLibrary.MaxRetries,
		Timeout:    cfg.OpenLibrary.Timeout,
		Logger:     log,
	})

	env := newEnv(os.Stdout, log, provider, account.NewClient(cfg.APIURL, identities))
	env.close = db.Close
	return env, nil
}

func newEnv(out io.Writer, log *slog.Logger, provider catalog.Provider, acct *account.Client) *appEnv {
	cache := catalog.NewMemoryCache()
	svc := catalog.NewService(provider, cache, log)
	return &appEnv{
		out:     out,
		log:     log,
		catalog: svc,
		sampler: catalog.NewSampler(svc, cache, log),
		account: acct,
		lists:   listsync.NewStore(listsync.NewHTTPRemote(acct.API()), acct, log),
		close:   func() error { return nil },
	}
}

// signIn restores the saved identity and loads that reader's list.
func (e *appEnv) signIn(ctx context.Context) error {
	_, ok, err := e.account.Restore(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return errSignedOut
	}
	return e.lists.SyncIdentity(ctx)
}

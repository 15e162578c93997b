// Package app wires the scan pipeline together: discovery, parsing, binding,
// fact scanning, the write queue, and the sqlite index.
package app

import (
	"context"
	"time"

	"backrefs/internal/core/config"
	"backrefs/internal/core/errors"
	"backrefs/internal/core/ports"
	"backrefs/internal/data/index"
	"backrefs/internal/engine/parser"
	"backrefs/internal/engine/scanner"
	"backrefs/internal/shared/util"
)

type App struct {
	Config *config.Config
	Paths  config.ResolvedPaths

	parser  ports.UnitParser
	store   ports.IndexStore
	scanner *scanner.Scanner
	limiter *util.Limiter

	writeQueue ports.WriteQueuePort
	writeSpool ports.WriteSpoolPort

	workerCancel context.CancelFunc
	workerDone   chan struct{}
}

func New(cfg *config.Config, cwd string) (*App, error) {
	if cfg == nil {
		return nil, errors.New(errors.CodeConfigInvalid, "config is required")
	}

	paths, err := config.ResolvePaths(cfg, cwd)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeConfigInvalid, "resolve paths")
	}

	store, err := index.Open(paths.DBPath)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeStorageFailed, "open index")
	}

	a := &App{
		Config:  cfg,
		Paths:   paths,
		parser:  parser.NewParser(),
		store:   store,
		scanner: scanner.New(scanner.Level(cfg.Language.Level)),
		limiter: util.NewLimiter(cfg.Scan.RatePerSec, cfg.Scan.RateBurst),
	}

	if err := a.initWriteQueue(); err != nil {
		_ = store.Close()
		return nil, errors.Wrap(err, errors.CodeStorageFailed, "init write queue")
	}
	return a, nil
}

// ApplyRuntimeConfig picks up the settings that can change without a
// restart: scan rate limiting and fatal-error handling.
func (a *App) ApplyRuntimeConfig(cfg *config.Config) {
	if a == nil || cfg == nil {
		return
	}
	a.limiter.SetRate(cfg.Scan.RatePerSec, cfg.Scan.RateBurst)
	a.Config.Scan.RatePerSec = cfg.Scan.RatePerSec
	a.Config.Scan.RateBurst = cfg.Scan.RateBurst
	a.Config.Scan.FailOnFatal = cfg.Scan.FailOnFatal
}

// Store exposes the index for read-only queries.
func (a *App) Store() ports.IndexStore {
	return a.store
}

func (a *App) Close(ctx context.Context) error {
	if a == nil {
		return nil
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
	}
	if err := a.stopWriteWorker(ctx); err != nil {
		return err
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			return err
		}
		a.store = nil
	}
	return nil
}

package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/gridyield/internal/audit"
	"github.com/roach88/gridyield/internal/catalog"
	"github.com/roach88/gridyield/internal/config"
	"github.com/roach88/gridyield/internal/engine"
	"github.com/roach88/gridyield/internal/store"
)

// Env is everything a command needs to run engine operations.
type Env struct {
	Config  *config.Config
	Logger  *slog.Logger
	Store   *store.Store
	Catalog *catalog.Catalog
	Engine  *engine.Engine

	journal *audit.Journal
}

// loadConfig reads the config file and applies the global flag overrides.
// The default path may be missing; an explicit --config must exist.
func loadConfig(opts *RootOptions) (*config.Config, error) {
	path := opts.ConfigPath
	if path == "" {
		path = DefaultConfigPath
	}
	cfg, err := config.Load(path, path == DefaultConfigPath)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load config", err)
	}
	if opts.Database != "" {
		cfg.Database.Path = opts.Database
	}
	if opts.CatalogDir != "" {
		cfg.Catalog.Dir = opts.CatalogDir
	}
	return cfg, nil
}

// newLogger writes text logs to the command's stderr at the configured level.
// --verbose always means debug.
func newLogger(cmd *cobra.Command, opts *RootOptions, cfg *config.Config) *slog.Logger {
	level, err := config.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = slog.LevelInfo
	}
	if opts.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
}

// openStore opens the database alone, for commands that only read.
func openStore(cmd *cobra.Command, opts *RootOptions) (*store.Store, *slog.Logger, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, nil, err
	}
	logger := newLogger(cmd, opts, cfg)
	logger.Debug("opening database", "path", cfg.Database.Path)
	st, err := store.Open(cfg.Database.Path)
	if err != nil {
		return nil, nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	return st, logger, nil
}

// openEnv loads config, catalog and database and builds the engine.
func openEnv(cmd *cobra.Command, opts *RootOptions) (*Env, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}
	logger := newLogger(cmd, opts, cfg)

	logger.Debug("loading catalog", "dir", cfg.Catalog.Dir)
	cat, err := catalog.LoadDir(cfg.Catalog.Dir)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load catalog", err)
	}
	for _, w := range catalog.Validate(cat) {
		logger.Warn("catalog finding", "code", w.Code, "item", w.Item, "field", w.Field, "message", w.Message)
	}

	logger.Debug("opening database", "path", cfg.Database.Path)
	st, err := store.Open(cfg.Database.Path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}

	previous, err := st.RecordCatalogDigest(cmd.Context(), cat.Digest)
	if err != nil {
		st.Close()
		return nil, WrapExitError(ExitCommandError, "failed to record catalog digest", err)
	}
	if previous != "" && previous != cat.Digest {
		logger.Warn("catalog changed since last run", "previous", previous, "current", cat.Digest)
	}

	env := &Env{Config: cfg, Logger: logger, Store: st, Catalog: cat}

	rnd := engine.SystemRand()
	if cfg.Economy.Seed != 0 {
		rnd = engine.NewRand(cfg.Economy.Seed)
	}
	engOpts := []engine.Option{
		engine.WithLogger(logger),
		engine.WithRand(rnd),
		engine.WithMessenger(store.NewOutbox(st)),
		engine.WithDailyVotes(cfg.Economy.DailyVotes),
		engine.WithGrid(cfg.Economy.GridWidth, cfg.Economy.GridHeight),
	}
	if cfg.Audit.Enabled {
		env.journal = audit.NewJournal(cfg.Audit.Dir, "")
		engOpts = append(engOpts, engine.WithJournal(env.journal))
		logger.Debug("audit journal enabled", "dir", cfg.Audit.Dir)
	}
	env.Engine = engine.New(st, cat, engOpts...)
	return env, nil
}

// Close flushes the journal and closes the database.
func (e *Env) Close() error {
	var jerr error
	if e.journal != nil {
		jerr = e.journal.Close()
	}
	if err := e.Store.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return jerr
}

// closeQuietly is for deferred closes, where the command result already won.
func closeQuietly(logger *slog.Logger, c interface{ Close() error }) {
	if err := c.Close(); err != nil {
		logger.Error("error closing", "error", err)
	}
}

// withEnv opens the environment, runs fn and closes it again. Errors from fn
// go through the formatter so JSON callers get an error response.
func withEnv(cmd *cobra.Command, opts *RootOptions, fn func(env *Env, f *OutputFormatter) error) error {
	formatter := opts.formatter(cmd)
	env, err := openEnv(cmd, opts)
	if err != nil {
		return formatter.Fail(err)
	}
	defer closeQuietly(env.Logger, env)

	if err := fn(env, formatter); err != nil {
		return formatter.Fail(err)
	}
	return nil
}

// withStore is withEnv for commands that only read the database.
func withStore(cmd *cobra.Command, opts *RootOptions, fn func(st *store.Store, f *OutputFormatter) error) error {
	formatter := opts.formatter(cmd)
	st, logger, err := openStore(cmd, opts)
	if err != nil {
		return formatter.Fail(err)
	}
	defer closeQuietly(logger, st)

	if err := fn(st, formatter); err != nil {
		return formatter.Fail(err)
	}
	return nil
}

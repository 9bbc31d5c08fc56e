package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"jobsearch-engine/internal/config"
	"jobsearch-engine/internal/dataset"
	"jobsearch-engine/internal/filter"
	"jobsearch-engine/internal/location"
	"jobsearch-engine/internal/secrets"
	"jobsearch-engine/internal/source"
	"jobsearch-engine/internal/store"
)

const (
	envDataDirName = config.EnvDataDir
	defaultCfgPath = "config/config.yml"
	dbFile         = "jobsearch.db"
	lockFile       = "engine.lock"
)

// app is everything a subcommand needs after bootstrap.
type app struct {
	cfg     config.Config
	cfgPath string
	tree    *location.Tree
	db      *store.DB
	data    *dataset.Dataset
}

func bootstrapDir() string {
	if flagDataDir != "" {
		return flagDataDir
	}
	if v := strings.TrimSpace(os.Getenv(config.EnvDataDir)); v != "" {
		return v
	}
	return config.Default().App.DataDir
}

func configPath() (string, error) {
	if flagConfig != "" {
		return flagConfig, nil
	}
	p, err := config.EnsureUserConfig(bootstrapDir(), defaultCfgPath)
	if err != nil {
		return "", fmt.Errorf("config bootstrap failed: %w", err)
	}
	return p, nil
}

// readConfig loads, overlays and normalizes the config file. Validation
// problems are returned, not treated as a load failure.
func readConfig(path string) (config.Config, config.Validation, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, config.Validation{}, fmt.Errorf("config load failed (%s): %w", path, err)
	}
	config.OverlayEnv(&cfg)
	if flagDataDir != "" {
		cfg.App.DataDir = flagDataDir
	}
	cfg, vr := config.NormalizeAndValidate(cfg)
	return cfg, vr, nil
}

func loadConfig(path string) (config.Config, error) {
	cfg, vr, err := readConfig(path)
	if err != nil {
		return cfg, err
	}
	for _, w := range vr.Warnings {
		log.Printf("[config] warning: %s", w)
	}
	if !vr.OK() {
		return cfg, fmt.Errorf("invalid config %s:\n- %s", path, strings.Join(vr.Errors, "\n- "))
	}
	return cfg, nil
}

func openApp() (*app, error) {
	cfgPath, err := configPath()
	if err != nil {
		return nil, err
	}
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		return nil, err
	}

	tree, err := location.Load(cfg.Reference.LocationsPath)
	if err != nil {
		return nil, err
	}

	db, err := store.Open(filepath.Join(cfg.App.DataDir, dbFile))
	if err != nil {
		return nil, fmt.Errorf("open snapshot db: %w", err)
	}

	a := &app{cfg: cfg, cfgPath: cfgPath, tree: tree, db: db}
	var loader source.Loader
	if !flagOffline {
		if loader, err = newLoader(cfg); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	a.data = dataset.New(loader, db)
	return a, nil
}

func (a *app) Close() {
	if err := a.db.Close(); err != nil {
		log.Printf("[db] close: %v", err)
	}
}

// snapshot loads the records once for a one-shot command.
func (a *app) snapshot(ctx context.Context) *dataset.Snapshot {
	return a.data.Load(ctx)
}

func (a *app) engine(policyOverride string) (*filter.Engine, error) {
	raw := a.cfg.Filters.IncomePolicy
	if policyOverride != "" {
		raw = policyOverride
	}
	p, ok := filter.ParseIncomePolicy(raw)
	if !ok {
		return nil, fmt.Errorf("unknown income policy %q", raw)
	}
	return filter.New(filter.WithIncomePolicy(p)), nil
}

// newLoader builds the sheet loader, reading the token only when the
// config asks for it.
func newLoader(cfg config.Config) (source.Loader, error) {
	var token string
	if cfg.Source.UseToken {
		tok, err := secrets.GetSourceToken()
		switch {
		case errors.Is(err, secrets.ErrNoToken):
			log.Printf("[secrets] use_token is set but %v", err)
		case err != nil:
			return nil, err
		default:
			token = tok
		}
	}
	return source.FromConfig(cfg, token)
}

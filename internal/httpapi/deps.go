package httpapi

import (
	"sync/atomic"

	"jobsearch-engine/internal/catalog"
	"jobsearch-engine/internal/config"
	"jobsearch-engine/internal/dataset"
	"jobsearch-engine/internal/events"
	"jobsearch-engine/internal/filter"
	"jobsearch-engine/internal/form"
	"jobsearch-engine/internal/location"
	"jobsearch-engine/internal/session"
)

type Deps struct {
	Data     *dataset.Dataset
	Hub      *events.Hub
	Sessions *session.Store

	// Reference tree before record cities are merged in.
	RefTree *location.Tree

	// Atomic stores
	CfgVal *atomic.Value // stores config.Config

	// Config persistence
	UserCfgPath string
	LoadCfg     func() (config.Config, error)
	OnConfig    func(config.Config)

	// Keychain access (inject for testability)
	SetToken    func(string) error
	DeleteToken func() error
}

func (d Deps) config() config.Config {
	return d.CfgVal.Load().(config.Config)
}

// Engine builds a filter engine for the current income policy.
func (d Deps) Engine() *filter.Engine {
	p, _ := filter.ParseIncomePolicy(d.config().Filters.IncomePolicy)
	return filter.New(filter.WithIncomePolicy(p))
}

// Tree is the reference tree extended with cities of the loaded records.
func (d Deps) Tree() *location.Tree {
	return catalog.TreeFor(d.RefTree, d.Data.Records())
}

// NewForm is the session store's form factory.
func (d Deps) NewForm() *form.Form {
	return form.NewWithTreeFunc(d.Tree, d.Engine())
}

func (d Deps) fixed() catalog.Fixed {
	cfg := d.config()
	return catalog.Fixed{
		Popular:     cfg.Filters.Popular,
		Annuals:     cfg.Filters.Annuals,
		Employments: cfg.Filters.Employments,
	}
}

// Package filter evaluates a FilterState against job records.
package filter

import (
	"log"
	"strings"

	"github.com/ecodeclub/ekit/slice"

	"jobsearch-engine/internal/domain"
)

type IncomePolicy string

const (
	// IncomeStrict keeps records whose annual income is above the floor.
	IncomeStrict IncomePolicy = "strict"
	// IncomeInclusive also keeps records exactly at the floor.
	IncomeInclusive IncomePolicy = "inclusive"
)

func ParseIncomePolicy(s string) (IncomePolicy, bool) {
	switch IncomePolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", IncomeStrict:
		return IncomeStrict, true
	case IncomeInclusive:
		return IncomeInclusive, true
	default:
		return IncomeStrict, false
	}
}

// Reasons returned by Explain.
const (
	ReasonKeyword    = "keyword"
	ReasonLocation   = "location"
	ReasonCategory   = "job_category"
	ReasonTags       = "tags"
	ReasonIncome     = "annual_income"
	ReasonEmployment = "employment"
)

// Engine is stateless apart from its policy and safe for concurrent use.
type Engine struct {
	income IncomePolicy
}

type Option func(*Engine)

func WithIncomePolicy(p IncomePolicy) Option {
	return func(e *Engine) { e.income = p }
}

func New(opts ...Option) *Engine {
	e := &Engine{income: IncomeStrict}
	for _, o := range opts {
		o(e)
	}
	return e
}

func (e *Engine) IncomePolicy() IncomePolicy { return e.income }

// Filter returns the records matching every non-empty criterion of state,
// in input order. It never returns nil.
func (e *Engine) Filter(state domain.FilterState, records []domain.JobRecord) []domain.JobRecord {
	out := make([]domain.JobRecord, 0, len(records))
	if len(records) == 0 {
		return out
	}
	m := e.compile(state)
	for _, r := range records {
		if ok, _ := m.explain(r); ok {
			out = append(out, r)
		}
	}
	return out
}

// Explain reports whether r passes state and, if not, the first criterion
// it failed.
func (e *Engine) Explain(state domain.FilterState, r domain.JobRecord) (keep bool, reason string) {
	return e.compile(state).explain(r)
}

// Verdict is the outcome for one record; Reason is empty when it was kept.
type Verdict struct {
	ID     string `json:"id"`
	Reason string `json:"reason"`
}

// ExplainAll is Explain over a list in input order, logging each drop.
func (e *Engine) ExplainAll(state domain.FilterState, records []domain.JobRecord) []Verdict {
	m := e.compile(state)
	out := make([]Verdict, 0, len(records))
	for _, r := range records {
		keep, reason := m.explain(r)
		if !keep {
			log.Printf("[filter] drop id=%s reason=%s", r.ID, reason)
		}
		out = append(out, Verdict{ID: r.ID, Reason: reason})
	}
	return out
}

type matcher struct {
	keyword     string
	locations   []domain.LocationPath
	categories  []string
	tags        []string
	incomeMin   *int
	inclusive   bool
	employments []string
}

func (e *Engine) compile(state domain.FilterState) matcher {
	m := matcher{
		keyword:     strings.ToLower(strings.TrimSpace(state.Keyword)),
		locations:   state.Locations,
		categories:  state.JobCategories,
		incomeMin:   state.AnnualIncomeMin,
		inclusive:   e.income == IncomeInclusive,
		employments: state.EmploymentTypes,
	}
	// both lists target the same record field
	m.tags = append(append([]string(nil), state.Preferences...), state.PopularTags...)
	return m
}

func (m matcher) explain(r domain.JobRecord) (bool, string) {
	if !m.matchKeyword(r) {
		return false, ReasonKeyword
	}
	if !m.matchLocation(r) {
		return false, ReasonLocation
	}
	if len(m.categories) > 0 && !intersects(r.Categories, m.categories) {
		return false, ReasonCategory
	}
	if len(m.tags) > 0 && !intersects(r.Features, m.tags) {
		return false, ReasonTags
	}
	if !m.matchIncome(r) {
		return false, ReasonIncome
	}
	if len(m.employments) > 0 && !intersects(r.EmploymentTypes(), m.employments) {
		return false, ReasonEmployment
	}
	return true, ""
}

func (m matcher) matchKeyword(r domain.JobRecord) bool {
	if m.keyword == "" {
		return true
	}
	for _, field := range r.SearchText() {
		if strings.Contains(field, m.keyword) {
			return true
		}
	}
	return false
}

func (m matcher) matchLocation(r domain.JobRecord) bool {
	if len(m.locations) == 0 {
		return true
	}
	for _, p := range m.locations {
		if MatchLocation(p, r) {
			return true
		}
	}
	return false
}

// MatchLocation compares every component p carries with the record's
// fields for exact equality.
func MatchLocation(p domain.LocationPath, r domain.JobRecord) bool {
	switch p.Level() {
	case domain.LevelPref:
		return r.Prefecture == p.Pref
	case domain.LevelCity:
		return r.Prefecture == p.Pref && r.City == p.City
	case domain.LevelWard:
		return r.Prefecture == p.Pref && r.City == p.City && r.Ward == p.Ward
	default:
		return false
	}
}

func (m matcher) matchIncome(r domain.JobRecord) bool {
	if m.incomeMin == nil {
		return true
	}
	if r.AnnualIncome <= 0 {
		return false
	}
	if m.inclusive {
		return r.AnnualIncome >= *m.incomeMin
	}
	return r.AnnualIncome > *m.incomeMin
}

func intersects(have, want []string) bool {
	for _, h := range have {
		if slice.Contains(want, h) {
			return true
		}
	}
	return false
}

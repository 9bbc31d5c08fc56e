// Package form owns the committed FilterState and the picker working copies
// that edit it.
//
// Opening a picker seeds a working copy from the committed state; Apply
// replaces the committed state wholesale and Close throws the copy away.
package form

import (
	"errors"
	"fmt"
	"strings"

	"jobsearch-engine/internal/domain"
	"jobsearch-engine/internal/filter"
	"jobsearch-engine/internal/location"
	"jobsearch-engine/internal/selection"
)

type Picker string

const (
	PickerLocation   Picker = "location"
	PickerJob        Picker = "job"
	PickerPreference Picker = "preference"
	PickerPopular    Picker = "popular"
	PickerEmployment Picker = "employment"
	PickerIncome     Picker = "income"

	// PickerKeyword is only valid for ClearCategory.
	PickerKeyword Picker = "keyword"
)

func Pickers() []Picker {
	return []Picker{PickerLocation, PickerJob, PickerPreference, PickerPopular, PickerEmployment, PickerIncome}
}

func ParsePicker(s string) (Picker, error) {
	p := Picker(strings.ToLower(strings.TrimSpace(s)))
	switch p {
	case PickerLocation, PickerJob, PickerPreference, PickerPopular, PickerEmployment, PickerIncome:
		return p, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownPicker, s)
}

type Phase int

const (
	Editing Phase = iota
	Draft
	Committed
	Active
)

func (p Phase) String() string {
	switch p {
	case Editing:
		return "editing"
	case Draft:
		return "draft"
	case Committed:
		return "committed"
	case Active:
		return "active"
	default:
		return "unknown"
	}
}

var (
	ErrUnknownPicker = errors.New("unknown picker")
	ErrNoPicker      = errors.New("no picker is open")
	ErrWrongPicker   = errors.New("operation does not apply to the open picker")
	ErrInvalidValue  = errors.New("invalid value")
)

// Form is the search form of one client. It is not safe for concurrent use.
type Form struct {
	tree     *location.Tree
	treeFunc func() *location.Tree
	engine   *filter.Engine

	committed domain.FilterState
	phase     Phase

	open   Picker
	loc    *selection.Controller
	values []string
	income *int

	lastCount int
}

func New(tree *location.Tree, engine *filter.Engine) *Form {
	if tree == nil {
		tree = location.Default()
	}
	if engine == nil {
		engine = filter.New()
	}
	return &Form{tree: tree, engine: engine, phase: Committed}
}

// NewWithTreeFunc is New with a tree that is looked up again each time the
// location picker opens, so cities added by a later reload become
// selectable.
func NewWithTreeFunc(treeFunc func() *location.Tree, engine *filter.Engine) *Form {
	f := New(treeFunc(), engine)
	f.treeFunc = treeFunc
	return f
}

func (f *Form) Phase() Phase { return f.phase }

// OpenPicker is the picker holding a working copy, or "".
func (f *Form) OpenPicker() Picker { return f.open }

// Committed returns a copy of the last applied state.
func (f *Form) Committed() domain.FilterState { return f.committed.Clone() }

// Restore replaces the committed state, closing any open picker.
func (f *Form) Restore(s domain.FilterState) {
	f.discard()
	f.committed = s.Normalize()
	f.phase = Committed
}

// Open starts editing p with a working copy seeded from the committed
// state. Re-opening discards the previous copy.
func (f *Form) Open(p Picker) error {
	if _, err := ParsePicker(string(p)); err != nil {
		return err
	}
	f.discard()
	f.open = p
	switch p {
	case PickerLocation:
		if f.treeFunc != nil {
			if t := f.treeFunc(); t != nil {
				f.tree = t
			}
		}
		f.loc = selection.NewController(f.tree, nil)
		f.loc.Seed(f.committed.Locations)
	case PickerIncome:
		if f.committed.AnnualIncomeMin != nil {
			v := *f.committed.AnnualIncomeMin
			f.income = &v
		}
	default:
		f.values = append([]string(nil), f.committedList(p)...)
	}
	f.phase = Editing
	return nil
}

// Location exposes the working selection of the open location picker.
func (f *Form) Location() (*selection.Controller, error) {
	if err := f.expect(PickerLocation); err != nil {
		return nil, err
	}
	return f.loc, nil
}

func (f *Form) ToggleLocation(p domain.LocationPath, checked bool) error {
	if err := f.expect(PickerLocation); err != nil {
		return err
	}
	if !p.Valid() {
		return fmt.Errorf("%w: location %q", ErrInvalidValue, p.String())
	}
	f.loc.Toggle(p, checked)
	f.phase = Draft
	return nil
}

// Toggle checks or unchecks value in the open list picker.
func (f *Form) Toggle(value string, checked bool) error {
	if f.open == "" {
		return ErrNoPicker
	}
	if f.open == PickerLocation || f.open == PickerIncome {
		return fmt.Errorf("%w: toggle on %s", ErrWrongPicker, f.open)
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return fmt.Errorf("%w: empty value", ErrInvalidValue)
	}
	idx := -1
	for i, v := range f.values {
		if v == value {
			idx = i
			break
		}
	}
	switch {
	case checked && idx < 0:
		f.values = append(f.values, value)
	case !checked && idx >= 0:
		f.values = append(f.values[:idx:idx], f.values[idx+1:]...)
	}
	f.phase = Draft
	return nil
}

// SetIncome sets the working income floor; nil unsets it.
func (f *Form) SetIncome(v *int) error {
	if err := f.expect(PickerIncome); err != nil {
		return err
	}
	if v != nil && *v < 0 {
		return fmt.Errorf("%w: income %d", ErrInvalidValue, *v)
	}
	f.income = nil
	if v != nil {
		n := *v
		f.income = &n
	}
	f.phase = Draft
	return nil
}

// Clear empties the working copy only.
func (f *Form) Clear() error {
	if f.open == "" {
		return ErrNoPicker
	}
	switch f.open {
	case PickerLocation:
		f.loc.Clear()
	case PickerIncome:
		f.income = nil
	default:
		f.values = nil
	}
	f.phase = Draft
	return nil
}

// Apply commits the working copy, closes the picker and returns the new
// committed state.
func (f *Form) Apply() (domain.FilterState, error) {
	if f.open == "" {
		return domain.FilterState{}, ErrNoPicker
	}
	next := f.committed.Clone()
	switch f.open {
	case PickerLocation:
		next.Locations = f.loc.Committed()
	case PickerIncome:
		next.AnnualIncomeMin = f.income
	default:
		setList(&next, f.open, append([]string(nil), f.values...))
	}
	f.committed = next.Normalize()
	f.discard()
	f.phase = Committed
	return f.committed.Clone(), nil
}

// Close drops the working copy without committing it.
func (f *Form) Close() {
	if f.open == "" {
		return
	}
	f.discard()
	f.phase = Committed
}

// SetKeyword writes the trimmed keyword straight into the committed state.
func (f *Form) SetKeyword(raw string) {
	next := f.committed.Clone()
	next.Keyword = strings.TrimSpace(raw)
	f.committed = next
	if f.open == "" {
		f.phase = Committed
	}
}

// ClearCategory resets one committed criterion. Clearing the open picker's
// criterion also clears its working copy.
func (f *Form) ClearCategory(p Picker) error {
	next := f.committed.Clone()
	switch p {
	case PickerKeyword:
		next.Keyword = ""
	case PickerLocation:
		next.Locations = nil
	case PickerIncome:
		next.AnnualIncomeMin = nil
	case PickerJob, PickerPreference, PickerPopular, PickerEmployment:
		setList(&next, p, nil)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownPicker, p)
	}
	f.committed = next
	if f.open == p {
		_ = f.Clear()
	}
	if f.open == "" {
		f.phase = Committed
	}
	return nil
}

// Search runs the committed state over records.
func (f *Form) Search(records []domain.JobRecord) []domain.JobRecord {
	out := f.engine.Filter(f.committed, records)
	f.lastCount = len(out)
	if f.open == "" {
		f.phase = Active
	}
	return out
}

// LastCount is the result size of the last Search.
func (f *Form) LastCount() int { return f.lastCount }

func (f *Form) expect(p Picker) error {
	if f.open == "" {
		return ErrNoPicker
	}
	if f.open != p {
		return fmt.Errorf("%w: want %s, open %s", ErrWrongPicker, p, f.open)
	}
	return nil
}

func (f *Form) discard() {
	f.open = ""
	f.loc = nil
	f.values = nil
	f.income = nil
}

func (f *Form) committedList(p Picker) []string {
	switch p {
	case PickerJob:
		return f.committed.JobCategories
	case PickerPreference:
		return f.committed.Preferences
	case PickerPopular:
		return f.committed.PopularTags
	case PickerEmployment:
		return f.committed.EmploymentTypes
	}
	return nil
}

func setList(s *domain.FilterState, p Picker, v []string) {
	switch p {
	case PickerJob:
		s.JobCategories = v
	case PickerPreference:
		s.Preferences = v
	case PickerPopular:
		s.PopularTags = v
	case PickerEmployment:
		s.EmploymentTypes = v
	}
}

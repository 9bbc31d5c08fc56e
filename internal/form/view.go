package form

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/ecodeclub/ekit/slice"

	"jobsearch-engine/internal/domain"
	"jobsearch-engine/internal/filter"
)

const Unset = "未設定"

// Summary is the one-line text of every criterion on the summary row.
type Summary struct {
	Keyword    string `json:"keyword"`
	Location   string `json:"location"`
	Job        string `json:"job"`
	Preference string `json:"preference"`
	Popular    string `json:"popular"`
	Employment string `json:"employment"`
	Income     string `json:"income"`
}

func (f *Form) Summary() Summary {
	s := f.committed
	loc := slice.Map(s.Locations, func(idx int, p domain.LocationPath) string { return p.Last() })
	return Summary{
		Keyword:    orUnset(s.Keyword),
		Location:   joinOrUnset(loc),
		Job:        joinOrUnset(s.JobCategories),
		Preference: joinOrUnset(s.Preferences),
		Popular:    joinOrUnset(s.PopularTags),
		Employment: joinOrUnset(s.EmploymentTypes),
		Income:     IncomeLabel(s.AnnualIncomeMin, f.engine.IncomePolicy()),
	}
}

// IncomeLabel renders an income floor in 万円.
func IncomeLabel(v *int, policy filter.IncomePolicy) string {
	if v == nil {
		return Unset
	}
	suffix := "超"
	if policy == filter.IncomeInclusive {
		suffix = "以上"
	}
	return fmt.Sprintf("%s万円%s", humanize.Comma(int64(*v)), suffix)
}

func joinOrUnset(xs []string) string {
	if len(xs) == 0 {
		return Unset
	}
	return strings.Join(xs, "、")
}

func orUnset(s string) string {
	if strings.TrimSpace(s) == "" {
		return Unset
	}
	return s
}

// LocationNode is one checkbox of the location picker.
type LocationNode struct {
	Path  domain.LocationPath `json:"path"`
	State string              `json:"state"`
}

// PickerView is the working copy of the open picker as a client renders it.
type PickerView struct {
	Picker Picker `json:"picker"`
	Phase  string `json:"phase"`

	Selected []string `json:"selected,omitempty"`
	Income   *int     `json:"income,omitempty"`

	Checked    []LocationNode        `json:"checked,omitempty"`
	Pending    []domain.LocationPath `json:"pending,omitempty"`
	RegionDots []string              `json:"regionDots,omitempty"`
}

// View describes the open picker's working copy.
func (f *Form) View() (PickerView, error) {
	if f.open == "" {
		return PickerView{}, ErrNoPicker
	}
	v := PickerView{Picker: f.open, Phase: f.phase.String()}
	switch f.open {
	case PickerLocation:
		for _, p := range f.loc.Paths() {
			v.Checked = append(v.Checked, LocationNode{Path: p, State: f.loc.State(p).String()})
		}
		v.Pending = f.loc.Committed()
		for _, r := range f.tree.Regions() {
			if f.loc.RegionHasSelection(r.Name) {
				v.RegionDots = append(v.RegionDots, r.Name)
			}
		}
	case PickerIncome:
		if f.income != nil {
			n := *f.income
			v.Income = &n
		}
	default:
		v.Selected = append([]string(nil), f.values...)
	}
	return v, nil
}

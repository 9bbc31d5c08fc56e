// Package catalog derives the option lists every picker offers.
package catalog

import (
	"sort"

	"github.com/ecodeclub/ekit/slice"

	"jobsearch-engine/internal/domain"
	"jobsearch-engine/internal/location"
)

type Catalog struct {
	Regions       []location.Region   `json:"regions"`
	CitiesByPref  map[string][]string `json:"citiesByPref"`
	JobCategories []string            `json:"jobCategories"`
	Preferences   []string            `json:"preferences"`
	Popular       []string            `json:"popular"`
	Annuals       []int               `json:"annuals"`
	Employments   []string            `json:"employments"`
}

// Fixed are the lists that come from configuration rather than records.
type Fixed struct {
	Popular     []string
	Annuals     []int
	Employments []string
}

// Build collects the distinct values found in records. Cities, categories
// and preferences are sorted.
func Build(tree *location.Tree, records []domain.JobRecord, fixed Fixed) Catalog {
	cities := CitiesByPref(records)
	return Catalog{
		Regions:       tree.Regions(),
		CitiesByPref:  cities,
		JobCategories: distinct(records, func(r domain.JobRecord) []string { return r.Categories }),
		Preferences:   distinct(records, func(r domain.JobRecord) []string { return r.Features }),
		Popular:       append([]string(nil), fixed.Popular...),
		Annuals:       append([]int(nil), fixed.Annuals...),
		Employments:   append([]string(nil), fixed.Employments...),
	}
}

// CitiesByPref groups the cities seen in records under their prefecture.
// A prefecture that only appears without a city maps to an empty list.
func CitiesByPref(records []domain.JobRecord) map[string][]string {
	sets := map[string]map[string]bool{}
	for _, r := range records {
		if r.Prefecture == "" {
			continue
		}
		if sets[r.Prefecture] == nil {
			sets[r.Prefecture] = map[string]bool{}
		}
		if r.City != "" {
			sets[r.Prefecture][r.City] = true
		}
	}
	out := make(map[string][]string, len(sets))
	for p, set := range sets {
		out[p] = sortedKeys(set)
	}
	return out
}

func distinct(records []domain.JobRecord, field func(domain.JobRecord) []string) []string {
	set := map[string]bool{}
	for _, r := range records {
		for _, v := range field(r) {
			if v != "" {
				set[v] = true
			}
		}
	}
	return sortedKeys(set)
}

func sortedKeys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

type CityView struct {
	Name  string   `json:"name"`
	Wards []string `json:"wards,omitempty"`
}

type PrefectureView struct {
	Name   string     `json:"name"`
	Cities []CityView `json:"cities"`
}

type RegionView struct {
	Name        string           `json:"name"`
	Prefectures []PrefectureView `json:"prefectures"`
}

// Locations renders the whole tree for the location picker.
func Locations(tree *location.Tree) []RegionView {
	return slice.Map(tree.Regions(), func(idx int, r location.Region) RegionView {
		return RegionView{
			Name: r.Name,
			Prefectures: slice.Map(r.Prefectures, func(idx int, p string) PrefectureView {
				return PrefectureView{
					Name: p,
					Cities: slice.Map(tree.Cities(p), func(idx int, c string) CityView {
						return CityView{Name: c, Wards: tree.Wards(p, c)}
					}),
				}
			}),
		}
	})
}

// TreeFor extends the reference tree with cities seen in records for
// prefectures the reference data leaves empty.
func TreeFor(tree *location.Tree, records []domain.JobRecord) *location.Tree {
	return tree.WithCities(CitiesByPref(records))
}

// Package location holds the static region -> prefecture -> city -> ward
// reference hierarchy used by the location picker.
package location

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

type Region struct {
	Name        string   `json:"name"`
	Prefectures []string `json:"prefectures"`
}

type City struct {
	Name  string   `json:"name"`
	Wards []string `json:"wards,omitempty"`
}

type Prefecture struct {
	Name   string `json:"name"`
	Region string `json:"region"`
	Cities []City `json:"cities,omitempty"`
}

// Tree is immutable after construction and safe to share.
type Tree struct {
	regions []Region
	prefs   map[string]*Prefecture
	order   []string
}

func (t *Tree) Regions() []Region {
	out := make([]Region, len(t.regions))
	for i, r := range t.regions {
		out[i] = Region{Name: r.Name, Prefectures: append([]string(nil), r.Prefectures...)}
	}
	return out
}

// Prefectures returns every prefecture in region order.
func (t *Tree) Prefectures() []string {
	return append([]string(nil), t.order...)
}

func (t *Tree) Prefecture(name string) (Prefecture, bool) {
	p, ok := t.prefs[name]
	if !ok {
		return Prefecture{}, false
	}
	return *p, true
}

func (t *Tree) HasPrefecture(name string) bool {
	_, ok := t.prefs[name]
	return ok
}

func (t *Tree) Region(name string) (Region, bool) {
	for _, r := range t.regions {
		if r.Name == name {
			return r, true
		}
	}
	return Region{}, false
}

func (t *Tree) RegionOf(pref string) string {
	if p, ok := t.prefs[pref]; ok {
		return p.Region
	}
	return ""
}

// Cities returns the city names of pref, or nil when pref is unknown or has
// no reference cities.
func (t *Tree) Cities(pref string) []string {
	p, ok := t.prefs[pref]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(p.Cities))
	for _, c := range p.Cities {
		out = append(out, c.Name)
	}
	return out
}

func (t *Tree) city(pref, city string) (City, bool) {
	p, ok := t.prefs[pref]
	if !ok {
		return City{}, false
	}
	for _, c := range p.Cities {
		if c.Name == city {
			return c, true
		}
	}
	return City{}, false
}

func (t *Tree) HasCity(pref, city string) bool {
	_, ok := t.city(pref, city)
	return ok
}

func (t *Tree) Wards(pref, city string) []string {
	c, ok := t.city(pref, city)
	if !ok {
		return nil
	}
	return append([]string(nil), c.Wards...)
}

func (t *Tree) HasWard(pref, city, ward string) bool {
	c, ok := t.city(pref, city)
	if !ok {
		return false
	}
	for _, w := range c.Wards {
		if w == ward {
			return true
		}
	}
	return false
}

// WithCities returns a copy of t where prefectures that have no reference
// cities get the given ones (sorted, ward-less). Used to fall back to
// cities observed in loaded records.
func (t *Tree) WithCities(citiesByPref map[string][]string) *Tree {
	out := &Tree{
		regions: t.regions,
		prefs:   make(map[string]*Prefecture, len(t.prefs)),
		order:   t.order,
	}
	for name, p := range t.prefs {
		cp := *p
		if len(cp.Cities) == 0 {
			names := append([]string(nil), citiesByPref[name]...)
			sort.Strings(names)
			for _, c := range uniqueNonEmpty(names) {
				cp.Cities = append(cp.Cities, City{Name: c})
			}
		}
		out.prefs[name] = &cp
	}
	return out
}

// New builds a tree from an ordered region list and per-prefecture cities.
// Prefectures in cities that belong to no region are dropped.
func New(regions []Region, cities map[string][]City) (*Tree, error) {
	t := &Tree{prefs: map[string]*Prefecture{}}
	for _, r := range regions {
		name := strings.TrimSpace(r.Name)
		if name == "" {
			return nil, fmt.Errorf("region with empty name")
		}
		reg := Region{Name: name}
		for _, p := range r.Prefectures {
			p = strings.TrimSpace(p)
			if p == "" {
				continue
			}
			if _, dup := t.prefs[p]; dup {
				return nil, fmt.Errorf("prefecture %q listed in more than one region", p)
			}
			t.prefs[p] = &Prefecture{Name: p, Region: name, Cities: cleanCities(cities[p])}
			t.order = append(t.order, p)
			reg.Prefectures = append(reg.Prefectures, p)
		}
		t.regions = append(t.regions, reg)
	}
	return t, nil
}

func cleanCities(in []City) []City {
	seen := map[string]bool{}
	var out []City
	for _, c := range in {
		name := strings.TrimSpace(c.Name)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, City{Name: name, Wards: uniqueNonEmpty(c.Wards)})
	}
	return out
}

func uniqueNonEmpty(in []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

// Load reads a reference file. A missing path yields the built-in tree.
func Load(path string) (*Tree, error) {
	if strings.TrimSpace(path) == "" {
		return Default(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read location reference: %w", err)
	}
	return Parse(b)
}

type fileFormat struct {
	Regions     yaml.Node `yaml:"regions"`
	Prefectures yaml.Node `yaml:"prefectures"`
}

// Parse decodes the reference YAML:
//
//	regions:
//	  近畿: [京都府, 大阪府]
//	prefectures:
//	  京都府:
//	    京都市: [北区, 上京区]
//	    宇治市: []
//	  大阪府: [堺市, 豊中市]
//
// Regions may also be a list of {name, prefectures}. A prefecture maps either
// to a list of city names or to a city -> wards mapping. When regions is
// omitted the built-in region table is used.
func Parse(b []byte) (*Tree, error) {
	var f fileFormat
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("parse location reference: %w", err)
	}

	regions, err := decodeRegions(&f.Regions)
	if err != nil {
		return nil, err
	}
	if len(regions) == 0 {
		regions = DefaultRegions()
	}

	cities, err := decodePrefectures(&f.Prefectures)
	if err != nil {
		return nil, err
	}
	return New(NormalizeRegions(regions), cities)
}

func decodeRegions(n *yaml.Node) ([]Region, error) {
	switch n.Kind {
	case 0:
		return nil, nil
	case yaml.SequenceNode:
		var out []Region
		if err := n.Decode(&out); err != nil {
			return nil, fmt.Errorf("regions: %w", err)
		}
		return out, nil
	case yaml.MappingNode:
		var out []Region
		for i := 0; i+1 < len(n.Content); i += 2 {
			var prefs []string
			if err := n.Content[i+1].Decode(&prefs); err != nil {
				return nil, fmt.Errorf("regions.%s: %w", n.Content[i].Value, err)
			}
			out = append(out, Region{Name: n.Content[i].Value, Prefectures: prefs})
		}
		return out, nil
	default:
		return nil, fmt.Errorf("regions: unexpected yaml kind %d", n.Kind)
	}
}

func decodePrefectures(n *yaml.Node) (map[string][]City, error) {
	out := map[string][]City{}
	if n.Kind == 0 {
		return out, nil
	}
	if n.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("prefectures: expected mapping")
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		pref := n.Content[i].Value
		val := n.Content[i+1]
		switch val.Kind {
		case yaml.SequenceNode:
			var names []string
			if err := val.Decode(&names); err != nil {
				return nil, fmt.Errorf("prefectures.%s: %w", pref, err)
			}
			for _, c := range names {
				out[pref] = append(out[pref], City{Name: c})
			}
		case yaml.MappingNode:
			for j := 0; j+1 < len(val.Content); j += 2 {
				var wards []string
				if w := val.Content[j+1]; !(w.Kind == yaml.ScalarNode && w.Tag == "!!null") {
					if err := w.Decode(&wards); err != nil {
						return nil, fmt.Errorf("prefectures.%s.%s: %w", pref, val.Content[j].Value, err)
					}
				}
				out[pref] = append(out[pref], City{Name: val.Content[j].Value, Wards: wards})
			}
		case yaml.ScalarNode:
			// "京都府: ~" means no reference cities.
		default:
			return nil, fmt.Errorf("prefectures.%s: unexpected yaml kind %d", pref, val.Kind)
		}
	}
	return out, nil
}

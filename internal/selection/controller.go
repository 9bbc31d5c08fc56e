package selection

import (
	"log"

	"jobsearch-engine/internal/domain"
	"jobsearch-engine/internal/location"
)

type CheckState int

const (
	Unchecked CheckState = iota
	Partial
	Checked
)

func (c CheckState) String() string {
	switch c {
	case Checked:
		return "checked"
	case Partial:
		return "partial"
	default:
		return "unchecked"
	}
}

// Controller applies check/uncheck operations to a Set following the
// hierarchy in tree. Every operation is total: unknown names are logged and
// ignored. A Controller is not safe for concurrent use.
type Controller struct {
	tree *location.Tree
	set  *Set
}

func NewController(tree *location.Tree, set *Set) *Controller {
	if set == nil {
		set = NewSet()
	}
	return &Controller{tree: tree, set: set}
}

func (c *Controller) Set() *Set { return c.set }

func (c *Controller) Tree() *location.Tree { return c.tree }

// ToggleRegion checks or unchecks a prefecture with its whole subtree.
func (c *Controller) ToggleRegion(pref string, checked bool) {
	if !c.tree.HasPrefecture(pref) {
		log.Printf("[selection] unknown prefecture=%q", pref)
		return
	}
	root := domain.PrefPath(pref)
	if !checked {
		c.set.removeUnder(root)
		return
	}
	c.set.add(root, explicit)
	for _, city := range c.tree.Cities(pref) {
		c.checkCity(pref, city)
	}
}

// ToggleCity checks a city with all its wards and promotes the prefecture,
// or unchecks them and re-evaluates the prefecture once.
func (c *Controller) ToggleCity(pref, city string, checked bool) {
	if !c.tree.HasCity(pref, city) {
		log.Printf("[selection] unknown city pref=%q city=%q", pref, city)
		return
	}
	if checked {
		c.checkCity(pref, city)
		c.set.add(domain.PrefPath(pref), promoted)
		return
	}
	c.set.removeUnder(domain.CityPath(pref, city))
	c.settlePref(pref)
}

// ToggleWard checks a ward and promotes its city and prefecture, or
// unchecks it and re-evaluates the city, then the prefecture.
func (c *Controller) ToggleWard(pref, city, ward string, checked bool) {
	if !c.tree.HasWard(pref, city, ward) {
		log.Printf("[selection] unknown ward pref=%q city=%q ward=%q", pref, city, ward)
		return
	}
	if checked {
		c.set.add(domain.WardPath(pref, city, ward), explicit)
		c.set.add(domain.CityPath(pref, city), promoted)
		c.set.add(domain.PrefPath(pref), promoted)
		return
	}
	c.set.remove(domain.WardPath(pref, city, ward))
	c.settleCity(pref, city)
	c.settlePref(pref)
}

// Toggle dispatches on the depth of p.
func (c *Controller) Toggle(p domain.LocationPath, checked bool) {
	switch p.Level() {
	case domain.LevelPref:
		c.ToggleRegion(p.Pref, checked)
	case domain.LevelCity:
		c.ToggleCity(p.Pref, p.City, checked)
	case domain.LevelWard:
		c.ToggleWard(p.Pref, p.City, p.Ward, checked)
	default:
		log.Printf("[selection] invalid path=%q", p.String())
	}
}

func (c *Controller) checkCity(pref, city string) {
	c.set.add(domain.CityPath(pref, city), explicit)
	for _, w := range c.tree.Wards(pref, city) {
		c.set.add(domain.WardPath(pref, city, w), explicit)
	}
}

// settleCity runs after a ward was removed: the city goes when no ward is
// left, otherwise it can no longer be explicitly selected as a whole.
func (c *Controller) settleCity(pref, city string) {
	cp := domain.CityPath(pref, city)
	if !c.set.anyBelow(cp) {
		c.set.remove(cp)
		return
	}
	c.set.demote(cp)
}

func (c *Controller) settlePref(pref string) {
	pp := domain.PrefPath(pref)
	if !c.set.anyBelow(pp) {
		c.set.remove(pp)
		return
	}
	c.set.demote(pp)
}

// IsPrefectureFullySelected is true when the prefecture itself is checked
// or every one of its cities is fully selected.
func (c *Controller) IsPrefectureFullySelected(pref string) bool {
	if c.set.isExplicit(domain.PrefPath(pref)) {
		return true
	}
	cities := c.tree.Cities(pref)
	if len(cities) == 0 {
		return false
	}
	for _, city := range cities {
		if !c.IsCitySelected(pref, city) {
			return false
		}
	}
	return true
}

// IsCitySelected is true when the city itself is checked or it has wards
// and every ward is checked.
func (c *Controller) IsCitySelected(pref, city string) bool {
	if c.set.isExplicit(domain.CityPath(pref, city)) {
		return true
	}
	wards := c.tree.Wards(pref, city)
	if len(wards) == 0 {
		return false
	}
	for _, w := range wards {
		if !c.set.isExplicit(domain.WardPath(pref, city, w)) {
			return false
		}
	}
	return true
}

func (c *Controller) PrefectureHasSelection(pref string) bool {
	return c.set.anyUnder(domain.PrefPath(pref))
}

// RegionHasSelection drives the region indicator dot.
func (c *Controller) RegionHasSelection(region string) bool {
	r, ok := c.tree.Region(region)
	if !ok {
		return false
	}
	for _, pref := range r.Prefectures {
		if c.PrefectureHasSelection(pref) {
			return true
		}
	}
	return false
}

// State is what a checkbox for p should render.
func (c *Controller) State(p domain.LocationPath) CheckState {
	var full bool
	switch p.Level() {
	case domain.LevelPref:
		full = c.IsPrefectureFullySelected(p.Pref)
	case domain.LevelCity:
		full = c.IsCitySelected(p.Pref, p.City)
	case domain.LevelWard:
		full = c.set.isExplicit(p)
	default:
		return Unchecked
	}
	switch {
	case full:
		return Checked
	case c.set.anyUnder(p):
		return Partial
	default:
		return Unchecked
	}
}

// Has reports raw membership, promoted members included.
func (c *Controller) Has(p domain.LocationPath) bool { return c.set.Has(p) }

func (c *Controller) Clear() { c.set.clear() }

// Paths lists every member in tree order.
func (c *Controller) Paths() []domain.LocationPath {
	var out []domain.LocationPath
	for _, pref := range c.tree.Prefectures() {
		pp := domain.PrefPath(pref)
		if !c.set.anyUnder(pp) {
			continue
		}
		if c.set.Has(pp) {
			out = append(out, pp)
		}
		for _, city := range c.tree.Cities(pref) {
			cp := domain.CityPath(pref, city)
			if c.set.Has(cp) {
				out = append(out, cp)
			}
			for _, w := range c.tree.Wards(pref, city) {
				if wp := domain.WardPath(pref, city, w); c.set.Has(wp) {
					out = append(out, wp)
				}
			}
		}
	}
	return out
}

// Committed is the location list handed to the filter: the coarsest paths
// covering exactly the explicit selection. Promoted members contribute
// nothing on their own.
func (c *Controller) Committed() []domain.LocationPath {
	var out []domain.LocationPath
	for _, pref := range c.tree.Prefectures() {
		if !c.PrefectureHasSelection(pref) {
			continue
		}
		if c.IsPrefectureFullySelected(pref) {
			out = append(out, domain.PrefPath(pref))
			continue
		}
		for _, city := range c.tree.Cities(pref) {
			if c.IsCitySelected(pref, city) {
				out = append(out, domain.CityPath(pref, city))
				continue
			}
			for _, w := range c.tree.Wards(pref, city) {
				if wp := domain.WardPath(pref, city, w); c.set.isExplicit(wp) {
					out = append(out, wp)
				}
			}
		}
	}
	return out
}

// Seed replaces the set with the replayed toggles of paths.
func (c *Controller) Seed(paths []domain.LocationPath) {
	c.set.clear()
	for _, p := range paths {
		c.Toggle(p, true)
	}
}

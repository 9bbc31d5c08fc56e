package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

type PathLevel int

const (
	LevelNone PathLevel = iota
	LevelPref
	LevelCity
	LevelWard
)

func (l PathLevel) String() string {
	switch l {
	case LevelPref:
		return "pref"
	case LevelCity:
		return "city"
	case LevelWard:
		return "ward"
	default:
		return ""
	}
}

// LocationPath is a (prefecture[, city[, ward]]) tuple. Two paths are equal
// only when every component is equal; names are never compared by prefix.
type LocationPath struct {
	Pref string
	City string
	Ward string
}

func PrefPath(pref string) LocationPath { return LocationPath{Pref: pref} }

func CityPath(pref, city string) LocationPath { return LocationPath{Pref: pref, City: city} }

func WardPath(pref, city, ward string) LocationPath {
	return LocationPath{Pref: pref, City: city, Ward: ward}
}

// Level reports how deep the path is. A path with a ward but no city is
// malformed and reports LevelNone.
func (p LocationPath) Level() PathLevel {
	switch {
	case p.Pref == "":
		return LevelNone
	case p.City == "" && p.Ward == "":
		return LevelPref
	case p.City == "":
		return LevelNone
	case p.Ward == "":
		return LevelCity
	default:
		return LevelWard
	}
}

func (p LocationPath) Valid() bool { return p.Level() != LevelNone }

func (p LocationPath) Parent() (LocationPath, bool) {
	switch p.Level() {
	case LevelWard:
		return CityPath(p.Pref, p.City), true
	case LevelCity:
		return PrefPath(p.Pref), true
	default:
		return LocationPath{}, false
	}
}

// Contains reports whether other is p itself or one of its descendants.
func (p LocationPath) Contains(other LocationPath) bool {
	if !p.Valid() || !other.Valid() || p.Pref != other.Pref {
		return false
	}
	switch p.Level() {
	case LevelPref:
		return true
	case LevelCity:
		return other.City == p.City
	default:
		return other == p
	}
}

// keySep cannot appear in reference names (spreadsheet cells are trimmed text).
const keySep = "\x1f"

// Key is a stable map key built from the components.
func (p LocationPath) Key() string {
	switch p.Level() {
	case LevelPref:
		return p.Pref
	case LevelCity:
		return p.Pref + keySep + p.City
	case LevelWard:
		return p.Pref + keySep + p.City + keySep + p.Ward
	default:
		return ""
	}
}

// Last returns the deepest component, used for the summary row.
func (p LocationPath) Last() string {
	switch p.Level() {
	case LevelWard:
		return p.Ward
	case LevelCity:
		return p.City
	default:
		return p.Pref
	}
}

// String renders the legacy "pref/city/ward" form.
func (p LocationPath) String() string {
	parts := []string{p.Pref}
	if p.City != "" {
		parts = append(parts, p.City)
	}
	if p.Ward != "" {
		parts = append(parts, p.Ward)
	}
	return strings.Join(parts, "/")
}

// ParseLocationPath accepts the legacy "pref/city/ward" form.
func ParseLocationPath(s string) (LocationPath, error) {
	parts := strings.Split(strings.TrimSpace(s), "/")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	var p LocationPath
	switch len(parts) {
	case 1:
		p = PrefPath(parts[0])
	case 2:
		p = CityPath(parts[0], parts[1])
	case 3:
		p = WardPath(parts[0], parts[1], parts[2])
	default:
		return LocationPath{}, fmt.Errorf("location path %q: expected 1-3 components", s)
	}
	if !p.Valid() {
		return LocationPath{}, fmt.Errorf("location path %q: empty component", s)
	}
	return p, nil
}

type locationPathJSON struct {
	Type string `json:"type"`
	Pref string `json:"pref"`
	City string `json:"city,omitempty"`
	Ward string `json:"ward,omitempty"`
}

func (p LocationPath) MarshalJSON() ([]byte, error) {
	return json.Marshal(locationPathJSON{
		Type: p.Level().String(),
		Pref: p.Pref,
		City: p.City,
		Ward: p.Ward,
	})
}

// UnmarshalJSON accepts {"type":"pref","pref":"京都府"} objects and plain
// "pref/city" strings. The type field is advisory; the components decide.
func (p *LocationPath) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		parsed, err := ParseLocationPath(s)
		if err != nil {
			return err
		}
		*p = parsed
		return nil
	}

	var raw locationPathJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	out := LocationPath{
		Pref: strings.TrimSpace(raw.Pref),
		City: strings.TrimSpace(raw.City),
		Ward: strings.TrimSpace(raw.Ward),
	}
	if raw.Type == LevelPref.String() {
		out.City, out.Ward = "", ""
	} else if raw.Type == LevelCity.String() {
		out.Ward = ""
	}
	if !out.Valid() {
		return fmt.Errorf("location path: invalid components %+v", raw)
	}
	*p = out
	return nil
}

package config

import (
	"fmt"
	"sort"
	"strings"
)

type Validation struct {
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func (v *Validation) addErr(format string, args ...any) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}
func (v *Validation) addWarn(format string, args ...any) {
	v.Warnings = append(v.Warnings, fmt.Sprintf(format, args...))
}
func (v Validation) OK() bool { return len(v.Errors) == 0 }

// NormalizeAndValidate returns a normalized copy with defaults filled in,
// plus every problem found.
func NormalizeAndValidate(cfg Config) (Config, Validation) {
	var out = cfg
	var res Validation
	def := Default()

	trimList := func(xs []string) []string {
		seen := map[string]bool{}
		var ys []string
		for _, x := range xs {
			x = strings.TrimSpace(x)
			if x == "" || seen[x] {
				continue
			}
			seen[x] = true
			ys = append(ys, x)
		}
		return ys
	}

	out.Source.URLs = trimList(out.Source.URLs)
	out.Filters.Popular = trimList(out.Filters.Popular)
	out.Filters.Employments = trimList(out.Filters.Employments)
	out.Source.Kind = strings.ToLower(strings.TrimSpace(out.Source.Kind))
	out.Filters.IncomePolicy = strings.ToLower(strings.TrimSpace(out.Filters.IncomePolicy))

	// ---- Defaults ----
	if out.App.Port == 0 {
		out.App.Port = def.App.Port
	}
	if strings.TrimSpace(out.App.DataDir) == "" {
		out.App.DataDir = def.App.DataDir
	}
	if out.Source.Kind == "" {
		out.Source.Kind = def.Source.Kind
	}
	if out.Source.TimeoutSeconds == 0 {
		out.Source.TimeoutSeconds = def.Source.TimeoutSeconds
	}
	if out.Source.RatePerSec <= 0 {
		out.Source.RatePerSec = def.Source.RatePerSec
	}
	if out.Source.Burst <= 0 {
		out.Source.Burst = def.Source.Burst
	}
	if out.Filters.IncomePolicy == "" {
		out.Filters.IncomePolicy = def.Filters.IncomePolicy
	}
	if len(out.Filters.Popular) == 0 {
		out.Filters.Popular = def.Filters.Popular
	}
	if len(out.Filters.Annuals) == 0 {
		out.Filters.Annuals = def.Filters.Annuals
	}
	if len(out.Filters.Employments) == 0 {
		out.Filters.Employments = def.Filters.Employments
	}
	if out.Sessions.TTLMinutes <= 0 {
		out.Sessions.TTLMinutes = def.Sessions.TTLMinutes
	}
	if out.Sessions.Max <= 0 {
		out.Sessions.Max = def.Sessions.Max
	}

	annuals := map[int]bool{}
	var uniq []int
	for _, a := range out.Filters.Annuals {
		if !annuals[a] {
			annuals[a] = true
			uniq = append(uniq, a)
		}
	}
	sort.Ints(uniq)
	out.Filters.Annuals = uniq

	// ---- Validation rules ----
	if err := Validate(out); err != nil {
		for _, line := range strings.Split(strings.TrimPrefix(err.Error(), "config validation failed:\n- "), "\n- ") {
			res.addErr("%s", line)
		}
	}

	if len(out.Source.URLs) == 0 {
		res.addWarn("source.urls is empty; the engine will serve the cached snapshot or no records.")
	}
	if out.Source.RefreshMinutes < 0 {
		res.addErr("source.refresh_minutes must be >= 0")
	} else if out.Source.RefreshMinutes > 0 && out.Source.RefreshMinutes < 5 {
		res.addWarn("source.refresh_minutes is very low (%d) and may hit Apps Script quotas.", out.Source.RefreshMinutes)
	}
	if out.Source.Retries > 10 {
		res.addWarn("source.retries is %d; a dead endpoint will stall each refresh.", out.Source.Retries)
	}
	if out.Source.UseToken && len(out.Source.URLs) == 0 {
		res.addWarn("source.use_token is set but no source.urls are configured.")
	}
	if out.Source.Kind != "auto" {
		for _, u := range out.Source.URLs {
			if strings.Contains(strings.ToLower(u), "output=csv") && out.Source.Kind != "csv" {
				res.addWarn("source url %q looks like CSV but source.kind=%s", u, out.Source.Kind)
			}
		}
	}

	return out, res
}

package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Validate is the hard subset of NormalizeAndValidate used before saving.
func Validate(cfg Config) error {
	var errs []string

	if cfg.App.Port <= 0 || cfg.App.Port > 65535 {
		errs = append(errs, "app.port must be 1..65535")
	}
	if cfg.Source.TimeoutSeconds < 0 {
		errs = append(errs, "source.timeout_seconds must be >= 0")
	}
	if cfg.Source.Retries < 0 {
		errs = append(errs, "source.retries must be >= 0")
	}
	for i, u := range cfg.Source.URLs {
		if !validURL(u) {
			errs = append(errs, fmt.Sprintf("source.urls[%d] is not an http(s) URL: %q", i, u))
		}
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Source.Kind)) {
	case "", "auto", "json", "csv", "html":
	default:
		errs = append(errs, fmt.Sprintf("source.kind must be auto, json, csv or html (got %q)", cfg.Source.Kind))
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Filters.IncomePolicy)) {
	case "", "strict", "inclusive":
	default:
		errs = append(errs, fmt.Sprintf("filters.income_policy must be strict or inclusive (got %q)", cfg.Filters.IncomePolicy))
	}
	for i, a := range cfg.Filters.Annuals {
		if a <= 0 {
			errs = append(errs, fmt.Sprintf("filters.annuals[%d] must be > 0", i))
		}
	}

	if len(errs) > 0 {
		return errors.New("config validation failed:\n- " + joinLines(errs))
	}
	return nil
}

func validURL(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func SaveAtomic(path string, cfg Config) error {
	if err := Validate(cfg); err != nil {
		return err
	}

	b, err := yaml.Marshal(&cfg)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp := path + ".tmp"
	bak := path + ".bak"

	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}

	_ = os.Remove(bak)
	_ = os.Rename(path, bak)

	return os.Rename(tmp, path)
}

func joinLines(lines []string) string {
	return strings.Join(lines, "\n- ")
}

// config/overlay.go
package config

import (
	"os"
	"strings"
)

const (
	EnvDataDir   = "JOBSEARCH_DATA_DIR"
	EnvSourceURL = "JOBSEARCH_SOURCE_URL"
)

// OverlayEnv applies environment overrides. JOBSEARCH_SOURCE_URL may hold
// several comma-separated URLs and replaces source.urls.
func OverlayEnv(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv(EnvDataDir)); v != "" {
		cfg.App.DataDir = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvSourceURL)); v != "" {
		var urls []string
		for _, u := range strings.Split(v, ",") {
			if u = strings.TrimSpace(u); u != "" {
				urls = append(urls, u)
			}
		}
		if len(urls) > 0 {
			cfg.Source.URLs = urls
		}
	}
}

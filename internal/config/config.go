// engine/internal/config/config.go
package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	App struct {
		Port       int    `yaml:"port"`
		DataDir    string `yaml:"data_dir"`
		CORSOrigin string `yaml:"cors_origin"`
	} `yaml:"app"`

	Source struct {
		Kind           string   `yaml:"kind"` // auto | json | csv | html
		URLs           []string `yaml:"urls,omitempty"`
		TimeoutSeconds int      `yaml:"timeout_seconds"`
		RefreshMinutes int      `yaml:"refresh_minutes"`
		Retries        int      `yaml:"retries"`
		RatePerSec     float64  `yaml:"rate_per_sec"`
		Burst          int      `yaml:"burst"`
		UseToken       bool     `yaml:"use_token"` // send the keychain token as ?token=
	} `yaml:"source"`

	Reference struct {
		LocationsPath string `yaml:"locations_path"`
	} `yaml:"reference"`

	Filters struct {
		IncomePolicy string   `yaml:"income_policy"` // strict | inclusive
		Popular      []string `yaml:"popular"`
		Annuals      []int    `yaml:"annuals"`
		Employments  []string `yaml:"employments"`
	} `yaml:"filters"`

	Sessions struct {
		TTLMinutes int `yaml:"ttl_minutes"`
		Max        int `yaml:"max"`
	} `yaml:"sessions"`
}

func Load(path string) (Config, error) {
	var cfg Config
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	err = yaml.Unmarshal(b, &cfg)
	return cfg, err
}

// Parse decodes YAML without touching the filesystem.
func Parse(b []byte) (Config, error) {
	var cfg Config
	err := yaml.Unmarshal(b, &cfg)
	return cfg, err
}

// Default is the configuration used when no file is present.
func Default() Config {
	var cfg Config
	cfg.App.Port = 8787
	cfg.App.DataDir = "./data"
	cfg.Source.Kind = "auto"
	cfg.Source.TimeoutSeconds = 20
	cfg.Source.RefreshMinutes = 30
	cfg.Source.Retries = 3
	cfg.Source.RatePerSec = 1
	cfg.Source.Burst = 2
	cfg.Filters.IncomePolicy = "strict"
	cfg.Filters.Popular = DefaultPopular()
	cfg.Filters.Annuals = DefaultAnnuals()
	cfg.Filters.Employments = DefaultEmployments()
	cfg.Sessions.TTLMinutes = 60
	cfg.Sessions.Max = 1000
	return cfg
}

func DefaultPopular() []string {
	return []string{"高収入", "未経験OK", "日払いOK", "週1〜OK", "駅近", "交通費全額", "残業なし", "シフト自由", "深夜手当", "無料送迎"}
}

// DefaultAnnuals are the income floors offered by the picker, in 万円.
func DefaultAnnuals() []int {
	return []int{200, 300, 400, 500, 600, 700, 800, 900, 1000}
}

func DefaultEmployments() []string {
	return []string{"正社員", "派遣社員", "業務委託", "契約社員", "アルバイト"}
}

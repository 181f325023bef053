package config

import (
	_ "embed"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed default.yml
var defaultYAML []byte

const (
	KindText     = "text"
	KindEmail    = "email"
	KindTextarea = "textarea"
	KindTags     = "tags"
)

// Field describes one input of the campaign form.
type Field struct {
	Name        string `yaml:"name" json:"name"`
	Label       string `yaml:"label" json:"label"`
	Kind        string `yaml:"kind" json:"kind"`
	Required    bool   `yaml:"required" json:"required"`
	Placeholder string `yaml:"placeholder,omitempty" json:"placeholder,omitempty"`
	Section     string `yaml:"section,omitempty" json:"section,omitempty"`
}

func (f Field) IsTags() bool { return f.Kind == KindTags }

type Config struct {
	App struct {
		Addr    string `yaml:"addr" json:"addr"`
		DataDir string `yaml:"data_dir" json:"data_dir"`

		// Origins other than the server's own that may call the API from a browser.
		AllowedOrigins []string `yaml:"allowed_origins" json:"allowed_origins"`
	} `yaml:"app" json:"app"`

	Webhook struct {
		URL            string  `yaml:"url" json:"url"`
		TimeoutSeconds int     `yaml:"timeout_seconds" json:"timeout_seconds"`
		KeyringAccount string  `yaml:"keyring_account" json:"keyring_account"`
		RatePerSecond  float64 `yaml:"rate_per_second" json:"rate_per_second"`
		Burst          int     `yaml:"burst" json:"burst"`
	} `yaml:"webhook" json:"webhook"`

	Sessions struct {
		TTLMinutes int `yaml:"ttl_minutes" json:"ttl_minutes"`
		MaxForms   int `yaml:"max_forms" json:"max_forms"`
	} `yaml:"sessions" json:"sessions"`

	Ledger struct {
		RetentionDays int `yaml:"retention_days" json:"retention_days"`
		PruneMinutes  int `yaml:"prune_minutes" json:"prune_minutes"`
	} `yaml:"ledger" json:"ledger"`

	Form struct {
		Title  string  `yaml:"title" json:"title"`
		Fields []Field `yaml:"fields" json:"fields"`
	} `yaml:"form" json:"form"`
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

// Default returns the embedded default configuration.
func Default() Config {
	var cfg Config
	if err := yaml.Unmarshal(defaultYAML, &cfg); err != nil {
		panic("config: embedded default.yml: " + err.Error())
	}
	return cfg
}

// ApplyEnv overlays deployment-time settings from the environment.
func ApplyEnv(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv("INTAKE_WEBHOOK_URL")); v != "" {
		cfg.Webhook.URL = v
	}
	if v := strings.TrimSpace(os.Getenv("INTAKE_ADDR")); v != "" {
		cfg.App.Addr = v
	}
}

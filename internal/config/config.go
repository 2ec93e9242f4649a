package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"jobradar-engine/internal/dedup"
	"jobradar-engine/internal/filter"
	"jobradar-engine/internal/mailer"
	"jobradar-engine/internal/report"
)

// Crawler is one entry of the crawlers map. Options are passed through to
// the adapter untyped; each adapter documents its own knobs.
type Crawler struct {
	Enabled bool           `yaml:"enabled"`
	Tier    int            `yaml:"tier"`
	Options map[string]any `yaml:"options"`
}

type Config struct {
	Paths struct {
		DataDir      string `yaml:"data_dir"`
		LogFile      string `yaml:"log_file"`
		DBPath       string `yaml:"db_path"`
		DebugDir     string `yaml:"debug_dir"`
		HealthFile   string `yaml:"health_file"`
		ReportOutput string `yaml:"report_output"`
	} `yaml:"paths"`

	Network struct {
		TimeoutSec       int     `yaml:"timeout_sec"`
		Retry            int     `yaml:"retry"`
		RatePerHost      float64 `yaml:"rate_per_host"` // requests per second
		DebugDumpEnabled bool    `yaml:"debug_dump_enabled"`
	} `yaml:"network"`

	Collection struct {
		Workers           int `yaml:"workers"`
		MaxItemsPerSource int `yaml:"max_items_per_source"`

		SourceHealth struct {
			Enabled            bool `yaml:"enabled"`
			ZeroYieldThreshold int  `yaml:"zero_yield_threshold"`
			TransientThreshold int  `yaml:"transient_threshold"`
		} `yaml:"source_health"`
	} `yaml:"collection"`

	Crawlers map[string]Crawler `yaml:"crawlers"`

	Dedup      dedup.Config  `yaml:"dedup"`
	RuleFilter filter.Config `yaml:"rule_filter"`
	Report     report.Config `yaml:"report"`
	Email      mailer.Config `yaml:"email"`
}

func Load(path string) (Config, error) {
	cfg := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Default is the config used when the file omits a section entirely.
func Default() Config {
	var cfg Config
	cfg.Paths.DataDir = "data"
	cfg.Paths.LogFile = "data/jobradar.log"
	cfg.Paths.DBPath = "data/jobs.db"
	cfg.Paths.DebugDir = "data/debug"
	cfg.Paths.HealthFile = "data/source_health.json"
	cfg.Paths.ReportOutput = "data/reports/daily.html"
	cfg.Network.TimeoutSec = 10
	cfg.Network.Retry = 2
	cfg.Network.RatePerHost = 1
	cfg.Network.DebugDumpEnabled = true
	cfg.Collection.Workers = 4
	cfg.Collection.MaxItemsPerSource = 30
	cfg.Collection.SourceHealth.Enabled = true
	cfg.Dedup = dedup.DefaultConfig()
	cfg.RuleFilter = filter.DefaultConfig()
	cfg.Email.SkipIfEmpty = true
	return cfg
}

// NetworkTimeout is the per-request read timeout as a duration.
func (c Config) NetworkTimeout() time.Duration {
	if c.Network.TimeoutSec <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.Network.TimeoutSec) * time.Second
}

package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port       string `yaml:"port"`
		AdminToken string `yaml:"admin_token"`
	} `yaml:"server"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Quiz struct {
		TTL        string `yaml:"ttl"`
		CatalogDir string `yaml:"catalog_dir"`
	} `yaml:"quiz"`
	Progress Progress `yaml:"progress"`
}

// Progress selects the persistence sinks behind the gateway.
type Progress struct {
	Remote     string `yaml:"remote"` // memory, redis, postgres or http
	RemoteURL  string `yaml:"remote_url"`
	Timeout    string `yaml:"timeout"`
	Local      string `yaml:"local"` // memory or sqlite
	SQLitePath string `yaml:"sqlite_path"`
	Namespace  string `yaml:"namespace"`
}

// Load reads YAML config from path. Secrets may be overridden from the environment.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	if v := os.Getenv("POSTGRES_URL"); v != "" {
		cfg.Postgres.URL = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("ADMIN_TOKEN"); v != "" {
		cfg.Server.AdminToken = v
	}
	cfg.Progress.applyDefaults()
	return cfg, nil
}

func (p *Progress) applyDefaults() {
	if p.Remote == "" {
		p.Remote = "memory"
	}
	if p.Local == "" {
		p.Local = "memory"
	}
	if p.SQLitePath == "" {
		p.SQLitePath = "data/progress.db"
	}
	if p.Namespace == "" {
		p.Namespace = "default"
	}
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}

package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	StorageSQLite = "sqlite"
	StorageRedis  = "redis"
	StorageMemory = "memory"

	SourceRESTCountries = "restcountries"
	SourcePostgres      = "postgres"
	SourceBundled       = "bundled"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	API struct {
		BaseURL string `yaml:"base_url"`
		Timeout string `yaml:"timeout"`
	} `yaml:"api"`
	Countries struct {
		Source string `yaml:"source"`
		URL    string `yaml:"url"`
		TTL    string `yaml:"ttl"`
	} `yaml:"countries"`
	Storage struct {
		Driver string `yaml:"driver"`
		Path   string `yaml:"path"`
	} `yaml:"storage"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Game struct {
		Duration       string `yaml:"duration"`
		TickInterval   string `yaml:"tick_interval"`
		SpeedQuestions int    `yaml:"speed_questions"`
		AnswerDelay    string `yaml:"answer_delay"`
	} `yaml:"game"`
}

// Defaults returns a config that works without any file or service.
func Defaults() Config {
	cfg := Config{}
	cfg.Server.Port = "8080"
	cfg.API.BaseURL = "http://localhost:8000"
	cfg.API.Timeout = "10s"
	cfg.Countries.Source = SourceRESTCountries
	cfg.Countries.TTL = "168h"
	cfg.Storage.Driver = StorageSQLite
	cfg.Storage.Path = defaultStoragePath()
	return cfg
}

// Load reads YAML config from path on top of Defaults. A missing file is not
// an error. GEO_API_URL, GEO_POSTGRES_URL and GEO_REDIS_ADDR override the file.
func Load(path string) (Config, error) {
	cfg := Defaults()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return cfg, err
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	}
	applyEnv(&cfg)
	fillBlanks(&cfg)
	return cfg, nil
}

// fillBlanks restores defaults for keys the file set to "".
func fillBlanks(cfg *Config) {
	def := Defaults()
	if cfg.Server.Port == "" {
		cfg.Server.Port = def.Server.Port
	}
	if cfg.API.BaseURL == "" {
		cfg.API.BaseURL = def.API.BaseURL
	}
	if cfg.Countries.Source == "" {
		cfg.Countries.Source = def.Countries.Source
	}
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = def.Storage.Driver
	}
	if cfg.Storage.Path == "" {
		cfg.Storage.Path = def.Storage.Path
	}
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("GEO_API_URL"); v != "" {
		cfg.API.BaseURL = v
	}
	if v := os.Getenv("GEO_POSTGRES_URL"); v != "" {
		cfg.Postgres.URL = v
	}
	if v := os.Getenv("GEO_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
}

func defaultStoragePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "geo-elevate.db"
	}
	return filepath.Join(dir, "geo-elevate", "store.db")
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

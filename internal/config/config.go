package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// Config holds all server configuration
type Config struct {
	Server struct {
		Host               string   `yaml:"host"`
		Port               string   `yaml:"port"`
		CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`
		FrontendDistPath   string   `yaml:"frontend_dist_path"`
	} `yaml:"server"`
	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`
	Uploads struct {
		ArchiveDir string `yaml:"archive_dir"`
		MaxBytes   int    `yaml:"max_bytes"`
	} `yaml:"uploads"`
	Analysis struct {
		Delay time.Duration `yaml:"delay"`
	} `yaml:"analysis"`
	RateLimit struct {
		PerSecond float64 `yaml:"per_second"`
		Burst     int     `yaml:"burst"`
	} `yaml:"rate_limit"`
	Goals struct {
		DailyResetCron string `yaml:"daily_reset_cron"`
	} `yaml:"goals"`
}

const (
	defaultHost      = "127.0.0.1"
	defaultPort      = "8080"
	defaultDBPath    = "./nextbet.db"
	defaultMaxBytes  = 10 << 20
	defaultDelay     = 2 * time.Second
	defaultRateLimit = 2.0
	defaultBurst     = 5
)

var defaultCORSOrigins = []string{"http://localhost:5173", "http://localhost:3000"}

// LoadEnvFile loads variables from a .env file into the environment. A missing
// file is not an error; variables already set win.
func LoadEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// Load reads config from a YAML file over the defaults, then applies
// environment variable overrides. A missing file is treated as empty.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.fillEmpty()

	return cfg, nil
}

// Default returns the configuration used when nothing is set
func Default() *Config {
	cfg := &Config{}
	cfg.Server.Host = defaultHost
	cfg.Server.Port = defaultPort
	cfg.Server.CORSAllowedOrigins = append([]string(nil), defaultCORSOrigins...)
	cfg.Database.Path = defaultDBPath
	cfg.Uploads.MaxBytes = defaultMaxBytes
	cfg.Analysis.Delay = defaultDelay
	cfg.RateLimit.PerSecond = defaultRateLimit
	cfg.RateLimit.Burst = defaultBurst
	return cfg
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("HOST"); v != "" {
		c.Server.Host = v
	}
	if v := os.Getenv("PORT"); v != "" {
		c.Server.Port = v
	}
	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		c.Server.CORSAllowedOrigins = splitList(v)
	}
	if v := os.Getenv("FRONTEND_DIST_PATH"); v != "" {
		c.Server.FrontendDistPath = v
	}
	if v := os.Getenv("DB_PATH"); v != "" {
		c.Database.Path = v
	}
	if v := os.Getenv("UPLOAD_ARCHIVE_DIR"); v != "" {
		c.Uploads.ArchiveDir = v
	}
	if v := os.Getenv("MAX_UPLOAD_BYTES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("MAX_UPLOAD_BYTES: %w", err)
		}
		c.Uploads.MaxBytes = n
	}
	if v := os.Getenv("ANALYSIS_DELAY"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("ANALYSIS_DELAY: %w", err)
		}
		c.Analysis.Delay = d
	}
	if v := os.Getenv("DAILY_RESET_CRON"); v != "" {
		c.Goals.DailyResetCron = v
	}
	return nil
}

// fillEmpty restores defaults for values the YAML file blanked out
func (c *Config) fillEmpty() {
	if c.Server.Host == "" {
		c.Server.Host = defaultHost
	}
	if c.Server.Port == "" {
		c.Server.Port = defaultPort
	}
	if len(c.Server.CORSAllowedOrigins) == 0 {
		c.Server.CORSAllowedOrigins = append([]string(nil), defaultCORSOrigins...)
	}
	if c.Database.Path == "" {
		c.Database.Path = defaultDBPath
	}
}

// Validate checks that all values are usable
func (c *Config) Validate() error {
	port, err := strconv.Atoi(c.Server.Port)
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("server.port must be a number between 1 and 65535, got %q", c.Server.Port)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.Uploads.MaxBytes <= 0 {
		return fmt.Errorf("uploads.max_bytes must be positive")
	}
	if c.Analysis.Delay < 0 {
		return fmt.Errorf("analysis.delay must not be negative")
	}
	if c.RateLimit.PerSecond <= 0 || c.RateLimit.Burst <= 0 {
		return fmt.Errorf("rate_limit.per_second and rate_limit.burst must be positive")
	}
	if c.Goals.DailyResetCron != "" {
		if _, err := cron.ParseStandard(c.Goals.DailyResetCron); err != nil {
			return fmt.Errorf("goals.daily_reset_cron: %w", err)
		}
	}
	return nil
}

// Addr returns the listen address
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Server.Host, c.Server.Port)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultPath is read when neither --config nor CONFIG_PATH is set.
const DefaultPath = "config.yaml"

type Config struct {
	Scanner struct {
		Binary      string `yaml:"binary"`
		Image       string `yaml:"image"`
		MountPoint  string `yaml:"mountPoint"`
		ErrorReport string `yaml:"errorReport"`
	} `yaml:"scanner"`

	Log struct {
		Level       string `yaml:"level"`
		Development bool   `yaml:"development"`
	} `yaml:"log"`

	Server struct {
		Port               int      `yaml:"port"`
		MaxConcurrentScans int      `yaml:"maxConcurrentScans"`
		APIKeys            []string `yaml:"apiKeys"`
		AllowedOrigins     []string `yaml:"allowedOrigins"`
		AllowAnonymous     bool     `yaml:"allowAnonymous"` // serve without apiKeys
		RateLimit          struct {
			Capacity   int `yaml:"capacity"`
			RefillRate int `yaml:"refillRate"`
		} `yaml:"rateLimit"`
	} `yaml:"server"`

	Database struct {
		Driver   string `yaml:"driver"` // mysql | postgres, empty disables history
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Name     string `yaml:"name"`
		SSLMode  string `yaml:"sslMode"`
	} `yaml:"database"`

	Minio struct {
		Endpoint   string `yaml:"endpoint"` // empty disables artifact upload
		AccessKey  string `yaml:"accessKey"`
		SecretKey  string `yaml:"secretKey"`
		BucketName string `yaml:"bucketName"`
		Region     string `yaml:"region"`
		UseSSL     bool   `yaml:"useSSL"`
	} `yaml:"minio"`

	OpenAI struct {
		APIKey  string `yaml:"apiKey"` // empty disables triage
		Model   string `yaml:"model"`
		BaseURL string `yaml:"baseURL"`
	} `yaml:"openai"`
}

// Defaults returns a config with every optional integration disabled.
func Defaults() *Config {
	var cfg Config
	cfg.applyDefaults()
	return &cfg
}

// Load baca file config.yaml
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &cfg, nil
}

// Resolve picks the config file: an explicit path must exist, the
// CONFIG_PATH fallback must exist, and a missing DefaultPath means defaults.
func Resolve(explicit string) (*Config, error) {
	if explicit != "" {
		return Load(explicit)
	}
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		return Load(v)
	}
	cfg, err := Load(DefaultPath)
	if errors.Is(err, os.ErrNotExist) {
		return Defaults(), nil
	}
	return cfg, err
}

func (c *Config) applyDefaults() {
	if c.Scanner.Binary == "" {
		c.Scanner.Binary = "docker"
	}
	if c.Scanner.Image == "" {
		c.Scanner.Image = "zricethezav/gitleaks:latest"
	}
	if c.Scanner.MountPoint == "" {
		c.Scanner.MountPoint = "/code"
	}
	if c.Scanner.ErrorReport == "" {
		c.Scanner.ErrorReport = "error_report.json"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.MaxConcurrentScans <= 0 {
		c.Server.MaxConcurrentScans = 2
	}
	if c.Server.RateLimit.Capacity <= 0 {
		c.Server.RateLimit.Capacity = 30
	}
	if c.Server.RateLimit.RefillRate <= 0 {
		c.Server.RateLimit.RefillRate = 1
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.Minio.BucketName == "" {
		c.Minio.BucketName = "leakscan"
	}
}

// Validate rejects settings that cannot work together.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "", "mysql", "postgres":
	default:
		return fmt.Errorf("unsupported database driver %q (allowed: mysql, postgres)", c.Database.Driver)
	}
	return nil
}

// Helper untuk build DSN MySQL
func (c *Config) MySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
	)
}

// PostgresDSN builds a lib/pq connection string.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

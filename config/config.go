package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

type Config struct {
	MongoURI        string `yaml:"mongo_uri" toml:"mongo_uri"`
	MongoDatabase   string `yaml:"mongo_database" toml:"mongo_database"`
	MongoCollection string `yaml:"mongo_collection" toml:"mongo_collection"`

	ServerHost      string        `yaml:"server_host" toml:"server_host"`
	ServerPort      int           `yaml:"server_port" toml:"server_port"`
	Environment     string        `yaml:"environment" toml:"environment"`
	StatusMode      string        `yaml:"status_mode" toml:"status_mode"`
	Store           string        `yaml:"store" toml:"store"`
	StoreTimeout    time.Duration `yaml:"store_timeout" toml:"store_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" toml:"shutdown_timeout"`

	RateLimitRPS   float64  `yaml:"rate_limit_rps" toml:"rate_limit_rps"`
	RateLimitBurst int      `yaml:"rate_limit_burst" toml:"rate_limit_burst"`
	TrustedProxies []string `yaml:"trusted_proxies" toml:"trusted_proxies"`

	LogFilePath   string `yaml:"log_file_path" toml:"log_file_path"`
	LogHMACKey    string `yaml:"log_hmac_key" toml:"log_hmac_key"`
	LogMaxSizeMB  int    `yaml:"log_max_size_mb" toml:"log_max_size_mb"`
	LogMaxBackups int    `yaml:"log_max_backups" toml:"log_max_backups"`
	LogMaxAgeDays int    `yaml:"log_max_age_days" toml:"log_max_age_days"`
}

func Default() *Config {
	return &Config{
		MongoURI:        "mongodb://localhost:27017",
		MongoDatabase:   "musicapi",
		MongoCollection: "albums",
		ServerPort:      3000,
		Environment:     "development",
		StatusMode:      "strict",
		Store:           "mongo",
		StoreTimeout:    5 * time.Second,
		ShutdownTimeout: 10 * time.Second,
		RateLimitBurst:  20,
		LogFilePath:     "/var/log/album-service/app.log",
		LogHMACKey:      "default-hmac-key-change-in-production",
		LogMaxSizeMB:    100,
		LogMaxBackups:   5,
		LogMaxAgeDays:   30,
	}
}

// LoadConfig layers, lowest first: defaults, the optional config file at
// path, a .env file in the working directory, and the process environment.
// The caller applies its own overrides and then calls Validate.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, errors.Wrap(err, "load .env")
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "read config file %s", path)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, c)
	case ".toml":
		_, err = toml.Decode(string(data), c)
	default:
		return errors.Errorf("config file %s: unsupported extension", path)
	}
	return errors.Wrapf(err, "parse config file %s", path)
}

func (c *Config) applyEnv() error {
	c.MongoURI = getEnv("MONGO_URI", c.MongoURI)
	c.MongoDatabase = getEnv("MONGO_DATABASE", c.MongoDatabase)
	c.MongoCollection = getEnv("MONGO_COLLECTION", c.MongoCollection)
	c.ServerHost = getEnv("SERVER_HOST", c.ServerHost)
	c.Environment = getEnv("ENVIRONMENT", c.Environment)
	c.StatusMode = getEnv("STATUS_MODE", c.StatusMode)
	c.Store = getEnv("STORE", c.Store)
	c.LogFilePath = getEnv("LOG_FILE_PATH", c.LogFilePath)
	c.LogHMACKey = getEnv("LOG_HMAC_KEY", c.LogHMACKey)

	var err error
	if c.ServerPort, err = getEnvAsInt("SERVER_PORT", c.ServerPort); err != nil {
		return err
	}
	if c.RateLimitBurst, err = getEnvAsInt("RATE_LIMIT_BURST", c.RateLimitBurst); err != nil {
		return err
	}
	if c.LogMaxSizeMB, err = getEnvAsInt("LOG_MAX_SIZE_MB", c.LogMaxSizeMB); err != nil {
		return err
	}
	if c.LogMaxBackups, err = getEnvAsInt("LOG_MAX_BACKUPS", c.LogMaxBackups); err != nil {
		return err
	}
	if c.LogMaxAgeDays, err = getEnvAsInt("LOG_MAX_AGE_DAYS", c.LogMaxAgeDays); err != nil {
		return err
	}
	if c.StoreTimeout, err = getEnvAsDuration("STORE_TIMEOUT", c.StoreTimeout); err != nil {
		return err
	}
	if c.ShutdownTimeout, err = getEnvAsDuration("SHUTDOWN_TIMEOUT", c.ShutdownTimeout); err != nil {
		return err
	}
	if v := os.Getenv("TRUSTED_PROXIES"); v != "" {
		c.TrustedProxies = nil
		for _, p := range strings.Split(v, ",") {
			if p = strings.TrimSpace(p); p != "" {
				c.TrustedProxies = append(c.TrustedProxies, p)
			}
		}
	}
	if v := os.Getenv("RATE_LIMIT_RPS"); v != "" {
		rps, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return errors.Wrap(err, "RATE_LIMIT_RPS")
		}
		c.RateLimitRPS = rps
	}
	return nil
}

func (c *Config) Validate() error {
	switch c.StatusMode {
	case "strict", "legacy":
	default:
		return fmt.Errorf("status mode must be strict or legacy, got %q", c.StatusMode)
	}
	switch c.Store {
	case "mongo", "memory":
	default:
		return fmt.Errorf("store must be mongo or memory, got %q", c.Store)
	}
	if c.ServerPort <= 0 || c.ServerPort > 65535 {
		return fmt.Errorf("server port %d out of range", c.ServerPort)
	}
	if c.RateLimitRPS < 0 {
		return fmt.Errorf("rate limit rps must not be negative")
	}
	return nil
}

func (c *Config) Addr() string {
	return c.ServerHost + ":" + strconv.Itoa(c.ServerPort)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, errors.Wrap(err, key)
	}
	return n, nil
}

func getEnvAsDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, errors.Wrap(err, key)
	}
	return d, nil
}

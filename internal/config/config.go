package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/oernster/trainer-sub004/internal/models"
)

// ServerConfig holds the HTTP server settings
type ServerConfig struct {
	Port int `yaml:"port" validate:"gt=0,lte=65535"`
}

// DataConfig locates the offline dataset and the persistent cache
type DataConfig struct {
	Dir      string `yaml:"dir" validate:"required"`
	CacheDir string `yaml:"cache_dir" validate:"required"`
}

// RedisConfig holds the optional shared route-result cache settings
type RedisConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
	MutexTTL time.Duration `yaml:"mutex_ttl"`
}

// AnalyticsConfig holds the local request-analytics store settings
type AnalyticsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// AppConfig is the full application configuration
type AppConfig struct {
	Server      ServerConfig       `yaml:"server"`
	Data        DataConfig         `yaml:"data"`
	Redis       RedisConfig        `yaml:"redis"`
	Analytics   AnalyticsConfig    `yaml:"analytics"`
	Preferences models.Preferences `yaml:"preferences"`
}

// Load reads the YAML config file, applies defaults and environment
// overrides, and validates the result. A missing file is not an error;
// defaults and environment variables alone are a valid configuration.
func Load(path string) (*AppConfig, error) {
	cfg := &AppConfig{
		Server:      ServerConfig{Port: 8080},
		Data:        DataConfig{Dir: "data", CacheDir: ".cache"},
		Preferences: models.DefaultPreferences(),
	}

	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	applyEnvOverrides(cfg)

	if cfg.Preferences.MaxChanges <= 0 {
		cfg.Preferences.MaxChanges = models.DefaultPreferences().MaxChanges
	}

	v := validator.New()
	if err := v.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *AppConfig) {
	if port, err := strconv.Atoi(getEnv("API_PORT", "")); err == nil && port > 0 {
		cfg.Server.Port = port
	}
	if dir := getEnv("DATA_DIR", ""); dir != "" {
		cfg.Data.Dir = dir
	}
	if dir := getEnv("CACHE_DIR", ""); dir != "" {
		cfg.Data.CacheDir = dir
	}
	if addr := getEnv("REDIS_ADDR", ""); addr != "" {
		cfg.Redis.Enabled = true
		cfg.Redis.Addr = addr
	}
	if password := getEnv("REDIS_PASSWORD", ""); password != "" {
		cfg.Redis.Password = password
	}
	if db, err := strconv.Atoi(getEnv("REDIS_DB", "")); err == nil {
		cfg.Redis.DB = db
	}
	if path := getEnv("ANALYTICS_DB_PATH", ""); path != "" {
		cfg.Analytics.Enabled = true
		cfg.Analytics.Path = path
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

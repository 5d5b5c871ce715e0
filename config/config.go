package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"mdviewer/pkg/logger"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverRedis    = "redis"
)

type Config struct {
	App      AppConfig      `toml:"app"`
	Auth     AuthConfig     `toml:"auth"`
	Storage  StorageConfig  `toml:"storage"`
	Autosave AutosaveConfig `toml:"autosave"`
}

type AppConfig struct {
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	AllowedOrigin string `toml:"allowed_origin"`
	LogLevel      string `toml:"log_level"`
}

// AuthConfig with an empty JWTSecret disables authentication.
type AuthConfig struct {
	JWTSecret string `toml:"jwt_secret"`
}

type StorageConfig struct {
	Driver        string `toml:"driver"`
	DSN           string `toml:"dsn"`
	RedisAddr     string `toml:"redis_addr"`
	RedisPassword string `toml:"redis_password"`
	RedisDB       int    `toml:"redis_db"`
	RedisPrefix   string `toml:"redis_prefix"`
}

type AutosaveConfig struct {
	DelaySeconds int `toml:"delay_seconds"`
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Sugar.Info("No .env file found, using environment variables from OS")
	}

	cfg := defaultConfig()

	configPath := getEnv("CONFIG_FILE", "config.toml")
	if _, err := os.Stat(configPath); err == nil {
		if _, err := toml.DecodeFile(configPath, cfg); err != nil {
			return nil, fmt.Errorf("decode config file failed: %w", err)
		}
	}

	overrideByEnv(cfg)
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) HTTPAddr() string {
	return fmt.Sprintf("%s:%d", c.App.Host, c.App.Port)
}

func (c *Config) AutosaveDelay() time.Duration {
	return time.Duration(c.Autosave.DelaySeconds) * time.Second
}

func (c *Config) validate() error {
	switch c.Storage.Driver {
	case DriverMemory, DriverRedis:
	case DriverPostgres, DriverSQLite:
		if c.Storage.DSN == "" {
			return fmt.Errorf("storage driver %q requires a dsn", c.Storage.Driver)
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	if c.Autosave.DelaySeconds <= 0 {
		return fmt.Errorf("autosave delay must be positive, got %d", c.Autosave.DelaySeconds)
	}
	return nil
}

func defaultConfig() *Config {
	return &Config{
		App: AppConfig{
			Host:          "0.0.0.0",
			Port:          8080,
			AllowedOrigin: "*",
			LogLevel:      "info",
		},
		Storage: StorageConfig{
			Driver:      DriverSQLite,
			DSN:         "mdviewer.db",
			RedisAddr:   "127.0.0.1:6379",
			RedisPrefix: "mdviewer:",
		},
		Autosave: AutosaveConfig{
			DelaySeconds: 30,
		},
	}
}

func overrideByEnv(cfg *Config) {
	cfg.App.Host = getEnv("APP_HOST", cfg.App.Host)
	cfg.App.Port = getEnvAsInt("APP_PORT", cfg.App.Port)
	cfg.App.AllowedOrigin = getEnv("ALLOWED_ORIGIN", cfg.App.AllowedOrigin)
	cfg.App.LogLevel = getEnv("LOG_LEVEL", cfg.App.LogLevel)
	cfg.Auth.JWTSecret = getEnv("JWT_SECRET", cfg.Auth.JWTSecret)

	cfg.Storage.Driver = getEnv("STORAGE_DRIVER", cfg.Storage.Driver)
	cfg.Storage.DSN = getEnv("STORAGE_DSN", cfg.Storage.DSN)
	cfg.Storage.RedisAddr = getEnv("REDIS_ADDR", cfg.Storage.RedisAddr)
	cfg.Storage.RedisPassword = getEnv("REDIS_PASSWORD", cfg.Storage.RedisPassword)
	cfg.Storage.RedisDB = getEnvAsInt("REDIS_DB", cfg.Storage.RedisDB)
	cfg.Storage.RedisPrefix = getEnv("REDIS_PREFIX", cfg.Storage.RedisPrefix)

	cfg.Autosave.DelaySeconds = getEnvAsInt("AUTOSAVE_DELAY_SECONDS", cfg.Autosave.DelaySeconds)
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return parsed
}

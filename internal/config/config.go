// Package config loads the storefront configuration from the environment,
// after reading a .env file when one is present.
package config

import (
	"errors"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Server  ServerConfig
	Log     LogConfig
	Store   StoreConfig
	Admin   AdminConfig
	Metrics MetricsConfig
}

type ServerConfig struct {
	Port string
	Env  string
}

type LogConfig struct {
	Level string
}

// StoreConfig selects the durable store. An empty DatabaseURL keeps
// everything in process memory.
type StoreConfig struct {
	DatabaseURL string
	QuotaBytes  int
}

type AdminConfig struct {
	Username string
	Password string
}

type MetricsConfig struct {
	Enabled bool
	Token   string
}

func Load() (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
			Env:  getEnv("APP_ENV", "development"),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Store: StoreConfig{
			DatabaseURL: getEnv("DATABASE_URL", ""),
			QuotaBytes:  getEnvAsInt("KV_QUOTA_BYTES", 5<<20),
		},
		Admin: AdminConfig{
			Username: getEnv("ADMIN_USERNAME", "admin"),
			Password: getEnv("ADMIN_PASSWORD", "admin123"),
		},
		Metrics: MetricsConfig{
			Enabled: getEnvAsBool("METRICS_ENABLED", true),
			Token:   getEnv("METRICS_TOKEN", ""),
		},
	}
	return cfg, cfg.validate()
}

func (c *Config) validate() error {
	if c.Server.Port == "" {
		return errors.New("config: PORT must not be empty")
	}
	if c.Admin.Username == "" || c.Admin.Password == "" {
		return errors.New("config: ADMIN_USERNAME and ADMIN_PASSWORD must not be empty")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

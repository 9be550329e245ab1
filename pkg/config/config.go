package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// Supported storage drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config groups the application settings, read with Viper from the environment and optional files.
type Config struct {
	App      AppConfig
	DB       DBConfig
	RabbitMQ RabbitMQConfig
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name        string
	Env         string // development, staging, production
	Port        string
	LogLevel    string
	TemplateDir string // empty uses the embedded templates
}

// DBConfig holds storage settings.
type DBConfig struct {
	Driver       string
	DSN          string
	Seed         bool
	MaxOpenConns int
}

// RabbitMQConfig holds the product event broker settings. An empty URL disables events.
type RabbitMQConfig struct {
	URL      string
	Exchange string
	Consume  bool
}

// Enabled reports whether product events should be published.
func (c RabbitMQConfig) Enabled() bool {
	return c.URL != ""
}

// Load reads the configuration from environment variables and, when present, from
// .env or config.env in the working directory. Environment variables take precedence.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	_ = v.ReadInConfig()

	v.SetConfigName("config")
	v.AddConfigPath("./config")
	_ = v.ReadInConfig()

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	return FromViper(v)
}

// FromViper builds the configuration from an existing Viper instance.
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		App: AppConfig{
			Name:        getString(v, "APP_NAME", "catalog"),
			Env:         getString(v, "APP_ENV", "development"),
			Port:        getString(v, "APP_PORT", ":8080"),
			LogLevel:    getString(v, "LOG_LEVEL", "info"),
			TemplateDir: getString(v, "TEMPLATE_DIR", ""),
		},
		DB: DBConfig{
			Driver:       strings.ToLower(getString(v, "DB_DRIVER", DriverSQLite)),
			DSN:          getString(v, "DATABASE_DSN", "products.db"),
			Seed:         getBool(v, "DB_SEED", true),
			MaxOpenConns: getInt(v, "DB_MAX_OPEN_CONNS", 10),
		},
		RabbitMQ: RabbitMQConfig{
			URL:      getString(v, "RABBITMQ_URL", ""),
			Exchange: getString(v, "RABBITMQ_EXCHANGE", "product_events"),
			Consume:  getBool(v, "RABBITMQ_CONSUME", false),
		},
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the settings that cannot fall back to a default.
func (c *Config) Validate() error {
	switch c.DB.Driver {
	case DriverSQLite, DriverPostgres, DriverMemory:
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DB.Driver)
	}
	if c.DB.Driver != DriverMemory && c.DB.DSN == "" {
		return fmt.Errorf("DATABASE_DSN is required for driver %q", c.DB.Driver)
	}
	if strings.TrimSpace(c.App.Port) == "" {
		return fmt.Errorf("APP_PORT is required")
	}
	if c.DB.MaxOpenConns < 1 {
		return fmt.Errorf("DB_MAX_OPEN_CONNS must be positive, got %d", c.DB.MaxOpenConns)
	}
	if c.RabbitMQ.Enabled() && c.RabbitMQ.Exchange == "" {
		return fmt.Errorf("RABBITMQ_EXCHANGE is required when RABBITMQ_URL is set")
	}
	return nil
}

// IsDevelopment reports whether the app runs in the development environment.
func (c *Config) IsDevelopment() bool {
	return c.App.Env == "development"
}

func getString(v *viper.Viper, key, def string) string {
	if v.IsSet(key) {
		return v.GetString(key)
	}
	return def
}

func getInt(v *viper.Viper, key string, def int) int {
	if v.IsSet(key) {
		switch v.Get(key).(type) {
		case string:
			n, err := strconv.Atoi(strings.TrimSpace(v.GetString(key)))
			if err != nil {
				return def
			}
			return n
		default:
			return v.GetInt(key)
		}
	}
	return def
}

func getBool(v *viper.Viper, key string, def bool) bool {
	if v.IsSet(key) {
		switch v.Get(key).(type) {
		case string:
			b, err := strconv.ParseBool(strings.TrimSpace(v.GetString(key)))
			if err != nil {
				return def
			}
			return b
		default:
			return v.GetBool(key)
		}
	}
	return def
}

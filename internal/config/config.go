package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for doc0
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Admin    AdminConfig    `mapstructure:"admin"`
	Database DatabaseConfig `mapstructure:"database"`
	Search   SearchConfig   `mapstructure:"search"`
	Quota    QuotaConfig    `mapstructure:"quota"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Chat     ChatConfig     `mapstructure:"chat"`
	Log      LogConfig      `mapstructure:"log"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host         string   `mapstructure:"host"`
	Port         int      `mapstructure:"port"`
	BaseURL      string   `mapstructure:"base_url"`
	AllowOrigins []string `mapstructure:"allow_origins"`
}

// AdminConfig holds admin authentication configuration
type AdminConfig struct {
	APIKey string `mapstructure:"api_key"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// SearchConfig holds the external search/summarization API configuration
type SearchConfig struct {
	Endpoint     string        `mapstructure:"endpoint"`
	DocsEndpoint string        `mapstructure:"docs_endpoint"`
	Timeout      time.Duration `mapstructure:"timeout"`
	NResults     int           `mapstructure:"n_results"`
}

// QuotaConfig holds the anonymous request allowance
type QuotaConfig struct {
	DailyLimit int           `mapstructure:"daily_limit"`
	Window     time.Duration `mapstructure:"window"`
	StorageKey string        `mapstructure:"storage_key"`
}

// AuthConfig holds federated login configuration
type AuthConfig struct {
	GoogleClientID string `mapstructure:"google_client_id"`
}

// ChatConfig holds conversation configuration
type ChatConfig struct {
	DefaultTopic   string `mapstructure:"default_topic"`
	PersistHistory bool   `mapstructure:"persist_history"`
}

// LogConfig holds logger configuration
type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

// Load loads configuration from file and environment
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// DOC0_SEARCH_ENDPOINT overrides search.endpoint
	v.SetEnvPrefix("DOC0")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.base_url", "http://localhost:8080")
	v.SetDefault("server.allow_origins", []string{"*"})

	v.SetDefault("admin.api_key", "")

	v.SetDefault("database.path", "./data/doc0.db")

	v.SetDefault("search.endpoint", "http://127.0.0.1:8000/query")
	v.SetDefault("search.docs_endpoint", "https://api-doc0-qne28.ondigitalocean.app/query")
	v.SetDefault("search.timeout", 0)
	v.SetDefault("search.n_results", 10)

	v.SetDefault("quota.daily_limit", 10)
	v.SetDefault("quota.window", 24*time.Hour)
	v.SetDefault("quota.storage_key", "requestLimit")

	v.SetDefault("auth.google_client_id", "")

	v.SetDefault("chat.default_topic", "react")
	v.SetDefault("chat.persist_history", true)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
}

// Validate checks values that would otherwise fail later at runtime
func (c *Config) Validate() error {
	if c.Quota.DailyLimit < 0 {
		return fmt.Errorf("quota.daily_limit must not be negative, got %d", c.Quota.DailyLimit)
	}
	if c.Quota.Window <= 0 {
		return fmt.Errorf("quota.window must be positive, got %s", c.Quota.Window)
	}
	if c.Quota.StorageKey == "" {
		return errors.New("quota.storage_key is empty")
	}
	if c.Search.Endpoint == "" {
		return errors.New("search.endpoint is empty")
	}
	return nil
}

// Address returns the server address
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server  ServerConfig
	Source  SourceConfig
	Pacing  PacingConfig
	Storage StorageConfig
	Cache   CacheConfig
	Log     LogConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// SourceConfig describes the catalog endpoints and the request identity.
// SearchURLs and DetailURLs are ranked: earlier entries are preferred.
type SourceConfig struct {
	SearchURLs        []string      `mapstructure:"search_urls"`
	DetailURLs        []string      `mapstructure:"detail_urls"`
	HTMLURL           string        `mapstructure:"html_url"`
	GeoURL            string        `mapstructure:"geo_url"`
	Address           string        `mapstructure:"address"`
	HTMLMeta          bool          `mapstructure:"html_meta"`
	Timeout           time.Duration `mapstructure:"timeout"`
	UserAgentFile     string        `mapstructure:"user_agent_file"`
	CookiesFile       string        `mapstructure:"cookies_file"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
}

// PacingConfig holds the pauses used to keep request rate polite.
// Tests set all of them to zero.
type PacingConfig struct {
	Search          time.Duration `mapstructure:"search"`
	Detail          time.Duration `mapstructure:"detail"`
	HTML            time.Duration `mapstructure:"html"`
	ThrottleBackoff time.Duration `mapstructure:"throttle_backoff"`
	ErrorBackoff    time.Duration `mapstructure:"error_backoff"`
	HTMLRetry       time.Duration `mapstructure:"html_retry"`
}

// StorageConfig selects the product repository backend
type StorageConfig struct {
	Driver string `mapstructure:"driver"` // "sqlite" or "postgres"
	Path   string `mapstructure:"path"`
	DSN    string `mapstructure:"dsn"`
}

// CacheConfig holds cache-related configuration
type CacheConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // "text" or "json"
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/wbparse/")

	v.SetEnvPrefix("WBPARSE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Names the original deployment used.
	_ = v.BindEnv("source.address", "WBPARSE_SOURCE_ADDRESS", "WB_ADDRESS")
	_ = v.BindEnv("source.html_meta", "WBPARSE_SOURCE_HTML_META", "WB_HTML_META")

	setDefaults(v)

	// Read config file (optional - will use env vars if file doesn't exist)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:*"})

	v.SetDefault("source.search_urls", []string{
		"https://search.wb.ru/exactmatch/ru/common/v5/search",
		"https://search.wb.ru/exactmatch/ru/common/v4/search",
	})
	v.SetDefault("source.detail_urls", []string{
		"https://card.wb.ru/cards/v2/detail",
		"https://card.wb.ru/cards/v1/detail",
		"https://card.wb.ru/cards/detail",
	})
	v.SetDefault("source.html_url", "https://www.wildberries.ru/catalog/0/search.aspx")
	v.SetDefault("source.geo_url", "https://user-geo-data.wildberries.ru/get-geo-info")
	v.SetDefault("source.address", "Москва")
	v.SetDefault("source.html_meta", true)
	v.SetDefault("source.timeout", "15s")
	v.SetDefault("source.requests_per_second", 0)
	v.SetDefault("source.user_agent_file", "")
	v.SetDefault("source.cookies_file", "")

	v.SetDefault("pacing.search", "250ms")
	v.SetDefault("pacing.detail", "200ms")
	v.SetDefault("pacing.html", "150ms")
	v.SetDefault("pacing.throttle_backoff", "500ms")
	v.SetDefault("pacing.error_backoff", "400ms")
	v.SetDefault("pacing.html_retry", "400ms")

	v.SetDefault("storage.driver", "sqlite")
	v.SetDefault("storage.path", "data/wbparse.db")
	v.SetDefault("storage.dsn", "")

	v.SetDefault("cache.ttl", "30s")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// validate validates the configuration
func validate(config *Config) error {
	if len(config.Source.SearchURLs) == 0 {
		return fmt.Errorf("at least one search URL is required (set WBPARSE_SOURCE_SEARCH_URLS)")
	}
	if len(config.Source.DetailURLs) == 0 {
		return fmt.Errorf("at least one detail URL is required (set WBPARSE_SOURCE_DETAIL_URLS)")
	}
	if config.Source.Timeout <= 0 {
		return fmt.Errorf("source timeout must be positive, got: %s", config.Source.Timeout)
	}
	if config.Source.RequestsPerSecond < 0 {
		return fmt.Errorf("requests per second must not be negative, got: %v", config.Source.RequestsPerSecond)
	}

	switch config.Storage.Driver {
	case "sqlite":
		if config.Storage.Path == "" {
			return fmt.Errorf("storage path is required when driver is 'sqlite'")
		}
	case "postgres":
		if config.Storage.DSN == "" {
			return fmt.Errorf("storage DSN is required when driver is 'postgres'")
		}
	default:
		return fmt.Errorf("storage driver must be 'sqlite' or 'postgres', got: %s", config.Storage.Driver)
	}

	if config.Log.Format != "text" && config.Log.Format != "json" {
		return fmt.Errorf("log format must be 'text' or 'json', got: %s", config.Log.Format)
	}

	return nil
}

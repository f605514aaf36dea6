package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/docutag/reviewbot/extractor"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Telegram TelegramConfig `mapstructure:"telegram"`
	Model    ModelConfig    `mapstructure:"model"`
	S3       S3Config       `mapstructure:"s3"`
	Scraper  ScraperConfig  `mapstructure:"scraper"`
	Server   ServerConfig   `mapstructure:"server"`
	Tracing  TracingConfig  `mapstructure:"tracing"`
}

// TelegramConfig holds chat transport configuration
type TelegramConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	Token       string        `mapstructure:"token"`
	PollTimeout time.Duration `mapstructure:"poll_timeout"`
	Workers     int           `mapstructure:"workers"`
}

// ModelConfig holds sentiment model configuration
type ModelConfig struct {
	ID            string        `mapstructure:"id"`
	Source        string        `mapstructure:"source"` // "hub", "local" or "s3"
	Dir           string        `mapstructure:"dir"`
	CacheDir      string        `mapstructure:"cache_dir"`
	MaxLength     int           `mapstructure:"max_length"`
	PadTokenID    int           `mapstructure:"pad_token_id"`
	PositiveIndex int           `mapstructure:"positive_index"`
	InferenceURL  string        `mapstructure:"inference_url"`
	ServingName   string        `mapstructure:"serving_name"` // defaults to the last segment of ID
	Timeout       time.Duration `mapstructure:"timeout"`
}

// S3Config holds object storage configuration for the s3 model source
type S3Config struct {
	Endpoint        string `mapstructure:"endpoint"`
	Region          string `mapstructure:"region"`
	Bucket          string `mapstructure:"bucket"`
	Prefix          string `mapstructure:"prefix"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	UsePathStyle    bool   `mapstructure:"use_path_style"`
}

// ScraperConfig holds page extraction configuration
type ScraperConfig struct {
	HTTPTimeout   time.Duration       `mapstructure:"http_timeout"`
	RetryAttempts int                 `mapstructure:"retry_attempts"`
	UserAgent     string              `mapstructure:"user_agent"`
	Selectors     extractor.Selectors `mapstructure:"selectors"`
}

// ServerConfig holds HTTP API configuration
type ServerConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Addr        string `mapstructure:"addr"`
	CORSEnabled bool   `mapstructure:"cors_enabled"`
}

// TracingConfig holds OpenTelemetry configuration
type TracingConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"`
	Insecure bool   `mapstructure:"insecure"`
}

// Load loads configuration from an optional YAML file, REVIEWBOT_* environment
// variables and defaults. An empty path searches the default locations.
func Load(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("reviewbot")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/reviewbot/")
	}

	v.SetEnvPrefix("REVIEWBOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || path != "" {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; using environment variables and defaults
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

// setDefaults sets default configuration values. Every key gets a default
// so that AutomaticEnv can override it during Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("telegram.enabled", true)
	v.SetDefault("telegram.token", "")
	v.SetDefault("telegram.poll_timeout", "60s")
	v.SetDefault("telegram.workers", 4)

	v.SetDefault("model.id", "HooshvareLab/bert-fa-base-uncased-sentiment-snappfood")
	v.SetDefault("model.source", "hub")
	v.SetDefault("model.dir", "")
	v.SetDefault("model.cache_dir", "./models")
	v.SetDefault("model.max_length", 512)
	v.SetDefault("model.pad_token_id", 0)
	v.SetDefault("model.positive_index", 1)
	v.SetDefault("model.inference_url", "http://localhost:8000")
	v.SetDefault("model.serving_name", "")
	v.SetDefault("model.timeout", "30s")

	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.region", "")
	v.SetDefault("s3.bucket", "")
	v.SetDefault("s3.prefix", "")
	v.SetDefault("s3.access_key_id", "")
	v.SetDefault("s3.secret_access_key", "")
	v.SetDefault("s3.use_path_style", false)

	v.SetDefault("scraper.http_timeout", "20s")
	v.SetDefault("scraper.retry_attempts", 0)
	v.SetDefault("scraper.user_agent", extractor.DefaultConfig().UserAgent)
	v.SetDefault("scraper.selectors.title", "")
	v.SetDefault("scraper.selectors.image", "")
	v.SetDefault("scraper.selectors.reviews", "")

	v.SetDefault("server.enabled", true)
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.cors_enabled", false)

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.endpoint", "localhost:4317")
	v.SetDefault("tracing.insecure", true)
}

// validate validates the configuration
func validate(config *Config) error {
	if !config.Telegram.Enabled && !config.Server.Enabled {
		return fmt.Errorf("at least one of telegram or server must be enabled")
	}
	if config.Telegram.Enabled && config.Telegram.Token == "" {
		return fmt.Errorf("telegram token is required (set REVIEWBOT_TELEGRAM_TOKEN)")
	}
	if config.Telegram.Workers < 1 {
		return fmt.Errorf("telegram workers must be at least 1, got: %d", config.Telegram.Workers)
	}

	if config.Model.ID == "" {
		return fmt.Errorf("model id is required")
	}
	switch config.Model.Source {
	case "hub":
	case "local":
		if config.Model.Dir == "" {
			return fmt.Errorf("model dir is required when model source is 'local'")
		}
	case "s3":
		if config.S3.Bucket == "" || config.S3.Region == "" {
			return fmt.Errorf("s3 bucket and region are required when model source is 's3'")
		}
		if config.Model.CacheDir == "" {
			return fmt.Errorf("model cache dir is required when model source is 's3'")
		}
	default:
		return fmt.Errorf("model source must be 'hub', 'local' or 's3', got: %s", config.Model.Source)
	}
	if config.Model.MaxLength < 2 {
		return fmt.Errorf("model max length must be at least 2, got: %d", config.Model.MaxLength)
	}
	if config.Model.PositiveIndex != 0 && config.Model.PositiveIndex != 1 {
		return fmt.Errorf("model positive index must be 0 or 1, got: %d", config.Model.PositiveIndex)
	}
	if config.Model.InferenceURL == "" {
		return fmt.Errorf("model inference url is required")
	}

	if config.Scraper.HTTPTimeout < 10*time.Second || config.Scraper.HTTPTimeout > 30*time.Second {
		return fmt.Errorf("scraper http timeout must be between 10s and 30s, got: %s", config.Scraper.HTTPTimeout)
	}
	if config.Scraper.RetryAttempts < 0 {
		return fmt.Errorf("scraper retry attempts cannot be negative, got: %d", config.Scraper.RetryAttempts)
	}

	return nil
}

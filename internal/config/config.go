package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App        App        `mapstructure:"app"`
	Sources    Sources    `mapstructure:"sources"`
	Alerting   Alerting   `mapstructure:"alerting"`
	Thresholds Thresholds `mapstructure:"thresholds"`
	Scan       Scan       `mapstructure:"scan"`
}

// App holds general application configuration
type App struct {
	Debug    bool   `mapstructure:"debug"`
	LogLevel string `mapstructure:"log_level"`
	DataDir  string `mapstructure:"data_dir"`
}

// Sources holds news source configuration
type Sources struct {
	Timeout    string           `mapstructure:"timeout"`
	GoogleNews GoogleNewsConfig `mapstructure:"google_news"`
	NewsAPI    NewsAPIConfig    `mapstructure:"newsapi"`
}

// GoogleNewsConfig holds Google News RSS configuration
type GoogleNewsConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Language string `mapstructure:"language"`
	Endpoint string `mapstructure:"endpoint"`
}

// NewsAPIConfig holds newsapi.org configuration. The source is skipped
// entirely when no API key is configured.
type NewsAPIConfig struct {
	APIKey   string `mapstructure:"api_key"`
	Endpoint string `mapstructure:"endpoint"`
	PageSize int    `mapstructure:"page_size"`
}

// Alerting holds alert delivery configuration
type Alerting struct {
	SlackWebhookURL string `mapstructure:"slack_webhook_url"`
	Timeout         string `mapstructure:"timeout"`
}

// Thresholds holds the signal acceptance gates
type Thresholds struct {
	MinConfidence float64 `mapstructure:"min_confidence"`
	MinSeverity   float64 `mapstructure:"min_severity"`
	SinceDays     int     `mapstructure:"since_days"`
}

// Scan holds pipeline execution configuration
type Scan struct {
	MaxParallelCompanies int `mapstructure:"max_parallel_companies"`
}

var globalConfig *Config

// Load loads configuration from file, environment variables, and defaults
func Load(configFile string) (*Config, error) {
	if globalConfig != nil {
		return globalConfig, nil
	}

	// Load .env file if it exists
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			fmt.Printf("Warning: Error loading .env file: %v\n", err)
		}
	}

	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME")
		viper.SetConfigName(".radar")
		viper.SetConfigType("yaml")
	}

	setDefaults()
	bindEnvironmentVariables()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	config := &Config{}
	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := validateConfig(config); err != nil {
		return nil, err
	}

	globalConfig = config
	return config, nil
}

// Get returns the global configuration, loading it if necessary
func Get() *Config {
	if globalConfig == nil {
		config, err := Load("")
		if err != nil {
			panic(fmt.Sprintf("Failed to load configuration: %v", err))
		}
		return config
	}
	return globalConfig
}

// Reset clears the global configuration; tests use it to reload.
func Reset() {
	globalConfig = nil
	viper.Reset()
}

// setDefaults sets default configuration values
func setDefaults() {
	viper.SetDefault("app.debug", false)
	viper.SetDefault("app.log_level", "info")
	viper.SetDefault("app.data_dir", ".radar-cache")

	viper.SetDefault("sources.timeout", "20s")
	viper.SetDefault("sources.google_news.enabled", true)
	viper.SetDefault("sources.google_news.language", "en")
	viper.SetDefault("sources.newsapi.page_size", 50)

	viper.SetDefault("alerting.timeout", "30s")

	viper.SetDefault("thresholds.min_confidence", 0.8)
	viper.SetDefault("thresholds.min_severity", 0.6)
	viper.SetDefault("thresholds.since_days", 14)

	viper.SetDefault("scan.max_parallel_companies", 1)
}

// bindEnvironmentVariables binds legacy environment variable names
func bindEnvironmentVariables() {
	bindEnvKeys("sources.newsapi.api_key", []string{"NEWSAPI_KEY", "RADAR_NEWSAPI_KEY"})
	bindEnvKeys("alerting.slack_webhook_url", []string{"SLACK_WEBHOOK_URL", "RADAR_SLACK_WEBHOOK_URL"})
}

// bindEnvKeys binds multiple environment variable names to a viper key
func bindEnvKeys(viperKey string, envKeys []string) {
	for _, envKey := range envKeys {
		if value := os.Getenv(envKey); value != "" {
			viper.Set(viperKey, value)
			break
		}
	}
}

// validateConfig performs range and format checks. Anything wrong here is a
// startup failure, before any fetching begins.
func validateConfig(config *Config) error {
	if config.Thresholds.MinConfidence < 0 || config.Thresholds.MinConfidence > 1 {
		return fmt.Errorf("thresholds.min_confidence must be in [0,1], got %f", config.Thresholds.MinConfidence)
	}
	if config.Thresholds.MinSeverity < 0 || config.Thresholds.MinSeverity > 1 {
		return fmt.Errorf("thresholds.min_severity must be in [0,1], got %f", config.Thresholds.MinSeverity)
	}
	if config.Thresholds.SinceDays <= 0 {
		return fmt.Errorf("thresholds.since_days must be positive, got %d", config.Thresholds.SinceDays)
	}
	if config.Scan.MaxParallelCompanies < 1 {
		return fmt.Errorf("scan.max_parallel_companies must be at least 1, got %d", config.Scan.MaxParallelCompanies)
	}
	if _, err := time.ParseDuration(config.Sources.Timeout); err != nil {
		return fmt.Errorf("sources.timeout is not a duration: %w", err)
	}
	if _, err := time.ParseDuration(config.Alerting.Timeout); err != nil {
		return fmt.Errorf("alerting.timeout is not a duration: %w", err)
	}
	return nil
}

// ValidateForDelivery checks the configuration needed to actually send
// alerts. Called before any network activity on a real (non-dry-run) scan;
// a missing webhook aborts the whole run.
func (c *Config) ValidateForDelivery() error {
	if strings.TrimSpace(c.Alerting.SlackWebhookURL) == "" {
		return fmt.Errorf("alerting.slack_webhook_url is required (set SLACK_WEBHOOK_URL or add it to .radar.yaml)")
	}
	return nil
}

// SourceTimeout returns the parsed per-fetch timeout.
func (c *Config) SourceTimeout() time.Duration {
	d, err := time.ParseDuration(c.Sources.Timeout)
	if err != nil {
		return 20 * time.Second
	}
	return d
}

// AlertTimeout returns the parsed sink delivery timeout.
func (c *Config) AlertTimeout() time.Duration {
	d, err := time.ParseDuration(c.Alerting.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Apollo    ApolloConfig    `yaml:"apollo" mapstructure:"apollo"`
	Serper    SerperConfig    `yaml:"serper" mapstructure:"serper"`
	Registry  RegistryConfig  `yaml:"registry" mapstructure:"registry"`
	Hunter    HunterConfig    `yaml:"hunter" mapstructure:"hunter"`
	Lusha     LushaConfig     `yaml:"lusha" mapstructure:"lusha"`
	Discovery DiscoveryConfig `yaml:"discovery" mapstructure:"discovery"`
	Reveal    RevealConfig    `yaml:"reveal" mapstructure:"reveal"`
	Pricing   PricingConfig   `yaml:"pricing" mapstructure:"pricing"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// ApolloConfig holds organization graph API settings.
type ApolloConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	PerPage int    `yaml:"per_page" mapstructure:"per_page"`
}

// SerperConfig holds web search API settings.
type SerperConfig struct {
	Key         string `yaml:"key" mapstructure:"key"`
	BaseURL     string `yaml:"base_url" mapstructure:"base_url"`
	ResultCount int    `yaml:"result_count" mapstructure:"result_count"`
}

// RegistryConfig holds company registry lookup settings.
type RegistryConfig struct {
	Provider string `yaml:"provider" mapstructure:"provider"`
	BaseURL  string `yaml:"base_url" mapstructure:"base_url"`
}

// HunterConfig holds email finder API settings.
type HunterConfig struct {
	Key      string `yaml:"key" mapstructure:"key"`
	BaseURL  string `yaml:"base_url" mapstructure:"base_url"`
	MinScore int    `yaml:"min_score" mapstructure:"min_score"`
}

// LushaConfig holds premium contact API settings.
type LushaConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// DiscoveryConfig configures the discovery run orchestrator.
type DiscoveryConfig struct {
	InterCountryDelaySecs int `yaml:"inter_country_delay_secs" mapstructure:"inter_country_delay_secs"`
	AdapterTimeoutSecs    int `yaml:"adapter_timeout_secs" mapstructure:"adapter_timeout_secs"`
	PagesPerSource        int `yaml:"pages_per_source" mapstructure:"pages_per_source"`
}

// RevealConfig configures the contact reveal cascade.
type RevealConfig struct {
	VIPTitles []string `yaml:"vip_titles" mapstructure:"vip_titles"`
}

// PricingConfig holds per-source unit pricing (USD per unit).
type PricingConfig struct {
	PerUnitUSD map[string]float64 `yaml:"per_unit_usd" mapstructure:"per_unit_usd"`
}

// ServerConfig configures the status server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("DEALERSCOUT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "dealerscout.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("apollo.base_url", "https://api.apollo.io/api/v1")
	v.SetDefault("apollo.per_page", 25)
	v.SetDefault("serper.base_url", "https://google.serper.dev")
	v.SetDefault("serper.result_count", 20)
	v.SetDefault("registry.provider", "brasilapi")
	v.SetDefault("hunter.base_url", "https://api.hunter.io/v2")
	v.SetDefault("hunter.min_score", 50)
	v.SetDefault("lusha.base_url", "https://api.lusha.com")
	v.SetDefault("discovery.inter_country_delay_secs", 5)
	v.SetDefault("discovery.adapter_timeout_secs", 30)
	v.SetDefault("discovery.pages_per_source", 1)
	v.SetDefault("reveal.vip_titles", []string{"owner", "founder", "ceo", "managing director", "diretor", "geschäftsführer"})
	v.SetDefault("pricing.per_unit_usd", map[string]float64{})

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}

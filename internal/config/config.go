package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/zeusync/composer/internal/core/observability/log"
)

const (
	configFileName = "composer"
	configFileType = "yaml"
	envPrefix      = "COMPOSER"
)

// Config keys.
const (
	KeyLogLevel          = "log.level"
	KeyLogEncoding       = "log.encoding"
	KeyRegistryStrict    = "registry.strict"
	KeyChainMaxDepth     = "chain.max_depth"
	KeyHistoryLimit      = "command.history_limit"
	KeyRollbackOnFailure = "command.rollback_on_failure"
	KeyHubShards         = "hub.shards"
	KeyBroadcastLimit    = "hub.broadcast_limit"
	KeyServerAddr        = "server.addr"
)

type Config struct {
	Log      LogConfig      `mapstructure:"log"`
	Registry RegistryConfig `mapstructure:"registry"`
	Chain    ChainConfig    `mapstructure:"chain"`
	Command  CommandConfig  `mapstructure:"command"`
	Hub      HubConfig      `mapstructure:"hub"`
	Server   ServerConfig   `mapstructure:"server"`
}

type LogConfig struct {
	Level    string `mapstructure:"level"`
	Encoding string `mapstructure:"encoding"`
}

type RegistryConfig struct {
	Strict bool `mapstructure:"strict"`
}

type ChainConfig struct {
	MaxDepth int `mapstructure:"max_depth"`
}

type CommandConfig struct {
	HistoryLimit      int  `mapstructure:"history_limit"`
	RollbackOnFailure bool `mapstructure:"rollback_on_failure"`
}

type HubConfig struct {
	Shards         int `mapstructure:"shards"`
	BroadcastLimit int `mapstructure:"broadcast_limit"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogEncoding, "json")
	v.SetDefault(KeyRegistryStrict, false)
	v.SetDefault(KeyChainMaxDepth, 1000)
	v.SetDefault(KeyHistoryLimit, 0)
	v.SetDefault(KeyRollbackOnFailure, false)
	v.SetDefault(KeyHubShards, 16)
	v.SetDefault(KeyBroadcastLimit, 0)
	v.SetDefault(KeyServerAddr, "127.0.0.1:8080")
}

// Default returns the configuration used when no file or environment is set.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	cfg, _ := decode(v)
	return cfg
}

// Load reads configuration from path, or from composer.yaml in the working
// directory when path is empty. A missing composer.yaml is not an error.
// COMPOSER_* environment variables override file values
// (e.g. COMPOSER_LOG_LEVEL for log.level).
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(configFileName)
		v.SetConfigType(configFileType)
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg, err := decode(v)
	if err != nil {
		return nil, err
	}
	if err = cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	switch c.Log.Encoding {
	case "json", "console":
	default:
		return fmt.Errorf("log.encoding must be json or console, got %q", c.Log.Encoding)
	}
	if c.Chain.MaxDepth <= 0 {
		return fmt.Errorf("chain.max_depth must be positive, got %d", c.Chain.MaxDepth)
	}
	if c.Command.HistoryLimit < 0 {
		return fmt.Errorf("command.history_limit must not be negative, got %d", c.Command.HistoryLimit)
	}
	if c.Hub.Shards <= 0 {
		return fmt.Errorf("hub.shards must be positive, got %d", c.Hub.Shards)
	}
	return nil
}

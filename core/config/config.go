// Package config loads settings for the bridge server and demo programs.
package config

import (
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/evmbridge/sdk-go/core/types"
)

// EnvPrefix prefixes environment overrides, e.g. EVMBRIDGE_SERVER_ADDR.
const EnvPrefix = "EVMBRIDGE"

type Config struct {
	Server     ServerConfig            `mapstructure:"server"`
	Client     ClientConfig            `mapstructure:"client"`
	Logger     LoggerConfig            `mapstructure:"logger"`
	Wallet     WalletConfig            `mapstructure:"wallet"`
	Connection types.ConnectionOptions `mapstructure:"connection"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	Path            string        `mapstructure:"path"`
	CallbackTimeout time.Duration `mapstructure:"callback_timeout"`
}

// ClientConfig is where host programs find the bridge server.
type ClientConfig struct {
	URL string `mapstructure:"url"`
}

type LoggerConfig struct {
	Level    string `mapstructure:"level"`
	Encoding string `mapstructure:"encoding"`
}

type WalletConfig struct {
	// PrivateKey is hex, with or without 0x.
	PrivateKey          string        `mapstructure:"private_key"`
	ReceiptPollInterval time.Duration `mapstructure:"receipt_poll_interval"`
	ReceiptTimeout      time.Duration `mapstructure:"receipt_timeout"`
	ReadClientTTL       time.Duration `mapstructure:"read_client_ttl"`
}

// Load reads config.yaml from configPath or the working directory, then
// applies EVMBRIDGE_* environment overrides. A missing file is not an error.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	v.SetDefault("server.addr", ":8546")
	v.SetDefault("server.path", "/bridge")
	v.SetDefault("server.callback_timeout", "30s")
	v.SetDefault("client.url", "ws://localhost:8546/bridge")
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.encoding", "json")
	v.SetDefault("wallet.receipt_poll_interval", "3s")
	v.SetDefault("wallet.receipt_timeout", "3m")
	v.SetDefault("wallet.read_client_ttl", "10m")
	v.SetDefault("connection.name", "evmbridge")
	v.SetDefault("connection.theme_mode", "dark")
	v.SetDefault("connection.chain_ids", []map[string]any{{"chain_id": 1}})

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if configPath != "" {
		v.AddConfigPath(configPath)
	}
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, errors.Wrap(err, "read config")
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// AutomaticEnv only covers keys viper already knows about
	for _, key := range []string{"wallet.private_key", "connection.project_id"} {
		if err := v.BindEnv(key); err != nil {
			return nil, errors.WithStack(err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "unmarshal config")
	}
	return &cfg, nil
}

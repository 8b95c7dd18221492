package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/kscst/training-portal/internal/infrastructure/gateway"
)

// Output formats.
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
)

const envPrefix = "KSCST"

// Config is the resolved CLI configuration. Values come from flags, then
// KSCST_* environment variables, then the config file, then defaults.
type Config struct {
	APIURL        string        `mapstructure:"api_url"`
	SessionFile   string        `mapstructure:"session_file"`
	CredentialKey string        `mapstructure:"credential_key"`
	Profile       string        `mapstructure:"profile"`
	Timeout       time.Duration `mapstructure:"timeout"`
	LogLevel      string        `mapstructure:"log_level"`
	Output        string        `mapstructure:"output"`
}

// loadConfig reads configFile when given, otherwise an optional config.yaml in
// the user config directory.
func loadConfig(v *viper.Viper, configFile string) (*Config, error) {
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("api_url", gateway.DefaultBaseURL)
	v.SetDefault("session_file", defaultSessionFile())
	v.SetDefault("credential_key", "")
	v.SetDefault("profile", "default")
	v.SetDefault("timeout", "15s")
	v.SetDefault("log_level", "warn")
	v.SetDefault("output", FormatTable)

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", configFile, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(configDir())
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Output {
	case FormatTable, FormatJSON, FormatYAML:
	default:
		return fmt.Errorf("output must be one of table, json, yaml; got %q", c.Output)
	}
	if strings.TrimSpace(c.APIURL) == "" {
		return errors.New("api url must not be empty")
	}
	if strings.TrimSpace(c.Profile) == "" {
		return errors.New("profile must not be empty")
	}
	if c.SessionFile == "" {
		return errors.New("session file must not be empty")
	}
	return nil
}

func configDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "."
	}
	return filepath.Join(dir, "kscst")
}

func defaultSessionFile() string {
	return filepath.Join(configDir(), "session.json")
}

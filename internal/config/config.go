package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

const (
	defaultPanelURL    = "http://localhost:8000"
	credentialsDBName  = "credentials.db"
	defaultedConfigDir = "panelctl"
)

type Config struct {
	PanelURL string
	DataDir  string
	Verbose  bool
}

// Load reads configuration from config.yaml in configDir, PANELCTL_* env
// vars, and built-in defaults, in increasing priority of env over file.
// An empty configDir selects the user config directory.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		base, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("error resolving config dir: %w", err)
		}
		configDir = filepath.Join(base, defaultedConfigDir)
	}

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetDefault("panel_url", defaultPanelURL)
	v.SetDefault("data_dir", configDir)
	v.SetDefault("verbose", false)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configDir)

	v.SetEnvPrefix("PANELCTL")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := &Config{
		PanelURL: v.GetString("panel_url"),
		DataDir:  v.GetString("data_dir"),
		Verbose:  v.GetBool("verbose"),
	}

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, err
	}

	return cfg, nil
}

// CredentialsPath is where the credential store database lives.
func (c *Config) CredentialsPath() string {
	return filepath.Join(c.DataDir, credentialsDBName)
}

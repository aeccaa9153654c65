// Package config provides centralized configuration management for the application.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/TomDunham/fogharvest/internal/logging"
)

// Credentials is one named credential group from the config file.
type Credentials struct {
	URL      string
	Email    string
	Password string
}

// Config holds all configuration parameters for the application.
type Config struct {
	FogBugz Credentials
	Harvest Credentials
}

// LoadConfig reads configuration from the named file, with environment
// variables (FOGBUGZ_*, HARVEST_*) taking precedence. A .env file in the
// working directory is loaded first, best effort.
func LoadConfig(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.BindEnv("fogbugz.url", "FOGBUGZ_URL")
	v.BindEnv("fogbugz.email", "FOGBUGZ_EMAIL")
	v.BindEnv("fogbugz.password", "FOGBUGZ_PASSWORD")
	v.BindEnv("harvest.url", "HARVEST_URL")
	v.BindEnv("harvest.email", "HARVEST_EMAIL")
	v.BindEnv("harvest.password", "HARVEST_PASSWORD")

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			if _, statErr := os.Stat(path); statErr == nil {
				return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
			}
			// Missing file is fine when the environment carries the credentials.
			logging.Debug("config file not found, using environment", "path", path)
		}
	}

	config := &Config{
		FogBugz: Credentials{
			URL:      v.GetString("fogbugz.url"),
			Email:    v.GetString("fogbugz.email"),
			Password: v.GetString("fogbugz.password"),
		},
		Harvest: Credentials{
			URL:      v.GetString("harvest.url"),
			Email:    v.GetString("harvest.email"),
			Password: v.GetString("harvest.password"),
		},
	}

	if err := validateConfig(config); err != nil {
		return nil, err
	}

	logging.Debug("configuration loaded",
		"fogbugz_url", config.FogBugz.URL,
		"fogbugz_email", config.FogBugz.Email,
		"fogbugz_password", logging.MaskSensitive(config.FogBugz.Password),
		"harvest_url", config.Harvest.URL,
		"harvest_email", config.Harvest.Email,
		"harvest_password", logging.MaskSensitive(config.Harvest.Password))

	return config, nil
}

// validateConfig ensures that all required configuration values are provided.
func validateConfig(config *Config) error {
	var missingKeys []string

	if config.FogBugz.URL == "" {
		missingKeys = append(missingKeys, "fogbugz.url")
	}
	if config.FogBugz.Email == "" {
		missingKeys = append(missingKeys, "fogbugz.email")
	}
	if config.FogBugz.Password == "" {
		missingKeys = append(missingKeys, "fogbugz.password")
	}
	if config.Harvest.URL == "" {
		missingKeys = append(missingKeys, "harvest.url")
	}
	if config.Harvest.Email == "" {
		missingKeys = append(missingKeys, "harvest.email")
	}
	if config.Harvest.Password == "" {
		missingKeys = append(missingKeys, "harvest.password")
	}

	if len(missingKeys) > 0 {
		return fmt.Errorf("missing required configuration values: %v", missingKeys)
	}

	return nil
}

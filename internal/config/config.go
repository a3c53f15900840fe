package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
)

// Config represents the application configuration
type Config struct {
	Server            string  `toml:"server"`
	UserAgent         string  `toml:"user_agent"`
	ImageVersion      string  `toml:"image_version"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
	Timeout           string  `toml:"timeout"`
	Jobs              int     `toml:"jobs"`
	Cache             bool    `toml:"cache"`
	Background        string  `toml:"background"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Server:            "https://api.scryfall.com",
		UserAgent:         "proxymancer/0.1",
		ImageVersion:      "png",
		RequestsPerSecond: 10,
		Timeout:           "30s",
		Jobs:              1,
		Cache:             true,
		Background:        "#ffffff",
	}
}

// TimeoutDuration parses Timeout, falling back to 30s
func (c *Config) TimeoutDuration() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil || d <= 0 {
		return 30 * time.Second
	}
	return d
}

// Keys lists the settable configuration keys
func Keys() []string {
	keys := make([]string, 0, len(setters))
	for k := range setters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

var setters = map[string]func(*Config, string) error{
	"server":        func(c *Config, v string) error { c.Server = v; return nil },
	"user_agent":    func(c *Config, v string) error { c.UserAgent = v; return nil },
	"image_version": func(c *Config, v string) error { c.ImageVersion = v; return nil },
	"background":    func(c *Config, v string) error { c.Background = v; return nil },
	"timeout": func(c *Config, v string) error {
		if _, err := time.ParseDuration(v); err != nil {
			return err
		}
		c.Timeout = v
		return nil
	},
	"requests_per_second": func(c *Config, v string) error {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f <= 0 {
			return fmt.Errorf("must be a positive number")
		}
		c.RequestsPerSecond = f
		return nil
	},
	"jobs": func(c *Config, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return fmt.Errorf("must be a positive integer")
		}
		c.Jobs = n
		return nil
	},
	"cache": func(c *Config, v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return err
		}
		c.Cache = b
		return nil
	},
}

// Set updates one key from its string form
func (c *Config) Set(key, value string) error {
	set, ok := setters[key]
	if !ok {
		return fmt.Errorf("unknown config key %q", key)
	}
	if err := set(c, value); err != nil {
		return fmt.Errorf("invalid value for %s: %v", key, err)
	}
	return nil
}

// GetXDGConfigHome returns XDG_CONFIG_HOME or default path
func GetXDGConfigHome() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return xdgConfig
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(homeDir, ".config")
}

// GetXDGCacheHome returns XDG_CACHE_HOME or default path
func GetXDGCacheHome() string {
	if xdgCache := os.Getenv("XDG_CACHE_HOME"); xdgCache != "" {
		return xdgCache
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(homeDir, ".cache")
}

// GetCacheDir returns the directory for card data and preview caches
func GetCacheDir() string {
	return filepath.Join(GetXDGCacheHome(), "proxymancer")
}

// GetConfigFilePath returns the path to the config file
func GetConfigFilePath() string {
	return filepath.Join(GetXDGConfigHome(), "proxymancer", "config.toml")
}

// LoadConfig loads the config file from its default location
func LoadConfig() (*Config, error) {
	return LoadConfigFrom(GetConfigFilePath())
}

// LoadConfigFrom loads the config file at configPath, creating it with
// defaults if it doesn't exist. Keys missing from the file keep their
// default values
func LoadConfigFrom(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return createDefaultConfig(configPath)
	}

	config := Default()
	_, err := toml.DecodeFile(configPath, config)
	if err != nil {
		return nil, fmt.Errorf("error decoding config file: %v", err)
	}

	return config, nil
}

// createDefaultConfig creates a default config file
func createDefaultConfig(configPath string) (*Config, error) {
	config := Default()
	if err := Save(configPath, config); err != nil {
		return nil, err
	}
	return config, nil
}

// Save writes config to configPath
func Save(configPath string, config *Config) error {
	// Ensure the config directory exists
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("error creating config directory: %v", err)
	}

	file, err := os.Create(configPath)
	if err != nil {
		return fmt.Errorf("error creating config file: %v", err)
	}
	defer file.Close()

	encoder := toml.NewEncoder(file)
	if err := encoder.Encode(config); err != nil {
		return fmt.Errorf("error encoding config: %v", err)
	}

	return nil
}

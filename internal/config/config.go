package config

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vvka-141/pgretry/pkg/pgretry"
)

// ErrConfigNotFound is returned when the config file does not exist.
// Callers can check for this with errors.Is(err, config.ErrConfigNotFound).
var ErrConfigNotFound = errors.New("config file not found")

// MiddlewareConfig holds the retry filter options. Pointers distinguish an
// absent option from an explicitly empty one: a present but blank retryable
// list disables retries.
type MiddlewareConfig struct {
	Tries     *int    `yaml:"tries,omitempty"`
	Retryable *string `yaml:"retryable,omitempty"`

	// Backoff is the initial delay between attempts; zero retries immediately.
	Backoff time.Duration `yaml:"backoff,omitempty"`
}

type ServerConfig struct {
	Listen     string           `yaml:"listen"`
	Connection string           `yaml:"connection"`
	Verbose    bool             `yaml:"verbose"`
	Middleware MiddlewareConfig `yaml:"middleware"`
}

const (
	ConfigFileName = "pgretry.yaml"
	DefaultListen  = ":8080"
)

// Load reads ConfigFileName from dir.
func Load(dir string) (*ServerConfig, error) {
	return LoadFile(filepath.Join(dir, ConfigFileName))
}

func LoadFile(path string) (*ServerConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cfg ServerConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, &pgretry.ConfigurationError{Option: "config file", Value: path, Err: err}
	}
	return &cfg, nil
}

// ListenAddr returns the configured listen address or DefaultListen.
func (c *ServerConfig) ListenAddr() string {
	if c.Listen == "" {
		return DefaultListen
	}
	return c.Listen
}

// FilterSettings flattens the middleware section into the string options the
// retry filter factory accepts. Unset options are omitted so the factory
// applies its defaults.
func (c *ServerConfig) FilterSettings() map[string]string {
	settings := make(map[string]string, 2)
	if c.Middleware.Tries != nil {
		settings[pgretry.OptionTries] = strconv.Itoa(*c.Middleware.Tries)
	}
	if c.Middleware.Retryable != nil {
		settings[pgretry.OptionRetryable] = *c.Middleware.Retryable
	}
	return settings
}

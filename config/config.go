// Package config loads the engine's YAML configuration file and fills
// in defaults for everything the file omits.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

// Storage backends for the durable keystore blob.
const (
	BackendFile   = "file"
	BackendBadger = "badger"
)

// ErrUnknownBackend is returned for a storage backend name that is
// neither "file" nor "badger".
var ErrUnknownBackend = errors.New("unknown storage backend")

// Config holds every engine tunable. The zero value is not usable;
// start from Default or Load.
type Config struct {
	// StoragePath is the directory holding the durable keystore.
	StoragePath string `yaml:"storagePath"`
	// StorageBackend selects the keystore blob store, "file" or
	// "badger".
	StorageBackend string `yaml:"storageBackend"`

	PageSizeMessages int `yaml:"pageSizeMessages"`
	PageSizeFeed     int `yaml:"pageSizeFeed"`

	MessagePollInterval time.Duration `yaml:"-"`
	CryptoPollInterval  time.Duration `yaml:"-"`
}

// rawConfig mirrors Config with durations as strings, since the YAML
// decoder has no native duration support.
type rawConfig struct {
	StoragePath         string `yaml:"storagePath"`
	StorageBackend      string `yaml:"storageBackend"`
	PageSizeMessages    int    `yaml:"pageSizeMessages"`
	PageSizeFeed        int    `yaml:"pageSizeFeed"`
	MessagePollInterval string `yaml:"messagePollInterval"`
	CryptoPollInterval  string `yaml:"cryptoPollInterval"`
}

// UnmarshalYAML decodes duration fields from strings like "3s".
func (c *Config) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var raw rawConfig
	if err := unmarshal(&raw); err != nil {
		return err
	}

	c.StoragePath = raw.StoragePath
	c.StorageBackend = raw.StorageBackend
	c.PageSizeMessages = raw.PageSizeMessages
	c.PageSizeFeed = raw.PageSizeFeed

	if raw.MessagePollInterval != "" {
		d, err := time.ParseDuration(raw.MessagePollInterval)
		if err != nil {
			return fmt.Errorf("messagePollInterval: %w", err)
		}
		c.MessagePollInterval = d
	}
	if raw.CryptoPollInterval != "" {
		d, err := time.ParseDuration(raw.CryptoPollInterval)
		if err != nil {
			return fmt.Errorf("cryptoPollInterval: %w", err)
		}
		c.CryptoPollInterval = d
	}
	return nil
}

// Default returns the standard configuration.
func Default() Config {
	return Config{
		StoragePath:         ".sectornet",
		StorageBackend:      BackendFile,
		PageSizeMessages:    30,
		PageSizeFeed:        20,
		MessagePollInterval: 3 * time.Second,
		CryptoPollInterval:  5 * time.Second,
	}
}

// Load reads a YAML configuration file and applies defaults for every
// omitted field. A missing file yields the defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	def := Default()
	if c.StoragePath == "" {
		c.StoragePath = def.StoragePath
	}
	if c.StorageBackend == "" {
		c.StorageBackend = def.StorageBackend
	}
	if c.PageSizeMessages <= 0 {
		c.PageSizeMessages = def.PageSizeMessages
	}
	if c.PageSizeFeed <= 0 {
		c.PageSizeFeed = def.PageSizeFeed
	}
	if c.MessagePollInterval <= 0 {
		c.MessagePollInterval = def.MessagePollInterval
	}
	if c.CryptoPollInterval <= 0 {
		c.CryptoPollInterval = def.CryptoPollInterval
	}
}

// Validate checks field values that defaults cannot repair.
func (c *Config) Validate() error {
	switch c.StorageBackend {
	case BackendFile, BackendBadger:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownBackend, c.StorageBackend)
	}
}

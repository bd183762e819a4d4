// ABOUTME: Connection settings for the Charm KV that stores portal settings
// ABOUTME: Host and auto-sync live in a JSON file under the XDG data dir

package charm

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
)

const (
	DefaultCharmHost = "charm.2389.dev"

	// AppName names the KV database and the data directory.
	AppName = "reportcard"

	ConfigFileName = "charm-config.json"
)

// Config says where settings sync to.
type Config struct {
	Host     string `json:"host,omitempty"`
	AutoSync bool   `json:"auto_sync"`
}

func DefaultConfig() *Config {
	return &Config{Host: DefaultCharmHost, AutoSync: true}
}

// ConfigPath is the config file location, creating its directory.
func ConfigPath() (string, error) {
	dir := filepath.Join(xdg.DataHome, AppName)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", dir, err)
	}
	return filepath.Join(dir, ConfigFileName), nil
}

// LoadConfig reads the config file. A missing or unreadable file yields the
// defaults; an empty host falls back to DefaultCharmHost.
func LoadConfig() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return DefaultConfig(), nil //nolint:nilerr // no data dir means defaults
	}
	return readConfig(path)
}

func readConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return DefaultConfig(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return DefaultConfig(), nil //nolint:nilerr // corrupt file means defaults
	}
	if cfg.Host == "" {
		cfg.Host = DefaultCharmHost
	}
	return cfg, nil
}

// Save writes c to the config file.
func (c *Config) Save() error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return c.saveTo(path)
}

func (c *Config) saveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

// SetAutoSync updates and saves the auto-sync preference.
func (c *Config) SetAutoSync(enabled bool) error {
	c.AutoSync = enabled
	return c.Save()
}

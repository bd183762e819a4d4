// ABOUTME: Portal configuration stored at XDG paths with .env and environment overrides
// ABOUTME: Resolves Airtable credentials, demo mode, port and database path
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
)

const (
	// AppName names the XDG config and data directories.
	AppName = "reportcard"

	// ConfigFileName is the config file inside the XDG config directory.
	ConfigFileName = "config.json"

	DefaultPort    = 3000
	DefaultTimeout = 30 * time.Second

	tokenPlaceholder  = "your_airtable_token_here"
	baseIDPlaceholder = "your_airtable_base_id_here"
)

// EnvFiles are read from the working directory. Earlier files win.
var EnvFiles = []string{".env.local", ".env"}

// Config holds everything the portal needs to reach its record store.
type Config struct {
	AirtableToken    string `json:"airtable_token,omitempty"`
	AirtableBaseID   string `json:"airtable_base_id,omitempty"`
	AirtableEndpoint string `json:"airtable_endpoint,omitempty"`
	TimeoutSeconds   int    `json:"timeout_seconds,omitempty"`

	// Demo serves sample data from the local database instead of Airtable.
	Demo   bool   `json:"demo"`
	Port   int    `json:"port,omitempty"`
	DBPath string `json:"db_path,omitempty"`
}

// Default returns a config with no credentials.
func Default() *Config {
	return &Config{
		Port:   DefaultPort,
		DBPath: DefaultDBPath(),
	}
}

// Dir returns the XDG config directory for the portal.
func Dir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Path returns the default config file path.
func Path() string {
	return filepath.Join(Dir(), ConfigFileName)
}

// DefaultDBPath returns the demo database location under XDG data.
func DefaultDBPath() string {
	return filepath.Join(xdg.DataHome, AppName, "portal.db")
}

// Load reads the config file at path (Path() when empty), then applies .env files
// and finally process environment variables, each overriding the last.
func Load(path string, envFiles ...string) (*Config, error) {
	if path == "" {
		path = Path()
	}

	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to decode config %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	fileEnv, err := readEnvFiles(envFiles)
	if err != nil {
		return nil, err
	}
	cfg.applyEnv(func(key string) string {
		if v := os.Getenv(key); v != "" {
			return v
		}
		return fileEnv[key]
	})

	if cfg.Port == 0 {
		cfg.Port = DefaultPort
	}
	if cfg.DBPath == "" {
		cfg.DBPath = DefaultDBPath()
	}
	return cfg, nil
}

// readEnvFiles merges dotenv files, earlier files taking precedence. Missing files are skipped.
func readEnvFiles(files []string) (map[string]string, error) {
	merged := make(map[string]string)
	for i := len(files) - 1; i >= 0; i-- {
		values, err := godotenv.Read(files[i])
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("failed to read %s: %w", files[i], err)
		}
		for k, v := range values {
			merged[k] = v
		}
	}
	return merged, nil
}

func (c *Config) applyEnv(get func(string) string) {
	first := func(keys ...string) string {
		for _, k := range keys {
			if v := strings.TrimSpace(get(k)); v != "" {
				return v
			}
		}
		return ""
	}

	if v := first("AIRTABLE_TOKEN", "NEXT_PUBLIC_AIRTABLE_TOKEN"); v != "" {
		c.AirtableToken = v
	}
	if v := first("AIRTABLE_BASE_ID", "NEXT_PUBLIC_AIRTABLE_BASE_ID"); v != "" {
		c.AirtableBaseID = v
	}
	if v := first("AIRTABLE_ENDPOINT"); v != "" {
		c.AirtableEndpoint = v
	}
	if v := first("REPORTCARD_DEMO"); v != "" {
		c.Demo = v == "true" || v == "1"
	}
	if v := first("REPORTCARD_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Port = port
		}
	}
	if v := first("REPORTCARD_DB_PATH"); v != "" {
		c.DBPath = v
	}
}

// Save writes the config to path (Path() when empty) with owner-only permissions.
func (c *Config) Save(path string) error {
	if path == "" {
		path = Path()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return os.WriteFile(path, data, 0600)
}

// Timeout returns the request timeout for the remote store.
func (c *Config) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return DefaultTimeout
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Connection states reported by Status.
const (
	StatusConnected = "connected"
	StatusError     = "error"
)

// ConnectionStatus describes whether credentials are usable.
type ConnectionStatus struct {
	State   string
	Message string
}

// OK reports whether credentials are present.
func (s ConnectionStatus) OK() bool {
	return s.State == StatusConnected
}

// Status checks that token and base id are set and are not the template placeholders.
// It does not contact the store.
func (c *Config) Status() ConnectionStatus {
	if c.Demo {
		return ConnectionStatus{State: StatusConnected, Message: "Demo mode: serving sample data"}
	}
	if c.AirtableToken == "" || c.AirtableToken == tokenPlaceholder {
		return ConnectionStatus{State: StatusError, Message: "Airtable token not configured"}
	}
	if c.AirtableBaseID == "" || c.AirtableBaseID == baseIDPlaceholder {
		return ConnectionStatus{State: StatusError, Message: "Airtable Base ID not configured"}
	}
	return ConnectionStatus{State: StatusConnected, Message: "Connected to Airtable"}
}

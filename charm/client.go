// ABOUTME: Settings client over a Charm KV store with optional auto-sync
// ABOUTME: Explicitly constructed per process and passed to whoever needs it

package charm

import (
	"fmt"
	"os"
	"sync"

	"github.com/charmbracelet/charm/client"
	"github.com/charmbracelet/charm/kv"
)

// kvStore is the part of a KV the settings client uses. *kv.KV satisfies it.
type kvStore interface {
	Get(key []byte) ([]byte, error)
	Set(key, value []byte) error
	Delete(key []byte) error
	Sync() error
}

// Client reads and writes portal settings in a KV store.
type Client struct {
	mu     sync.RWMutex
	store  kvStore
	config *Config
	// local stores have no charm account behind them.
	local bool
}

// NewClient opens the charm KV for cfg (DefaultConfig when nil). With
// auto-sync on, remote changes are pulled before returning.
func NewClient(cfg *Config) (*Client, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	_ = os.Setenv("CHARM_HOST", cfg.Host)

	db, err := kv.OpenWithDefaults(AppName)
	if err != nil {
		return nil, fmt.Errorf("failed to open charm kv: %w", err)
	}
	if cfg.AutoSync {
		_ = db.Sync()
	}
	return &Client{store: db, config: cfg}, nil
}

func (c *Client) Config() *Config {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.config
}

// ID returns this device's charm user ID.
func (c *Client) ID() (string, error) {
	if c.local {
		return "local", nil
	}
	cc, err := client.NewClientWithDefaults()
	if err != nil {
		return "", fmt.Errorf("failed to create charm client: %w", err)
	}
	return cc.ID()
}

func (c *Client) IsConnected() bool {
	_, err := c.ID()
	return err == nil
}

// Sync pushes and pulls settings with the charm server.
func (c *Client) Sync() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store.Sync()
}

func (c *Client) Get(key []byte) ([]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.store.Get(key)
}

// Set writes key and syncs when auto-sync is on.
func (c *Client) Set(key, value []byte) error {
	return c.write(func() error { return c.store.Set(key, value) })
}

// Delete removes key and syncs when auto-sync is on.
func (c *Client) Delete(key []byte) error {
	return c.write(func() error { return c.store.Delete(key) })
}

func (c *Client) write(op func() error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := op(); err != nil {
		return err
	}
	if c.config.AutoSync {
		_ = c.store.Sync()
	}
	return nil
}

// ABOUTME: Portal settings persisted as JSON under a single KV key
// ABOUTME: Falls back to default settings until something has been saved

package charm

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v3"
	"github.com/jstnrme77/reportcard-portal/models"
)

// SettingsKey is the KV key holding the portal settings.
const SettingsKey = "portal:settings"

var ErrSettingsNotFound = errors.New("settings not found")

// StoredSettings returns the saved settings or ErrSettingsNotFound.
func (c *Client) StoredSettings() (models.Settings, error) {
	data, err := c.Get([]byte(SettingsKey))
	if errors.Is(err, badger.ErrKeyNotFound) || (err == nil && len(data) == 0) {
		return models.Settings{}, ErrSettingsNotFound
	}
	if err != nil {
		return models.Settings{}, fmt.Errorf("failed to read settings: %w", err)
	}

	var s models.Settings
	if err := json.Unmarshal(data, &s); err != nil {
		return models.Settings{}, fmt.Errorf("failed to decode settings: %w", err)
	}
	return s, nil
}

// LoadSettings returns the saved settings, or the defaults when none are saved.
func (c *Client) LoadSettings() (models.Settings, error) {
	s, err := c.StoredSettings()
	if errors.Is(err, ErrSettingsNotFound) {
		return models.DefaultSettings(), nil
	}
	return s, err
}

// SaveSettings stores s, syncing when auto-sync is on.
func (c *Client) SaveSettings(s models.Settings) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	if err := c.Set([]byte(SettingsKey), data); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}

// ResetSettings deletes saved settings so the defaults apply again.
func (c *Client) ResetSettings() error {
	err := c.Delete([]byte(SettingsKey))
	if err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
		return fmt.Errorf("failed to reset settings: %w", err)
	}
	return nil
}

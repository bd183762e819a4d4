// ABOUTME: Tests for settings persistence in the charm KV
// ABOUTME: Uses the badger-backed test client so no charm server is needed

package charm

import (
	"bytes"
	"testing"

	"github.com/jstnrme77/reportcard-portal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSettingsDefaultsWhenAbsent(t *testing.T) {
	c := NewTestClient(t)

	_, err := c.StoredSettings()
	assert.ErrorIs(t, err, ErrSettingsNotFound)

	s, err := c.LoadSettings()
	require.NoError(t, err)
	assert.Equal(t, models.DefaultSettings(), s)
}

func TestSaveAndLoadSettings(t *testing.T) {
	c := NewTestClient(t)

	s := models.DefaultSettings()
	s.Display.DarkMode = true
	s.Notifications.WeeklyDigest = true
	s.Account.Name = "Jane Smith"

	require.NoError(t, c.SaveSettings(s))

	got, err := c.LoadSettings()
	require.NoError(t, err)
	assert.Equal(t, s, got)

	raw, err := c.Get([]byte(SettingsKey))
	require.NoError(t, err)
	assert.Contains(t, string(raw), "Jane Smith")
}

func TestResetSettings(t *testing.T) {
	c := NewTestClient(t)

	s := models.DefaultSettings()
	s.Display.CompactView = true
	require.NoError(t, c.SaveSettings(s))

	require.NoError(t, c.ResetSettings())

	got, err := c.LoadSettings()
	require.NoError(t, err)
	assert.False(t, got.Display.CompactView)

	// Resetting twice is fine
	require.NoError(t, c.ResetSettings())
}

func TestCorruptSettings(t *testing.T) {
	c := NewTestClient(t)

	require.NoError(t, c.Set([]byte(SettingsKey), []byte("{not json")))

	_, err := c.LoadSettings()
	assert.Error(t, err)
}

func TestLocalClientSyncIsNoop(t *testing.T) {
	c := NewTestClient(t)

	assert.NoError(t, c.Sync())
	assert.True(t, c.IsConnected())
	assert.False(t, c.Config().AutoSync)

	id, err := c.ID()
	require.NoError(t, err)
	assert.Equal(t, "local", id)
}

func TestWriteSettings(t *testing.T) {
	var buf bytes.Buffer
	WriteSettings(&buf, models.DefaultSettings())

	out := buf.String()
	assert.Contains(t, out, "Email alerts:      true")
	assert.Contains(t, out, "Weekly digest:     false")
	assert.Contains(t, out, "Name:  John Doe")
	assert.Contains(t, out, "Role:  Account Manager")
}

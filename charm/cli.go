// ABOUTME: CLI commands for portal settings stored in Charm KV
// ABOUTME: Show, change, sync and reset settings; SSH key auth so no login is needed

package charm

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/jstnrme77/reportcard-portal/models"
)

// SettingsShowCommand prints the current settings.
func SettingsShowCommand(c *Client, args []string) error {
	fs := flag.NewFlagSet("settings show", flag.ExitOnError)
	_ = fs.Parse(args)

	s, err := c.LoadSettings()
	if err != nil {
		return err
	}
	WriteSettings(os.Stdout, s)
	return nil
}

// WriteSettings prints s as an indented listing.
func WriteSettings(w io.Writer, s models.Settings) {
	_, _ = fmt.Fprintln(w, "Notifications")
	_, _ = fmt.Fprintf(w, "  Email alerts:      %v\n", s.Notifications.EmailAlerts)
	_, _ = fmt.Fprintf(w, "  App notifications: %v\n", s.Notifications.AppNotifications)
	_, _ = fmt.Fprintf(w, "  Weekly digest:     %v\n", s.Notifications.WeeklyDigest)
	_, _ = fmt.Fprintln(w, "Display")
	_, _ = fmt.Fprintf(w, "  Dark mode:         %v\n", s.Display.DarkMode)
	_, _ = fmt.Fprintf(w, "  Compact view:      %v\n", s.Display.CompactView)
	_, _ = fmt.Fprintln(w, "Account")
	_, _ = fmt.Fprintf(w, "  Name:  %s\n", s.Account.Name)
	_, _ = fmt.Fprintf(w, "  Email: %s\n", s.Account.Email)
	_, _ = fmt.Fprintf(w, "  Role:  %s\n", s.Account.Role)
}

// SettingsSetCommand changes the settings named by flags and saves them.
func SettingsSetCommand(c *Client, args []string) error {
	s, err := c.LoadSettings()
	if err != nil {
		return err
	}

	fs := flag.NewFlagSet("settings set", flag.ExitOnError)
	fs.BoolVar(&s.Notifications.EmailAlerts, "email-alerts", s.Notifications.EmailAlerts, "Email alerts")
	fs.BoolVar(&s.Notifications.AppNotifications, "app-notifications", s.Notifications.AppNotifications, "In-app notifications")
	fs.BoolVar(&s.Notifications.WeeklyDigest, "weekly-digest", s.Notifications.WeeklyDigest, "Weekly digest email")
	fs.BoolVar(&s.Display.DarkMode, "dark-mode", s.Display.DarkMode, "Dark mode")
	fs.BoolVar(&s.Display.CompactView, "compact-view", s.Display.CompactView, "Compact view")
	fs.StringVar(&s.Account.Name, "name", s.Account.Name, "Account name")
	fs.StringVar(&s.Account.Email, "email", s.Account.Email, "Account email")
	fs.StringVar(&s.Account.Role, "role", s.Account.Role, "Account role")
	_ = fs.Parse(args)

	if err := c.SaveSettings(s); err != nil {
		return err
	}
	fmt.Println("✓ Settings saved")
	return nil
}

// SettingsStatusCommand shows the sync configuration and connection state.
func SettingsStatusCommand(c *Client, args []string) error {
	fs := flag.NewFlagSet("settings status", flag.ExitOnError)
	_ = fs.Parse(args)

	cfg := c.Config()
	fmt.Println("Charm Sync Status")
	fmt.Println("─────────────────")
	fmt.Printf("Server:    %s\n", cfg.Host)
	fmt.Printf("Auto-sync: %v\n", cfg.AutoSync)

	id, err := c.ID()
	if err != nil {
		fmt.Println("\nStatus: Not connected")
	} else {
		fmt.Println("\nStatus: Connected to Charm Cloud")
		fmt.Printf("ID:        %s\n", id)
	}

	if _, err := c.StoredSettings(); err != nil {
		fmt.Println("Settings:  defaults (nothing saved)")
	} else {
		fmt.Println("Settings:  saved")
	}

	fmt.Println("\nCharm uses SSH keys for authentication - no login required!")
	return nil
}

// SettingsSyncCommand performs an immediate sync.
func SettingsSyncCommand(c *Client, args []string) error {
	fs := flag.NewFlagSet("settings sync", flag.ExitOnError)
	verbose := fs.Bool("verbose", false, "Show verbose output")
	_ = fs.Parse(args)

	if *verbose {
		fmt.Println("Syncing with server...")
	}
	if err := c.Sync(); err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}
	fmt.Println("✓ Synced")
	return nil
}

// SettingsAutoSyncCommand enables or disables auto-sync.
func SettingsAutoSyncCommand(c *Client, args []string) error {
	fs := flag.NewFlagSet("settings auto", flag.ExitOnError)
	enable := fs.Bool("enable", false, "Enable auto-sync")
	disable := fs.Bool("disable", false, "Disable auto-sync")
	_ = fs.Parse(args)

	if *enable == *disable {
		fmt.Println("Usage: reportcard settings auto --enable|--disable")
		return nil
	}

	if err := c.Config().SetAutoSync(*enable); err != nil {
		return fmt.Errorf("failed to update auto-sync: %w", err)
	}
	if *enable {
		fmt.Println("✓ Auto-sync enabled")
	} else {
		fmt.Println("✓ Auto-sync disabled")
	}
	return nil
}

// SettingsResetCommand removes saved settings so the defaults apply again.
func SettingsResetCommand(c *Client, args []string) error {
	fs := flag.NewFlagSet("settings reset", flag.ExitOnError)
	confirm := fs.Bool("confirm", false, "Confirm reset")
	_ = fs.Parse(args)

	if !*confirm {
		fmt.Println("WARNING: This will discard your saved settings.")
		fmt.Println()
		fmt.Println("To confirm, run:")
		fmt.Println("  reportcard settings reset --confirm")
		return nil
	}

	if err := c.ResetSettings(); err != nil {
		return err
	}
	fmt.Println("✓ Settings reset to defaults")
	return nil
}

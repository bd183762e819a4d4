// ABOUTME: Portal preferences shown on the settings page
// ABOUTME: Notification, display and account blocks with their initial values
package models

// Settings are the portal preferences persisted in the settings KV.
type Settings struct {
	Notifications NotificationSettings `json:"notifications"`
	Display       DisplaySettings      `json:"display"`
	Account       AccountSettings      `json:"account"`
}

type NotificationSettings struct {
	EmailAlerts      bool `json:"email_alerts"`
	AppNotifications bool `json:"app_notifications"`
	WeeklyDigest     bool `json:"weekly_digest"`
}

type DisplaySettings struct {
	DarkMode    bool `json:"dark_mode"`
	CompactView bool `json:"compact_view"`
}

type AccountSettings struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// DefaultSettings returns the values used before anything has been saved.
func DefaultSettings() Settings {
	return Settings{
		Notifications: NotificationSettings{
			EmailAlerts:      true,
			AppNotifications: true,
			WeeklyDigest:     false,
		},
		Display: DisplaySettings{
			DarkMode:    false,
			CompactView: false,
		},
		Account: AccountSettings{
			Name:  "John Doe",
			Email: "john.doe@example.com",
			Role:  "Account Manager",
		},
	}
}

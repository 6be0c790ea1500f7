package enums

import "fmt"

// NotificationLevel mirrors the toast variants shown by the dashboard.
type NotificationLevel string

const (
	NotificationLevelSuccess NotificationLevel = "success"
	NotificationLevelInfo    NotificationLevel = "info"
	NotificationLevelWarning NotificationLevel = "warning"
	NotificationLevelError   NotificationLevel = "error"
)

var validNotificationLevels = []NotificationLevel{
	NotificationLevelSuccess,
	NotificationLevelInfo,
	NotificationLevelWarning,
	NotificationLevelError,
}

// IsValid checks whether the given level matches the canonical enum.
func (n NotificationLevel) IsValid() bool {
	for _, candidate := range validNotificationLevels {
		if candidate == n {
			return true
		}
	}
	return false
}

// ParseNotificationLevel converts raw strings into NotificationLevel.
func ParseNotificationLevel(value string) (NotificationLevel, error) {
	for _, candidate := range validNotificationLevels {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification level %q", value)
}

package models

import (
	"fmt"
	"strconv"

	"github.com/julianstephens/opsboard/internal/constants"
)

// MapToSettings converts a map of key-value pairs to a Settings struct.
func MapToSettings(data map[string]string) (Settings, error) {
	settings := Settings{}

	for key, value := range data {
		switch key {
		case constants.SettingTimezone:
			settings.Timezone = value
		case constants.SettingHeartbeatIntervalSec:
			n, err := strconv.Atoi(value)
			if err != nil {
				return Settings{}, fmt.Errorf("parsing %s: %w", key, err)
			}
			settings.HeartbeatIntervalSec = n
		case constants.SettingPresenceTTLSec:
			n, err := strconv.Atoi(value)
			if err != nil {
				return Settings{}, fmt.Errorf("parsing %s: %w", key, err)
			}
			settings.PresenceTTLSec = n
		case constants.SettingNotificationsEnabled:
			settings.NotificationsEnabled = value == "true"
		case constants.SettingWebhookURL:
			settings.WebhookURL = value
		case constants.SettingSnapshotPreserveDays:
			n, err := strconv.Atoi(value)
			if err != nil {
				return Settings{}, fmt.Errorf("parsing %s: %w", key, err)
			}
			settings.SnapshotPreserveDays = n
		case constants.SettingActivityLogLimit:
			n, err := strconv.Atoi(value)
			if err != nil {
				return Settings{}, fmt.Errorf("parsing %s: %w", key, err)
			}
			settings.ActivityLogLimit = n
		case constants.SettingSupervisorPINHash:
			settings.SupervisorPINHash = value
		}
	}
	return settings, nil
}

// SettingsToMap converts a Settings struct to a map of key-value pairs.
func SettingsToMap(settings Settings) map[string]string {
	return map[string]string{
		constants.SettingTimezone:             settings.Timezone,
		constants.SettingHeartbeatIntervalSec: strconv.Itoa(settings.HeartbeatIntervalSec),
		constants.SettingPresenceTTLSec:       strconv.Itoa(settings.PresenceTTLSec),
		constants.SettingNotificationsEnabled: strconv.FormatBool(settings.NotificationsEnabled),
		constants.SettingWebhookURL:           settings.WebhookURL,
		constants.SettingSnapshotPreserveDays: strconv.Itoa(settings.SnapshotPreserveDays),
		constants.SettingActivityLogLimit:     strconv.Itoa(settings.ActivityLogLimit),
		constants.SettingSupervisorPINHash:    settings.SupervisorPINHash,
	}
}

// DefaultSettings returns the settings written by init.
func DefaultSettings() Settings {
	return Settings{
		Timezone:             constants.DefaultTimezone,
		HeartbeatIntervalSec: constants.DefaultHeartbeatIntervalSec,
		PresenceTTLSec:       constants.DefaultPresenceTTLSec,
		NotificationsEnabled: constants.DefaultNotificationsEnabled,
		SnapshotPreserveDays: constants.DefaultSnapshotPreserveDays,
		ActivityLogLimit:     constants.DefaultActivityLogLimit,
	}
}

// ApplyDefaultSettings applies default values to missing settings.
func ApplyDefaultSettings(settings *Settings) {
	if settings.Timezone == "" {
		settings.Timezone = constants.DefaultTimezone
	}
	if settings.HeartbeatIntervalSec <= 0 {
		settings.HeartbeatIntervalSec = constants.DefaultHeartbeatIntervalSec
	}
	if settings.PresenceTTLSec <= 0 {
		settings.PresenceTTLSec = constants.DefaultPresenceTTLSec
	}
	if settings.SnapshotPreserveDays < 0 {
		settings.SnapshotPreserveDays = 0
	}
	if settings.ActivityLogLimit <= 0 {
		settings.ActivityLogLimit = constants.DefaultActivityLogLimit
	}
}

package models

import "time"

// Settings represents application-wide settings stored in the settings table.
type Settings struct {
	Timezone             string `json:"timezone"`               // IANA name or "Local"; fixes the scheduling day and hour
	HeartbeatIntervalSec int    `json:"heartbeat_interval_sec"` // presence beat and recompute period
	PresenceTTLSec       int    `json:"presence_ttl_sec"`       // heartbeat age at which an operator drops offline
	NotificationsEnabled bool   `json:"notifications_enabled"`
	WebhookURL           string `json:"webhook_url,omitempty"`
	SnapshotPreserveDays int    `json:"snapshot_preserve_days"` // prior days frozen before a schedule edit
	ActivityLogLimit     int    `json:"activity_log_limit"`
	SupervisorPINHash    string `json:"-"`
}

// HeartbeatInterval returns the configured interval as a duration.
func (s Settings) HeartbeatInterval() time.Duration {
	return time.Duration(s.HeartbeatIntervalSec) * time.Second
}

// PresenceTTL returns the configured TTL as a duration.
func (s Settings) PresenceTTL() time.Duration {
	return time.Duration(s.PresenceTTLSec) * time.Second
}

package constants

const (
	SettingTimezone             = "timezone"
	SettingHeartbeatIntervalSec = "heartbeat_interval_sec"
	SettingPresenceTTLSec       = "presence_ttl_sec"
	SettingNotificationsEnabled = "notifications_enabled"
	SettingWebhookURL           = "webhook_url"
	SettingSnapshotPreserveDays = "snapshot_preserve_days"
	SettingActivityLogLimit     = "activity_log_limit"
	SettingSupervisorPINHash    = "supervisor_pin_hash"

	DefaultTimezone             = "Local" // Use system local timezone by default
	DefaultHeartbeatIntervalSec = 5
	DefaultPresenceTTLSec       = 15
	DefaultNotificationsEnabled = true
	DefaultSnapshotPreserveDays = 0
	DefaultActivityLogLimit     = DefaultActivityLimit
)

package constants

import "time"

const (
	AppName            = "opsboard"
	DefaultKeyringUser = "database-connection"
	DefaultConfigPath  = "~/.config/opsboard/opsboard.db"
	Version            = "v0.3.0"

	// DateFormat is the day key format used in tracking keys and snapshots (YYYY-MM-DD)
	DateFormat = "2006-01-02"

	// TimeFormat is the block start format (HH:MM)
	TimeFormat = "15:04"

	// Backup constants
	MaxBackups       = 14
	BackupDirName    = "backups"
	BackupFilePrefix = "opsboard-"
	BackupFileSuffix = ".db"

	// Local state
	LocalStateFileName = "state.json"

	// Presence
	DefaultHeartbeatInterval = 5 * time.Second
	DefaultPresenceTTL       = 15 * time.Second
	// Heartbeats older than this many TTLs are deleted at recompute.
	PresencePruneFactor = 4

	// Notify constants
	NotifierLockfileName   = "opsboard-notifier.lock"
	NotificationDurationMs = 5000
	TrayAppIdentifier      = "com.julianstephens.opsboard"
	TrayAppExecutable      = "opsboard-tray"
	NotifiedKeyTTL         = 48 * time.Hour
	// Local dedup sets keep keys dated today and yesterday.
	NotifiedRetentionDays = 2
	// Review marks, and pending items, cover this many days ending today.
	ReviewRetentionDays = 30
	LateEvaluationInterval = time.Minute

	// Weekly analytics
	DefaultSeriesDays = 7
	MaxSeriesDays     = 90

	// Activity log
	DefaultActivityLimit = 100

	// PIN rules
	MinPINLength = 4
	MaxPINLength = 12
)

// Change feed topics. Table topics match table names.
const (
	TopicProfiles       = "profiles"
	TopicScheduleBlocks = "schedule_blocks"
	TopicSnapshots      = "schedule_snapshots"
	TopicTracking       = "tracking_data"
	TopicActivity       = "activity_logs"
	TopicPresence       = "presence"
)

// Redis keys
const (
	RedisPresenceKey       = "opsboard:presence"
	RedisChannelPrefix     = "opsboard:changes:"
	RedisNotifiedKeyPrefix = "opsboard:notified:"
)

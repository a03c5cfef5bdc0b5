package constants

// BlockStatus is the derived state of a schedule block at a given hour.
type BlockStatus string

// Priority of a schedule block.
type Priority string

// NoteKind tags the variant stored in a tracking record's note.
type NoteKind string

// DelayReason is the reason code an operator picks when justifying a late block.
type DelayReason string

// ActivityAction names an activity log entry.
type ActivityAction string

const (
	StatusFuture  BlockStatus = "future"
	StatusCurrent BlockStatus = "current"
	StatusLate    BlockStatus = "late"
	StatusDone    BlockStatus = "done"

	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"

	NoteNone          NoteKind = ""
	NotePlain         NoteKind = "note"
	NoteJustification NoteKind = "justification"

	ReasonHighDemand      DelayReason = "high_demand"
	ReasonSystemSlowness  DelayReason = "system_slowness"
	ReasonExternalFactor  DelayReason = "external_factor"
	ReasonBreakAdjustment DelayReason = "break_adjustment"
	ReasonOther           DelayReason = "other"
	ReasonImpossibleToDo  DelayReason = "impossible_to_complete"

	ActionTaskToggled     ActivityAction = "task_toggled"
	ActionReportSaved     ActivityAction = "report_saved"
	ActionReportSubmitted ActivityAction = "report_submitted"
	ActionJustified       ActivityAction = "delay_justified"
	ActionAttachmentAdded ActivityAction = "attachment_added"
	ActionScheduleUpdated ActivityAction = "schedule_updated"
	ActionProfileSaved    ActivityAction = "profile_saved"
	ActionProfileDeleted  ActivityAction = "profile_deleted"
	ActionLogin           ActivityAction = "login"
	ActionLogout          ActivityAction = "logout"
	ActionLateNotified    ActivityAction = "late_notified"
	ActionSettingsUpdated ActivityAction = "settings_updated"
)

// DelayReasons lists the accepted reason codes in display order.
var DelayReasons = []DelayReason{
	ReasonHighDemand,
	ReasonSystemSlowness,
	ReasonExternalFactor,
	ReasonBreakAdjustment,
	ReasonOther,
	ReasonImpossibleToDo,
}

// Valid reports whether r is one of the accepted reason codes.
func (r DelayReason) Valid() bool {
	for _, known := range DelayReasons {
		if r == known {
			return true
		}
	}
	return false
}

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool {
	return p == PriorityHigh || p == PriorityMedium || p == PriorityLow
}

// Package activity appends audit entries and announces writes on the change feed.
package activity

import (
	"context"

	"github.com/google/uuid"

	"github.com/julianstephens/opsboard/internal/changes"
	"github.com/julianstephens/opsboard/internal/constants"
	"github.com/julianstephens/opsboard/internal/logger"
	"github.com/julianstephens/opsboard/internal/models"
	"github.com/julianstephens/opsboard/internal/utils"
)

// Appender is the slice of storage the recorder writes to.
type Appender interface {
	AppendActivity(models.ActivityLogEntry) error
}

// Recorder logs actions and publishes change hints. Both are best effort:
// the write they describe has already succeeded.
type Recorder struct {
	store  Appender
	broker changes.Broker
	now    utils.Clock
}

// NewRecorder returns a recorder. broker may be nil.
func NewRecorder(store Appender, broker changes.Broker, now utils.Clock) *Recorder {
	if now == nil {
		now = utils.SystemClock
	}
	return &Recorder{store: store, broker: broker, now: now}
}

// Record appends an audit entry and announces it.
func (r *Recorder) Record(ctx context.Context, actor string, action constants.ActivityAction, detail string) {
	entry := models.ActivityLogEntry{
		ID:        uuid.NewString(),
		Actor:     actor,
		Action:    action,
		Detail:    detail,
		Timestamp: r.now(),
	}
	if err := r.store.AppendActivity(entry); err != nil {
		logger.Warn("Failed to append activity", "action", action, "actor", actor, "error", err)
		return
	}
	r.Changed(ctx, constants.TopicActivity, entry.ID)
}

// Changed publishes a table-changed hint.
func (r *Recorder) Changed(ctx context.Context, topic, data string) {
	if r.broker == nil {
		return
	}
	if err := r.broker.Publish(ctx, changes.Changed(topic, data)); err != nil {
		logger.Warn("Failed to publish change", "topic", topic, "error", err)
	}
}

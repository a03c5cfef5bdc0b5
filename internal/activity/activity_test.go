package activity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/julianstephens/opsboard/internal/changes"
	"github.com/julianstephens/opsboard/internal/constants"
	"github.com/julianstephens/opsboard/internal/models"
)

type memAppender struct {
	entries []models.ActivityLogEntry
	err     error
}

func (m *memAppender) AppendActivity(e models.ActivityLogEntry) error {
	if m.err != nil {
		return m.err
	}
	m.entries = append(m.entries, e)
	return nil
}

func TestRecordAppendsAndPublishes(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	broker := changes.NewMemoryBroker()
	events, err := broker.Subscribe(ctx, constants.TopicActivity)
	if err != nil {
		t.Fatal(err)
	}
	store := &memAppender{}
	at := time.Date(2024, 3, 15, 9, 5, 0, 0, time.UTC)
	rec := NewRecorder(store, broker, func() time.Time { return at })

	rec.Record(ctx, "ana", constants.ActionTaskToggled, "b1/t1")

	if len(store.entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(store.entries))
	}
	e := store.entries[0]
	if e.ID == "" || e.Actor != "ana" || e.Action != constants.ActionTaskToggled || !e.Timestamp.Equal(at) {
		t.Errorf("entry = %+v", e)
	}
	select {
	case ev := <-events:
		if ev.Topic != constants.TopicActivity || ev.Data != e.ID {
			t.Errorf("event = %+v", ev)
		}
	case <-time.After(time.Second):
		t.Fatal("no change event published")
	}
}

func TestRecordSwallowsFailures(t *testing.T) {
	store := &memAppender{err: errors.New("disk full")}
	rec := NewRecorder(store, nil, nil)
	rec.Record(context.Background(), "ana", constants.ActionLogin, "")
	rec.Changed(context.Background(), constants.TopicTracking, "x")
}

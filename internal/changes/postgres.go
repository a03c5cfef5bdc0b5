package changes

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/julianstephens/opsboard/internal/constants"
	"github.com/julianstephens/opsboard/internal/logger"
)

const (
	listenerMinReconnect = 10 * time.Second
	listenerMaxReconnect = time.Minute
	listenerPingInterval = 90 * time.Second
)

// PostgresBroker uses LISTEN/NOTIFY. Publishing goes through the store's pool;
// each subscription holds its own listener connection.
type PostgresBroker struct {
	db      *sql.DB
	connStr string
}

func NewPostgresBroker(db *sql.DB, connStr string) *PostgresBroker {
	return &PostgresBroker{db: db, connStr: connStr}
}

// Channel maps a topic to its NOTIFY channel.
func Channel(topic string) string {
	return constants.AppName + "_" + topic
}

func (b *PostgresBroker) Publish(ctx context.Context, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}
	if _, err := b.db.ExecContext(ctx, "SELECT pg_notify($1, $2)", Channel(ev.Topic), string(payload)); err != nil {
		return fmt.Errorf("failed to notify %s: %w", ev.Topic, err)
	}
	return nil
}

func (b *PostgresBroker) Subscribe(ctx context.Context, topics ...string) (<-chan Event, error) {
	if len(topics) == 0 {
		topics = AllTopics()
	}

	listener := pq.NewListener(b.connStr, listenerMinReconnect, listenerMaxReconnect, func(ev pq.ListenerEventType, err error) {
		if err != nil {
			logger.Warn("Change listener event", "event", ev, "error", err)
		}
	})
	for _, t := range topics {
		if err := listener.Listen(Channel(t)); err != nil {
			listener.Close()
			return nil, fmt.Errorf("failed to listen on %s: %w", Channel(t), err)
		}
	}

	out := make(chan Event, subscriberBuffer)
	go func() {
		defer close(out)
		defer listener.Close()
		ticker := time.NewTicker(listenerPingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := listener.Ping(); err != nil {
					logger.Warn("Change listener ping failed", "error", err)
				}
			case n := <-listener.Notify:
				// A nil notification means the connection was re-established.
				ev := Event{Type: TypeResync}
				if n != nil {
					if err := json.Unmarshal([]byte(n.Extra), &ev); err != nil {
						logger.Warn("Dropping malformed change event", "channel", n.Channel, "error", err)
						continue
					}
				}
				select {
				case out <- ev:
				default:
				}
			}
		}
	}()
	return out, nil
}

// Close is a no-op; the pool belongs to the store.
func (b *PostgresBroker) Close() error {
	return nil
}

// AllTopics lists every topic the board publishes.
func AllTopics() []string {
	return []string{
		constants.TopicProfiles,
		constants.TopicScheduleBlocks,
		constants.TopicSnapshots,
		constants.TopicTracking,
		constants.TopicActivity,
		constants.TopicPresence,
	}
}

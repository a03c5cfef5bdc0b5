package notifier

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/julianstephens/opsboard/internal/aggregate"
	"github.com/julianstephens/opsboard/internal/logger"
	"github.com/julianstephens/opsboard/internal/models"
)

var (
	sentTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "opsboard",
		Name:      "notifications_sent_total",
		Help:      "Notices delivered, by kind.",
	}, []string{"kind"})
	failedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "opsboard",
		Name:      "notifications_failed_total",
		Help:      "Notices that failed to deliver and will be retried, by kind.",
	}, []string{"kind"})
)

// LateKey is the dedup key of a late block: "{date}-{operator}-{block}".
func LateKey(p models.LatePair) string {
	return p.Date + "-" + p.Username + "-" + p.BlockID
}

// Justification is a filed delay justification awaiting supervisor notice.
type Justification struct {
	Username string
	Name     string
	Key      string // tracking key
	Label    string
	Reason   string
	Escalate bool
}

// Result summarizes one dispatch pass.
type Result struct {
	Sent    []string
	Skipped int
	Failed  []string
}

// Dispatcher sends each key at most once. A key is marked only after its
// notice is delivered, so failures are retried on the next pass.
type Dispatcher struct {
	sender         Sender
	late           NotifiedSet
	justifications NotifiedSet
	dryRun         bool
	oldest         func() string
}

func NewDispatcher(sender Sender, late, justifications NotifiedSet) *Dispatcher {
	return &Dispatcher{sender: sender, late: late, justifications: justifications}
}

// SetDryRun makes passes send but never mark, so repeated runs keep reporting.
func (d *Dispatcher) SetDryRun(dry bool) {
	d.dryRun = dry
}

// SetWindow skips keys dated before oldest(). It should match the retention
// of the notified sets so forgotten keys are never announced again.
func (d *Dispatcher) SetWindow(oldest func() string) {
	d.oldest = oldest
}

// NotifyLate announces late pairs not yet notified.
func (d *Dispatcher) NotifyLate(ctx context.Context, pairs []models.LatePair) (Result, error) {
	msgs := make([]Message, 0, len(pairs))
	for _, p := range pairs {
		who := p.Name
		if who == "" {
			who = p.Username
		}
		msgs = append(msgs, Message{
			Kind:     KindLate,
			Key:      LateKey(p),
			Title:    "Late block",
			Text:     fmt.Sprintf("%s has not completed %s", who, p.Label),
			Username: p.Username,
		})
	}
	return d.dispatch(ctx, d.late, msgs)
}

// NotifyJustifications announces filed justifications not yet notified.
func (d *Dispatcher) NotifyJustifications(ctx context.Context, items []Justification) (Result, error) {
	msgs := make([]Message, 0, len(items))
	for _, j := range items {
		who := j.Name
		if who == "" {
			who = j.Username
		}
		title := "Delay justified"
		if j.Escalate {
			title = "Escalated delay"
		}
		msgs = append(msgs, Message{
			Kind:     KindJustification,
			Key:      j.Username + "-" + j.Key,
			Title:    title,
			Text:     fmt.Sprintf("%s on %s: %s", who, j.Label, j.Reason),
			Username: j.Username,
		})
	}
	return d.dispatch(ctx, d.justifications, msgs)
}

func (d *Dispatcher) dispatch(ctx context.Context, set NotifiedSet, msgs []Message) (Result, error) {
	var res Result
	cutoff := ""
	if d.oldest != nil {
		cutoff = d.oldest()
	}
	seen := make(map[string]bool, len(msgs))
	for _, msg := range msgs {
		if seen[msg.Key] {
			continue
		}
		seen[msg.Key] = true

		if cutoff != "" && !aggregate.DatedSince(msg.Key, cutoff) {
			res.Skipped++
			continue
		}

		done, err := set.AlreadyNotified(ctx, msg.Key)
		if err != nil {
			return res, err
		}
		if done {
			res.Skipped++
			continue
		}
		if err := d.sender.Send(ctx, msg); err != nil {
			logger.Warn("Notification failed, will retry next pass", "key", msg.Key, "error", err)
			failedTotal.WithLabelValues(string(msg.Kind)).Inc()
			res.Failed = append(res.Failed, msg.Key)
			continue
		}
		sentTotal.WithLabelValues(string(msg.Kind)).Inc()
		res.Sent = append(res.Sent, msg.Key)
	}

	if d.dryRun || len(res.Sent) == 0 {
		return res, nil
	}
	if err := set.MarkNotified(ctx, res.Sent...); err != nil {
		return res, fmt.Errorf("notices sent but not recorded: %w", err)
	}
	return res, nil
}

// Package notifier delivers late-block and justification notices, at most once
// per key, to the desktop tray app and to webhooks.
package notifier

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Kind classifies a notice.
type Kind string

const (
	KindLate          Kind = "late"
	KindJustification Kind = "justification"
)

// Message is one notice.
type Message struct {
	Kind     Kind   `json:"kind"`
	Key      string `json:"key"`
	Title    string `json:"title"`
	Text     string `json:"text"`
	Username string `json:"username"`
}

// Sender delivers a message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// WriterSender prints messages, for dry runs and the console.
type WriterSender struct {
	W io.Writer
}

func (s WriterSender) Send(_ context.Context, msg Message) error {
	_, err := fmt.Fprintf(s.W, "[%s] %s: %s\n", msg.Kind, msg.Title, msg.Text)
	return err
}

// MultiSender delivers to every sender. It succeeds if at least one does.
type MultiSender []Sender

func (m MultiSender) Send(ctx context.Context, msg Message) error {
	if len(m) == 0 {
		return errors.New("no notification channels configured")
	}
	var errs []string
	delivered := false
	for _, s := range m {
		if err := s.Send(ctx, msg); err != nil {
			errs = append(errs, err.Error())
			continue
		}
		delivered = true
	}
	if !delivered {
		return fmt.Errorf("all notification channels failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

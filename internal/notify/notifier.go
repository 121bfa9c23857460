// Package notify delivers operator notifications about feed health over
// Telegram and Discord. Events are filtered against a configured allow-list,
// so a desk running many instruments can subscribe to degradation transitions
// only.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// Event types emitted by the desk loop and the archiver.
const (
	// EventFeedDegraded fires when a round transitions from warning-free to
	// at least one warning.
	EventFeedDegraded = "feed_degraded"

	// EventFeedRecovered fires when a round transitions back to warning-free.
	EventFeedRecovered = "feed_recovered"

	// EventArchiveCompleted fires after snapshot history is exported to cold
	// storage.
	EventArchiveCompleted = "archive_completed"
)

// Sender delivers one formatted notification over a single channel.
type Sender interface {
	// Send delivers a notification with the given title and message body.
	Send(ctx context.Context, title, message string) error

	// Name identifies the channel, e.g. "telegram".
	Name() string
}

// Notifier fans a notification out to every configured sender. Events not in
// the allow-list are dropped silently; an empty allow-list passes everything.
type Notifier struct {
	senders []Sender
	events  map[string]bool
	logger  *slog.Logger
}

// NewNotifier builds a Notifier for the given senders and allowed event
// types.
func NewNotifier(senders []Sender, events []string, logger *slog.Logger) *Notifier {
	allowed := make(map[string]bool, len(events))
	for _, e := range events {
		if e = strings.TrimSpace(e); e != "" {
			allowed[e] = true
		}
	}
	return &Notifier{
		senders: senders,
		events:  allowed,
		logger:  logger.With(slog.String("component", "notifier")),
	}
}

// Notify delivers the notification to every sender if the event type passes
// the allow-list. A failing sender does not block the others; all failures
// are collected into the returned error.
func (n *Notifier) Notify(ctx context.Context, event, title, message string) error {
	if len(n.events) > 0 && !n.events[event] {
		n.logger.DebugContext(ctx, "event filtered",
			slog.String("event", event),
		)
		return nil
	}
	if len(n.senders) == 0 {
		return nil
	}

	var failed []string
	for _, s := range n.senders {
		if err := s.Send(ctx, title, message); err != nil {
			n.logger.ErrorContext(ctx, "sender failed",
				slog.String("sender", s.Name()),
				slog.String("event", event),
				slog.String("error", err.Error()),
			)
			failed = append(failed, fmt.Sprintf("%s: %v", s.Name(), err))
			continue
		}
		n.logger.DebugContext(ctx, "notification delivered",
			slog.String("sender", s.Name()),
			slog.String("event", event),
		)
	}

	if len(failed) > 0 {
		return fmt.Errorf("notify: %d sender(s) failed: %s", len(failed), strings.Join(failed, "; "))
	}
	return nil
}

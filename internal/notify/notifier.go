// Package notify provides a multi-channel notification system. Notifications
// are dispatched to all registered senders (Telegram, Discord, etc.) and can
// be filtered by event type so operators receive only the alerts they care
// about.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// Event types emitted by the pipeline.
const (
	EventUrgent = "urgent"
	EventDigest = "digest"
	EventOps    = "ops"
)

// Sender is the interface that each notification channel must implement.
type Sender interface {
	// Send delivers a notification with the given title and message body and
	// returns the channel's delivery identifier for the message.
	Send(ctx context.Context, title, message string) (deliveryID string, err error)
	// Name returns a human-readable identifier for the sender (e.g. "telegram").
	Name() string
}

// Notifier dispatches notifications to one or more Senders. It maintains a
// set of allowed event types; Notify only forwards messages whose event type
// is in the allowed set.
type Notifier struct {
	senders []Sender
	events  map[string]bool // allowed event types
	logger  *slog.Logger
}

// NewNotifier creates a Notifier that will deliver to the given senders. Only
// events whose type appears in the events slice will be forwarded by Notify.
// If events is empty, all event types are allowed.
func NewNotifier(senders []Sender, events []string, logger *slog.Logger) *Notifier {
	allowed := make(map[string]bool, len(events))
	for _, e := range events {
		allowed[strings.TrimSpace(e)] = true
	}
	return &Notifier{
		senders: senders,
		events:  allowed,
		logger:  logger.With(slog.String("component", "notifier")),
	}
}

// Notify sends a notification to all senders only if the event type is in the
// allowed list. It returns the delivery ID of the first successful sender and
// whether the message actually went out: a filtered event (or a Notifier with
// no senders) reports delivered=false with no error, so callers can tell
// suppression apart from a completed send.
func (n *Notifier) Notify(ctx context.Context, event, title, message string) (deliveryID string, delivered bool, err error) {
	if len(n.events) > 0 && !n.events[event] {
		n.logger.DebugContext(ctx, "event filtered out",
			slog.String("event", event),
		)
		return "", false, nil
	}

	return n.dispatch(ctx, title, message)
}

// dispatch iterates over all senders and sends the notification. A single
// sender failure does not prevent delivery to the remaining senders; the call
// fails only when every sender failed. The returned delivery ID is that of
// the first sender that succeeded.
func (n *Notifier) dispatch(ctx context.Context, title, message string) (string, bool, error) {
	if len(n.senders) == 0 {
		return "", false, nil
	}

	var (
		deliveryID string
		errs       []string
	)
	for _, s := range n.senders {
		id, err := s.Send(ctx, title, message)
		if err != nil {
			n.logger.ErrorContext(ctx, "sender failed",
				slog.String("sender", s.Name()),
				slog.String("error", err.Error()),
			)
			errs = append(errs, fmt.Sprintf("%s: %v", s.Name(), err))
			continue
		}
		if deliveryID == "" {
			deliveryID = id
		}
		n.logger.DebugContext(ctx, "notification sent",
			slog.String("sender", s.Name()),
			slog.String("delivery_id", id),
			slog.String("title", title),
		)
	}

	if len(errs) == len(n.senders) {
		return "", false, fmt.Errorf("notify: all %d sender(s) failed: %s", len(errs), strings.Join(errs, "; "))
	}
	if len(errs) > 0 {
		n.logger.WarnContext(ctx, "partial notification delivery",
			slog.Int("failed", len(errs)),
		)
	}
	return deliveryID, true, nil
}

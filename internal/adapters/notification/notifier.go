// Package notification delivers resident-facing fine events.
package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/SscSPs/property_fines_app/internal/core/ports/external"
	"github.com/SscSPs/property_fines_app/internal/middleware"
)

// Event is the JSON document published for every notification.
type Event struct {
	EventType string         `json:"event_type"`
	Recipient string         `json:"recipient"`
	SentAt    time.Time      `json:"sent_at"`
	Payload   map[string]any `json:"payload,omitempty"`
}

// publisher is the part of *nats.Conn the notifier needs.
type publisher interface {
	Publish(subject string, data []byte) error
}

// NATSNotifier publishes events on <prefix>.<event_type>.
type NATSNotifier struct {
	conn   publisher
	prefix string
	now    func() time.Time
}

// NewNATSNotifier creates a notifier that publishes on the given connection.
func NewNATSNotifier(conn *nats.Conn, subjectPrefix string) *NATSNotifier {
	return newNATSNotifier(conn, subjectPrefix)
}

func newNATSNotifier(conn publisher, subjectPrefix string) *NATSNotifier {
	return &NATSNotifier{conn: conn, prefix: subjectPrefix, now: time.Now}
}

var _ external.Notifier = (*NATSNotifier)(nil)

// Subject returns the subject an event is published on.
func (n *NATSNotifier) Subject(event external.NotificationEvent) string {
	return fmt.Sprintf("%s.%s", n.prefix, event)
}

func (n *NATSNotifier) Send(ctx context.Context, event external.NotificationEvent, recipient string, payload map[string]any) error {
	if recipient == "" {
		return nil
	}
	data, err := json.Marshal(Event{
		EventType: string(event),
		Recipient: recipient,
		SentAt:    n.now().UTC(),
		Payload:   payload,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal %s notification: %w", event, err)
	}

	subject := n.Subject(event)
	if err := n.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("failed to publish %s: %w", subject, err)
	}
	middleware.GetLoggerFromCtx(ctx).Debug("notification published",
		slog.String("subject", subject),
		slog.String("recipient", recipient))
	return nil
}

// LogNotifier writes events to the request logger. Used when no broker is configured.
type LogNotifier struct{}

var _ external.Notifier = LogNotifier{}

func (LogNotifier) Send(ctx context.Context, event external.NotificationEvent, recipient string, payload map[string]any) error {
	middleware.GetLoggerFromCtx(ctx).Info("notification",
		slog.String("event", string(event)),
		slog.String("recipient", recipient),
		slog.Any("payload", payload))
	return nil
}

// Connect dials NATS, or returns a LogNotifier and a nil connection when url is empty.
func Connect(url, subjectPrefix string, logger *slog.Logger) (external.Notifier, *nats.Conn, error) {
	if url == "" {
		logger.Warn("NATS_URL is empty, notifications will only be logged")
		return LogNotifier{}, nil, nil
	}
	conn, err := nats.Connect(url,
		nats.Name("property-fines"),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("NATS disconnected", slog.String("error", err.Error()))
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("NATS reconnected", slog.String("url", c.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to NATS at %s: %w", url, err)
	}
	logger.Info("NATS connected", slog.String("subject_prefix", subjectPrefix))
	return NewNATSNotifier(conn, subjectPrefix), conn, nil
}

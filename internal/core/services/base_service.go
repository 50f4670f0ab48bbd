package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/SscSPs/property_fines_app/internal/core/ports/external"
	"github.com/SscSPs/property_fines_app/internal/middleware"
)

// BaseService provides common functionality for all services
type BaseService struct {
	notifier          external.Notifier
	sendNotifications bool
	clock             func() time.Time
}

// ServiceOption configures the BaseService embedded in every service.
type ServiceOption func(*BaseService)

// WithNotifier sets the notification collaborator. enabled mirrors the SEND_NOTIFICATIONS policy.
func WithNotifier(n external.Notifier, enabled bool) ServiceOption {
	return func(b *BaseService) {
		b.notifier = n
		b.sendNotifications = enabled
	}
}

// WithClock replaces time.Now, mainly for tests.
func WithClock(clock func() time.Time) ServiceOption {
	return func(b *BaseService) {
		b.clock = clock
	}
}

func newBaseService(opts ...ServiceOption) BaseService {
	b := BaseService{clock: time.Now}
	for _, opt := range opts {
		opt(&b)
	}
	return b
}

// Now returns the current time in UTC.
func (s *BaseService) Now() time.Time {
	return s.clock().UTC()
}

// GetLogger gets the logger from context or returns a default one
func (s *BaseService) GetLogger(ctx context.Context) *slog.Logger {
	return middleware.GetLoggerFromCtx(ctx)
}

// LogError logs an error with consistent formatting
func (s *BaseService) LogError(ctx context.Context, err error, msg string, keyvals ...any) {
	logger := s.GetLogger(ctx)
	args := make([]any, 0, len(keyvals)+1)
	args = append(args, slog.String("error", err.Error()))
	args = append(args, keyvals...)
	logger.Error(msg, args...)
}

// LogInfo logs an info message with consistent formatting
func (s *BaseService) LogInfo(ctx context.Context, msg string, keyvals ...any) {
	s.GetLogger(ctx).Info(msg, keyvals...)
}

// LogDebug logs a debug message with consistent formatting
func (s *BaseService) LogDebug(ctx context.Context, msg string, keyvals ...any) {
	s.GetLogger(ctx).Debug(msg, keyvals...)
}

// Notify hands an event to the notifier. Failures are logged and never returned.
func (s *BaseService) Notify(ctx context.Context, event external.NotificationEvent, recipient string, payload map[string]any) {
	if !s.sendNotifications || s.notifier == nil {
		return
	}
	if recipient == "" {
		s.LogDebug(ctx, "Skipping notification without recipient", slog.String("event", string(event)))
		return
	}
	if err := s.notifier.Send(ctx, event, recipient, payload); err != nil {
		s.LogError(ctx, err, "Failed to send notification",
			slog.String("event", string(event)),
			slog.String("recipient", recipient))
	}
}

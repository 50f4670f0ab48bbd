package external

import "context"

// NotificationEvent names a resident-facing event.
type NotificationEvent string

const (
	EventViolationReviewed NotificationEvent = "violation_reviewed"
	EventFineIssued        NotificationEvent = "fine_issued"
	EventFineOverdue       NotificationEvent = "fine_overdue"
	EventFineReminder      NotificationEvent = "fine_reminder"
	EventPaymentConfirmed  NotificationEvent = "payment_confirmed"
	EventPaymentFailed     NotificationEvent = "payment_failed"
	EventWaiverResolved    NotificationEvent = "waiver_resolved"
	EventDisputeRaised     NotificationEvent = "dispute_raised"
	EventDisputeResolved   NotificationEvent = "dispute_resolved"
	EventFineWaived        NotificationEvent = "fine_waived"
)

// Notifier delivers events to residents. Delivery is fire-and-forget:
// callers log a returned error and carry on.
type Notifier interface {
	Send(ctx context.Context, event NotificationEvent, recipient string, payload map[string]any) error
}

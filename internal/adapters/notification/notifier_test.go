package notification

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SscSPs/property_fines_app/internal/core/ports/external"
)

type recordingPublisher struct {
	subjects []string
	payloads [][]byte
	err      error
}

func (p *recordingPublisher) Publish(subject string, data []byte) error {
	if p.err != nil {
		return p.err
	}
	p.subjects = append(p.subjects, subject)
	p.payloads = append(p.payloads, data)
	return nil
}

func TestNATSNotifier_PublishesOnPrefixedSubject(t *testing.T) {
	pub := &recordingPublisher{}
	n := newNATSNotifier(pub, "notifications.fines")
	n.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }

	err := n.Send(context.Background(), external.EventFineIssued, "resident-1", map[string]any{"fineID": "f-1"})
	require.NoError(t, err)

	require.Len(t, pub.subjects, 1)
	assert.Equal(t, "notifications.fines.fine_issued", pub.subjects[0])

	var got Event
	require.NoError(t, json.Unmarshal(pub.payloads[0], &got))
	assert.Equal(t, "fine_issued", got.EventType)
	assert.Equal(t, "resident-1", got.Recipient)
	assert.Equal(t, "f-1", got.Payload["fineID"])
	assert.True(t, got.SentAt.Equal(n.now()))
}

func TestNATSNotifier_SkipsEmptyRecipient(t *testing.T) {
	pub := &recordingPublisher{}
	n := newNATSNotifier(pub, "p")

	require.NoError(t, n.Send(context.Background(), external.EventFineOverdue, "", nil))
	assert.Empty(t, pub.subjects)
}

func TestNATSNotifier_ReturnsPublishError(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("nats: connection closed")}
	n := newNATSNotifier(pub, "p")

	err := n.Send(context.Background(), external.EventPaymentFailed, "r", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "p.payment_failed")
}

func TestLogNotifier_NeverFails(t *testing.T) {
	assert.NoError(t, LogNotifier{}.Send(context.Background(), external.EventFineWaived, "r", map[string]any{"a": 1}))
}

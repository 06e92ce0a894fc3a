package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"laundryops/internal/domain"
)

// testContext mirrors testing.T.Context (Go 1.24+): a context cancelled when the test finishes.
func testContext(t *testing.T) context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return ctx
}

func TestNewMessageIsPersistentJSON(t *testing.T) {
	at := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	event := domain.OrderProcessedEvent{
		OrderID:      "ord-1001",
		OutletID:     "outlet-kemang",
		LaundryPrice: 14000,
		DeliveryFee:  9000,
		TotalPrice:   23000,
		ProcessedBy:  "admin-kemang",
		ProcessedAt:  at,
	}

	msg, err := newMessage(event)
	require.NoError(t, err)

	assert.Equal(t, amqp.Persistent, msg.DeliveryMode)
	assert.Equal(t, "application/json", msg.ContentType)
	assert.Equal(t, "ord-1001", msg.CorrelationId)
	assert.Equal(t, "ord-1001-20260301T093000", msg.MessageId)
	assert.Equal(t, "outlet-kemang", msg.Headers["outlet_id"])

	var decoded domain.OrderProcessedEvent
	require.NoError(t, json.Unmarshal(msg.Body, &decoded))
	assert.Equal(t, event, decoded)
}

func TestRecordingPublisherKeepsOrder(t *testing.T) {
	p := &RecordingPublisher{}
	require.NoError(t, p.PublishOrderProcessed(testContext(t), domain.OrderProcessedEvent{OrderID: "a"}))
	require.NoError(t, p.PublishOrderProcessed(testContext(t), domain.OrderProcessedEvent{OrderID: "b"}))

	got := p.Events()
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].OrderID)
	assert.Equal(t, "b", got[1].OrderID)
}

type fakeConfirmation struct {
	result chan bool
}

func newFakeConfirmation() *fakeConfirmation {
	return &fakeConfirmation{result: make(chan bool, 1)}
}

func (f *fakeConfirmation) WaitContext(ctx context.Context) (bool, error) {
	select {
	case ack := <-f.result:
		return ack, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

func TestAwaitConfirmMatchesEachMessage(t *testing.T) {
	first := newFakeConfirmation()
	cancelled, cancel := context.WithCancel(testContext(t))
	cancel()
	require.ErrorIs(t, awaitConfirm(cancelled, first), context.Canceled)

	// The first message's ack lands after its caller gave up.
	first.result <- true

	second := newFakeConfirmation()
	second.result <- false
	assert.ErrorIs(t, awaitConfirm(testContext(t), second), ErrPublishNack)

	third := newFakeConfirmation()
	third.result <- true
	assert.NoError(t, awaitConfirm(testContext(t), third))
}

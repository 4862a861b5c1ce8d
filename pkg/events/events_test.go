package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubscribePublishDelivers(t *testing.T) {
	b := NewBroker()
	b.Start()
	defer b.Stop()

	sub := b.Subscribe()
	defer b.Unsubscribe(sub)

	b.Publish(&Event{Kind: KindValidationStarted, ValidationID: "v1", Message: "started"})

	select {
	case evt := <-sub:
		require.NotNil(t, evt)
		assert.Equal(t, KindValidationStarted, evt.Kind)
		assert.Equal(t, "v1", evt.ValidationID)
		assert.False(t, evt.Timestamp.IsZero())
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestPublishFillsTimestampWhenZero(t *testing.T) {
	b := NewBroker()
	b.Start()
	defer b.Stop()

	sub := b.Subscribe()
	defer b.Unsubscribe(sub)

	before := time.Now()
	b.Publish(&Event{Kind: KindPhaseStarted})
	evt := <-sub
	assert.False(t, evt.Timestamp.Before(before))
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	b := NewBroker()
	b.Start()
	defer b.Stop()

	sub := b.Subscribe()
	assert.Equal(t, 1, b.SubscriberCount())
	b.Unsubscribe(sub)
	assert.Equal(t, 0, b.SubscriberCount())

	// Unsubscribe twice must not panic (double close).
	b.Unsubscribe(sub)
}

func TestFullSubscriberBufferSkipsRatherThanBlocks(t *testing.T) {
	b := NewBroker()
	b.Start()
	defer b.Stop()

	sub := b.Subscribe()
	defer b.Unsubscribe(sub)

	for i := 0; i < 200; i++ {
		b.Publish(&Event{Kind: KindPhaseCompleted, Message: "fill"})
	}

	// Give the broadcast loop a moment to drain eventCh into the subscriber;
	// the subscriber's own 50-deep buffer caps delivery, excess is dropped.
	time.Sleep(50 * time.Millisecond)
	assert.LessOrEqual(t, len(sub), 50)
}

func TestPublishAfterStopDoesNotBlock(t *testing.T) {
	b := NewBroker()
	b.Start()
	b.Stop()

	done := make(chan struct{})
	go func() {
		b.Publish(&Event{Kind: KindValidationCompleted})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked after stop")
	}
}

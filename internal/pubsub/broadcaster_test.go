//go:build unit

package pubsub_test

import (
	"sync"
	"testing"

	"smartqueue/internal/domain/appointment"
	"smartqueue/internal/domain/slot"
	"smartqueue/internal/pubsub"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBroadcaster_PublishSubscribe(t *testing.T) {
	t.Run("delivers to topic subscribers only", func(t *testing.T) {
		b := pubsub.NewBroadcaster(4, nil)
		slotID := uuid.New()

		sub := b.Subscribe(pubsub.SlotTopic(slotID))
		defer sub.Close()
		other := b.Subscribe(pubsub.SlotTopic(uuid.New()))
		defer other.Close()

		ev := pubsub.NewSlotUpdate(slotID, 2, slot.StatusAvailable)
		b.Publish(pubsub.SlotTopic(slotID), ev)

		got := <-sub.Events()
		assert.Equal(t, pubsub.TypeSlotUpdate, got.Type)
		require.NotNil(t, got.SlotID)
		assert.Equal(t, slotID, *got.SlotID)
		require.NotNil(t, got.BookedCount)
		assert.Equal(t, 2, *got.BookedCount)

		select {
		case <-other.Events():
			t.Fatal("event delivered to unrelated topic")
		default:
		}
	})

	t.Run("one subscription can span topics", func(t *testing.T) {
		b := pubsub.NewBroadcaster(4, nil)
		slotID := uuid.New()
		userID := uuid.New()

		sub := b.Subscribe(pubsub.SlotTopic(slotID), pubsub.UserTopic(userID))
		defer sub.Close()

		b.Publish(pubsub.SlotTopic(slotID), pubsub.NewSlotUpdate(slotID, 1, slot.StatusAvailable))
		b.Publish(pubsub.UserTopic(userID), pubsub.NewAppointmentUpdate(uuid.New(), 1, appointment.StatusConfirmed))

		first := <-sub.Events()
		second := <-sub.Events()
		assert.Equal(t, pubsub.TypeSlotUpdate, first.Type)
		assert.Equal(t, pubsub.TypeAppointmentUpdate, second.Type)
	})

	t.Run("publish to a topic with no subscribers is a no-op", func(t *testing.T) {
		b := pubsub.NewBroadcaster(4, nil)
		b.Publish(pubsub.SlotTopic(uuid.New()), pubsub.NewSlotUpdate(uuid.New(), 0, slot.StatusAvailable))
	})
}

func TestBroadcaster_SlowSubscriber(t *testing.T) {
	b := pubsub.NewBroadcaster(2, nil)
	slotID := uuid.New()
	topic := pubsub.SlotTopic(slotID)

	slow := b.Subscribe(topic)
	defer slow.Close()
	healthy := b.Subscribe(topic)
	defer healthy.Close()

	// Overflow the slow subscriber's buffer; the publisher must not block and
	// the healthy subscriber must still see everything its buffer holds.
	for i := 0; i < 5; i++ {
		b.Publish(topic, pubsub.NewSlotUpdate(slotID, i, slot.StatusAvailable))
		if i < 2 {
			<-healthy.Events()
		}
	}

	assert.Len(t, slow.Events(), 2)
	assert.Len(t, healthy.Events(), 2)
}

func TestBroadcaster_Close(t *testing.T) {
	t.Run("close unsubscribes and ends the event stream", func(t *testing.T) {
		b := pubsub.NewBroadcaster(4, nil)
		topic := pubsub.SlotTopic(uuid.New())

		sub := b.Subscribe(topic)
		assert.Equal(t, 1, b.SubscriberCount(topic))

		sub.Close()
		assert.Equal(t, 0, b.SubscriberCount(topic))

		_, open := <-sub.Events()
		assert.False(t, open)
	})

	t.Run("double close is safe", func(t *testing.T) {
		b := pubsub.NewBroadcaster(4, nil)
		sub := b.Subscribe(pubsub.TopicAdmin)
		sub.Close()
		sub.Close()
	})

	t.Run("concurrent publish and close", func(t *testing.T) {
		b := pubsub.NewBroadcaster(4, nil)
		slotID := uuid.New()
		topic := pubsub.SlotTopic(slotID)

		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			sub := b.Subscribe(topic)
			wg.Add(2)
			go func() {
				defer wg.Done()
				b.Publish(topic, pubsub.NewSlotUpdate(slotID, 1, slot.StatusAvailable))
			}()
			go func() {
				defer wg.Done()
				sub.Close()
			}()
		}
		wg.Wait()
	})
}

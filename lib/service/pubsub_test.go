package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kassolightning/kassohub/common"
)

func TestPubsubFanout(t *testing.T) {
	ps := NewPubsub(4)

	_, first := ps.Subscribe("topic")
	_, second := ps.Subscribe("topic")

	ps.Publish("topic", Event{Type: "test", Payload: "hello"})

	for _, events := range []chan Event{first, second} {
		select {
		case event := <-events:
			assert.Equal(t, "hello", event.Payload)
		default:
			t.Fatal("expected both subscribers to receive the event")
		}
	}
}

func TestPubsubSlowSubscriberEvicted(t *testing.T) {
	ps := NewPubsub(1)

	_, slow := ps.Subscribe("topic")
	_, healthy := ps.Subscribe("topic")

	// the slow subscriber never reads: the second publish overflows its
	// buffer and evicts it instead of stalling the publisher
	ps.Publish("topic", Event{Type: "one"})
	assert.Equal(t, "one", (<-healthy).Type)
	ps.Publish("topic", Event{Type: "two"})

	event, ok := <-slow
	require.True(t, ok)
	assert.Equal(t, "one", event.Type)
	_, ok = <-slow
	assert.False(t, ok, "slow subscriber channel should be closed")

	// draining keeps the healthy subscriber alive
	assert.Equal(t, "two", (<-healthy).Type)
	ps.Publish("topic", Event{Type: "three"})
	event, ok = <-healthy
	require.True(t, ok)
	assert.Equal(t, "three", event.Type)
}

func TestPubsubUnsubscribe(t *testing.T) {
	ps := NewPubsub(4)

	subId, events := ps.Subscribe("topic")
	ps.Unsubscribe(subId, "topic")

	_, ok := <-events
	assert.False(t, ok)

	// publishing to a topic without subscribers is a no-op
	ps.Publish("topic", Event{Type: "test"})
}

func TestPublishEventReachesTypeTopicAndAll(t *testing.T) {
	svc, _ := newTestService(t)

	_, typed := svc.EventPubSub.Subscribe(common.EventTypePaymentReceived)
	_, all := svc.EventPubSub.Subscribe(TopicAll)

	svc.PublishEvent(Event{Type: common.EventTypePaymentReceived})

	for _, events := range []chan Event{typed, all} {
		select {
		case event := <-events:
			assert.Equal(t, common.EventTypePaymentReceived, event.Type)
		default:
			t.Fatal("expected the event on both topics")
		}
	}
}

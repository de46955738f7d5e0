package service

import (
	"sync"
)

// TopicAll receives every published event; type-specific topics receive
// only their own.
const TopicAll = "all"

// Event is the wire shape of the live-update channel.
type Event struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

// Pubsub fans lifecycle events out to subscribers. Delivery is
// best-effort: every send goes into the subscriber's buffered channel,
// and a subscriber whose buffer is full is dropped and evicted instead
// of stalling the publisher. Events published before a subscriber
// connects are lost; consumers are expected to also poll.
type Pubsub struct {
	mu      sync.RWMutex
	bufSize int
	subs    map[string]map[string]chan Event
}

func NewPubsub(bufSize int) *Pubsub {
	if bufSize <= 0 {
		bufSize = 32
	}
	return &Pubsub{
		bufSize: bufSize,
		subs:    make(map[string]map[string]chan Event),
	}
}

func (ps *Pubsub) Subscribe(topic string) (subId string, events chan Event) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	if ps.subs[topic] == nil {
		ps.subs[topic] = make(map[string]chan Event)
	}
	subId = string(makePreimageHex())
	events = make(chan Event, ps.bufSize)
	ps.subs[topic][subId] = events
	return subId, events
}

func (ps *Pubsub) Unsubscribe(subId, topic string) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	ps.removeLocked(subId, topic)
}

func (ps *Pubsub) Publish(topic string, event Event) {
	var stalled []string
	ps.mu.RLock()
	for subId, events := range ps.subs[topic] {
		select {
		case events <- event:
		default:
			stalled = append(stalled, subId)
		}
	}
	ps.mu.RUnlock()

	if len(stalled) == 0 {
		return
	}
	ps.mu.Lock()
	for _, subId := range stalled {
		ps.removeLocked(subId, topic)
	}
	ps.mu.Unlock()
}

func (ps *Pubsub) removeLocked(subId, topic string) {
	if ps.subs[topic] == nil {
		return
	}
	events, ok := ps.subs[topic][subId]
	if !ok {
		return
	}
	close(events)
	delete(ps.subs[topic], subId)
}

// PublishEvent delivers the event to its type topic and to TopicAll.
func (svc *KassohubService) PublishEvent(event Event) {
	svc.EventPubSub.Publish(event.Type, event)
	svc.EventPubSub.Publish(TopicAll, event)
}

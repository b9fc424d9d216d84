package server

import (
	"context"
	"sync"
	"time"
)

const (
	RealtimeEventReportChanged = "report-change"
	RealtimeEventSafetyChanged = "safety-change"
	RealtimeTopicReports       = "reports"
	RealtimeTopicSafety        = "safety"
	realtimeEventHeartbeat     = "heartbeat"
	realtimeSourceBackend      = "fieldreport-backend"
)

// RealtimeMessage announces a committed change to one topic.
type RealtimeMessage struct {
	Topic     string
	EventType string
	DateKey   string
	Category  string
	TalkID    string
	Action    string
	Timestamp time.Time
}

// RealtimeDispatcher fans change notifications out to topic subscribers.
// Publishing never blocks; a subscriber with a full buffer misses the message.
type RealtimeDispatcher struct {
	mu          sync.RWMutex
	subscribers map[string]map[int64]*realtimeSubscriber
	nextID      int64
	bufferSize  int
}

type realtimeSubscriber struct {
	id     int64
	stream chan RealtimeMessage
}

func NewRealtimeDispatcher() *RealtimeDispatcher {
	return &RealtimeDispatcher{
		subscribers: make(map[string]map[int64]*realtimeSubscriber),
		bufferSize:  16,
	}
}

// Subscribe registers one stream for every listed topic. The subscription ends
// when ctx is done or cleanup is called.
func (d *RealtimeDispatcher) Subscribe(ctx context.Context, topics ...string) (<-chan RealtimeMessage, func()) {
	topics = compactTopics(topics)
	if len(topics) == 0 {
		ch := make(chan RealtimeMessage)
		close(ch)
		return ch, func() {}
	}
	subscriber := &realtimeSubscriber{
		id:     d.nextSequence(),
		stream: make(chan RealtimeMessage, d.bufferSize),
	}
	d.registerSubscriber(topics, subscriber)
	var once sync.Once
	cleanup := func() {
		once.Do(func() {
			d.unregisterSubscriber(topics, subscriber.id)
		})
	}
	go func() {
		<-ctx.Done()
		cleanup()
	}()
	return subscriber.stream, cleanup
}

func (d *RealtimeDispatcher) Publish(message RealtimeMessage) {
	if message.Topic == "" || message.EventType == "" {
		return
	}
	d.mu.RLock()
	subscribers := d.subscribers[message.Topic]
	if len(subscribers) == 0 {
		d.mu.RUnlock()
		return
	}
	copies := make([]*realtimeSubscriber, 0, len(subscribers))
	for _, subscriber := range subscribers {
		copies = append(copies, subscriber)
	}
	d.mu.RUnlock()
	for _, subscriber := range copies {
		select {
		case subscriber.stream <- message:
		default:
		}
	}
}

// SubscriberCount returns the number of live subscriptions to topic.
func (d *RealtimeDispatcher) SubscriberCount(topic string) int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.subscribers[topic])
}

func (d *RealtimeDispatcher) nextSequence() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.nextID++
	return d.nextID
}

func (d *RealtimeDispatcher) registerSubscriber(topics []string, subscriber *realtimeSubscriber) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, topic := range topics {
		if _, ok := d.subscribers[topic]; !ok {
			d.subscribers[topic] = make(map[int64]*realtimeSubscriber)
		}
		d.subscribers[topic][subscriber.id] = subscriber
	}
}

func (d *RealtimeDispatcher) unregisterSubscriber(topics []string, subscriberID int64) {
	d.mu.Lock()
	for _, topic := range topics {
		subscribers := d.subscribers[topic]
		if subscribers != nil {
			delete(subscribers, subscriberID)
			if len(subscribers) == 0 {
				delete(d.subscribers, topic)
			}
		}
	}
	d.mu.Unlock()
}

func compactTopics(topics []string) []string {
	seen := make(map[string]struct{}, len(topics))
	compacted := make([]string, 0, len(topics))
	for _, topic := range topics {
		if topic == "" {
			continue
		}
		if _, ok := seen[topic]; ok {
			continue
		}
		seen[topic] = struct{}{}
		compacted = append(compacted, topic)
	}
	return compacted
}

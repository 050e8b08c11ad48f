// Package eventbus is the publish/subscribe change feed keyed by entity id.
// Events are delivered to local subscribers and fanned out to other replicas
// through Redis PUBLISH when a client is configured.
package eventbus

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"shiftboard/pkg/logger"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// Event types
const (
	TypeOfferAccepted       = "offer.accepted"
	TypeOfferCancelled      = "offer.cancelled"
	TypeOfferArchived       = "offer.archived"
	TypeAssignmentArrived   = "assignment.arrived"
	TypePenaltyApplied      = "penalty.applied"
	TypeLevelUp             = "gamification.level_up"
	TypeArrivalEligibility  = "arrival.eligibility"
	TypeLocationUpdated     = "location.updated"
	TypeCompletionSettled   = "assignment.completed"
	TypeStreakMilestone     = "gamification.streak_milestone"
	defaultChannelPrefix    = "shiftboard:events:"
	defaultSubscriberBuffer = 64
	publishTimeout          = 5 * time.Second
)

// Topic helpers
func OfferTopic(id string) string      { return "offer:" + id }
func AssignmentTopic(id string) string { return "assignment:" + id }
func WorkerTopic(id string) string     { return "worker:" + id }

// ValidTopic reports whether topic has a known entity prefix and an id
func ValidTopic(topic string) bool {
	for _, p := range []string{"offer:", "assignment:", "worker:"} {
		if strings.HasPrefix(topic, p) && len(topic) > len(p) {
			return true
		}
	}
	return false
}

// Event is a committed transition or signal
type Event struct {
	ID           string         `json:"id"`
	Type         string         `json:"type"`
	Topic        string         `json:"topic,omitempty"`
	Topics       []string       `json:"-"`
	OfferID      string         `json:"offer_id,omitempty"`
	AssignmentID string         `json:"assignment_id,omitempty"`
	WorkerID     string         `json:"worker_id,omitempty"`
	ActorID      string         `json:"actor_id,omitempty"`
	Data         map[string]any `json:"data,omitempty"`
	Origin       string         `json:"origin,omitempty"`
	Timestamp    time.Time      `json:"timestamp"`
}

// Hook runs once per event on the publishing replica
type Hook func(ctx context.Context, evt Event)

// Subscription receives events for its topics until closed
type Subscription struct {
	bus    *Bus
	id     uint64
	topics []string
	ch     chan Event
	once   sync.Once
}

// C returns the delivery channel
func (s *Subscription) C() <-chan Event {
	return s.ch
}

// Close detaches the subscription and closes its channel
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.bus.remove(s)
	})
}

// Bus local fan-out plus optional Redis relay
type Bus struct {
	client     *redis.Client
	instanceID string
	prefix     string
	buffer     int

	mu     sync.RWMutex
	nextID uint64
	subs   map[string]map[uint64]*Subscription
	hooks  []Hook

	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a bus. A nil client keeps delivery in-process.
func New(client *redis.Client) *Bus {
	return &Bus{
		client:     client,
		instanceID: uuid.NewString(),
		prefix:     defaultChannelPrefix,
		buffer:     defaultSubscriberBuffer,
		subs:       make(map[string]map[uint64]*Subscription),
	}
}

// InstanceID identifies this replica in relayed events
func (b *Bus) InstanceID() string {
	return b.instanceID
}

// OnPublish registers a hook invoked for every locally published event
func (b *Bus) OnPublish(h Hook) {
	b.mu.Lock()
	b.hooks = append(b.hooks, h)
	b.mu.Unlock()
}

// Start relays events published by other replicas. It returns once the
// Redis subscription is confirmed.
func (b *Bus) Start(ctx context.Context) error {
	if b.client == nil {
		logger.InfoCtx(ctx, "event bus running without redis, delivery is in-process only")
		return nil
	}

	relayCtx, cancel := context.WithCancel(context.Background())
	pubsub := b.client.PSubscribe(relayCtx, b.prefix+"*")
	if _, err := pubsub.Receive(ctx); err != nil {
		cancel()
		_ = pubsub.Close()
		return err
	}

	b.cancel = cancel
	b.done = make(chan struct{})
	go b.relay(relayCtx, pubsub)

	logger.InfoCtx(ctx, "event bus relay started, instance: %s", b.instanceID)
	return nil
}

func (b *Bus) relay(ctx context.Context, pubsub *redis.PubSub) {
	defer close(b.done)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var evt Event
			if err := json.Unmarshal([]byte(msg.Payload), &evt); err != nil {
				logger.WarnCtx(ctx, "failed to decode relayed event on %s: %v", msg.Channel, err)
				continue
			}
			if evt.Origin == b.instanceID {
				continue
			}
			evt.Topic = strings.TrimPrefix(msg.Channel, b.prefix)
			b.deliver(evt.Topic, evt)
		}
	}
}

// Stop ends the relay and closes every subscription
func (b *Bus) Stop() {
	if b.cancel != nil {
		b.cancel()
		<-b.done
		b.cancel = nil
	}

	b.mu.Lock()
	subs := b.subs
	b.subs = make(map[string]map[uint64]*Subscription)
	b.mu.Unlock()

	closed := make(map[uint64]bool)
	for _, byID := range subs {
		for id, s := range byID {
			if !closed[id] {
				closed[id] = true
				s.once.Do(func() { close(s.ch) })
			}
		}
	}
}

// Subscribe opens a subscription on one or more topics
func (b *Bus) Subscribe(topics ...string) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	s := &Subscription{
		bus:    b,
		id:     b.nextID,
		topics: topics,
		ch:     make(chan Event, b.buffer),
	}
	for _, t := range topics {
		if b.subs[t] == nil {
			b.subs[t] = make(map[uint64]*Subscription)
		}
		b.subs[t][s.id] = s
	}
	return s
}

func (b *Bus) remove(s *Subscription) {
	b.mu.Lock()
	for _, t := range s.topics {
		if byID, ok := b.subs[t]; ok {
			delete(byID, s.id)
			if len(byID) == 0 {
				delete(b.subs, t)
			}
		}
	}
	b.mu.Unlock()
	close(s.ch)
}

// Publish delivers evt to every topic in evt.Topics. Delivery is fire-and-forget:
// relay failures are logged and returned but local delivery has already happened.
func (b *Bus) Publish(ctx context.Context, evt Event) error {
	if evt.ID == "" {
		evt.ID = uuid.NewString()
	}
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now().UTC()
	}
	evt.Origin = b.instanceID

	topics := dedupe(evt.Topics)
	for _, t := range topics {
		b.deliver(t, evt)
	}

	b.mu.RLock()
	hooks := append([]Hook(nil), b.hooks...)
	b.mu.RUnlock()
	for _, h := range hooks {
		h(ctx, evt)
	}

	if b.client == nil {
		return nil
	}

	pubCtx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	var firstErr error
	for _, t := range topics {
		out := evt
		out.Topic = t
		payload, err := json.Marshal(out)
		if err != nil {
			return err
		}
		if err := b.client.Publish(pubCtx, b.prefix+t, payload).Err(); err != nil {
			logger.WarnCtx(ctx, "failed to relay event %s (%s) to %s: %v", evt.ID, evt.Type, t, err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// deliver hands evt to local subscribers of topic without blocking
func (b *Bus) deliver(topic string, evt Event) {
	evt.Topic = topic

	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, s := range b.subs[topic] {
		select {
		case s.ch <- evt:
		default:
			logger.Warn("subscriber buffer full, dropping event")
		}
	}
}

func dedupe(topics []string) []string {
	seen := make(map[string]bool, len(topics))
	out := make([]string, 0, len(topics))
	for _, t := range topics {
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

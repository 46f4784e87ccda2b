package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	ErrBusClosed  = errors.New("event bus is shutting down")
	ErrBufferFull = errors.New("event buffer is full")
)

// deliveryTimeout bounds how long a worker waits on a slow subscriber.
const deliveryTimeout = 5 * time.Second

// EventHandler is a function that handles extraction events
type EventHandler func(ctx context.Context, event *ExtractionEvent) error

// Subscription represents an event subscription. An empty EventTypes list
// matches every event.
type Subscription struct {
	ID         string
	EventTypes []EventType
	Handler    EventHandler
	BufferSize int
	channel    chan *ExtractionEvent
	ctx        context.Context
	cancel     context.CancelFunc
	done       chan struct{}
}

// EventBus manages pub/sub for extraction events
type EventBus struct {
	mu            sync.RWMutex
	subscriptions map[string]*Subscription
	eventBuffer   chan *ExtractionEvent
	workers       int
	ctx           context.Context
	cancel        context.CancelFunc
	wg            sync.WaitGroup
	stats         EventBusStats
	statsMu       sync.RWMutex // Protects stats fields
}

// EventBusStats tracks event bus statistics
type EventBusStats struct {
	EventsPublished   int64 `json:"events_published"`
	EventsDelivered   int64 `json:"events_delivered"`
	EventsFailed      int64 `json:"events_failed"`
	EventsDropped     int64 `json:"events_dropped"`
	ActiveSubscribers int64 `json:"active_subscribers"`
	EventsInBuffer    int64 `json:"events_in_buffer"`
}

// NewEventBus creates a new event bus
func NewEventBus(bufferSize, workers int) *EventBus {
	if workers < 1 {
		workers = 1
	}
	ctx, cancel := context.WithCancel(context.Background())

	eb := &EventBus{
		subscriptions: make(map[string]*Subscription),
		eventBuffer:   make(chan *ExtractionEvent, bufferSize),
		workers:       workers,
		ctx:           ctx,
		cancel:        cancel,
	}

	for i := 0; i < workers; i++ {
		eb.wg.Add(1)
		go eb.worker(i)
	}

	log.Info().
		Int("buffer_size", bufferSize).
		Int("workers", workers).
		Msg("Event bus started")

	return eb
}

// Publish queues an event for all matching subscribers. It never blocks: a
// full buffer drops the event.
func (eb *EventBus) Publish(event *ExtractionEvent) error {
	if eb.ctx.Err() != nil {
		return ErrBusClosed
	}

	select {
	case eb.eventBuffer <- event:
		eb.statsMu.Lock()
		eb.stats.EventsPublished++
		eb.statsMu.Unlock()
		return nil
	default:
		eb.statsMu.Lock()
		eb.stats.EventsDropped++
		eb.statsMu.Unlock()
		log.Warn().
			Str("event_id", event.ID).
			Str("event_type", string(event.Type)).
			Msg("Event dropped due to full buffer")
		return ErrBufferFull
	}
}

// Subscribe creates a new subscription for specific event types
func (eb *EventBus) Subscribe(eventTypes []EventType, handler EventHandler, bufferSize int) (*Subscription, error) {
	if handler == nil {
		return nil, fmt.Errorf("handler is required")
	}
	if bufferSize < 1 {
		bufferSize = 1
	}

	eb.mu.Lock()
	if eb.ctx.Err() != nil {
		eb.mu.Unlock()
		return nil, ErrBusClosed
	}

	ctx, cancel := context.WithCancel(eb.ctx)
	sub := &Subscription{
		ID:         "sub_" + uuid.NewString(),
		EventTypes: eventTypes,
		Handler:    handler,
		BufferSize: bufferSize,
		channel:    make(chan *ExtractionEvent, bufferSize),
		ctx:        ctx,
		cancel:     cancel,
		done:       make(chan struct{}),
	}
	eb.subscriptions[sub.ID] = sub
	eb.mu.Unlock()

	go eb.consume(sub)

	eb.statsMu.Lock()
	eb.stats.ActiveSubscribers++
	eb.statsMu.Unlock()

	log.Info().
		Str("subscription_id", sub.ID).
		Interface("event_types", eventTypes).
		Int("buffer_size", bufferSize).
		Msg("New subscription created")

	return sub, nil
}

// Unsubscribe removes a subscription and waits for its handler to return.
func (eb *EventBus) Unsubscribe(subscriptionID string) error {
	eb.mu.Lock()
	sub, exists := eb.subscriptions[subscriptionID]
	if !exists {
		eb.mu.Unlock()
		return fmt.Errorf("subscription not found: %s", subscriptionID)
	}
	delete(eb.subscriptions, subscriptionID)
	eb.mu.Unlock()

	sub.cancel()
	<-sub.done

	eb.statsMu.Lock()
	eb.stats.ActiveSubscribers--
	eb.statsMu.Unlock()

	log.Info().Str("subscription_id", subscriptionID).Msg("Subscription removed")
	return nil
}

// Close shuts down the event bus. Events still buffered are discarded.
func (eb *EventBus) Close() {
	eb.mu.Lock()
	eb.cancel()
	subs := make([]*Subscription, 0, len(eb.subscriptions))
	for id, sub := range eb.subscriptions {
		subs = append(subs, sub)
		delete(eb.subscriptions, id)
	}
	eb.mu.Unlock()

	eb.wg.Wait()
	for _, sub := range subs {
		<-sub.done
	}

	eb.statsMu.Lock()
	eb.stats.ActiveSubscribers = 0
	eb.statsMu.Unlock()

	log.Info().Msg("Event bus shut down")
}

// GetStats returns current event bus statistics
func (eb *EventBus) GetStats() EventBusStats {
	eb.statsMu.RLock()
	stats := eb.stats
	eb.statsMu.RUnlock()

	stats.EventsInBuffer = int64(len(eb.eventBuffer))
	return stats
}

// worker fans events from the buffer out to subscribers
func (eb *EventBus) worker(workerID int) {
	defer eb.wg.Done()

	log.Debug().Int("worker_id", workerID).Msg("Event bus worker started")

	for {
		select {
		case event := <-eb.eventBuffer:
			eb.deliverEvent(event)
		case <-eb.ctx.Done():
			log.Debug().Int("worker_id", workerID).Msg("Event bus worker stopping")
			return
		}
	}
}

// deliverEvent delivers an event to matching subscribers
func (eb *EventBus) deliverEvent(event *ExtractionEvent) {
	eb.mu.RLock()
	matching := make([]*Subscription, 0, len(eb.subscriptions))
	for _, sub := range eb.subscriptions {
		if sub.matches(event) {
			matching = append(matching, sub)
		}
	}
	eb.mu.RUnlock()

	for _, sub := range matching {
		eb.enqueue(event, sub)
	}
}

// enqueue hands an event to a subscription, giving up after deliveryTimeout
func (eb *EventBus) enqueue(event *ExtractionEvent, sub *Subscription) {
	timer := time.NewTimer(deliveryTimeout)
	defer timer.Stop()

	select {
	case sub.channel <- event:
	case <-sub.ctx.Done():
	case <-timer.C:
		eb.statsMu.Lock()
		eb.stats.EventsFailed++
		eb.statsMu.Unlock()
		log.Warn().
			Str("subscription_id", sub.ID).
			Str("event_id", event.ID).
			Msg("Event delivery timeout")
	}
}

// consume runs a subscription's handler for each queued event, in order
func (eb *EventBus) consume(sub *Subscription) {
	defer close(sub.done)

	for {
		select {
		case event := <-sub.channel:
			if err := sub.Handler(sub.ctx, event); err != nil {
				eb.statsMu.Lock()
				eb.stats.EventsFailed++
				eb.statsMu.Unlock()
				log.Error().
					Err(err).
					Str("subscription_id", sub.ID).
					Str("event_id", event.ID).
					Msg("Event handler failed")
				continue
			}
			eb.statsMu.Lock()
			eb.stats.EventsDelivered++
			eb.statsMu.Unlock()
		case <-sub.ctx.Done():
			return
		}
	}
}

func (s *Subscription) matches(event *ExtractionEvent) bool {
	if len(s.EventTypes) == 0 {
		return true
	}
	for _, eventType := range s.EventTypes {
		if event.Type == eventType {
			return true
		}
	}
	return false
}

// LogHandler returns a handler that writes every event to logger. Failures
// are logged at warn level.
func LogHandler(logger zerolog.Logger) EventHandler {
	return func(ctx context.Context, event *ExtractionEvent) error {
		entry := logger.Info()
		if event.Error != "" {
			entry = logger.Warn().Str("error", event.Error)
		}
		entry.
			Str("event_id", event.ID).
			Str("event_type", string(event.Type)).
			Str("filename", event.Filename).
			Str("kind", event.Kind).
			Int("content_length", event.ContentLength).
			Msg("Extraction event")
		return nil
	}
}

// ===============================
// FILE: internal/events/events.go
// ===============================

package events

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/uuid"
	"go.uber.org/zap"
)

// ===============================
// EVENT INTERFACE
// ===============================

// Event is a domain event emitted after a write commits
type Event interface {
	EventID() string
	EventType() string
	OccurredAt() time.Time
	Actor() *int64
}

// BaseEvent carries the fields every domain event shares
type BaseEvent struct {
	ID        string    `json:"event_id"`
	Type      string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
	UserID    *int64    `json:"user_id,omitempty"`
}

func (e *BaseEvent) EventID() string       { return e.ID }
func (e *BaseEvent) EventType() string     { return e.Type }
func (e *BaseEvent) OccurredAt() time.Time { return e.Timestamp }
func (e *BaseEvent) Actor() *int64         { return e.UserID }

// ===============================
// EVENT BUS
// ===============================

// EventBus decouples write paths from the listeners reacting to them.
// PublishAsync never blocks a request: when the queue is full the event
// is dropped and an error returned for the caller to log.
type EventBus interface {
	PublishAsync(ctx context.Context, event Event) error
	Subscribe(eventType string, handler Handler) error
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Stats() *EventBusStats
}

// Handler consumes events of the types it subscribed to
type Handler interface {
	Handle(ctx context.Context, event Event) error
	HandlerID() string
}

// HandlerFunc adapts a function to the Handler interface
type HandlerFunc struct {
	ID   string
	Func func(ctx context.Context, event Event) error
}

func (f HandlerFunc) Handle(ctx context.Context, event Event) error { return f.Func(ctx, event) }
func (f HandlerFunc) HandlerID() string                             { return f.ID }

// NewHandlerFunc wraps a function as a Handler
func NewHandlerFunc(id string, fn func(ctx context.Context, event Event) error) Handler {
	return HandlerFunc{ID: id, Func: fn}
}

// EventBusStats is a point-in-time view of bus activity
type EventBusStats struct {
	EventsPublished int64         `json:"events_published"`
	EventsProcessed int64         `json:"events_processed"`
	EventsFailed    int64         `json:"events_failed"`
	EventsDropped   int64         `json:"events_dropped"`
	HandlersCount   int           `json:"handlers_count"`
	QueueDepth      int           `json:"queue_depth"`
	Uptime          time.Duration `json:"uptime"`
}

// EventBusConfig holds bus tuning knobs
type EventBusConfig struct {
	BufferSize     int           `json:"buffer_size" yaml:"buffer_size"`
	WorkerCount    int           `json:"worker_count" yaml:"worker_count"`
	HandlerTimeout time.Duration `json:"handler_timeout" yaml:"handler_timeout"`
}

// DefaultEventBusConfig returns default configuration
func DefaultEventBusConfig() *EventBusConfig {
	return &EventBusConfig{
		BufferSize:     1000,
		WorkerCount:    5,
		HandlerTimeout: 30 * time.Second,
	}
}

// WildcardType subscribes a handler to every event type
const WildcardType = "*"

type inMemoryEventBus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler

	queue          chan queuedEvent
	workerCount    int
	handlerTimeout time.Duration

	published int64
	processed int64
	failed    int64
	dropped   int64

	logger    *zap.Logger
	startTime time.Time
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

type queuedEvent struct {
	event Event
}

// NewInMemoryEventBus creates the channel-backed bus
func NewInMemoryEventBus(config *EventBusConfig, logger *zap.Logger) EventBus {
	if config == nil {
		config = DefaultEventBusConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &inMemoryEventBus{
		handlers:       make(map[string][]Handler),
		queue:          make(chan queuedEvent, config.BufferSize),
		workerCount:    config.WorkerCount,
		handlerTimeout: config.HandlerTimeout,
		logger:         logger,
		startTime:      time.Now(),
		ctx:            ctx,
		cancel:         cancel,
	}
}

// PublishAsync enqueues the event for the worker pool. The request
// context is not carried along: handlers run after the response is sent.
func (b *inMemoryEventBus) PublishAsync(ctx context.Context, event Event) error {
	if event == nil {
		return fmt.Errorf("event cannot be nil")
	}

	select {
	case b.queue <- queuedEvent{event: event}:
		atomic.AddInt64(&b.published, 1)
		return nil
	default:
		atomic.AddInt64(&b.dropped, 1)
		return fmt.Errorf("event queue is full, dropped %s", event.EventType())
	}
}

// Subscribe registers a handler for one event type, or for all of them
// via WildcardType.
func (b *inMemoryEventBus) Subscribe(eventType string, handler Handler) error {
	if eventType == "" {
		return fmt.Errorf("event type cannot be empty")
	}
	if handler == nil {
		return fmt.Errorf("handler cannot be nil")
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventType] = append(b.handlers[eventType], handler)

	b.logger.Info("Event handler subscribed",
		zap.String("event_type", eventType),
		zap.String("handler_id", handler.HandlerID()),
	)
	return nil
}

// Start launches the worker pool
func (b *inMemoryEventBus) Start(ctx context.Context) error {
	b.logger.Info("Starting event bus", zap.Int("worker_count", b.workerCount))
	for i := 0; i < b.workerCount; i++ {
		b.wg.Add(1)
		go b.worker(i)
	}
	return nil
}

// Stop drains the workers, bounded by the caller's context
func (b *inMemoryEventBus) Stop(ctx context.Context) error {
	b.cancel()

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		b.logger.Info("Event bus stopped")
		return nil
	case <-ctx.Done():
		b.logger.Warn("Event bus stop timed out")
		return ctx.Err()
	}
}

// Stats returns current bus counters
func (b *inMemoryEventBus) Stats() *EventBusStats {
	b.mu.RLock()
	handlerCount := 0
	for _, hs := range b.handlers {
		handlerCount += len(hs)
	}
	b.mu.RUnlock()

	return &EventBusStats{
		EventsPublished: atomic.LoadInt64(&b.published),
		EventsProcessed: atomic.LoadInt64(&b.processed),
		EventsFailed:    atomic.LoadInt64(&b.failed),
		EventsDropped:   atomic.LoadInt64(&b.dropped),
		HandlersCount:   handlerCount,
		QueueDepth:      len(b.queue),
		Uptime:          time.Since(b.startTime),
	}
}

func (b *inMemoryEventBus) worker(workerID int) {
	defer b.wg.Done()

	for {
		select {
		case msg := <-b.queue:
			if err := b.dispatch(msg.event); err != nil {
				atomic.AddInt64(&b.failed, 1)
				b.logger.Error("Event handling failed",
					zap.Int("worker_id", workerID),
					zap.String("event_id", msg.event.EventID()),
					zap.String("event_type", msg.event.EventType()),
					zap.Error(err),
				)
			} else {
				atomic.AddInt64(&b.processed, 1)
			}
		case <-b.ctx.Done():
			return
		}
	}
}

func (b *inMemoryEventBus) dispatch(event Event) error {
	b.mu.RLock()
	handlers := append([]Handler(nil), b.handlers[event.EventType()]...)
	handlers = append(handlers, b.handlers[WildcardType]...)
	b.mu.RUnlock()

	var firstErr error
	for _, handler := range handlers {
		if err := b.run(handler, event); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("handler %s: %w", handler.HandlerID(), err)
		}
	}
	return firstErr
}

// run executes one handler with a timeout and panic recovery so a bad
// listener cannot take a worker down.
func (b *inMemoryEventBus) run(handler Handler, event Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler %s panicked: %v", handler.HandlerID(), r)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), b.handlerTimeout)
	defer cancel()
	return handler.Handle(ctx, event)
}

// GenerateEventID returns a fresh event identifier
func GenerateEventID() string {
	return "evt_" + uuid.Must(uuid.NewV4()).String()
}

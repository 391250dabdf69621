// Package event carries topology change notifications from the services to
// live viewers.
package event

import (
	"log/slog"
	"sync"
	"time"
)

// Event types published by the services
const (
	ServerCreated           = "server.created"
	ServerUpdated           = "server.updated"
	ServerDeleted           = "server.deleted"
	ServerConnectionCreated = "server_connection.created"
	ServerConnectionUpdated = "server_connection.updated"
	ServerConnectionDeleted = "server_connection.deleted"
	StackCreated            = "stack.created"
	StackUpdated            = "stack.updated"
	StackDeleted            = "stack.deleted"
	StackComposeImported    = "stack.compose_imported"
	ContainerDeleted        = "container_service.deleted"
	ServiceCreated          = "service.created"
	ServiceUpdated          = "service.updated"
	ServiceDeleted          = "service.deleted"
	ConnectionCreated       = "connection.created"
	ConnectionUpdated       = "connection.updated"
	ConnectionDeleted       = "connection.deleted"
)

// Wildcard subscribes to every event type
const Wildcard = "*"

// Event represents a change to the topology.
type Event struct {
	Type    string         `json:"type"`    // e.g. "stack.compose_imported"
	Payload map[string]any `json:"payload"` // event-specific data
	Time    time.Time      `json:"time"`
}

// Handler is a callback that processes an event.
type Handler func(event Event)

// Publisher is what services need from the bus.
type Publisher interface {
	Publish(event Event)
}

// Bus is an in-memory publish/subscribe event bus.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	logger   *slog.Logger
}

// NewBus creates a new Bus.
func NewBus(logger *slog.Logger) *Bus {
	return &Bus{
		handlers: make(map[string][]Handler),
		logger:   logger,
	}
}

// Subscribe registers a handler for the given event type.
// Use Wildcard to subscribe to all events.
func (b *Bus) Subscribe(eventType string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventType] = append(b.handlers[eventType], handler)
}

// Publish dispatches an event to all matching subscribers.
// Handlers are invoked synchronously in registration order.
// A panicking handler is recovered and logged without affecting others.
func (b *Bus) Publish(event Event) {
	if event.Time.IsZero() {
		event.Time = time.Now()
	}

	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.handlers[event.Type])+len(b.handlers[Wildcard]))
	handlers = append(handlers, b.handlers[event.Type]...)
	handlers = append(handlers, b.handlers[Wildcard]...)
	b.mu.RUnlock()

	for _, h := range handlers {
		func() {
			defer func() {
				if r := recover(); r != nil {
					b.logger.Error("event handler panicked",
						"event", event.Type,
						"panic", r,
					)
				}
			}()
			h(event)
		}()
	}
}

// Discard drops every event. Used where no bus is wired.
type Discard struct{}

// Publish implements Publisher.
func (Discard) Publish(Event) {}

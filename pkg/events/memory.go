package events

import (
	"context"
	"sync"
)

// MemoryBus is an in-process bus used in tests and single-node deployments.
type MemoryBus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
}

// NewMemoryBus constructs an in-memory event bus.
func NewMemoryBus() *MemoryBus {
	return &MemoryBus{handlers: make(map[string][]Handler)}
}

// Publish dispatches the event synchronously to every subscriber of the
// institute. Handlers must not block.
func (b *MemoryBus) Publish(ctx context.Context, event Event) error {
	b.mu.RLock()
	handlers := append([]Handler(nil), b.handlers[event.InstituteID]...)
	handlers = append(handlers, b.handlers[InstituteAll]...)
	b.mu.RUnlock()
	for _, handler := range handlers {
		handler(event)
	}
	return nil
}

// Subscribe registers a handler for the institute's events.
func (b *MemoryBus) Subscribe(ctx context.Context, instituteID string, handler Handler) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[instituteID] = append(b.handlers[instituteID], handler)
	return nil
}

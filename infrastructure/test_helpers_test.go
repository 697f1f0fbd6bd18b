package infrastructure

import (
	"context"
	"sync"
)

// fakeBus records publishes and keeps subscribed handlers for direct delivery
type fakeBus struct {
	mu         sync.Mutex
	published  map[string][][]byte
	handlers   map[string]func([]byte) error
	publishErr error
}

func newFakeBus() *fakeBus {
	return &fakeBus{
		published: make(map[string][][]byte),
		handlers:  make(map[string]func([]byte) error),
	}
}

func (b *fakeBus) Publish(ctx context.Context, subject string, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.publishErr != nil {
		return b.publishErr
	}
	b.published[subject] = append(b.published[subject], data)
	return nil
}

func (b *fakeBus) Subscribe(subject string, handler func([]byte) error) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[subject] = handler
	return nil
}

func (b *fakeBus) deliver(subject string, data []byte) error {
	b.mu.Lock()
	handler := b.handlers[subject]
	b.mu.Unlock()
	return handler(data)
}

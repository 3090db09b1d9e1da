package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// LocalBus is an in-process EventBus. Handlers run synchronously on the
// publishing goroutine, in subscription order. Queue subscriptions on the same
// queue share one delivery per message, like NATS queue groups.
type LocalBus struct {
	mu     sync.RWMutex
	subs   map[string][]func(*Message)
	queues map[string]map[string][]func(*Message) // subject -> queue -> handlers
	next   map[string]int
	closed bool
}

func NewLocalBus() *LocalBus {
	return &LocalBus{
		subs:   make(map[string][]func(*Message)),
		queues: make(map[string]map[string][]func(*Message)),
		next:   make(map[string]int),
	}
}

func (b *LocalBus) Publish(ctx context.Context, subject string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return fmt.Errorf("event bus closed")
	}
	handlers := append([]func(*Message){}, b.subs[subject]...)
	for queue, members := range b.queues[subject] {
		key := subject + "|" + queue
		handlers = append(handlers, members[b.next[key]%len(members)])
		b.next[key]++
	}
	b.mu.Unlock()

	for _, h := range handlers {
		h(&Message{
			Subject:   subject,
			Data:      payload,
			Timestamp: time.Now(),
			ID:        uuid.NewString(),
		})
	}
	return nil
}

func (b *LocalBus) Subscribe(subject string, handler func(msg *Message)) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs[subject] = append(b.subs[subject], handler)
	return nil
}

func (b *LocalBus) QueueSubscribe(subject, queue string, handler func(msg *Message)) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.queues[subject] == nil {
		b.queues[subject] = make(map[string][]func(*Message))
	}
	b.queues[subject][queue] = append(b.queues[subject][queue], handler)
	return nil
}

func (b *LocalBus) Close() error {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()
	return nil
}

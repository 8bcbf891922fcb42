package pubsub

import (
	"sync"

	"github.com/google/uuid"
	"github.com/slab-network/oracled/internal/core/domain"
	"github.com/slab-network/oracled/internal/core/ports"
)

type subscriptionKey struct {
	topic      domain.Topic
	resourceID string
}

type service struct {
	lock          sync.RWMutex
	subscriptions map[subscriptionKey]subscriptions
}

// NewService returns an in-process, synchronous ports.EventBus.
func NewService() ports.EventBus {
	return &service{
		subscriptions: make(map[subscriptionKey]subscriptions),
	}
}

func (s *service) Publish(
	topic domain.Topic, resourceID string, payload interface{},
) {
	handlers := s.listHandlers(subscriptionKey{topic, resourceID})
	if len(handlers) <= 0 {
		return
	}

	event := domain.Event{
		Topic:      topic,
		ResourceID: resourceID,
		Payload:    payload,
	}
	for _, handler := range handlers {
		handler(event)
	}
}

func (s *service) Subscribe(
	topic domain.Topic, resourceID string, handler ports.EventHandler,
) func() {
	key := subscriptionKey{topic, resourceID}
	sub := subscription{id: uuid.New().String(), handler: handler}

	s.lock.Lock()
	s.subscriptions[key] = append(s.subscriptions[key], sub)
	s.lock.Unlock()

	once := &sync.Once{}
	return func() {
		once.Do(func() { s.removeSubscription(key, sub.id) })
	}
}

// listHandlers returns a snapshot so that handlers run without holding the
// lock and may (un)subscribe themselves.
func (s *service) listHandlers(key subscriptionKey) []ports.EventHandler {
	s.lock.RLock()
	defer s.lock.RUnlock()

	subs := s.subscriptions[key]
	handlers := make([]ports.EventHandler, 0, len(subs))
	for _, sub := range subs {
		handlers = append(handlers, sub.handler)
	}
	return handlers
}

func (s *service) removeSubscription(key subscriptionKey, id string) {
	s.lock.Lock()
	defer s.lock.Unlock()

	subs := s.subscriptions[key].without(id)
	if len(subs) <= 0 {
		delete(s.subscriptions, key)
		return
	}
	s.subscriptions[key] = subs
}

package ports

import "github.com/slab-network/oracled/internal/core/domain"

// EventHandler is invoked synchronously on publish.
type EventHandler func(event domain.Event)

// EventBus is an in-process publish/subscribe keyed by (topic, resource id).
type EventBus interface {
	// Publish invokes every handler registered for the exact topic and resource
	// id at the moment of the call.
	Publish(topic domain.Topic, resourceID string, payload interface{})
	// Subscribe registers the handler and returns the function removing it.
	Subscribe(
		topic domain.Topic, resourceID string, handler EventHandler,
	) (unsubscribe func())
}

package pubsub

import "github.com/slab-network/oracled/internal/core/ports"

type subscription struct {
	id      string
	handler ports.EventHandler
}

type subscriptions []subscription

func (s subscriptions) without(id string) subscriptions {
	out := make(subscriptions, 0, len(s))
	for _, sub := range s {
		if sub.id != id {
			out = append(out, sub)
		}
	}
	return out
}

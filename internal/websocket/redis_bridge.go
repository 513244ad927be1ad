package websocket

import (
	"context"
)

// ResultsSubscriber streams results published by every API instance.
type ResultsSubscriber interface {
	Subscribe(ctx context.Context, handler func(pollID int64, payload []byte)) error
}

// RedisBridge relays results received from Redis to this instance's watchers.
type RedisBridge struct {
	subscriber ResultsSubscriber
	hub        *Hub
}

func NewRedisBridge(subscriber ResultsSubscriber, hub *Hub) *RedisBridge {
	return &RedisBridge{subscriber: subscriber, hub: hub}
}

// Run blocks until ctx is cancelled or the subscription fails.
func (b *RedisBridge) Run(ctx context.Context) error {
	return b.subscriber.Subscribe(ctx, func(pollID int64, payload []byte) {
		b.hub.Broadcast(PollChannel(pollID), payload)
	})
}

package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	goredis "github.com/redis/go-redis/v9"
)

// Live results channels:
// - live:poll:{poll_id} - aggregated results after each vote
const liveChannelPrefix = "live:poll:"

// Publisher fans freshly aggregated results out to every API instance.
type Publisher struct {
	client goredis.Cmdable
}

func NewPublisher(client goredis.Cmdable) *Publisher {
	return &Publisher{client: client}
}

func (p *Publisher) PublishResults(ctx context.Context, pollID int64, payload []byte) error {
	return p.client.Publish(ctx, liveChannelPrefix+strconv.FormatInt(pollID, 10), payload).Err()
}

// Subscriber receives results published by any instance.
type Subscriber struct {
	client *goredis.Client
}

func NewSubscriber(client *goredis.Client) *Subscriber {
	return &Subscriber{client: client}
}

// Subscribe delivers every live results message to handler until ctx is cancelled.
func (s *Subscriber) Subscribe(ctx context.Context, handler func(pollID int64, payload []byte)) error {
	sub := s.client.PSubscribe(ctx, liveChannelPrefix+"*")
	defer sub.Close()

	for {
		msg, err := sub.ReceiveMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, goredis.ErrClosed) {
				return nil
			}
			return fmt.Errorf("receive live results: %w", err)
		}
		pollID, err := strconv.ParseInt(strings.TrimPrefix(msg.Channel, liveChannelPrefix), 10, 64)
		if err != nil {
			continue
		}
		handler(pollID, []byte(msg.Payload))
	}
}

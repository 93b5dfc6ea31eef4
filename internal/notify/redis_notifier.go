package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"parkease/internal/domain"

	"github.com/redis/go-redis/v9"
)

type RedisNotifier struct {
	client  *redis.Client
	channel string
}

func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

func NewRedisNotifier(client *redis.Client, channel string) *RedisNotifier {
	return &RedisNotifier{client: client, channel: channel}
}

func (n *RedisNotifier) PublishSpotStatus(ctx context.Context, event domain.SpotStatusEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal spot status event: %w", err)
	}
	if err := n.client.Publish(ctx, n.channel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish spot status event: %w", err)
	}
	return nil
}

// Subscribe delivers every event published on the channel to handler until
// ctx is cancelled. Malformed payloads are skipped.
func (n *RedisNotifier) Subscribe(ctx context.Context, handler func(domain.SpotStatusEvent)) error {
	sub := n.client.Subscribe(ctx, n.channel)
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var event domain.SpotStatusEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				continue
			}
			handler(event)
		}
	}
}

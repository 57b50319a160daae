package websocket

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Broker fans room messages out to every hub serving them. A single instance uses
// LocalBroker; several instances behind a load balancer share a RedisBroker.
type Broker interface {
	Publish(ctx context.Context, rooms []string, payload []byte) error
	// Subscribe delivers published messages until ctx is cancelled.
	Subscribe(ctx context.Context, deliver func(rooms []string, payload []byte)) error
}

// LocalBroker delivers straight to the hub of this process.
type LocalBroker struct {
	hub *Hub
}

func NewLocalBroker(hub *Hub) *LocalBroker {
	return &LocalBroker{hub: hub}
}

func (b *LocalBroker) Publish(_ context.Context, rooms []string, payload []byte) error {
	b.hub.Deliver(rooms, payload)
	return nil
}

func (b *LocalBroker) Subscribe(ctx context.Context, _ func([]string, []byte)) error {
	<-ctx.Done()
	return nil
}

type redisEnvelope struct {
	Rooms   []string        `json:"rooms"`
	Payload json.RawMessage `json:"payload"`
}

// RedisBroker relays room messages over one Redis pub/sub channel.
type RedisBroker struct {
	client  *redis.Client
	channel string
	logger  *zap.Logger
}

func NewRedisBroker(client *redis.Client, channel string, logger *zap.Logger) *RedisBroker {
	return &RedisBroker{client: client, channel: channel, logger: logger.Named("redis_broker")}
}

func (b *RedisBroker) Publish(ctx context.Context, rooms []string, payload []byte) error {
	msg, err := json.Marshal(redisEnvelope{Rooms: rooms, Payload: payload})
	if err != nil {
		return fmt.Errorf("encode room message: %w", err)
	}
	if err := b.client.Publish(ctx, b.channel, msg).Err(); err != nil {
		return fmt.Errorf("publish room message: %w", err)
	}
	return nil
}

func (b *RedisBroker) Subscribe(ctx context.Context, deliver func([]string, []byte)) error {
	sub := b.client.Subscribe(ctx, b.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", b.channel, err)
	}
	b.logger.Info("subscribed to room channel", zap.String("channel", b.channel))

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var env redisEnvelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				b.logger.Warn("dropping malformed room message", zap.Error(err))
				continue
			}
			deliver(env.Rooms, env.Payload)
		}
	}
}

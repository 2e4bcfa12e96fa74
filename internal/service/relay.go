package service

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// relayMessage is what travels over the pub/sub channel: the target room and the
// already encoded frame.
type relayMessage struct {
	Room  string          `json:"room"`
	Frame json.RawMessage `json:"frame"`
}

// RedisRelay fans room broadcasts out to every chat process. Each process,
// including the publisher, delivers frames to its own connections from the
// subscription, so a user and a staff member connected to different
// processes still share a room.
type RedisRelay struct {
	client  *redis.Client
	channel string
	hub     *Hub
	logger  *zap.Logger
}

func NewRedisRelay(client *redis.Client, channel string, hub *Hub, logger *zap.Logger) *RedisRelay {
	return &RedisRelay{client: client, channel: channel, hub: hub, logger: logger}
}

func (r *RedisRelay) Broadcast(ctx context.Context, room, event string, payload interface{}) error {
	frame, err := EncodeFrame(event, payload)
	if err != nil {
		return err
	}
	data, err := json.Marshal(relayMessage{Room: room, Frame: frame})
	if err != nil {
		return err
	}
	return r.client.Publish(ctx, r.channel, data).Err()
}

// Run subscribes to the channel and delivers frames until ctx is done.
func (r *RedisRelay) Run(ctx context.Context) error {
	sub := r.client.Subscribe(ctx, r.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return err
	}
	r.logger.Info("room relay subscribed", zap.String("channel", r.channel))

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			r.handle(msg.Payload)
		}
	}
}

func (r *RedisRelay) handle(payload string) {
	var msg relayMessage
	if err := json.Unmarshal([]byte(payload), &msg); err != nil || msg.Room == "" {
		r.logger.Warn("ignoring malformed relay message", zap.Error(err))
		return
	}
	r.hub.Deliver(msg.Room, msg.Frame)
}

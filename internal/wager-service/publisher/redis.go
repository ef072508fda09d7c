package publisher

import (
	"context"
	"encoding/json"

	"github.com/radieske/wager-settlement-platform/pkg/contracts/events"
	"github.com/radieske/wager-settlement-platform/pkg/contracts/topics"
)

// Broadcaster é satisfeito por cache.RedisBroadcaster.
type Broadcaster interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}

// Redis envia os eventos ao canal de broadcast dentro de um Envelope, para o
// notifier repassar aos clientes WebSocket.
type Redis struct {
	b       Broadcaster
	channel string
}

func NewRedis(b Broadcaster, channel string) *Redis {
	if channel == "" {
		channel = topics.SettlementBroadcast
	}
	return &Redis{b: b, channel: channel}
}

func (r *Redis) PublishWagerPlaced(ctx context.Context, e events.WagerPlaced) error {
	return r.send(ctx, topics.WagerPlaced, e)
}

func (r *Redis) PublishWagerSettled(ctx context.Context, e events.WagerSettled) error {
	return r.send(ctx, topics.WagerSettled, e)
}

func (r *Redis) PublishTargetResult(ctx context.Context, e events.TargetResult) error {
	return r.send(ctx, topics.TargetResult, e)
}

func (r *Redis) send(ctx context.Context, typ string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	b, err := json.Marshal(events.Envelope{Type: typ, Payload: payload})
	if err != nil {
		return err
	}
	return r.b.Publish(ctx, r.channel, b)
}

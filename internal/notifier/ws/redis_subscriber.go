package ws

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/radieske/wager-settlement-platform/pkg/contracts/events"
	"github.com/radieske/wager-settlement-platform/pkg/contracts/topics"
)

// StartRedisSubscriber escuta o canal de broadcast de liquidação e repassa
// cada Envelope ao Hub. Encerra quando ctx termina.
func StartRedisSubscriber(ctx context.Context, r *redis.Client, channel string, hub *Hub, log *zap.Logger) {
	if channel == "" {
		channel = topics.SettlementBroadcast
	}
	sub := r.Subscribe(ctx, channel)
	go func() {
		defer sub.Close() // encerra a inscrição ao finalizar o contexto
		Relay(ctx, sub.Channel(), hub, log)
	}()
	log.Info("ws subscriber started", zap.String("channel", channel))
}

// Relay consome mensagens até ctx terminar ou o canal fechar.
func Relay(ctx context.Context, ch <-chan *redis.Message, hub *Hub, log *zap.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if msg == nil {
				continue
			}
			var env events.Envelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil || env.Type == "" {
				log.Warn("ws subscriber: invalid envelope", zap.String("channel", msg.Channel), zap.Error(err))
				continue
			}
			hub.Dispatch(env)
		}
	}
}

package consumer

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/radieske/wager-settlement-platform/pkg/contracts/events"
)

// MessageReader é satisfeito por *kafka.Reader.
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
}

// Dispatcher é satisfeito por *ws.Hub.
type Dispatcher interface {
	Dispatch(env events.Envelope) int
}

// Relay consome os tópicos de eventos de aposta e repassa cada mensagem ao
// hub como Envelope. Alternativa durável ao canal Redis: o consumer group
// retoma do último offset após um restart.
type Relay struct {
	Log    *zap.Logger
	Reader MessageReader
	Hub    Dispatcher
	// Types traduz o nome do tópico no tipo do evento; ausente = nome do tópico.
	Types map[string]string
	// Backoff entre falhas de leitura.
	Backoff time.Duration

	OnConsumed func(topic string) // métricas
	OnError    func(stage string)
}

// Run inicia o loop de consumo. Retorna quando ctx é cancelado.
func (p *Relay) Run(ctx context.Context) error {
	backoff := p.Backoff
	if backoff <= 0 {
		backoff = 500 * time.Millisecond
	}
	for {
		m, err := p.Reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			p.Log.Warn("kafka read failed", zap.Error(err))
			p.fail("read")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			continue
		}

		if p.OnConsumed != nil {
			p.OnConsumed(m.Topic)
		}

		if !json.Valid(m.Value) {
			p.Log.Warn("invalid message", zap.String("topic", m.Topic), zap.ByteString("key", m.Key))
			p.fail("decode")
			continue
		}

		typ := m.Topic
		if t, ok := p.Types[m.Topic]; ok {
			typ = t
		}
		p.Hub.Dispatch(events.Envelope{Type: typ, Payload: json.RawMessage(m.Value)})
	}
}

func (p *Relay) fail(stage string) {
	if p.OnError != nil {
		p.OnError(stage)
	}
}

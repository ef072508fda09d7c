package publisher

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/radieske/wager-settlement-platform/pkg/contracts/events"
)

// MessageWriter é satisfeito por *kafka.Writer.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// Kafka publica cada tipo de evento no seu tópico, com a chave do agregado
// (wagerId ou alvo) para manter a ordem por partição.
type Kafka struct {
	placed  MessageWriter
	settled MessageWriter
	results MessageWriter
}

func NewKafka(placed, settled, results MessageWriter) *Kafka {
	return &Kafka{placed: placed, settled: settled, results: results}
}

func (k *Kafka) PublishWagerPlaced(ctx context.Context, e events.WagerPlaced) error {
	return write(ctx, k.placed, e.WagerID, e)
}

func (k *Kafka) PublishWagerSettled(ctx context.Context, e events.WagerSettled) error {
	return write(ctx, k.settled, e.WagerID, e)
}

func (k *Kafka) PublishTargetResult(ctx context.Context, e events.TargetResult) error {
	return write(ctx, k.results, e.TargetKind+":"+e.TargetID, e)
}

func write(ctx context.Context, w MessageWriter, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return w.WriteMessages(ctx, kafka.Message{Key: []byte(key), Value: b, Time: time.Now()})
}

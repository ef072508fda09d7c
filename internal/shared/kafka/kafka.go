package kafka

import (
	"errors"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
)

type Writer = kafka.Writer

// NewWriter cria um writer por tópico. brokers aceita lista separada por vírgula.
func NewWriter(brokers string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(splitBrokers(brokers)...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{}, // mesma chave -> mesma partição
		RequiredAcks:           kafka.RequireAll,
		BatchTimeout:           10 * time.Millisecond,
		AllowAutoTopicCreation: true,
	}
}

// Writers agrupa os writers dos tópicos de eventos de aposta.
type Writers struct {
	Placed  *kafka.Writer
	Settled *kafka.Writer
	Results *kafka.Writer
}

func NewWriters(brokers, placedTopic, settledTopic, resultTopic string) Writers {
	return Writers{
		Placed:  NewWriter(brokers, placedTopic),
		Settled: NewWriter(brokers, settledTopic),
		Results: NewWriter(brokers, resultTopic),
	}
}

// Close fecha todos os writers, descarregando mensagens pendentes.
func (w Writers) Close() error {
	return errors.Join(w.Placed.Close(), w.Settled.Close(), w.Results.Close())
}

// NewReader cria um consumer group sobre um ou mais tópicos.
func NewReader(brokers string, groupID string, topics ...string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:        splitBrokers(brokers),
		GroupID:        groupID,
		GroupTopics:    topics,
		MinBytes:       1,
		MaxBytes:       10e6,
		CommitInterval: time.Second,
	})
}

func splitBrokers(s string) []string {
	var out []string
	for _, b := range strings.Split(s, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}

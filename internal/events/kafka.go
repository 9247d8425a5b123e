package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"
)

// KafkaPublisher writes envelopes to one topic, keyed by CorrelationID so all
// events of a pedido land on the same partition in order.
type KafkaPublisher struct {
	w *kafka.Writer
}

// NewKafkaPublisher builds an async writer; delivery failures are logged from
// the completion callback.
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		w: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireAll,
			Async:                  true,
			BatchTimeout:           50 * time.Millisecond,
			AllowAutoTopicCreation: true,
			Completion: func(messages []kafka.Message, err error) {
				if err != nil {
					log.Error().Err(err).Int("mensajes", len(messages)).Msg("kafka: fallo la entrega de eventos")
				}
			},
		},
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, env Envelope) error {
	value, err := json.Marshal(env)
	if err != nil {
		return err
	}
	return p.w.WriteMessages(ctx, kafka.Message{
		Key:   []byte(env.CorrelationID),
		Value: value,
		Time:  env.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(env.EventType)},
		},
	})
}

// Close flushes pending messages.
func (p *KafkaPublisher) Close() error { return p.w.Close() }

// NewPublisher returns a KafkaPublisher, or a NoopPublisher when no brokers
// are configured.
func NewPublisher(brokers []string, topic string) Publisher {
	if len(brokers) == 0 {
		log.Info().Msg("kafka: sin brokers configurados, eventos deshabilitados")
		return NoopPublisher{}
	}
	return NewKafkaPublisher(brokers, topic)
}

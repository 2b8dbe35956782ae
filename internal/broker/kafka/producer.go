package kafka

import (
	"context"
	"errors"
	"fmt"

	"regenerate-thumbnails/internal/config"

	"github.com/segmentio/kafka-go"
	wbkafka "github.com/wb-go/wbf/kafka"
	"github.com/wb-go/wbf/retry"
	"github.com/wb-go/wbf/zlog"
)

var (
	ErrNoBrokers = errors.New("no kafka brokers configured")
	ErrNoTopic   = errors.New("no events topic configured")
)

// EventsProducer writes regeneration events. Messages are partitioned by
// key hash, so events of one attachment stay in order.
type EventsProducer struct {
	producer *wbkafka.Producer
	topic    string
	logger   *zlog.Zerolog
}

func NewEventsProducer(cfg config.KafkaConfig, logger *zlog.Zerolog) (*EventsProducer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, ErrNoBrokers
	}
	if cfg.EventsTopic == "" {
		return nil, ErrNoTopic
	}

	producer := wbkafka.NewProducer(cfg.Brokers, cfg.EventsTopic)
	producer.Writer.Balancer = &kafka.Hash{}
	producer.Writer.RequiredAcks = kafka.RequireAll

	logger.Info().
		Strs("brokers", cfg.Brokers).
		Str("topic", cfg.EventsTopic).
		Msg("Regeneration events enabled")

	return &EventsProducer{
		producer: producer,
		topic:    cfg.EventsTopic,
		logger:   logger,
	}, nil
}

func (p *EventsProducer) Topic() string {
	return p.topic
}

func (p *EventsProducer) Send(ctx context.Context, strategy retry.Strategy, key, value []byte) error {
	if err := p.producer.SendWithRetry(ctx, strategy, key, value); err != nil {
		return fmt.Errorf("failed to write to %s: %w", p.topic, err)
	}
	return nil
}

func (p *EventsProducer) Close() error {
	if err := p.producer.Close(); err != nil {
		return fmt.Errorf("failed to close %s writer: %w", p.topic, err)
	}
	p.logger.Debug().Str("topic", p.topic).Msg("Events producer closed")
	return nil
}

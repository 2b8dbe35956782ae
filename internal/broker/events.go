package broker

import (
	"context"
	"encoding/json"
	"fmt"

	"regenerate-thumbnails/internal/domain"

	"github.com/wb-go/wbf/retry"
	"github.com/wb-go/wbf/zlog"
)

// EventPublisher announces regenerated attachments, keyed by attachment
// ID so all events of one attachment land on the same partition.
type EventPublisher struct {
	producer Producer
	retries  retry.Strategy
	logger   *zlog.Zerolog
}

func NewEventPublisher(producer Producer, retries retry.Strategy, logger *zlog.Zerolog) *EventPublisher {
	return &EventPublisher{
		producer: producer,
		retries:  retries,
		logger:   logger,
	}
}

func (p *EventPublisher) PublishRegenerated(ctx context.Context, event domain.RegenerationEvent) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := p.producer.Send(ctx, p.retries, []byte(event.AttachmentID), value); err != nil {
		return fmt.Errorf("failed to send event: %w", err)
	}

	p.logger.Debug().
		Str("run_id", event.RunID).
		Str("attachment_id", event.AttachmentID).
		Msg("Regeneration event sent")

	return nil
}

// NopPublisher is used when no brokers are configured.
type NopPublisher struct{}

func (NopPublisher) PublishRegenerated(context.Context, domain.RegenerationEvent) error {
	return nil
}

package events

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/twistlabs/influencer-staking/internal/application"
	"github.com/twistlabs/influencer-staking/internal/contracts"
	"github.com/twistlabs/influencer-staking/internal/domain"
)

type Message struct {
	Topic   string
	Payload []byte
}

type Consumer interface {
	Poll(ctx context.Context, max int) ([]Message, error)
}

// ConsumerWorker drains the inbound queue and hands decoded envelopes to the
// application. Delivery is at-least-once; the service dedups by event id.
type ConsumerWorker struct {
	logger   *slog.Logger
	consumer Consumer
	service  *application.Service
	interval time.Duration
}

func NewConsumerWorker(logger *slog.Logger, consumer Consumer, service *application.Service, interval time.Duration) *ConsumerWorker {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &ConsumerWorker{
		logger: logger, consumer: consumer, service: service, interval: interval,
	}
}

func (w *ConsumerWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		if err := w.processOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
			w.logger.ErrorContext(ctx, "consumer iteration failed",
				"module", "events.consumer_worker",
				"layer", "adapter",
				"operation", "process_once",
				"outcome", "failure",
				"error", err,
			)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (w *ConsumerWorker) processOnce(ctx context.Context) error {
	msgs, err := w.consumer.Poll(ctx, 50)
	if err != nil {
		return err
	}
	for _, msg := range msgs {
		var envelope contracts.EventEnvelope
		if err := json.Unmarshal(msg.Payload, &envelope); err != nil {
			w.logger.WarnContext(ctx, "dropping undecodable message", "topic", msg.Topic, "error", err)
			continue
		}
		if envelope.EventType == "" {
			envelope.EventType = msg.Topic
		}
		if err := w.service.HandleDomainEvent(ctx, envelope); err != nil {
			if errors.Is(err, domain.ErrUnsupportedEventType) {
				continue
			}
			w.logger.WarnContext(ctx, "failed to handle event",
				"event_type", envelope.EventType,
				"event_id", envelope.EventID,
				"error", err,
			)
		}
	}
	return nil
}

package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/bookverse/order-intake/internal/application"
	"github.com/bookverse/order-intake/internal/domain"
	"github.com/bookverse/order-intake/internal/logger"
)

type ConsumerConfig struct {
	Brokers string
	Topic   string
	GroupID string
	// DeadLetterTopic receives submissions whose inventory lookups kept
	// failing past the retry budget. Empty means no dead-letter topic:
	// the consumer then never advances past an undecided submission.
	DeadLetterTopic string
}

const (
	submitAttempts = 5
	submitBackoff  = 300 * time.Millisecond
	maxBackoff     = 5 * time.Second
)

// submitWithRetry drives one queued submission to a definite outcome,
// re-submitting on transient inventory failures with growing backoff.
// attempts <= 0 retries until the context is done. Definite errors
// (validation, unknown resource) return immediately.
func submitWithRetry(ctx context.Context, svc *application.IntakeService, in domain.OrderInput, attempts int) (domain.Result, error) {
	backoff := submitBackoff
	for i := 0; ; i++ {
		res, err := svc.Submit(ctx, in)
		if err == nil || !errors.Is(err, domain.ErrInventoryUnavailable) {
			return res, err
		}
		if attempts > 0 && i+1 >= attempts {
			return domain.Result{}, err
		}
		if ctx.Err() != nil {
			return domain.Result{}, ctx.Err()
		}
		logger.Warn("submit transient failure, retrying", "attempt", i+1, "err", err)
		time.Sleep(backoff)
		if backoff < maxBackoff {
			backoff *= 2
		}
	}
}

// StartConsumer drains queued checkout submissions from the intake topic
// and drives each through the same Submit path as HTTP submissions.
// Malformed or invalid submissions are skipped and committed. A message
// that keeps failing transiently is never fetched past: it is re-submitted
// in process until decided, or handed to the dead-letter topic once the
// retry budget runs out, and only then committed.
func StartConsumer(ctx context.Context, svc *application.IntakeService, cfg ConsumerConfig) (*kafka.Reader, error) {
	brokers := strings.Split(cfg.Brokers, ",")

	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:         brokers,
		GroupID:         cfg.GroupID,
		Topic:           cfg.Topic,
		MinBytes:        1,
		MaxBytes:        10e6,
		CommitInterval:  0,
		StartOffset:     kafka.FirstOffset,
		ReadLagInterval: -1,
	})

	var dlq *kafka.Writer
	if cfg.DeadLetterTopic != "" {
		dlq = &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        cfg.DeadLetterTopic,
			Balancer:     &kafka.LeastBytes{},
			RequiredAcks: kafka.RequireAll,
		}
	}

	logger.Info("kafka consumer starting", "brokers", cfg.Brokers, "topic", cfg.Topic, "group", cfg.GroupID)

	go func() {
		defer r.Close()
		if dlq != nil {
			defer dlq.Close()
		}

		backoff := time.Millisecond * 300
		for {
			m, err := r.FetchMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				logger.Warn("kafka fetch error", "err", err)
				time.Sleep(backoff)
				continue
			}

			var in domain.OrderInput
			if err = json.Unmarshal(m.Value, &in); err != nil {
				logger.Warn("kafka invalid json, skip and commit", "err", err)
				_ = r.CommitMessages(ctx, m)
				continue
			}

			attempts := submitAttempts
			if dlq == nil {
				attempts = 0
			}
			res, err := submitWithRetry(ctx, svc, in, attempts)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				if errors.Is(err, domain.ErrInventoryUnavailable) {
					if dlq == nil {
						// Retries are unbounded without a dead-letter
						// topic, so this only happens on shutdown.
						return
					}
					// Retry budget exhausted; dead-letter before
					// committing so the submission is never lost.
					if err := writeDeadLetter(ctx, dlq, m); err != nil {
						return
					}
					logger.Warn("submission dead-lettered", "topic", cfg.DeadLetterTopic)
					_ = r.CommitMessages(ctx, m)
					continue
				}
				// Validation and unknown-resource errors are definite.
				logger.Warn("kafka submit rejected, skip and commit", "err", err)
				_ = r.CommitMessages(ctx, m)
				continue
			}

			logger.Info("queued order decided",
				"order_id", res.OrderID, "resource_id", res.ResourceID, "status", res.FinalStatus)

			if err := r.CommitMessages(ctx, m); err != nil {
				logger.Warn("kafka commit failed", "err", err)
			}
		}
	}()
	return r, nil
}

// writeDeadLetter keeps trying until the write lands or the context is
// done; giving up would drop the submission.
func writeDeadLetter(ctx context.Context, dlq *kafka.Writer, m kafka.Message) error {
	backoff := submitBackoff
	for {
		err := dlq.WriteMessages(ctx, kafka.Message{
			Key:     m.Key,
			Value:   m.Value,
			Headers: m.Headers,
		})
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		logger.Error("dead-letter write failed, retrying", "err", err)
		time.Sleep(backoff)
		if backoff < maxBackoff {
			backoff *= 2
		}
	}
}

// Package kafka содержит консьюмер фида дневных снапшотов каталога.
package kafka

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/avetra/supplierhub/internal/models"
	"github.com/avetra/supplierhub/internal/repository"
	"github.com/avetra/supplierhub/internal/retry"
	"github.com/avetra/supplierhub/internal/telemetry"
	"github.com/avetra/supplierhub/internal/validation"
	"github.com/segmentio/kafka-go"
)

// ConsumerConfig содержит настройки консьюмера фида снапшотов.
type ConsumerConfig struct {
	Brokers    []string
	Topic      string
	GroupID    string
	DLQTopic   string
	MaxRetries int
	Backoff    *retry.Backoff
}

// RunConsumer читает фид каталога и складывает снапшоты в хранилище.
// Непроходящие валидацию и невставляемые сообщения уходят в DLQ.
func RunConsumer(ctx context.Context, cfg ConsumerConfig, store repository.SnapshotStore, metrics *telemetry.Metrics) {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers: cfg.Brokers,
		Topic:   cfg.Topic,
		GroupID: cfg.GroupID,
	})
	defer func() {
		if err := r.Close(); err != nil {
			log.Printf("kafka reader close error: %v", err)
		}
	}()

	var dlq *kafka.Writer
	if cfg.DLQTopic != "" {
		dlq = &kafka.Writer{
			Addr:     kafka.TCP(cfg.Brokers...),
			Topic:    cfg.DLQTopic,
			Balancer: &kafka.LeastBytes{},
		}
		defer func() {
			if err := dlq.Close(); err != nil {
				log.Printf("kafka dlq writer close error: %v", err)
			}
		}()
	}

	validate := validation.New()
	policy := retry.Policy{
		MaxRetries: cfg.MaxRetries,
		Backoff:    cfg.Backoff,
	}

	for {
		m, err := r.ReadMessage(ctx)
		if err != nil {
			log.Printf("kafka read error: %v", err)
			return
		}

		var msg models.SnapshotMessage
		if err := json.Unmarshal(m.Value, &msg); err != nil {
			log.Printf("invalid snapshot message: %v", err)
			sendToDLQ(ctx, dlq, m)
			continue
		}
		if err := validate.Struct(msg); err != nil {
			log.Printf("snapshot message %s failed validation: %v", msg.MessageID, err)
			sendToDLQ(ctx, dlq, m)
			continue
		}

		// Формат даты уже проверен валидатором.
		date, _ := time.Parse("2006-01-02", msg.SnapshotDate)

		err = retry.Do(ctx, policy, func() error {
			return store.UpsertSnapshot(ctx, msg.ProviderID, date, msg.Items)
		}, func(err error, attempt int, wait time.Duration) {
			log.Printf("snapshot upsert retry %d in %v: %v", attempt, wait, err)
		})
		if err != nil {
			log.Printf("failed to store snapshot %s: %v", msg.MessageID, err)
			sendToDLQ(ctx, dlq, m)
			continue
		}

		metrics.SnapshotRowsIngested(len(msg.Items))
		log.Printf("ingested snapshot %s for provider %s (%d rows)", msg.SnapshotDate, msg.ProviderID, len(msg.Items))
	}
}

func sendToDLQ(ctx context.Context, dlq *kafka.Writer, m kafka.Message) {
	if dlq == nil {
		return
	}
	if err := dlq.WriteMessages(ctx, kafka.Message{Key: m.Key, Value: m.Value}); err != nil {
		log.Printf("failed to write message to DLQ: %v", err)
	}
}

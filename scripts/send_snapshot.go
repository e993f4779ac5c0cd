package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/avetra/supplierhub/internal/config"
	"github.com/avetra/supplierhub/internal/models"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

func main() {
	provider := flag.String("provider", "test-provider", "Provider ID for the snapshot")
	items := flag.Int("items", 5, "Number of catalog items to generate")
	date := flag.String("date", time.Now().Format("2006-01-02"), "Snapshot date (YYYY-MM-DD)")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if len(cfg.Kafka.Brokers) == 0 || cfg.Kafka.Topic == "" {
		log.Fatal("Kafka brokers or topic not configured")
	}

	w := &kafka.Writer{
		Addr:     kafka.TCP(cfg.Kafka.Brokers...),
		Topic:    cfg.Kafka.Topic,
		Balancer: &kafka.LeastBytes{},
	}
	defer func() {
		if err := w.Close(); err != nil {
			log.Printf("kafka writer close error: %v", err)
		}
	}()

	msg := models.SnapshotMessage{
		MessageID:    uuid.New().String(),
		ProviderID:   *provider,
		SnapshotDate: *date,
		Items:        make([]models.CatalogItem, 0, *items),
	}
	for i := 0; i < *items; i++ {
		msg.Items = append(msg.Items, models.CatalogItem{
			ProviderID:  *provider,
			ProductCode: fmt.Sprintf("P-%04d", i+1),
			Barcode:     fmt.Sprintf("4600000%06d", i+1),
			Description: fmt.Sprintf("Test product %d", i+1),
			Brand:       "TestBrand",
			Family:      "test",
			Units:       float64(10 * (i + 1)),
			Price:       99.90 + float64(i),
		})
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		log.Fatalf("Failed to marshal snapshot: %v", err)
	}

	err = w.WriteMessages(context.Background(),
		kafka.Message{
			Key:   []byte(*provider),
			Value: payload,
		},
	)
	if err != nil {
		log.Fatalf("Failed to send message: %v", err)
	}

	log.Printf("Snapshot %s sent for provider %s (%d items)", msg.MessageID, *provider, len(msg.Items))
}

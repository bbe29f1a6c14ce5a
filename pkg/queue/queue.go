// Package queue moves ingestion tasks through Kafka.
package queue

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"

	"basal-backend-go/internal/config"
	"basal-backend-go/pkg/log"
	"basal-backend-go/pkg/tasks"
)

// TaskProcessor is anything that can execute an ingestion task. It reports
// its outcome only through durable record state, never through a return
// value, so the consumer has nothing to retry.
type TaskProcessor interface {
	Process(ctx context.Context, task tasks.IngestionTask)
}

// Producer publishes ingestion tasks.
type Producer struct {
	writer *kafka.Writer
}

// NewProducer creates a Kafka producer for the ingestion topic.
func NewProducer(cfg config.KafkaConfig) *Producer {
	return &Producer{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(cfg.Brokers),
			Topic:    cfg.Topic,
			Balancer: &kafka.LeastBytes{},
		},
	}
}

// Publish enqueues one task.
func (p *Producer) Publish(ctx context.Context, task tasks.IngestionTask) error {
	taskBytes, err := json.Marshal(task)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kafka.Message{Value: taskBytes})
}

// Close releases the underlying writer.
func (p *Producer) Close() error {
	return p.writer.Close()
}

// StartConsumer reads ingestion tasks and hands them to the processor.
//
// Offsets are committed after processing whether or not the unit succeeded:
// the analyze call downstream is at-most-once per unit (a redelivery would
// double-bill the remote service), and failures are already recorded on the
// unit's own row. Returns when ctx is cancelled.
func StartConsumer(ctx context.Context, cfg config.KafkaConfig, processor TaskProcessor) {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  []string{cfg.Brokers},
		Topic:    cfg.Topic,
		GroupID:  cfg.GroupID,
		MinBytes: 10e3, // 10KB
		MaxBytes: 10e6, // 10MB
	})
	defer func() {
		if err := r.Close(); err != nil {
			log.Error("failed to close kafka reader", err)
		}
	}()

	log.Infof("kafka consumer started on topic '%s'", cfg.Topic)

	for {
		m, err := r.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Error("failed to fetch kafka message", err)
			return
		}

		var task tasks.IngestionTask
		if err := json.Unmarshal(m.Value, &task); err != nil {
			log.Errorf("dropping malformed task message: %v, value: %s", err, string(m.Value))
		} else {
			processor.Process(ctx, task)
		}

		if err := r.CommitMessages(ctx, m); err != nil {
			log.Errorf("failed to commit kafka offset: %v", err)
		}
	}
}

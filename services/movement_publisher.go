package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fenilmodi00/index-pulse-backend/models"
	"github.com/fenilmodi00/index-pulse-backend/shared"
	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

const movementPublisherServiceName = "Movement_Publisher"

// MovementEvent is the message body published for each significant movement
type MovementEvent struct {
	RunID       string          `json:"run_id"`
	GeneratedAt time.Time       `json:"generated_at"`
	Movement    models.Movement `json:"movement"`
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaMovementPublisher sends movement events to a Kafka topic, keyed by index name
type KafkaMovementPublisher struct {
	writer         messageWriter
	topic          string
	serviceMetrics *shared.ServiceMetrics
}

// NewKafkaMovementPublisher creates a synchronous publisher for the given brokers and topic
func NewKafkaMovementPublisher(brokers []string, topic string, metrics *shared.ServiceMetrics) *KafkaMovementPublisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
		Async:        false,
	}

	logrus.WithFields(logrus.Fields{
		"component": "KafkaMovementPublisher",
		"brokers":   brokers,
		"topic":     topic,
	}).Info("Kafka movement publisher initialized")

	return newKafkaMovementPublisherWithWriter(writer, topic, metrics)
}

func newKafkaMovementPublisherWithWriter(writer messageWriter, topic string, metrics *shared.ServiceMetrics) *KafkaMovementPublisher {
	if metrics == nil {
		metrics = shared.NewServiceMetrics(movementPublisherServiceName)
	}
	return &KafkaMovementPublisher{
		writer:         writer,
		topic:          topic,
		serviceMetrics: metrics,
	}
}

// PublishMovements writes one message per movement in a single batch. An empty list is a no-op.
func (p *KafkaMovementPublisher) PublishMovements(ctx context.Context, runID string, generatedAt time.Time, movements []models.Movement) error {
	if len(movements) == 0 {
		return nil
	}
	startTime := time.Now()

	messages := make([]kafka.Message, 0, len(movements))
	for _, movement := range movements {
		value, err := json.Marshal(MovementEvent{
			RunID:       runID,
			GeneratedAt: generatedAt,
			Movement:    movement,
		})
		if err != nil {
			return fmt.Errorf("failed to marshal movement %q: %w", movement.Index, err)
		}
		messages = append(messages, kafka.Message{
			Key:   []byte(movement.Index),
			Value: value,
			Time:  generatedAt,
		})
	}

	if err := p.writer.WriteMessages(ctx, messages...); err != nil {
		p.serviceMetrics.RecordRequest(false, time.Since(startTime))
		return shared.NewServiceError(shared.ErrorCategoryNetwork, "KAFKA_WRITE_FAILED",
			fmt.Sprintf("failed to write %d movements to topic %s", len(messages), p.topic),
			movementPublisherServiceName, "PublishMovements", err)
	}

	p.serviceMetrics.RecordRequest(true, time.Since(startTime))
	logrus.WithFields(logrus.Fields{
		"component": "KafkaMovementPublisher",
		"method":    "PublishMovements",
		"run_id":    runID,
		"count":     len(messages),
		"topic":     p.topic,
	}).Info("Published movements")
	return nil
}

// Close flushes and closes the underlying writer
func (p *KafkaMovementPublisher) Close() error {
	return p.writer.Close()
}

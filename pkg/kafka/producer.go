package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/segmentio/kafka-go"

	"github.com/Ramsey-B/fern/pkg/tracing"
)

// Producer handles Kafka event emission
type Producer struct {
	writer *kafka.Writer
	logger ectologger.Logger
	topic  string
}

// ProducerConfig holds Kafka producer configuration
type ProducerConfig struct {
	Brokers      []string
	Topic        string
	BatchSize    int
	BatchTimeout time.Duration
	RequiredAcks int
	Compression  string
}

// NewProducer creates a new Kafka producer
func NewProducer(cfg ProducerConfig, logger ectologger.Logger) *Producer {
	compression := kafka.Snappy
	switch cfg.Compression {
	case "gzip":
		compression = kafka.Gzip
	case "lz4":
		compression = kafka.Lz4
	case "zstd":
		compression = kafka.Zstd
	case "none":
		compression = 0
	}

	requiredAcks := kafka.RequiredAcks(cfg.RequiredAcks)

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Balancer:               &kafka.LeastBytes{},
		BatchSize:              cfg.BatchSize,
		BatchTimeout:           cfg.BatchTimeout,
		RequiredAcks:           requiredAcks,
		Compression:            compression,
		AllowAutoTopicCreation: true,
	}

	return &Producer{
		writer: writer,
		logger: logger,
		topic:  cfg.Topic,
	}
}

// Close closes the producer
func (p *Producer) Close() error {
	return p.writer.Close()
}

// ScheduleEvent represents a schedule status change
type ScheduleEvent struct {
	EventType  string    `json:"event_type"` // schedule.status_changed
	TenantID   string    `json:"tenant_id"`
	ScheduleID string    `json:"schedule_id"`
	FromStatus string    `json:"from_status"`
	ToStatus   string    `json:"to_status"`
	Reason     string    `json:"reason,omitempty"`
	ActorID    string    `json:"actor_id,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// DeliveryEvent represents a delivery status change
type DeliveryEvent struct {
	EventType  string    `json:"event_type"` // delivery.status_changed
	TenantID   string    `json:"tenant_id"`
	DeliveryID string    `json:"delivery_id"`
	ScheduleID string    `json:"schedule_id"`
	FromStatus string    `json:"from_status"`
	ToStatus   string    `json:"to_status"`
	Timestamp  time.Time `json:"timestamp"`
}

// IssueEvent represents an issue being reported or resolved
type IssueEvent struct {
	EventType string    `json:"event_type"` // issue.reported, issue.resolved
	TenantID  string    `json:"tenant_id"`
	IssueID   string    `json:"issue_id"`
	IssueType string    `json:"issue_type"`
	Severity  string    `json:"severity"`
	Timestamp time.Time `json:"timestamp"`
}

// PublishScheduleEvent publishes a schedule event to Kafka
func (p *Producer) PublishScheduleEvent(ctx context.Context, event *ScheduleEvent) error {
	ctx, span := tracing.StartSpan(ctx, "kafka.Producer.PublishScheduleEvent")
	defer span.End()

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Topic: p.topic,
		Key:   []byte(event.ScheduleID),
		Value: data,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
			{Key: "tenant_id", Value: []byte(event.TenantID)},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.WithContext(ctx).WithError(err).Error("Failed to publish schedule event")
		return err
	}

	p.logger.WithContext(ctx).WithFields(map[string]any{
		"event_type":  event.EventType,
		"schedule_id": event.ScheduleID,
		"to_status":   event.ToStatus,
	}).Debug("Published schedule event")

	return nil
}

// PublishDeliveryEvent publishes a delivery event to Kafka
func (p *Producer) PublishDeliveryEvent(ctx context.Context, event *DeliveryEvent) error {
	ctx, span := tracing.StartSpan(ctx, "kafka.Producer.PublishDeliveryEvent")
	defer span.End()

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Topic: p.topic,
		Key:   []byte(event.DeliveryID),
		Value: data,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
			{Key: "tenant_id", Value: []byte(event.TenantID)},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.WithContext(ctx).WithError(err).Error("Failed to publish delivery event")
		return err
	}

	p.logger.WithContext(ctx).WithFields(map[string]any{
		"event_type":  event.EventType,
		"delivery_id": event.DeliveryID,
		"to_status":   event.ToStatus,
	}).Debug("Published delivery event")

	return nil
}

// PublishIssueEvent publishes an issue event to Kafka
func (p *Producer) PublishIssueEvent(ctx context.Context, event *IssueEvent) error {
	ctx, span := tracing.StartSpan(ctx, "kafka.Producer.PublishIssueEvent")
	defer span.End()

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Topic: p.topic,
		Key:   []byte(event.IssueID),
		Value: data,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
			{Key: "tenant_id", Value: []byte(event.TenantID)},
			{Key: "severity", Value: []byte(event.Severity)},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.WithContext(ctx).WithError(err).Error("Failed to publish issue event")
		return err
	}

	p.logger.WithContext(ctx).WithFields(map[string]any{
		"event_type": event.EventType,
		"issue_id":   event.IssueID,
		"severity":   event.Severity,
	}).Debug("Published issue event")

	return nil
}

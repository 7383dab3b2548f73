package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/IBM/sarama"
	"github.com/rs/zerolog/log"

	"github.com/safepay/fraud-engine/configs"
	"github.com/safepay/fraud-engine/internal/models"
)

// AlertProducer publishes persisted fraud alerts to Kafka for downstream
// analytics. Publishing is fire-and-forget: delivery failures are logged,
// never surfaced to the evaluation path.
type AlertProducer struct {
	producer sarama.AsyncProducer
	topic    string
}

// NewAlertProducer creates a Kafka async producer for the alert topic
func NewAlertProducer(cfg configs.KafkaConfig) (*AlertProducer, error) {
	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForLocal
	config.Producer.Compression = sarama.CompressionSnappy
	config.Producer.Return.Errors = true

	producer, err := sarama.NewAsyncProducer(cfg.Brokers, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}

	p := &AlertProducer{producer: producer, topic: cfg.AlertTopic}

	go func() {
		for err := range producer.Errors() {
			log.Error().Err(err.Err).Str("topic", err.Msg.Topic).Msg("Failed to deliver alert event")
		}
	}()

	log.Info().Strs("brokers", cfg.Brokers).Str("topic", cfg.AlertTopic).Msg("Kafka alert producer initialized")
	return p, nil
}

// Publish enqueues an alert event, keyed by card so one card's alerts stay
// ordered within a partition.
func (p *AlertProducer) Publish(_ context.Context, event *models.AlertEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal alert event: %w", err)
	}

	p.producer.Input() <- &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(event.CardID),
		Value: sarama.ByteEncoder(payload),
	}
	return nil
}

// Close flushes and shuts down the producer
func (p *AlertProducer) Close() error {
	return p.producer.Close()
}

// AlertHandler processes one alert event from the consumer group
type AlertHandler func(ctx context.Context, event *models.AlertEvent) error

// AlertConsumer reads alert events as part of a consumer group
type AlertConsumer struct {
	group   sarama.ConsumerGroup
	topic   string
	handler AlertHandler
}

// NewAlertConsumer creates a consumer-group reader for the alert topic
func NewAlertConsumer(cfg configs.KafkaConfig, handler AlertHandler) (*AlertConsumer, error) {
	config := sarama.NewConfig()
	config.Consumer.Group.Rebalance.GroupStrategies = []sarama.BalanceStrategy{sarama.NewBalanceStrategyRoundRobin()}
	config.Consumer.Offsets.Initial = sarama.OffsetOldest

	group, err := sarama.NewConsumerGroup(cfg.Brokers, cfg.ConsumerGroup, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka consumer group: %w", err)
	}

	return &AlertConsumer{group: group, topic: cfg.AlertTopic, handler: handler}, nil
}

// Run consumes until the context is cancelled
func (c *AlertConsumer) Run(ctx context.Context) error {
	for {
		if err := c.group.Consume(ctx, []string{c.topic}, &alertGroupHandler{handler: c.handler}); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Error().Err(err).Msg("Kafka consume error, retrying")
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

// Close shuts down the consumer group
func (c *AlertConsumer) Close() error {
	return c.group.Close()
}

type alertGroupHandler struct {
	handler AlertHandler
}

func (h *alertGroupHandler) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (h *alertGroupHandler) Cleanup(sarama.ConsumerGroupSession) error { return nil }

func (h *alertGroupHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for msg := range claim.Messages() {
		var event models.AlertEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			log.Error().Err(err).Int64("offset", msg.Offset).Msg("Failed to decode alert event")
			session.MarkMessage(msg, "")
			continue
		}
		if err := h.handler(session.Context(), &event); err != nil {
			log.Error().Err(err).Str("alert_id", event.AlertID).Msg("Alert handler failed")
		}
		session.MarkMessage(msg, "")
	}
	return nil
}

// Package kafka publishes per-user activity events after each digest run.
package kafka

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/IBM/sarama"
	"github.com/steam-digest/internal/config"
	"github.com/steam-digest/internal/domain"
)

// ActivityEvent is the message published for each user with activity.
type ActivityEvent struct {
	RunID        string           `json:"run_id"`
	User         string           `json:"user"`
	Played       map[string]int64 `json:"played"`
	NewGames     []string         `json:"new_games,omitempty"`
	TotalMinutes int64            `json:"total_minutes"`
	Timestamp    time.Time        `json:"timestamp"`
}

// Publisher sends activity events to a Kafka topic.
type Publisher struct {
	producer sarama.SyncProducer
	topic    string
	logger   *slog.Logger
}

// NewPublisher creates a Kafka publisher
func NewPublisher(cfg *config.KafkaConfig, logger *slog.Logger) (*Publisher, error) {
	saramaConfig := sarama.NewConfig()
	saramaConfig.Producer.RequiredAcks = sarama.WaitForLocal
	saramaConfig.Producer.Compression = sarama.CompressionSnappy
	saramaConfig.Producer.Return.Successes = true
	saramaConfig.Producer.Return.Errors = true

	producer, err := sarama.NewSyncProducer(cfg.Brokers, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("creating kafka producer: %w", err)
	}

	return &Publisher{
		producer: producer,
		topic:    cfg.Topic,
		logger:   logger,
	}, nil
}

// Close closes the producer
func (p *Publisher) Close() error {
	return p.producer.Close()
}

// PublishReport sends one event per user with positive playtime. A failed
// send is logged and the rest of the report still goes out.
func (p *Publisher) PublishReport(report *domain.Report) error {
	published := 0
	for user, activity := range report.Users {
		if activity.TotalMinutes == 0 {
			continue
		}

		event := ActivityEvent{
			RunID:        report.RunID,
			User:         user,
			Played:       activity.Played,
			NewGames:     activity.NewGames,
			TotalMinutes: activity.TotalMinutes,
			Timestamp:    report.GeneratedAt,
		}
		data, err := json.Marshal(event)
		if err != nil {
			return fmt.Errorf("encoding activity event: %w", err)
		}

		msg := &sarama.ProducerMessage{
			Topic: p.topic,
			Key:   sarama.StringEncoder(user),
			Value: sarama.ByteEncoder(data),
		}
		if _, _, err := p.producer.SendMessage(msg); err != nil {
			p.logger.Error("failed to publish activity event", "user", user, "error", err)
			continue
		}
		published++
	}

	p.logger.Info("published activity events", "count", published, "topic", p.topic)
	return nil
}

package kafka

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/IBM/sarama"
	"github.com/server-monitor/internal/config"
	"github.com/server-monitor/internal/domain"
)

// Publisher mirrors every built report onto a Kafka topic for dashboard
// ingest pipelines that prefer a stream over the HTTP push. It is as
// fire-and-forget as the HTTP path: a failed publish is logged and dropped.
type Publisher struct {
	cfg      *config.KafkaConfig
	producer sarama.AsyncProducer
	logger   *slog.Logger
	wg       sync.WaitGroup
}

// reportEnvelope is the message written to the topic, keyed by server id.
type reportEnvelope struct {
	Server    string        `json:"server"`
	Timestamp time.Time     `json:"timestamp"`
	Report    domain.Report `json:"report"`
}

// NewPublisher creates a publisher and starts its result-draining goroutines.
func NewPublisher(cfg *config.KafkaConfig, logger *slog.Logger) (*Publisher, error) {
	saramaConfig := sarama.NewConfig()
	saramaConfig.Producer.RequiredAcks = sarama.WaitForLocal
	saramaConfig.Producer.Compression = sarama.CompressionSnappy
	saramaConfig.Producer.Flush.Frequency = 100 * time.Millisecond
	saramaConfig.Producer.Return.Successes = false
	saramaConfig.Producer.Return.Errors = true

	producer, err := sarama.NewAsyncProducer(cfg.Brokers, saramaConfig)
	if err != nil {
		return nil, err
	}

	p := &Publisher{
		cfg:      cfg,
		producer: producer,
		logger:   logger,
	}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		for err := range producer.Errors() {
			p.logger.Warn("report publish failed", "error", err)
		}
	}()

	return p, nil
}

// Publish enqueues one report. It never blocks the caller on broker latency.
func (p *Publisher) Publish(serverID string, rep domain.Report) {
	env := reportEnvelope{
		Server:    serverID,
		Timestamp: time.Now(),
		Report:    rep,
	}
	data, err := json.Marshal(env)
	if err != nil {
		p.logger.Warn("failed to marshal report envelope", "error", err)
		return
	}

	msg := &sarama.ProducerMessage{
		Topic: p.cfg.Topic,
		Key:   sarama.StringEncoder(serverID),
		Value: sarama.ByteEncoder(data),
	}

	select {
	case p.producer.Input() <- msg:
	default:
		p.logger.Warn("kafka input buffer full, dropping report")
	}
}

// Close flushes pending messages and shuts the producer down.
func (p *Publisher) Close() error {
	p.producer.AsyncClose()
	p.wg.Wait()
	return nil
}

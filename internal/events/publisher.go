// Package events publishes run completion events to Kafka.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/kailas-cloud/speechagg/internal/domain/run"
	"github.com/kailas-cloud/speechagg/internal/metrics"
)

// ErrDisabled is returned by HealthCheck when publishing is off.
var ErrDisabled = errors.New("event publishing disabled")

const dialTimeout = 10 * time.Second

// Config holds Kafka publisher configuration.
type Config struct {
	Enabled bool
	Brokers []string
	Topic   string
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher writes completion events to one topic. Without brokers it only logs.
type Publisher struct {
	writer  messageWriter
	dialer  *kafka.Dialer
	brokers []string
	topic   string
	enabled bool
	logger  *zap.Logger
	now     func() time.Time
}

// New creates a publisher. A disabled config yields a log-only publisher.
func New(cfg Config, logger *zap.Logger) *Publisher {
	p := &Publisher{topic: cfg.Topic, logger: logger, now: time.Now}
	if !cfg.Enabled || len(cfg.Brokers) == 0 {
		logger.Info("kafka disabled, completion events are logged only")
		return p
	}

	p.dialer = &kafka.Dialer{Timeout: dialTimeout, DualStack: true}
	p.brokers = cfg.Brokers
	p.enabled = true
	p.writer = &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: 10 * time.Second,
		RequiredAcks: kafka.RequireOne,
		Transport:    &kafka.Transport{Dial: p.dialer.DialFunc},
	}
	logger.Info("kafka publisher initialized",
		zap.Strings("brokers", cfg.Brokers), zap.String("topic", cfg.Topic))
	return p
}

// Enabled reports whether events reach Kafka.
func (p *Publisher) Enabled() bool { return p.enabled }

// PublishCompleted announces a finished dimension, keyed by dimension name.
func (p *Publisher) PublishCompleted(ctx context.Context, rep *run.DimensionReport) error {
	return p.publish(ctx, string(rep.Dimension), NewCompleted(rep, p.now().UnixMilli()))
}

func (p *Publisher) publish(ctx context.Context, key string, event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		metrics.EventsPublishedTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("marshal event: %w", err)
	}

	p.logger.Debug("publishing event",
		zap.String("topic", p.topic), zap.String("key", key), zap.ByteString("payload", payload))

	if !p.enabled || p.writer == nil {
		metrics.EventsPublishedTotal.WithLabelValues("skipped").Inc()
		return nil
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "eventType", Value: []byte(EventType)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		metrics.EventsPublishedTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("write to %s: %w", p.topic, err)
	}
	metrics.EventsPublishedTotal.WithLabelValues("ok").Inc()
	return nil
}

// HealthCheck dials the first reachable broker.
func (p *Publisher) HealthCheck(ctx context.Context) error {
	if !p.enabled {
		return ErrDisabled
	}
	var errs []error
	for _, b := range p.brokers {
		conn, err := p.dialer.DialContext(ctx, "tcp", b)
		if err != nil {
			errs = append(errs, fmt.Errorf("dial %s: %w", b, err))
			continue
		}
		return conn.Close()
	}
	return errors.Join(errs...)
}

// Close flushes and closes the writer.
func (p *Publisher) Close() error {
	if p.writer == nil {
		return nil
	}
	return p.writer.Close()
}

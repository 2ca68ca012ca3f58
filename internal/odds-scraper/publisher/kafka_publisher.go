package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	sharedkafka "github.com/radieske/odds-tracker/internal/shared/kafka"
	"github.com/radieske/odds-tracker/pkg/contracts/events"
)

// messageWriter é a parte do kafka.Writer usada aqui
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher envia os lotes do scraper para o tópico de snapshots.
type KafkaPublisher struct {
	writer messageWriter
	topic  string
	log    *zap.Logger
}

// NewKafkaPublisher cria o writer para o tópico. brokers é a lista separada por vírgula.
func NewKafkaPublisher(brokers, topic string, log *zap.Logger) *KafkaPublisher {
	return &KafkaPublisher{
		writer: sharedkafka.NewWriter(brokers, topic),
		topic:  topic,
		log:    log,
	}
}

// EnsureTopic cria o tópico via controller do cluster. Usado só em local/dev,
// onde o broker é único; tópico já existente não é erro.
func EnsureTopic(ctx context.Context, broker, topic string, log *zap.Logger) error {
	conn, err := kafka.DialContext(ctx, "tcp", broker)
	if err != nil {
		return fmt.Errorf("dial kafka: %w", err)
	}
	defer conn.Close()

	controller, err := conn.Controller()
	if err != nil {
		return fmt.Errorf("get kafka controller: %w", err)
	}

	cconn, err := kafka.DialContext(ctx, "tcp", fmt.Sprintf("%s:%d", controller.Host, controller.Port))
	if err != nil {
		return fmt.Errorf("dial kafka controller: %w", err)
	}
	defer cconn.Close()

	err = cconn.CreateTopics(kafka.TopicConfig{Topic: topic, NumPartitions: 1, ReplicationFactor: 1})
	if err != nil && !strings.Contains(err.Error(), "already exists") {
		return fmt.Errorf("create topic %s: %w", topic, err)
	}
	if err == nil {
		log.Info("kafka topic created", zap.String("topic", topic))
	}
	return nil
}

// Publish serializa o lote em JSON. A chave é o BatchID.
func (p *KafkaPublisher) Publish(ctx context.Context, b events.ScrapeBatch) error {
	value, err := json.Marshal(b)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Key:   []byte(b.BatchID),
		Value: value,
		Time:  time.Now(),
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.log.Error("failed to publish scrape batch", zap.String("batch_id", b.BatchID), zap.Error(err))
		return err
	}

	p.log.Info("published scrape batch",
		zap.String("batch_id", b.BatchID),
		zap.String("topic", p.topic),
		zap.Int("matches", len(b.Matches)),
		zap.Int("bytes", len(value)),
	)
	return nil
}

// Close finaliza o writer e libera recursos associados.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

package source

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
)

// Config configures the Kafka source.
type Config struct {
	Brokers []string `json:"brokers" toml:"brokers" env:"KAFKA_BOOTSTRAP_SERVERS" env-default:"localhost:9092"`
	Topic   string   `json:"topic" toml:"topic" env:"KAFKA_TOPIC" env-default:"dbserver1.public.orders"`
	GroupID string   `json:"group_id" toml:"group_id" env:"KAFKA_GROUP_ID" env-default:"changesink-consumer-group"`

	// StartOffset picks where a group with no committed offset begins:
	// "earliest" (default) or "latest".
	StartOffset string `json:"start_offset" toml:"start_offset" env:"KAFKA_START_OFFSET" env-default:"earliest"`
}

type messageID struct {
	partition int
	offset    int64
}

// KafkaSource pulls messages from one topic through a consumer group
// reader with automatic commits disabled. Offsets advance only through
// explicit Commit calls.
type KafkaSource struct {
	reader *kafka.Reader
	logger Logger

	mu      sync.Mutex
	pending map[messageID]kafka.Message
}

func NewKafkaSource(cfg Config, logger Logger) (*KafkaSource, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("no kafka brokers provided")
	}
	if cfg.Topic == "" {
		return nil, fmt.Errorf("no kafka topic provided")
	}
	if cfg.GroupID == "" {
		return nil, fmt.Errorf("no kafka group id provided")
	}
	if logger == nil {
		logger = &noopLogger{}
	}

	startOffset := kafka.FirstOffset
	if strings.EqualFold(strings.TrimSpace(cfg.StartOffset), "latest") {
		startOffset = kafka.LastOffset
	}

	dialer := &kafka.Dialer{
		Timeout:   10 * time.Second,
		DualStack: true,
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     cfg.Brokers,
		Topic:       cfg.Topic,
		GroupID:     cfg.GroupID,
		MinBytes:    1,
		MaxBytes:    10e6,
		MaxWait:     1 * time.Second,
		Dialer:      dialer,
		StartOffset: startOffset,
	})

	return &KafkaSource{
		reader:  reader,
		logger:  logger,
		pending: make(map[messageID]kafka.Message),
	}, nil
}

// Fetch implements Source.
func (s *KafkaSource) Fetch(ctx context.Context) (*Message, error) {
	km, err := s.reader.FetchMessage(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.pending[messageID{partition: km.Partition, offset: km.Offset}] = km
	s.mu.Unlock()

	s.logger.Debugf("fetched message %s/%d@%d", km.Topic, km.Partition, km.Offset)

	return &Message{
		Topic:     km.Topic,
		Partition: km.Partition,
		Offset:    km.Offset,
		Key:       km.Key,
		Value:     km.Value,
		Time:      km.Time,
	}, nil
}

// Commit implements Source.
func (s *KafkaSource) Commit(ctx context.Context, msg *Message) error {
	id := messageID{partition: msg.Partition, offset: msg.Offset}

	s.mu.Lock()
	km, ok := s.pending[id]
	if ok {
		delete(s.pending, id)
	}
	s.mu.Unlock()

	if !ok {
		return fmt.Errorf("commit for unfetched message %s/%d@%d", msg.Topic, msg.Partition, msg.Offset)
	}

	if err := s.reader.CommitMessages(ctx, km); err != nil {
		return fmt.Errorf("commit offset %d: %w", msg.Offset, err)
	}
	s.logger.Debugf("committed offset %s/%d@%d", msg.Topic, msg.Partition, msg.Offset)
	return nil
}

// Close implements Source.
func (s *KafkaSource) Close() error {
	return s.reader.Close()
}

var _ Source = (*KafkaSource)(nil)

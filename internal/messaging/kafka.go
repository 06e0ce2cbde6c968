package messaging

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/leafyhealth/accounting-management/internal/config"
)

const fetchRetryDelay = time.Second

type kafkaClient struct {
	topic  string
	logger *zap.Logger
	writer *kafka.Writer

	readerCfg kafka.ReaderConfig
	mu        sync.Mutex
	reader    *kafka.Reader
}

func newKafkaClient(cfg config.Messaging, logger *zap.Logger) *kafkaClient {
	k := cfg.Kafka
	log := kafkaLogger{logger: logger}

	return &kafkaClient{
		topic:  k.Topic,
		logger: logger,
		// Events are keyed by entity, so hashing keeps one record's history ordered.
		writer: &kafka.Writer{
			Addr:         kafka.TCP(k.Brokers...),
			Topic:        k.Topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			BatchTimeout: k.BatchTimeout,
			Logger:       log,
			ErrorLogger:  log,
		},
		readerCfg: kafka.ReaderConfig{
			Brokers:        k.Brokers,
			GroupID:        cfg.ConsumerGroup,
			Topic:          k.Topic,
			MinBytes:       k.MinBytes,
			MaxBytes:       k.MaxBytes,
			CommitInterval: k.CommitInterval,
			Dialer: &kafka.Dialer{
				Timeout:  k.ConnectTimeout,
				ClientID: k.ClientID,
			},
		},
	}
}

func (k *kafkaClient) Topic() string { return k.topic }

func (k *kafkaClient) Publish(ctx context.Context, key []byte, value []byte, headers map[string]string) error {
	return k.writer.WriteMessages(ctx, kafka.Message{
		Key:     key,
		Value:   value,
		Headers: toKafkaHeaders(headers),
	})
}

// Consume fetches from the consumer group until ctx ends. Offsets are
// committed only after handler succeeds.
func (k *kafkaClient) Consume(ctx context.Context, handler Handler) error {
	reader := k.groupReader()
	for {
		km, err := reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			k.logger.Error("fetch failed", zap.String("topic", k.topic), zap.Error(err))

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(fetchRetryDelay):
			}
			continue
		}

		if err := handler(ctx, fromKafkaMessage(km)); err != nil {
			k.logger.Error("event left uncommitted",
				zap.Int("partition", km.Partition),
				zap.Int64("offset", km.Offset),
				zap.ByteString("key", km.Key),
				zap.Error(err),
			)
			continue
		}

		if err := reader.CommitMessages(ctx, km); err != nil {
			k.logger.Warn("commit failed", zap.Int("partition", km.Partition), zap.Int64("offset", km.Offset), zap.Error(err))
		}
	}
}

// Close flushes the writer and leaves the consumer group if it was joined.
func (k *kafkaClient) Close() error {
	k.logger.Info("closing kafka client")
	err := k.writer.Close()

	k.mu.Lock()
	defer k.mu.Unlock()
	if k.reader != nil {
		err = errors.Join(err, k.reader.Close())
	}
	return err
}

// groupReader joins the consumer group lazily so API processes that only
// publish never become group members.
func (k *kafkaClient) groupReader() *kafka.Reader {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.reader == nil {
		k.reader = kafka.NewReader(k.readerCfg)
	}
	return k.reader
}

func toKafkaHeaders(headers map[string]string) []kafka.Header {
	if len(headers) == 0 {
		return nil
	}
	out := make([]kafka.Header, 0, len(headers))
	for name, value := range headers {
		out = append(out, kafka.Header{Key: name, Value: []byte(value)})
	}
	return out
}

func fromKafkaMessage(km kafka.Message) Message {
	msg := Message{
		Topic:  km.Topic,
		Key:    append([]byte(nil), km.Key...),
		Value:  append([]byte(nil), km.Value...),
		Offset: km.Offset,
		Time:   km.Time,
	}
	if len(km.Headers) > 0 {
		msg.Headers = make(map[string]string, len(km.Headers))
		for _, h := range km.Headers {
			msg.Headers[h.Key] = string(h.Value)
		}
	}
	return msg
}

type kafkaLogger struct {
	logger *zap.Logger
}

func (k kafkaLogger) Printf(msg string, args ...interface{}) {
	k.logger.Sugar().Debugf(msg, args...)
}

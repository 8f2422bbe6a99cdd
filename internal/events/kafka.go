package events

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/freightlane/internal/logger"

	skafka "github.com/segmentio/kafka-go"
)

// KafkaSinkName Kafka 投递端名称
const KafkaSinkName = "kafka"

// KafkaWriter kafka-go Writer 的最小子集
type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...skafka.Message) error
	Close() error
}

// KafkaSink 将非敏感事件写入 Kafka 主题
type KafkaSink struct {
	writer KafkaWriter
}

// NewKafkaSink 创建写入指定主题的投递端
func NewKafkaSink(brokers []string, topic string) *KafkaSink {
	w := &skafka.Writer{
		Addr:     skafka.TCP(brokers...),
		Topic:    topic,
		Balancer: &skafka.Hash{},
	}
	return &KafkaSink{writer: w}
}

// NewKafkaSinkWithWriter 注入自定义 writer
func NewKafkaSinkWithWriter(w KafkaWriter) *KafkaSink {
	return &KafkaSink{writer: w}
}

// Name 投递端名称
func (s *KafkaSink) Name() string {
	return KafkaSinkName
}

// Deliver 以实体为键写入消息，保证同一实体的事件有序
func (s *KafkaSink) Deliver(ctx context.Context, evt Event) error {
	if evt.Sensitive {
		return nil
	}
	value, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	msg := skafka.Message{
		Key:   []byte(evt.EntityType + ":" + strconv.FormatUint(uint64(evt.EntityID), 10)),
		Value: value,
		Headers: []skafka.Header{
			{Key: "event", Value: []byte(evt.Name)},
			{Key: "event_id", Value: []byte(evt.ID)},
		},
	}
	if err := s.writer.WriteMessages(ctx, msg); err != nil {
		logger.Warnw("kafka_event_write_failed", "event_id", evt.ID, "error", err)
		return err
	}
	return nil
}

// Close 关闭底层 writer
func (s *KafkaSink) Close() error {
	return s.writer.Close()
}

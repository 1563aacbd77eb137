package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/JoeShih716/go-bank-agent/internal/app/agent/domain"
	"github.com/JoeShih716/go-bank-agent/internal/app/agent/usecase"
)

// DefaultTopic 轉帳完成事件的 topic
const DefaultTopic = "transfer_completed"

// messageWriter kafka.Writer 中用到的部分
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher 將轉帳完成事件寫入 Kafka
type Publisher struct {
	writer messageWriter
}

// NewPublisher 建立寫入 brokers 的 Publisher
// 以來源客戶為 key，同一客戶的事件會落在同一個 partition 保持順序
func NewPublisher(brokers []string, topic string) *Publisher {
	if topic == "" {
		topic = DefaultTopic
	}
	return &Publisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			BatchTimeout: 10 * time.Millisecond,
		},
	}
}

// Publish 寫入一筆事件
func (p *Publisher) Publish(ctx context.Context, event domain.TransferCompleted) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.From),
		Value: data,
		Time:  event.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte("transfer_completed")},
			{Key: "tx_id", Value: []byte(event.TxID)},
		},
	})
}

// Close 送出緩衝並關閉連線
func (p *Publisher) Close() error {
	return p.writer.Close()
}

var _ usecase.EventPublisher = (*Publisher)(nil)

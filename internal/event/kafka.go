package event

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/IBM/sarama"
)

// KafkaPublisher はsaramaの非同期プロデューサを包む。
// Input()に積むだけなのでリクエスト処理をブロックしない。
type KafkaPublisher struct {
	producer sarama.AsyncProducer
}

func NewKafkaPublisher(brokers []string) (*KafkaPublisher, error) {
	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForLocal
	config.Producer.Compression = sarama.CompressionSnappy
	config.Producer.Flush.Frequency = 500 * time.Millisecond
	config.Producer.Retry.Max = 5

	producer, err := sarama.NewAsyncProducer(brokers, config)
	if err != nil {
		return nil, err
	}

	//送信失敗はログに残すだけ。注文処理側には返さない
	go func() {
		for err := range producer.Errors() {
			slog.Error("failed to publish event", "topic", err.Msg.Topic, "error", err.Err)
		}
	}()

	return &KafkaPublisher{producer: producer}, nil
}

func (p *KafkaPublisher) Publish(topic string, key string, payload interface{}) {
	bytes, err := json.Marshal(payload)
	if err != nil {
		slog.Error("failed to marshal event", "topic", topic, "error", err)
		return
	}
	p.producer.Input() <- &sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(key),
		Value: sarama.ByteEncoder(bytes),
	}
}

func (p *KafkaPublisher) Close() error {
	return p.producer.Close()
}

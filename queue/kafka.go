package queue

import (
	"context"
	"encoding/json"

	"github.com/IBM/sarama"
)

type taskMessage struct {
	TaskID string `json:"task_id"`
}

// Kafka is the Queue for multi-instance deployments: admission produces to
// a topic, executor instances consume through a shared group.
type Kafka struct {
	producer sarama.SyncProducer
	group    sarama.ConsumerGroup
	topic    string
}

func NewKafka(brokers []string, groupID, topic string) (*Kafka, error) {
	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5
	config.Producer.Return.Successes = true
	config.Consumer.Group.Rebalance.Strategy = sarama.BalanceStrategyRoundRobin
	config.Consumer.Offsets.Initial = sarama.OffsetOldest

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, err
	}

	group, err := sarama.NewConsumerGroup(brokers, groupID, config)
	if err != nil {
		producer.Close()
		return nil, err
	}

	return &Kafka{producer: producer, group: group, topic: topic}, nil
}

func (k *Kafka) Enqueue(ctx context.Context, taskID string) error {
	data, err := json.Marshal(taskMessage{TaskID: taskID})
	if err != nil {
		return err
	}

	msg := &sarama.ProducerMessage{
		Topic: k.topic,
		Key:   sarama.StringEncoder(taskID),
		Value: sarama.ByteEncoder(data),
	}
	_, _, err = k.producer.SendMessage(msg)
	return err
}

type consumerHandler struct {
	fn  func(ctx context.Context, taskID string)
	ctx context.Context
}

func (h *consumerHandler) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (h *consumerHandler) Cleanup(sarama.ConsumerGroupSession) error { return nil }

func (h *consumerHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for msg := range claim.Messages() {
		var taskMsg taskMessage
		if err := json.Unmarshal(msg.Value, &taskMsg); err != nil {
			continue
		}
		h.fn(h.ctx, taskMsg.TaskID)
		session.MarkMessage(msg, "")
	}
	return nil
}

func (k *Kafka) Consume(ctx context.Context, handler func(ctx context.Context, taskID string)) error {
	h := &consumerHandler{fn: handler, ctx: ctx}
	for {
		if err := k.group.Consume(ctx, []string{k.topic}, h); err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

func (k *Kafka) Close() error {
	if err := k.producer.Close(); err != nil {
		k.group.Close()
		return err
	}
	return k.group.Close()
}

package lib

import (
	"context"
	"encoding/json"
	"log"

	"github.com/confluentinc/confluent-kafka-go/kafka"
)

func GetKafkaProducerConfig(broker, clientId string) kafka.ConfigMap {
	return kafka.ConfigMap{
		"bootstrap.servers": broker,
		"client.id":         clientId,
		"acks":              "all",
	}
}

// KafkaPublisher publishes booking events as JSON, keyed by topic.
type KafkaPublisher struct {
	producer *kafka.Producer
}

func NewKafkaPublisher(broker, clientId string) (*KafkaPublisher, error) {
	log.Println("Initializing kafka Producer...")
	cfg := GetKafkaProducerConfig(broker, clientId)
	p, err := kafka.NewProducer(&cfg)
	if err != nil {
		log.Printf("Error on producer: %s\n", err.Error())
		return nil, err
	}
	go func() {
		for e := range p.Events() {
			if m, ok := e.(*kafka.Message); ok && m.TopicPartition.Error != nil {
				log.Printf("[Kafka] delivery failed: %s\n", m.TopicPartition.Error.Error())
			}
		}
	}()
	return &KafkaPublisher{producer: p}, nil
}

func (k *KafkaPublisher) Publish(ctx context.Context, topic string, payload any) error {
	value, err := json.Marshal(payload)
	if err != nil {
		log.Printf("[Kafka] error encoding payload: %s\n", err.Error())
		return err
	}
	return k.producer.Produce(&kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &topic, Partition: kafka.PartitionAny},
		Value:          value,
	}, nil)
}

func (k *KafkaPublisher) Close() {
	k.producer.Flush(5000)
	k.producer.Close()
}

// KafkaConsumer polls a consumer group and hands each message value to a handler.
type KafkaConsumer struct {
	consumer *kafka.Consumer
}

func NewKafkaConsumer(broker, groupId string, topics ...string) (*KafkaConsumer, error) {
	log.Println("Initializing kafka Consumer...")
	c, err := kafka.NewConsumer(&kafka.ConfigMap{
		"bootstrap.servers":  broker,
		"group.id":           groupId,
		"auto.offset.reset":  "smallest",
		"retry.backoff.ms":   100,
		"enable.auto.commit": false,
	})
	if err != nil {
		log.Printf("Error on consumer: %s\n", err.Error())
		return nil, err
	}
	if err := c.SubscribeTopics(topics, nil); err != nil {
		log.Printf("Error subscribing to %v: %s\n", topics, err.Error())
		c.Close()
		return nil, err
	}
	return &KafkaConsumer{consumer: c}, nil
}

// Run polls until ctx is done. Offsets are committed only after handle succeeds.
func (k *KafkaConsumer) Run(ctx context.Context, handle func(ctx context.Context, body []byte) error) error {
	defer k.consumer.Close()
	for ctx.Err() == nil {
		switch e := k.consumer.Poll(100).(type) {
		case *kafka.Message:
			if err := handle(ctx, e.Value); err != nil {
				log.Printf("[Kafka] handler error on %s: %s\n", e.TopicPartition.String(), err.Error())
				if err := k.consumer.Seek(e.TopicPartition, 1000); err != nil {
					log.Printf("[Kafka] error rewinding %s: %s\n", e.TopicPartition.String(), err.Error())
				}
				continue
			}
			if _, err := k.consumer.CommitMessage(e); err != nil {
				log.Printf("[Kafka] error committing offset: %s\n", err.Error())
			}
		case kafka.Error:
			log.Printf("[Kafka] consumer error: %s\n", e.Error())
			if e.IsFatal() {
				return e
			}
		}
	}
	return nil
}

func KafkaCreateTopics(ctx context.Context, broker string, topics ...string) ([]kafka.TopicResult, error) {
	a, err := kafka.NewAdminClient(&kafka.ConfigMap{
		"bootstrap.servers": broker,
	})
	if err != nil {
		log.Printf("Error on AdminClient: %s\n", err.Error())
		return nil, err
	}
	defer a.Close()
	topicsDef := []kafka.TopicSpecification{}
	for _, topic := range topics {
		topicsDef = append(topicsDef, kafka.TopicSpecification{
			Topic:             topic,
			NumPartitions:     3,
			ReplicationFactor: 1,
		})
	}
	result, err := a.CreateTopics(ctx, topicsDef)
	if err != nil {
		log.Printf("Error creating topics: %s\n", err.Error())
		return nil, err
	}
	return result, nil
}

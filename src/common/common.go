package common

import (
	"context"
	"log"

	"github.com/judy2649/the-grey-pegeant/src/config"
	"github.com/judy2649/the-grey-pegeant/src/lib"
	awslib "github.com/judy2649/the-grey-pegeant/src/lib/aws"
	"github.com/judy2649/the-grey-pegeant/src/types"
	"github.com/judy2649/the-grey-pegeant/src/utils"
)

// StartConsumers attaches the retry worker to the configured broker.
func StartConsumers(ctx context.Context, cfg *config.Config, c *NotificationRetryConsumer) {
	switch cfg.Broker {
	case "sqs":
		retries := awslib.NewSQSConsumer(utils.WithSuffix(cfg.RetryQueue), func(payload string) {
			if err := c.Handle(ctx, []byte(payload)); err != nil {
				log.Printf("[SQS] %s: error handling message: %s\n", cfg.RetryQueue, err.Error())
			}
		})
		retries.Listen(ctx)
	case "amqp":
		consumer, err := lib.NewAMQPConsumer(cfg.AMQPURL, cfg.AMQPExchange, utils.WithSuffix(cfg.RetryQueue), []string{types.TopicNotificationRetry})
		if err != nil {
			log.Printf("[AMQP] error starting retry consumer: %s\n", err.Error())
			return
		}
		go func() {
			defer consumer.Close()
			if err := consumer.Run(ctx, c.Handle); err != nil {
				log.Printf("[AMQP] retry consumer stopped: %s\n", err.Error())
			}
		}()
	case "kafka":
		consumer, err := lib.NewKafkaConsumer(cfg.KafkaBroker, "notification-retry", types.TopicNotificationRetry)
		if err != nil {
			log.Printf("[Kafka] error starting retry consumer: %s\n", err.Error())
			return
		}
		go func() {
			if err := consumer.Run(ctx, c.Handle); err != nil {
				log.Printf("[Kafka] retry consumer stopped: %s\n", err.Error())
			}
		}()
	default:
		log.Println("[Broker] no broker configured, notification retries are disabled")
	}
}

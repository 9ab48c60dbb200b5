package aws

import (
	"context"
	"encoding/json"
	"log"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/judy2649/the-grey-pegeant/src/lib"
	"github.com/judy2649/the-grey-pegeant/src/types"
)

type SQSConsumer struct {
	Name    string
	handler *types.Handler
}

func NewSQSConsumer(queue string, handler types.Handler) *SQSConsumer {
	new := SQSConsumer{
		Name:    queue,
		handler: &handler,
	}
	return &new
}

// Listen long-polls the queue until ctx is done. Messages are deleted after the handler returns.
func (s *SQSConsumer) Listen(ctx context.Context) {
	go func() {
		qname := s.Name
		client := lib.AWSGetSQSClient()
		if client == nil {
			return
		}
		qurl, err := client.GetQueueUrl(ctx, &sqs.GetQueueUrlInput{
			QueueName: aws.String(qname),
		})
		if err != nil {
			log.Printf("Failed to retrieve queue URL for %s: %s\n", qname, err.Error())
			return
		}
		log.Printf("%s: Listening for messages...", qname)
		messagesChan := make(chan sqstypes.Message, 10)
		go func(chn chan<- sqstypes.Message) {
			defer close(chn)
			for ctx.Err() == nil {
				output, err := client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
					QueueUrl:            qurl.QueueUrl,
					WaitTimeSeconds:     20,
					MaxNumberOfMessages: 10,
				})
				if err != nil {
					log.Printf("[SQS] Error receiving messages: %s\n", err.Error())
					return
				}
				for _, m := range output.Messages {
					chn <- m
				}
			}
		}(messagesChan)

		h := *s.handler
		for m := range messagesChan {
			h(strings.Clone(aws.ToString(m.Body)))
			SQSDeleteMessage(client, qurl.QueueUrl, &m)
		}
	}()
}

func SQSDeleteMessage(c *sqs.Client, qurl *string, msg *sqstypes.Message) {
	_, err := c.DeleteMessage(context.TODO(), &sqs.DeleteMessageInput{
		QueueUrl:      qurl,
		ReceiptHandle: msg.ReceiptHandle,
	})
	if err != nil {
		log.Printf("Error deleting message from queue: %s\n", err.Error())
		return
	}
	log.Printf("Deleted message from queue: %s\n", aws.ToString(msg.MessageId))
}

// SQSProduceMessage sends body to the named queue.
func SQSProduceMessage(ctx context.Context, queue string, body string) error {
	client := lib.AWSGetSQSClient()
	if client == nil {
		return errUnavailable("sqs")
	}
	qurl, err := client.GetQueueUrl(ctx, &sqs.GetQueueUrlInput{QueueName: aws.String(queue)})
	if err != nil {
		return err
	}
	_, err = client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    qurl.QueueUrl,
		MessageBody: aws.String(body),
	})
	if err != nil {
		log.Printf("[SQS] Error sending message to %s: %s\n", queue, err.Error())
	}
	return err
}

// SQSPublisher sends JSON events to the queue mapped to each topic. Unmapped topics are dropped.
type SQSPublisher struct {
	Queues map[string]string
}

func (p *SQSPublisher) Publish(ctx context.Context, topic string, payload any) error {
	queue, ok := p.Queues[topic]
	if !ok {
		return nil
	}
	b, err := json.Marshal(map[string]any{"topic": topic, "payload": payload})
	if err != nil {
		return err
	}
	return SQSProduceMessage(ctx, queue, string(b))
}

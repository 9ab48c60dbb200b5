package aws

import (
	"context"
	"log"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	snstypes "github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/judy2649/the-grey-pegeant/src/lib"
)

type SNSPublisher interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SNSSMSSender delivers transactional SMS through SNS direct publish.
type SNSSMSSender struct {
	inner    SNSPublisher
	SenderID string
}

func NewSNSSMSSender(senderID string) *SNSSMSSender {
	s := &SNSSMSSender{SenderID: senderID}
	if c := lib.AWSGetSNSClient(); c != nil {
		s.inner = c
	}
	return s
}

func NewSNSSMSSenderWith(p SNSPublisher, senderID string) *SNSSMSSender {
	return &SNSSMSSender{inner: p, SenderID: senderID}
}

func (s *SNSSMSSender) Configured() bool {
	return s.inner != nil
}

func (s *SNSSMSSender) SendSMS(ctx context.Context, to, message string) error {
	if s.inner == nil {
		return errUnavailable("sns")
	}
	attrs := map[string]snstypes.MessageAttributeValue{
		"AWS.SNS.SMS.SMSType": {DataType: aws.String("String"), StringValue: aws.String("Transactional")},
	}
	if s.SenderID != "" {
		attrs["AWS.SNS.SMS.SenderID"] = snstypes.MessageAttributeValue{DataType: aws.String("String"), StringValue: aws.String(s.SenderID)}
	}
	if !strings.HasPrefix(to, "+") {
		to = "+" + to
	}
	out, err := s.inner.Publish(ctx, &sns.PublishInput{
		PhoneNumber:       aws.String(to),
		Message:           aws.String(message),
		MessageAttributes: attrs,
	})
	if err != nil {
		return err
	}
	log.Printf("[SNS] sms sent with id: %s\n", aws.ToString(out.MessageId))
	return nil
}

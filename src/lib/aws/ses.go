package aws

import (
	"context"
	"log"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/judy2649/the-grey-pegeant/src/lib"
)

type SESAPI interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

var sesClient SESAPI

func GetSESClient() SESAPI {
	if sesClient != nil {
		return sesClient
	}
	if c := lib.AWSGetSESClient(); c != nil {
		sesClient = c
	}
	return sesClient
}

// NewSESClient replaces the SES client, mainly for tests.
func NewSESClient(c SESAPI) {
	sesClient = c
}

func SESSendMessage(ctx context.Context, from string, to []string, subject, htmlBody string) error {
	c := GetSESClient()
	if c == nil {
		return errUnavailable("ses")
	}
	input := &ses.SendEmailInput{
		Destination: &types.Destination{ToAddresses: to},
		Source:      aws.String(from),
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject), Charset: aws.String("UTF-8")},
			Body: &types.Body{
				Html: &types.Content{Data: aws.String(htmlBody), Charset: aws.String("UTF-8")},
			},
		},
	}
	out, err := c.SendEmail(ctx, input)
	if err != nil {
		log.Printf("Error sending email: %s\n", err.Error())
		return err
	}
	log.Printf("Sent email with id: %s\n", *out.MessageId)
	return nil
}

package aws

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSNS struct {
	input *sns.PublishInput
	err   error
}

func (f *fakeSNS) Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
	f.input = params
	if f.err != nil {
		return nil, f.err
	}
	return &sns.PublishOutput{MessageId: aws.String("m-1")}, nil
}

type fakeSES struct {
	input *ses.SendEmailInput
}

func (f *fakeSES) SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	f.input = params
	return &ses.SendEmailOutput{MessageId: aws.String("e-1")}, nil
}

func TestSNSSMSSenderPublishesE164(t *testing.T) {
	f := &fakeSNS{}
	s := NewSNSSMSSenderWith(f, "GREY")
	require.True(t, s.Configured())

	err := s.SendSMS(context.Background(), "254712345678", "hello")

	require.NoError(t, err)
	assert.Equal(t, "+254712345678", aws.ToString(f.input.PhoneNumber))
	assert.Equal(t, "hello", aws.ToString(f.input.Message))
	assert.Equal(t, "GREY", aws.ToString(f.input.MessageAttributes["AWS.SNS.SMS.SenderID"].StringValue))
}

func TestSNSSMSSenderPropagatesErrors(t *testing.T) {
	s := NewSNSSMSSenderWith(&fakeSNS{err: errors.New("throttled")}, "")
	assert.Error(t, s.SendSMS(context.Background(), "+254712345678", "hello"))
	assert.False(t, NewSNSSMSSenderWith(nil, "").Configured())
}

func TestSESSendMessage(t *testing.T) {
	f := &fakeSES{}
	NewSESClient(f)
	defer NewSESClient(nil)

	err := SESSendMessage(context.Background(), "tickets@example.com", []string{"t@test.com"}, "Your ticket", "<p>hi</p>")

	require.NoError(t, err)
	assert.Equal(t, []string{"t@test.com"}, f.input.Destination.ToAddresses)
	assert.Equal(t, "Your ticket", aws.ToString(f.input.Message.Subject.Data))
}

func TestTicketArchiveRequiresBucket(t *testing.T) {
	a := NewTicketArchive("")
	assert.False(t, a.Configured())
	_, err := a.Upload(context.Background(), "k", "/nonexistent")
	assert.Error(t, err)
}

type fakeSecrets struct {
	value string
}

func (f *fakeSecrets) GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error) {
	return &secretsmanager.GetSecretValueOutput{SecretString: aws.String(f.value)}, nil
}

func TestLoadSecretsKeepsExistingEnv(t *testing.T) {
	t.Setenv("CALLBACK_SECRET", "from-env")
	t.Setenv("STRIPE_WEBHOOK_SECRET", "")
	os.Unsetenv("STRIPE_WEBHOOK_SECRET")
	defer os.Unsetenv("STRIPE_WEBHOOK_SECRET")

	err := loadSecrets(context.Background(), &fakeSecrets{value: `{"CALLBACK_SECRET":"from-aws","STRIPE_WEBHOOK_SECRET":"whsec_1"}`}, "api")

	require.NoError(t, err)
	assert.Equal(t, "from-env", os.Getenv("CALLBACK_SECRET"))
	assert.Equal(t, "whsec_1", os.Getenv("STRIPE_WEBHOOK_SECRET"))
}

func TestLoadSecretsRejectsMalformedJSON(t *testing.T) {
	err := loadSecrets(context.Background(), &fakeSecrets{value: "not json"}, "api")
	assert.Error(t, err)
}

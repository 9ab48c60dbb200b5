package lib

import (
	"context"
	"log"
	"os"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sts"
)

var (
	awsConfig     *aws.Config
	awsConfigOnce sync.Once
	awsConfigErr  error
)

// awsGetSdkConfig loads the default AWS config, assuming AWS_IAM_ROLE_ARN when set.
func awsGetSdkConfig() (*aws.Config, error) {
	awsConfigOnce.Do(func() {
		cfg, err := config.LoadDefaultConfig(context.TODO())
		if err != nil {
			log.Printf("Error loading default config: %s\n", err.Error())
			awsConfigErr = err
			return
		}
		iamRole := os.Getenv("AWS_IAM_ROLE_ARN")
		if iamRole == "" {
			awsConfig = &cfg
			return
		}
		stsClient := sts.NewFromConfig(cfg)
		output, err := stsClient.AssumeRole(context.TODO(), &sts.AssumeRoleInput{
			RoleArn:         aws.String(iamRole),
			RoleSessionName: aws.String("grey-pageant-api"),
		})
		if err != nil {
			log.Printf("Error configuring STS client: %s\n", err.Error())
			awsConfigErr = err
			return
		}
		creds := output.Credentials
		cfg, err = config.LoadDefaultConfig(context.TODO(), config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(*creds.AccessKeyId, *creds.SecretAccessKey, *creds.SessionToken),
		))
		if err != nil {
			log.Printf("Error configuration: %s\n", err.Error())
			awsConfigErr = err
			return
		}
		awsConfig = &cfg
	})
	return awsConfig, awsConfigErr
}

func AWSGetS3Client() *s3.Client {
	cfg, err := awsGetSdkConfig()
	if err != nil {
		log.Printf("Failed to iniialize S3: %s\n", err.Error())
		return nil
	}
	return s3.NewFromConfig(*cfg)
}

func AWSGetSQSClient() *sqs.Client {
	cfg, err := awsGetSdkConfig()
	if err != nil {
		log.Printf("Failed to initialize SQS client: %s\n", err.Error())
		return nil
	}
	return sqs.NewFromConfig(*cfg)
}

func AWSGetSNSClient() *sns.Client {
	cfg, err := awsGetSdkConfig()
	if err != nil {
		log.Printf("Failed to initialize SNS client: %s\n", err.Error())
		return nil
	}
	return sns.NewFromConfig(*cfg)
}

func AWSGetSESClient() *ses.Client {
	cfg, err := awsGetSdkConfig()
	if err != nil {
		log.Printf("Failed to initialize SES client: %s\n", err.Error())
		return nil
	}
	return ses.NewFromConfig(*cfg)
}

func AWSGetSecretsManagerClient() *secretsmanager.Client {
	cfg, err := awsGetSdkConfig()
	if err != nil {
		log.Printf("Failed to initialize Secrets Manager client: %s\n", err.Error())
		return nil
	}
	return secretsmanager.NewFromConfig(*cfg)
}

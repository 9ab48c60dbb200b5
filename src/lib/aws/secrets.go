package aws

import (
	"context"
	"encoding/json"
	"log"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/judy2649/the-grey-pegeant/src/lib"
)

type SecretsAPI interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// LoadSecretsIntoEnv reads a JSON secret and exports each key that is not already set.
func LoadSecretsIntoEnv(ctx context.Context, secretID string) error {
	client := lib.AWSGetSecretsManagerClient()
	if client == nil {
		return errUnavailable("secrets manager")
	}
	return loadSecrets(ctx, client, secretID)
}

func loadSecrets(ctx context.Context, client SecretsAPI, secretID string) error {
	out, err := client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(secretID),
	})
	if err != nil {
		return err
	}
	var values map[string]string
	if err := json.Unmarshal([]byte(aws.ToString(out.SecretString)), &values); err != nil {
		return err
	}
	n := 0
	for k, v := range values {
		if _, ok := os.LookupEnv(k); ok {
			continue
		}
		os.Setenv(k, v)
		n++
	}
	log.Printf("[Secrets] loaded %d values from %s\n", n, secretID)
	return nil
}

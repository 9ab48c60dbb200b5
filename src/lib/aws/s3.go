package aws

import (
	"context"
	"errors"
	"log"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/judy2649/the-grey-pegeant/src/lib"
)

// TicketArchive stores rendered ticket images in an S3 bucket.
type TicketArchive struct {
	Bucket string
}

func NewTicketArchive(bucket string) *TicketArchive {
	return &TicketArchive{Bucket: bucket}
}

func (t *TicketArchive) Configured() bool {
	return t != nil && t.Bucket != ""
}

// Upload puts the file at f under key and returns a presigned URL valid for a day.
func (t *TicketArchive) Upload(ctx context.Context, key string, f string) (string, error) {
	if !t.Configured() {
		return "", errors.New("ticket bucket not configured")
	}
	file, err := os.Open(f)
	if err != nil {
		log.Printf("Could not open file to upload: %s\n", err.Error())
		return "", err
	}
	defer file.Close()
	client := lib.AWSGetS3Client()
	if client == nil {
		return "", errUnavailable("s3")
	}
	_, err = client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(t.Bucket),
		Key:         aws.String(key),
		Body:        file,
		ContentType: aws.String("image/jpeg"),
	})
	if err != nil {
		log.Printf("Could not put object to S3 bucket: %s\n", err.Error())
		return "", err
	}
	log.Printf("Added object '%s' to bucket '%s'", key, t.Bucket)
	pre := s3.NewPresignClient(client)
	r, err := pre.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(t.Bucket),
		Key:    aws.String(key),
	}, func(po *s3.PresignOptions) {
		po.Expires = 24 * time.Hour
	})
	if err != nil {
		log.Printf("Could not generate presigned URL for object [%s]: %s\n", key, err.Error())
		return "", err
	}
	return r.URL, nil
}

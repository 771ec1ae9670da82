package aws

import (
	"context"
	"fmt"
	"os"
	"path"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type s3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Archiver keeps a copy of every processed import file.
type S3Archiver struct {
	client s3API
	bucket string
	prefix string
}

func NewS3Archiver(cfg sdkaws.Config, bucket, prefix string) *S3Archiver {
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = true
	})
	return &S3Archiver{client: client, bucket: bucket, prefix: prefix}
}

// Archive uploads the file at localPath under the archiver's prefix and
// returns the object key.
func (a *S3Archiver) Archive(ctx context.Context, name, localPath string) (string, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", localPath, err)
	}
	defer f.Close()

	key := path.Join(a.prefix, name)
	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: sdkaws.String(a.bucket),
		Key:    sdkaws.String(key),
		Body:   f,
	})
	if err != nil {
		return "", fmt.Errorf("put s3://%s/%s: %w", a.bucket, key, err)
	}
	return key, nil
}

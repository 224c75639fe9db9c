package record

import (
	"bytes"
	"context"
	"strings"

	"mail-unsubscriber/internal/models"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/pkg/errors"
)

type objectPutter interface {
	PutObjectWithContext(ctx aws.Context, input *s3.PutObjectInput, opts ...request.Option) (*s3.PutObjectOutput, error)
}

// S3Recorder mirrors the link record to an S3 object, overwriting it on each run
type S3Recorder struct {
	client objectPutter
	bucket string
	key    string
}

// NewS3Recorder builds a recorder using the default AWS credential chain
func NewS3Recorder(cfg models.S3Output) (*S3Recorder, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, errors.New("s3 bucket is required")
	}

	awsCfg := aws.NewConfig()
	if cfg.Region != "" {
		awsCfg = awsCfg.WithRegion(cfg.Region)
	}
	if cfg.Endpoint != "" {
		awsCfg = awsCfg.WithEndpoint(cfg.Endpoint).WithS3ForcePathStyle(true)
	}

	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, errors.Wrap(err, "create aws session")
	}

	return &S3Recorder{client: s3.New(sess), bucket: cfg.Bucket, key: cfg.Key}, nil
}

func (r *S3Recorder) Save(ctx context.Context, links []string) error {
	_, err := r.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(r.bucket),
		Key:         aws.String(r.key),
		Body:        bytes.NewReader(Format(links)),
		ContentType: aws.String("text/plain; charset=utf-8"),
	})
	if err != nil {
		return errors.Wrapf(err, "upload s3://%s/%s", r.bucket, r.key)
	}
	return nil
}

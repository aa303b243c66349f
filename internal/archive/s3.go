// Package archive stores screening transcripts in object storage for
// compliance retention. Archival is best-effort: the screening pipeline
// proceeds whether or not the upload lands.
package archive

import (
	"context"
	"fmt"
	"strings"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
)

// S3Archiver uploads transcripts to an S3 bucket, keyed by date and
// execution id.
type S3Archiver struct {
	uploader *manager.Uploader
	bucket   string
	prefix   string
	log      zerolog.Logger
}

// NewS3Archiver creates an archiver against the given bucket using the
// ambient AWS credential chain.
func NewS3Archiver(ctx context.Context, bucket, prefix, region string, log zerolog.Logger) (*S3Archiver, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(cfg)

	return &S3Archiver{
		uploader: manager.NewUploader(client),
		bucket:   bucket,
		prefix:   strings.Trim(prefix, "/"),
		log:      log.With().Str("component", "archive").Logger(),
	}, nil
}

// ArchiveTranscript uploads one transcript. The object key embeds the
// upload date so retention policies can expire by prefix.
func (a *S3Archiver) ArchiveTranscript(ctx context.Context, executionID, transcript string) error {
	key := fmt.Sprintf("%s/%s/%s.txt", a.prefix, time.Now().UTC().Format("2006/01/02"), executionID)
	if a.prefix == "" {
		key = strings.TrimPrefix(key, "/")
	}

	contentType := "text/plain; charset=utf-8"
	_, err := a.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      &a.bucket,
		Key:         &key,
		Body:        strings.NewReader(transcript),
		ContentType: &contentType,
	})
	if err != nil {
		return fmt.Errorf("failed to upload transcript %s: %w", executionID, err)
	}

	a.log.Debug().
		Str("execution_id", executionID).
		Str("key", key).
		Msg("Transcript archived")

	return nil
}

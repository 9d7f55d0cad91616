package utils

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"
)

// PhotoArchive stores intake photos in S3 so resolutions can be
// audited later. Archiving is best-effort: a failed upload is logged
// and never blocks the intake itself.
type PhotoArchive struct {
	client *s3.Client
	bucket string
	logger *zap.Logger
}

func NewPhotoArchive(ctx context.Context, region, bucket string, logger *zap.Logger) (*PhotoArchive, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config for S3: %w", err)
	}
	return &PhotoArchive{client: s3.NewFromConfig(cfg), bucket: bucket, logger: logger}, nil
}

// Archive uploads the photo under a per-user, timestamped key and
// returns the key. Runs inline; call from a goroutine when latency
// matters.
func (a *PhotoArchive) Archive(ctx context.Context, userID uint, imageBytes []byte) (string, error) {
	key := fmt.Sprintf("intake-photos/%d/%d.jpg", userID, time.Now().UnixNano())

	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(imageBytes),
		ContentType: aws.String("image/jpeg"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload photo to S3: %w", err)
	}
	return key, nil
}

// ArchiveAsync fires Archive in the background with its own timeout.
func (a *PhotoArchive) ArchiveAsync(userID uint, imageBytes []byte) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if _, err := a.Archive(ctx, userID, imageBytes); err != nil {
			a.logger.Warn("photo archive failed",
				zap.Uint("user_id", userID),
				zap.Error(err))
		}
	}()
}

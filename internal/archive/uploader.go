package archive

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"time"

	appconfig "deposit-backend/internal/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Uploader pushes report exports to R2/S3 object storage so finance keeps a
// copy of what was handed to the accountant. A nil Uploader is valid and
// skips uploads.
type Uploader struct {
	client *s3.Client
	bucket string
}

// NewUploader builds an uploader from config, or nil when archiving is
// disabled or misconfigured.
func NewUploader(cfg *appconfig.Config) *Uploader {
	if !cfg.Archive.Enabled {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.Archive.AccessKey,
			cfg.Archive.SecretKey,
			"",
		)),
		awsconfig.WithRegion(cfg.Archive.Region),
	)
	if err != nil {
		log.Printf("[Archive] Failed to configure client, uploads disabled: %v", err)
		return nil
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Archive.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Archive.Endpoint)
		}
	})

	return &Uploader{client: client, bucket: cfg.Archive.Bucket}
}

// UploadExport stores an export under exports/<tenant>/<name>. Runs in the
// request path after the CSV is already written to the client, so failures
// are logged, not returned.
func (u *Uploader) UploadExport(ctx context.Context, tenantID int, name string, contentType string, data []byte) {
	if u == nil {
		return
	}

	key := fmt.Sprintf("exports/%d/%s", tenantID, name)
	_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		log.Printf("[Archive] Failed to upload %s: %v", key, err)
		return
	}
	log.Printf("[Archive] Uploaded %s (%d bytes)", key, len(data))
}

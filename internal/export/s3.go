// Package export writes inventory snapshots to S3-compatible object storage.
package export

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"

	"github.com/edvin/bgpvpn/internal/config"
	"github.com/edvin/bgpvpn/internal/core"
	"github.com/edvin/bgpvpn/internal/model"
)

// objectPutter is the subset of *s3.Client used by the Uploader.
type objectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Uploader stores snapshots as JSON objects in a bucket.
type Uploader struct {
	logger zerolog.Logger
	client objectPutter
	bucket string
}

// NewUploader creates an Uploader for the S3 settings in cfg.
func NewUploader(logger zerolog.Logger, cfg *config.Config) *Uploader {
	opts := s3.Options{
		Region:       cfg.S3Region,
		UsePathStyle: true,
	}
	if cfg.S3Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.S3Endpoint)
	}
	if cfg.S3AccessKey != "" {
		opts.Credentials = credentials.NewStaticCredentialsProvider(cfg.S3AccessKey, cfg.S3SecretKey, "")
	}
	return newUploader(logger, s3.New(opts), cfg.S3Bucket)
}

func newUploader(logger zerolog.Logger, client objectPutter, bucket string) *Uploader {
	return &Uploader{
		logger: logger.With().Str("component", "snapshot-export").Logger(),
		client: client,
		bucket: bucket,
	}
}

// Upload writes snap under a key derived from its generation time and
// returns that key.
func (u *Uploader) Upload(ctx context.Context, snap *model.Snapshot) (string, error) {
	body, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}

	key := core.SnapshotKey(snap.GeneratedAt)
	_, err = u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(u.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(body),
		ContentLength: aws.Int64(int64(len(body))),
		ContentType:   aws.String("application/json"),
	})
	if err != nil {
		return "", fmt.Errorf("put snapshot %s/%s: %w", u.bucket, key, err)
	}

	u.logger.Info().
		Str("bucket", u.bucket).
		Str("key", key).
		Int("bgpvpns", len(snap.BGPVPNs)).
		Int("network_associations", len(snap.NetworkAssociations)).
		Int("router_associations", len(snap.RouterAssociations)).
		Msg("snapshot uploaded")
	return key, nil
}

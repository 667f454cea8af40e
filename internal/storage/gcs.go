package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	gcs "cloud.google.com/go/storage"
	"github.com/codetrail-lms/apiserver/config"
	"google.golang.org/api/option"
)

// GCSClient stores testcase archives in a Google Cloud Storage bucket.
// The bucket must already exist; GCS bucket creation needs project-level
// permissions the server does not hold.
type GCSClient struct {
	client *gcs.Client
	bucket string
}

// NewGCSClient constructs a GCS-backed archive store from config.
func NewGCSClient(ctx context.Context, cfg config.GCSConfig) (*GCSClient, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, errors.New("gcs bucket is required")
	}

	var opts []option.ClientOption
	if strings.TrimSpace(cfg.CredentialsFile) != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	client, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return &GCSClient{client: client, bucket: cfg.Bucket}, nil
}

func (g *GCSClient) EnsureBucket(ctx context.Context) error {
	if _, err := g.client.Bucket(g.bucket).Attrs(ctx); err != nil {
		return fmt.Errorf("gcs bucket %q not accessible: %w", g.bucket, err)
	}
	return nil
}

func (g *GCSClient) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	w := g.client.Bucket(g.bucket).Object(key).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return err
	}
	return w.Close()
}

func (g *GCSClient) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	return g.client.Bucket(g.bucket).Object(key).NewReader(ctx)
}

func (g *GCSClient) Bucket() string {
	return g.bucket
}

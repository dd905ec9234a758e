package archive

import (
	"context"
	"fmt"

	"cloud.google.com/go/storage"
	"go.uber.org/zap"

	"github.com/seoforge/seopipe/internal/signal"
)

// GCS archives page bodies to a Google Cloud Storage bucket.
// Authentication uses Application Default Credentials.
type GCS struct {
	client *storage.Client
	bucket string
	clock  signal.Clock
	logger *zap.Logger
}

// NewGCS initializes a GCS client and verifies bucket access so a bad
// bucket name fails at startup rather than on the first analysis.
func NewGCS(ctx context.Context, bucket string, clock signal.Clock, logger *zap.Logger) (*GCS, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create gcs client: %w", err)
	}
	if _, err := client.Bucket(bucket).Attrs(ctx); err != nil {
		if cerr := client.Close(); cerr != nil {
			logger.Warn("close gcs client after attrs failure", zap.Error(cerr))
		}
		return nil, fmt.Errorf("get gcs bucket %q attributes: %w", bucket, err)
	}
	return &GCS{client: client, bucket: bucket, clock: clockOrSystem(clock), logger: logger}, nil
}

// Store uploads body to a derived object in the bucket.
func (g *GCS) Store(ctx context.Context, pageURL string, body []byte) error {
	name, err := ObjectName(pageURL, g.clock.Now())
	if err != nil {
		return err
	}

	wc := g.client.Bucket(g.bucket).Object(name).NewWriter(ctx)
	if _, err := wc.Write(body); err != nil {
		if cerr := wc.Close(); cerr != nil {
			g.logger.Warn("close gcs writer after write failure", zap.Error(cerr))
		}
		return fmt.Errorf("write gcs object %s: %w", name, err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("close gcs writer for object %s: %w", name, err)
	}
	return nil
}

// Close releases the underlying client.
func (g *GCS) Close() error {
	return g.client.Close()
}

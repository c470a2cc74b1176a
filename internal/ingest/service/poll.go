package service

import (
	"context"
	"fmt"
	"io"
	"time"

	integrationdomain "github.com/costplane/costplane/internal/integration/domain"
	"github.com/costplane/costplane/internal/pollworker"
	s3store "github.com/costplane/costplane/internal/storage/s3"
	uploaddomain "github.com/costplane/costplane/internal/upload/domain"
	"github.com/costplane/costplane/pkg/tenantctx"
	"go.uber.org/zap"
)

// ExportStore is the slice of the object store the poll function needs.
type ExportStore interface {
	ListNewExports(ctx context.Context, bucket, region, prefix string, since *time.Time) ([]s3store.Object, error)
	FetchExport(ctx context.Context, bucket, region, key string) (io.ReadCloser, error)
}

// NewPollFunc builds the per-integration poll operation handed to the
// poll worker: discover exports newer than the integration's watermark
// and push each through the ingestion pipeline as its own upload.
func NewPollFunc(log *zap.Logger, store ExportStore, uploads uploaddomain.Service, pipeline *Pipeline) pollworker.PollFunc {
	log = log.Named("ingest.poll")

	return func(ctx context.Context, integration integrationdomain.ClientS3Integration) error {
		ctx = tenantctx.WithClientID(ctx, integration.ClientID)

		objects, err := store.ListNewExports(ctx, integration.Bucket, integration.Region, integration.Prefix, integration.LastPolledAt)
		if err != nil {
			return fmt.Errorf("list exports in %s: %w", integration.Bucket, err)
		}

		for _, object := range objects {
			if err := ingestObject(ctx, store, uploads, pipeline, integration, object); err != nil {
				return fmt.Errorf("ingest %s: %w", object.Key, err)
			}
			log.Info("export ingested",
				zap.String("client_id", integration.ClientID.String()),
				zap.String("bucket", integration.Bucket),
				zap.String("key", object.Key),
			)
		}
		return nil
	}
}

func ingestObject(ctx context.Context, store ExportStore, uploads uploaddomain.Service, pipeline *Pipeline, integration integrationdomain.ClientS3Integration, object s3store.Object) error {
	body, err := store.FetchExport(ctx, integration.Bucket, integration.Region, object.Key)
	if err != nil {
		return err
	}
	defer body.Close()

	headers, records, err := ReadCSV(body)
	if err != nil {
		return err
	}

	upload, err := uploads.Create(ctx, integration.ClientID, integration.Provider, object.Key)
	if err != nil {
		return err
	}
	return pipeline.IngestRows(ctx, upload.ID, integration.ClientID, integration.Provider, headers, records)
}

package service

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/costplane/costplane/internal/canonical"
	factdomain "github.com/costplane/costplane/internal/fact/domain"
	integrationdomain "github.com/costplane/costplane/internal/integration/domain"
	s3store "github.com/costplane/costplane/internal/storage/s3"
	uploaddomain "github.com/costplane/costplane/internal/upload/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeExportStore struct {
	objects []s3store.Object
	payload string

	listRegion string
	getRegion  string
	since      *time.Time
}

func (f *fakeExportStore) ListNewExports(ctx context.Context, bucket, region, prefix string, since *time.Time) ([]s3store.Object, error) {
	f.listRegion = region
	f.since = since
	return f.objects, nil
}

func (f *fakeExportStore) FetchExport(ctx context.Context, bucket, region, key string) (io.ReadCloser, error) {
	f.getRegion = region
	return io.NopCloser(strings.NewReader(f.payload)), nil
}

func TestPollFunc_IngestsNewExportsWithIntegrationRegion(t *testing.T) {
	env := setupPipeline(t)
	ctx := context.Background()

	watermark := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	integration := integrationdomain.ClientS3Integration{
		ID:           env.node.Generate(),
		ClientID:     env.node.Generate(),
		Provider:     canonical.ProviderFOCUS,
		Bucket:       "tenant-exports",
		Region:       "ap-southeast-2",
		Enabled:      true,
		LastPolledAt: &watermark,
	}

	store := &fakeExportStore{
		objects: []s3store.Object{{Key: "exports/august.csv", LastModified: watermark.AddDate(0, 0, 1)}},
		payload: strings.Join([]string{
			"providername,billingaccountid,servicename,billedcost",
			"aws,acct-1001,AmazonEC2,2.5",
		}, "\n"),
	}

	poll := NewPollFunc(zap.NewNop(), store, env.uploads, env.pipeline)
	require.NoError(t, poll(ctx, integration))

	assert.Equal(t, "ap-southeast-2", store.listRegion, "listing must use the integration's region")
	assert.Equal(t, "ap-southeast-2", store.getRegion, "fetching must use the integration's region")
	require.NotNil(t, store.since)
	assert.True(t, store.since.Equal(watermark))

	var upload uploaddomain.Upload
	require.NoError(t, env.db.Where("client_id = ?", integration.ClientID).First(&upload).Error)
	assert.Equal(t, uploaddomain.StatusCompleted, upload.Status)
	assert.Equal(t, "exports/august.csv", upload.FileName)

	var facts int64
	require.NoError(t, env.db.Model(&factdomain.BillingFact{}).
		Where("upload_id = ?", upload.ID).Count(&facts).Error)
	assert.EqualValues(t, 1, facts)
}

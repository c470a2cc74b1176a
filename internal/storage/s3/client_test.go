package s3

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubAPI struct {
	objects []types.Object
	body    string

	listRegion string
	getRegion  string
	getKey     string
}

func (s *stubAPI) ListObjectsV2(ctx context.Context, params *awss3.ListObjectsV2Input, optFns ...func(*awss3.Options)) (*awss3.ListObjectsV2Output, error) {
	opts := awss3.Options{}
	for _, fn := range optFns {
		fn(&opts)
	}
	s.listRegion = opts.Region
	return &awss3.ListObjectsV2Output{Contents: s.objects}, nil
}

func (s *stubAPI) GetObject(ctx context.Context, params *awss3.GetObjectInput, optFns ...func(*awss3.Options)) (*awss3.GetObjectOutput, error) {
	opts := awss3.Options{}
	for _, fn := range optFns {
		fn(&opts)
	}
	s.getRegion = opts.Region
	s.getKey = *params.Key
	return &awss3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(s.body))}, nil
}

func strPtr(s string) *string        { return &s }
func timePtr(t time.Time) *time.Time { return &t }
func int64Ptr(n int64) *int64        { return &n }

func TestListNewExports_FiltersAndSorts(t *testing.T) {
	day1 := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	day2 := day1.AddDate(0, 0, 1)
	day3 := day1.AddDate(0, 0, 2)

	api := &stubAPI{objects: []types.Object{
		{Key: strPtr("exports/cur-day3.csv"), LastModified: timePtr(day3), Size: int64Ptr(30)},
		{Key: strPtr("exports/manifest.json"), LastModified: timePtr(day3), Size: int64Ptr(1)},
		{Key: strPtr("exports/cur-day1.csv"), LastModified: timePtr(day1), Size: int64Ptr(10)},
		{Key: strPtr("exports/cur-day2.csv"), LastModified: timePtr(day2), Size: int64Ptr(20)},
	}}
	client := &Client{api: api, log: zap.NewNop()}

	// Strictly after the watermark: day1 itself is excluded.
	objects, err := client.ListNewExports(context.Background(), "tenant-exports", "eu-west-1", "exports/", &day1)
	require.NoError(t, err)

	require.Len(t, objects, 2)
	assert.Equal(t, "exports/cur-day2.csv", objects[0].Key)
	assert.Equal(t, "exports/cur-day3.csv", objects[1].Key)
	assert.Equal(t, "eu-west-1", api.listRegion, "the bucket's region must reach the request")
}

func TestListNewExports_NilWatermarkReturnsEverything(t *testing.T) {
	day := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	api := &stubAPI{objects: []types.Object{
		{Key: strPtr("a.csv"), LastModified: timePtr(day)},
		{Key: strPtr("b.CSV"), LastModified: timePtr(day.Add(time.Hour))},
	}}
	client := &Client{api: api, log: zap.NewNop()}

	objects, err := client.ListNewExports(context.Background(), "tenant-exports", "", "", nil)
	require.NoError(t, err)
	assert.Len(t, objects, 2)
	assert.Empty(t, api.listRegion, "empty region falls back to the client default")
}

func TestFetchExport_CarriesRegion(t *testing.T) {
	api := &stubAPI{body: "header\nrow"}
	client := &Client{api: api, log: zap.NewNop()}

	body, err := client.FetchExport(context.Background(), "tenant-exports", "us-west-2", "exports/cur.csv")
	require.NoError(t, err)
	defer body.Close()

	payload, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, "header\nrow", string(payload))
	assert.Equal(t, "us-west-2", api.getRegion)
	assert.Equal(t, "exports/cur.csv", api.getKey)
}

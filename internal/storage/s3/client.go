// Package s3 wraps the AWS SDK client with the two operations the poll
// worker needs: list billing exports newer than a watermark and fetch
// one export's contents.
package s3

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"
)

type api interface {
	ListObjectsV2(ctx context.Context, params *awss3.ListObjectsV2Input, optFns ...func(*awss3.Options)) (*awss3.ListObjectsV2Output, error)
	GetObject(ctx context.Context, params *awss3.GetObjectInput, optFns ...func(*awss3.Options)) (*awss3.GetObjectOutput, error)
}

type Client struct {
	api api
	log *zap.Logger
}

// Object describes one listed export file.
type Object struct {
	Key          string
	Size         int64
	LastModified time.Time
}

// New builds a client on the default credential chain. region is the
// fallback; every call takes the bucket's own region and overrides it
// when set, so one client serves tenants across regions.
func New(ctx context.Context, region string, log *zap.Logger) (*Client, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return &Client{
		api: awss3.NewFromConfig(cfg),
		log: log.Named("storage.s3"),
	}, nil
}

func regionOpt(region string) func(*awss3.Options) {
	return func(o *awss3.Options) {
		if region != "" {
			o.Region = region
		}
	}
}

// ListNewExports returns CSV objects under prefix modified strictly
// after since, oldest first. A nil since returns everything.
func (c *Client) ListNewExports(ctx context.Context, bucket, region, prefix string, since *time.Time) ([]Object, error) {
	input := &awss3.ListObjectsV2Input{
		Bucket: &bucket,
	}
	if prefix != "" {
		input.Prefix = &prefix
	}

	var objects []Object
	paginator := awss3.NewListObjectsV2Paginator(c.api, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx, regionOpt(region))
		if err != nil {
			return nil, fmt.Errorf("list objects in %s: %w", bucket, err)
		}
		for _, item := range page.Contents {
			if item.Key == nil || item.LastModified == nil {
				continue
			}
			if !strings.HasSuffix(strings.ToLower(*item.Key), ".csv") {
				continue
			}
			if since != nil && !item.LastModified.After(*since) {
				continue
			}
			size := int64(0)
			if item.Size != nil {
				size = *item.Size
			}
			objects = append(objects, Object{
				Key:          *item.Key,
				Size:         size,
				LastModified: item.LastModified.UTC(),
			})
		}
	}

	sort.Slice(objects, func(i, j int) bool {
		return objects[i].LastModified.Before(objects[j].LastModified)
	})
	c.log.Debug("listed exports",
		zap.String("bucket", bucket),
		zap.String("prefix", prefix),
		zap.Int("objects", len(objects)),
	)
	return objects, nil
}

// FetchExport opens one export for reading. The caller owns the close.
func (c *Client) FetchExport(ctx context.Context, bucket, region, key string) (io.ReadCloser, error) {
	out, err := c.api.GetObject(ctx, &awss3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, regionOpt(region))
	if err != nil {
		return nil, fmt.Errorf("get object %s/%s: %w", bucket, key, err)
	}
	return out.Body, nil
}

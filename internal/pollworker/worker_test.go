package pollworker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/costplane/costplane/internal/clock"
	integrationdomain "github.com/costplane/costplane/internal/integration/domain"
	"github.com/costplane/costplane/internal/integration/repository"
	"github.com/costplane/costplane/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupWorker(t *testing.T, poll PollFunc) (*gorm.DB, *Worker, *snowflake.Node) {
	t.Helper()

	dbConn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, dbConn.AutoMigrate(&integrationdomain.ClientS3Integration{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	worker, err := New(Params{
		DB:    dbConn,
		Log:   zap.NewNop(),
		Repo:  repository.Provide(),
		Clock: clock.NewFakeClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)),
		Poll:  poll,
	})
	require.NoError(t, err)
	return dbConn, worker, node
}

func insertIntegration(t *testing.T, dbConn *gorm.DB, node *snowflake.Node, bucket string, enabled bool, lastPolledAt *time.Time) integrationdomain.ClientS3Integration {
	t.Helper()
	integration := integrationdomain.ClientS3Integration{
		ID:           node.Generate(),
		ClientID:     node.Generate(),
		Provider:     "aws",
		Bucket:       bucket,
		Enabled:      enabled,
		LastPolledAt: lastPolledAt,
		CreatedAt:    time.Now().UTC(),
		UpdatedAt:    time.Now().UTC(),
	}
	require.NoError(t, repository.Provide().Insert(context.Background(), dbConn, &integration))
	return integration
}

func TestWorker_TickIsolatesFailures(t *testing.T) {
	var failBucket string
	poll := func(ctx context.Context, integration integrationdomain.ClientS3Integration) error {
		if integration.Bucket == failBucket {
			return errors.New("bucket unreachable: access denied")
		}
		return nil
	}

	dbConn, worker, node := setupWorker(t, poll)
	failBucket = "tenant-b-exports"

	prior := time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC)
	healthy := insertIntegration(t, dbConn, node, "tenant-a-exports", true, nil)
	broken := insertIntegration(t, dbConn, node, "tenant-b-exports", true, &prior)

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	summary, err := worker.Tick(context.Background(), now)
	require.NoError(t, err)

	assert.Equal(t, Summary{Processed: 2, Succeeded: 1, Failed: 1}, summary)
	assert.Equal(t, summary.Processed, summary.Succeeded+summary.Failed)

	// Fresh destination per lookup: gorm folds a previously populated
	// primary key into the next query's conditions.
	var gotHealthy integrationdomain.ClientS3Integration
	require.NoError(t, dbConn.First(&gotHealthy, "id = ?", healthy.ID).Error)
	require.NotNil(t, gotHealthy.LastPolledAt)
	assert.True(t, gotHealthy.LastPolledAt.Equal(now))
	assert.Nil(t, gotHealthy.LastError)

	var gotBroken integrationdomain.ClientS3Integration
	require.NoError(t, dbConn.First(&gotBroken, "id = ?", broken.ID).Error)
	require.NotNil(t, gotBroken.LastPolledAt)
	assert.True(t, gotBroken.LastPolledAt.Equal(prior), "failed poll must not advance the watermark")
	require.NotNil(t, gotBroken.LastError)
	assert.Contains(t, *gotBroken.LastError, "access denied")
}

func TestWorker_TickSkipsDisabledIntegrations(t *testing.T) {
	var mu sync.Mutex
	polled := map[string]bool{}
	poll := func(ctx context.Context, integration integrationdomain.ClientS3Integration) error {
		mu.Lock()
		defer mu.Unlock()
		polled[integration.Bucket] = true
		return nil
	}

	dbConn, worker, node := setupWorker(t, poll)
	insertIntegration(t, dbConn, node, "enabled-bucket", true, nil)
	insertIntegration(t, dbConn, node, "disabled-bucket", false, nil)

	summary, err := worker.Tick(context.Background(), time.Now().UTC())
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Processed)
	assert.True(t, polled["enabled-bucket"])
	assert.False(t, polled["disabled-bucket"])
}

func TestWorker_TickRecoversFromPanic(t *testing.T) {
	poll := func(ctx context.Context, integration integrationdomain.ClientS3Integration) error {
		if integration.Bucket == "panicky" {
			panic("nil map write")
		}
		return nil
	}

	dbConn, worker, node := setupWorker(t, poll)
	insertIntegration(t, dbConn, node, "panicky", true, nil)
	insertIntegration(t, dbConn, node, "steady", true, nil)

	summary, err := worker.Tick(context.Background(), time.Now().UTC())
	require.NoError(t, err)

	assert.Equal(t, Summary{Processed: 2, Succeeded: 1, Failed: 1}, summary)

	var broken integrationdomain.ClientS3Integration
	require.NoError(t, dbConn.First(&broken, "bucket = ?", "panicky").Error)
	require.NotNil(t, broken.LastError)
	assert.Contains(t, *broken.LastError, "poll panicked")
}

func TestWorker_SuccessClearsPreviousError(t *testing.T) {
	poll := func(ctx context.Context, integration integrationdomain.ClientS3Integration) error {
		return nil
	}

	dbConn, worker, node := setupWorker(t, poll)
	integration := insertIntegration(t, dbConn, node, "recovering", true, nil)
	require.NoError(t, dbConn.Model(&integrationdomain.ClientS3Integration{}).
		Where("id = ?", integration.ID).
		Update("last_error", "stale failure").Error)

	now := time.Now().UTC().Truncate(time.Second)
	_, err := worker.Tick(context.Background(), now)
	require.NoError(t, err)

	var got integrationdomain.ClientS3Integration
	require.NoError(t, dbConn.First(&got, "id = ?", integration.ID).Error)
	assert.Nil(t, got.LastError)
	require.NotNil(t, got.LastPolledAt)
	assert.True(t, got.LastPolledAt.Equal(now))
}

func TestWorker_EmptyTick(t *testing.T) {
	_, worker, _ := setupWorker(t, func(ctx context.Context, integration integrationdomain.ClientS3Integration) error {
		t.Error("poll must not run without integrations")
		return nil
	})

	summary, err := worker.Tick(context.Background(), time.Now().UTC())
	require.NoError(t, err)
	assert.Equal(t, Summary{}, summary)
}

func TestWorker_RunForeverStopsOnCancel(t *testing.T) {
	firstTick := make(chan struct{}, 1)
	poll := func(ctx context.Context, integration integrationdomain.ClientS3Integration) error {
		select {
		case firstTick <- struct{}{}:
		default:
		}
		return nil
	}

	dbConn, worker, node := setupWorker(t, poll)
	insertIntegration(t, dbConn, node, "loop-bucket", true, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		worker.RunForever(ctx)
		close(done)
	}()

	select {
	case <-firstTick:
	case <-time.After(5 * time.Second):
		t.Fatal("first tick never ran")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("RunForever did not return after cancellation")
	}
}

func TestWorker_NewValidatesDependencies(t *testing.T) {
	_, err := New(Params{})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

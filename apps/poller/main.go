package main

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/costplane/costplane/internal/clock"
	"github.com/costplane/costplane/internal/config"
	"github.com/costplane/costplane/internal/dimension"
	"github.com/costplane/costplane/internal/fact"
	factservice "github.com/costplane/costplane/internal/fact/service"
	"github.com/costplane/costplane/internal/ingest"
	ingestservice "github.com/costplane/costplane/internal/ingest/service"
	"github.com/costplane/costplane/internal/integration"
	"github.com/costplane/costplane/internal/mapping"
	"github.com/costplane/costplane/internal/migration"
	"github.com/costplane/costplane/internal/pollworker"
	s3store "github.com/costplane/costplane/internal/storage/s3"
	"github.com/costplane/costplane/internal/upload"
	uploaddomain "github.com/costplane/costplane/internal/upload/domain"
	"github.com/costplane/costplane/pkg/db"
	"github.com/costplane/costplane/pkg/log"
	redis "github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func main() {
	app := fx.New(
		config.Module,
		log.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,

		upload.Module,
		mapping.Module,
		dimension.Module,
		fact.Module,
		integration.Module,
		ingest.Module,
		pollworker.Module,

		fx.Decorate(func(factory *factservice.Factory, cfg config.Config) *factservice.Factory {
			return factory.WithBatchSize(cfg.FactBatchSize)
		}),
		fx.Provide(
			NewWorkerConfig,
			NewLocker,
			NewExportStore,
			NewPollFunc,
		),

		fx.Invoke(StartWorker),
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}

func NewWorkerConfig(cfg config.Config) pollworker.Config {
	return pollworker.FromAppConfig(cfg)
}

func NewLocker(cfg config.Config) *pollworker.Locker {
	if !cfg.PollLockEnabled || cfg.RedisAddr == "" {
		return nil
	}
	return pollworker.NewLocker(redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}))
}

func NewExportStore(log *zap.Logger) (ingestservice.ExportStore, error) {
	return s3store.New(context.Background(), "", log)
}

func NewPollFunc(log *zap.Logger, store ingestservice.ExportStore, uploads uploaddomain.Service, pipeline *ingestservice.Pipeline) pollworker.PollFunc {
	return ingestservice.NewPollFunc(log, store, uploads, pipeline)
}

func StartWorker(lc fx.Lifecycle, w *pollworker.Worker) {
	loopCtx, cancel := context.WithCancel(context.Background())
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go w.RunForever(loopCtx)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			cancel()
			return nil
		},
	})
}

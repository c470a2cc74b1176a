// Package pollworker periodically walks every enabled tenant storage
// integration and invokes a caller-supplied poll function for each,
// isolating per-tenant failures.
package pollworker

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/costplane/costplane/internal/clock"
	integrationdomain "github.com/costplane/costplane/internal/integration/domain"
	obsmetrics "github.com/costplane/costplane/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var ErrInvalidConfig = errors.New("poll worker misconfigured")

// PollFunc discovers and ingests new files for one tenant integration.
// It is treated as an opaque, possibly-failing operation; the worker
// never inspects what it did, only whether it erred.
type PollFunc func(ctx context.Context, integration integrationdomain.ClientS3Integration) error

// Summary aggregates one tick. Processed always equals
// Succeeded+Failed and matches the number of enabled integrations.
type Summary struct {
	Processed int
	Succeeded int
	Failed    int
}

// pollResult is the per-integration outcome collected during fan-out.
// A nil err means the integration's watermark was advanced.
type pollResult struct {
	integration integrationdomain.ClientS3Integration
	err         error
}

type Params struct {
	fx.In

	DB     *gorm.DB
	Log    *zap.Logger
	Repo   integrationdomain.Repository
	Clock  clock.Clock
	Poll   PollFunc
	Config Config  `optional:"true"`
	Locker *Locker `optional:"true"`
}

type Worker struct {
	db     *gorm.DB
	log    *zap.Logger
	cfg    Config
	repo   integrationdomain.Repository
	clock  clock.Clock
	poll   PollFunc
	locker *Locker
}

func New(p Params) (*Worker, error) {
	if p.DB == nil || p.Log == nil || p.Repo == nil || p.Clock == nil || p.Poll == nil {
		return nil, ErrInvalidConfig
	}
	return &Worker{
		db:     p.DB,
		log:    p.Log.Named("pollworker"),
		cfg:    p.Config.withDefaults(),
		repo:   p.Repo,
		clock:  p.Clock,
		poll:   p.Poll,
		locker: p.Locker,
	}, nil
}

// Tick polls every enabled integration once. Failures are recorded on
// the integration row and never abort the remaining integrations; now
// is injected so ticks are deterministic under test.
func (w *Worker) Tick(ctx context.Context, now time.Time) (Summary, error) {
	integrations, err := w.repo.ListEnabled(ctx, w.db)
	if err != nil {
		return Summary{}, fmt.Errorf("list enabled integrations: %w", err)
	}
	if len(integrations) == 0 {
		return Summary{}, nil
	}

	results := make([]pollResult, len(integrations))
	sem := make(chan struct{}, w.cfg.Concurrency)
	var wg sync.WaitGroup
	for i, integration := range integrations {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, integration integrationdomain.ClientS3Integration) {
			defer wg.Done()
			defer func() { <-sem }()
			results[i] = pollResult{
				integration: integration,
				err:         w.pollOne(ctx, integration),
			}
		}(i, integration)
	}
	wg.Wait()

	metrics := obsmetrics.Ingest()
	summary := Summary{Processed: len(results)}
	var tickErr error
	for _, result := range results {
		if result.err == nil {
			summary.Succeeded++
			metrics.IncPollSuccess()
			if err := w.repo.RecordPollSuccess(ctx, w.db, result.integration.ID, now); err != nil {
				tickErr = errors.Join(tickErr, err)
			}
			continue
		}

		summary.Failed++
		metrics.IncPollFailure()
		w.log.Warn("integration poll failed",
			zap.String("integration_id", result.integration.ID.String()),
			zap.String("client_id", result.integration.ClientID.String()),
			zap.String("bucket", result.integration.Bucket),
			zap.Error(result.err),
		)
		if err := w.repo.RecordPollFailure(ctx, w.db, result.integration.ID, result.err.Error(), now); err != nil {
			tickErr = errors.Join(tickErr, err)
		}
	}

	w.log.Info("poll tick finished",
		zap.Int("processed", summary.Processed),
		zap.Int("succeeded", summary.Succeeded),
		zap.Int("failed", summary.Failed),
	)
	return summary, tickErr
}

// pollOne runs the injected poll function under a per-integration
// timeout and converts panics into errors so one tenant can never take
// down the tick.
func (w *Worker) pollOne(ctx context.Context, integration integrationdomain.ClientS3Integration) (err error) {
	pollCtx, cancel := context.WithTimeout(ctx, w.cfg.Timeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			w.log.Error("integration poll panicked",
				zap.String("integration_id", integration.ID.String()),
				zap.Any("panic", r),
				zap.ByteString("stack", debug.Stack()),
			)
			err = fmt.Errorf("poll panicked: %v", r)
		}
	}()

	return w.poll(pollCtx, integration)
}

// RunForever ticks at the configured interval until ctx is canceled.
// With a locker configured, replicas race for the tick lock and losers
// skip the round.
func (w *Worker) RunForever(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.Interval)
	defer ticker.Stop()

	for {
		w.runLockedTick(ctx)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (w *Worker) runLockedTick(ctx context.Context) {
	if w.cfg.LockEnabled && w.locker != nil {
		token, ok, err := w.locker.TryLock(ctx, w.cfg.LockKey, w.cfg.LockTTL)
		if err != nil {
			w.log.Warn("tick lock unavailable", zap.Error(err))
			return
		}
		if !ok {
			w.log.Debug("tick lock held elsewhere, skipping round")
			return
		}
		defer func() {
			if err := w.locker.Release(ctx, w.cfg.LockKey, token); err != nil {
				w.log.Warn("tick lock release failed", zap.Error(err))
			}
		}()
	}

	if _, err := w.Tick(ctx, w.clock.Now()); err != nil {
		w.log.Warn("poll tick reported errors", zap.Error(err))
	}
}

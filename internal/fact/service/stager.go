package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/costplane/costplane/internal/canonical"
	dimensiondomain "github.com/costplane/costplane/internal/dimension/domain"
	factdomain "github.com/costplane/costplane/internal/fact/domain"
	obsmetrics "github.com/costplane/costplane/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type FactoryParams struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  factdomain.Repository
}

// Factory creates fact stagers. Each ingestion job owns its stager;
// the buffer is never shared across jobs.
type Factory struct {
	db        *gorm.DB
	log       *zap.Logger
	genID     *snowflake.Node
	repo      factdomain.Repository
	batchSize int
}

func NewFactory(p FactoryParams) *Factory {
	return &Factory{
		db:    p.DB,
		log:   p.Log.Named("fact.stager"),
		genID: p.GenID,
		repo:  p.Repo,
	}
}

// WithBatchSize returns a copy of the factory whose stagers insert in
// chunks of n rows.
func (f *Factory) WithBatchSize(n int) *Factory {
	clone := *f
	clone.batchSize = n
	return &clone
}

// NewStager returns an empty stager bound to one upload.
func (f *Factory) NewStager(uploadID, clientID snowflake.ID) *Stager {
	return &Stager{
		db:        f.db,
		log:       f.log.With(zap.String("upload_id", uploadID.String())),
		genID:     f.genID,
		repo:      f.repo,
		batchSize: f.batchSize,
		uploadID:  uploadID,
		clientID:  clientID,
	}
}

// Stager buffers fact rows in memory and writes them as one batch on
// Flush. Push never touches storage; Flush is the only I/O boundary.
type Stager struct {
	db        *gorm.DB
	log       *zap.Logger
	genID     *snowflake.Node
	repo      factdomain.Repository
	batchSize int

	uploadID snowflake.ID
	clientID snowflake.ID

	buffer  []factdomain.BillingFact
	dropped int
}

// Push appends one fact row built from the normalized row and its
// resolved dimension ids. No I/O.
func (s *Stager) Push(row canonical.BillingRow, ids dimensiondomain.ResolvedIDs) {
	fact := factdomain.BillingFact{
		ID:       s.genID.Generate(),
		UploadID: s.uploadID,
		ClientID: s.clientID,

		RegionID:             ids.RegionID,
		SkuID:                ids.SkuID,
		ResourceID:           ids.ResourceID,
		SubAccountID:         ids.SubAccountID,
		CommitmentDiscountID: ids.CommitmentDiscountID,

		ChargePeriodStart: row.ChargePeriodStart,
		ChargePeriodEnd:   row.ChargePeriodEnd,
		ChargeCategory:    row.ChargeCategory,
		ChargeClass:       row.ChargeClass,
		ChargeDescription: row.ChargeDescription,

		BilledCost:       row.BilledCost,
		EffectiveCost:    row.EffectiveCost,
		ListCost:         row.ListCost,
		ConsumedQuantity: row.ConsumedQuantity,
		ConsumedUnit:     row.ConsumedUnit,
		BillingCurrency:  row.BillingCurrency,
	}
	if ids.CloudAccountID != nil {
		fact.CloudAccountID = *ids.CloudAccountID
	}
	if ids.ServiceID != nil {
		fact.ServiceID = *ids.ServiceID
	}
	if len(row.Tags) > 0 {
		tags := make(map[string]any, len(row.Tags))
		for k, v := range row.Tags {
			tags[k] = v
		}
		fact.Tags = tags
	}

	s.buffer = append(s.buffer, fact)
}

// Flush batch-inserts everything buffered since the last flush. Rows
// missing a required dimension id are excluded up front so a single
// bad row never aborts its siblings; an empty buffer is a no-op. The
// buffer is cleared only after the insert succeeds, so a failed flush
// keeps the rows and can be retried.
func (s *Stager) Flush(ctx context.Context) (int, error) {
	if len(s.buffer) == 0 {
		return 0, nil
	}

	valid := make([]factdomain.BillingFact, 0, len(s.buffer))
	droppedNow := 0
	for i := range s.buffer {
		if !s.buffer[i].HasRequiredDimensions() {
			droppedNow++
			continue
		}
		valid = append(valid, s.buffer[i])
	}

	if len(valid) > 0 {
		if err := s.repo.BatchInsert(ctx, s.db, valid, s.batchSize); err != nil {
			return 0, err
		}
	}

	s.buffer = s.buffer[:0]
	s.dropped += droppedNow
	obsmetrics.Ingest().AddFactsDropped(droppedNow)
	if len(valid) == 0 {
		return 0, nil
	}

	obsmetrics.Ingest().AddFactsFlushed(len(valid))
	s.log.Debug("facts flushed",
		zap.Int("inserted", len(valid)),
		zap.Int("dropped", droppedNow),
	)

	return len(valid), nil
}

// Buffered returns the number of rows currently staged.
func (s *Stager) Buffered() int {
	return len(s.buffer)
}

// Dropped returns the total rows excluded across flushes for missing
// required dimension ids.
func (s *Stager) Dropped() int {
	return s.dropped
}

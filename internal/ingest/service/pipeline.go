// Package service orchestrates one ingestion job: normalize raw rows,
// commit dimensions, resolve surrogate ids, stage facts, and advance
// the upload record.
package service

import (
	"context"
	"fmt"

	"github.com/bwmarrin/snowflake"
	"github.com/costplane/costplane/internal/canonical"
	dimensionservice "github.com/costplane/costplane/internal/dimension/service"
	factservice "github.com/costplane/costplane/internal/fact/service"
	mappingdomain "github.com/costplane/costplane/internal/mapping/domain"
	mappingservice "github.com/costplane/costplane/internal/mapping/service"
	obsmetrics "github.com/costplane/costplane/internal/observability/metrics"
	uploaddomain "github.com/costplane/costplane/internal/upload/domain"
	"github.com/costplane/costplane/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB           *gorm.DB
	Log          *zap.Logger
	UploadSvc    uploaddomain.Service
	MappingSvc   mappingdomain.Service
	DimensionSvc *dimensionservice.Service
	FactFactory  *factservice.Factory
}

type Pipeline struct {
	db           *gorm.DB
	log          *zap.Logger
	uploadSvc    uploaddomain.Service
	mappingSvc   mappingdomain.Service
	dimensionSvc *dimensionservice.Service
	factFactory  *factservice.Factory
}

func New(p Params) *Pipeline {
	return &Pipeline{
		db:           p.DB,
		log:          p.Log.Named("ingest.pipeline"),
		uploadSvc:    p.UploadSvc,
		mappingSvc:   p.MappingSvc,
		dimensionSvc: p.DimensionSvc,
		factFactory:  p.FactFactory,
	}
}

// IngestRows runs the full pipeline for one upload. The upload moves
// PENDING → PROCESSING up front and lands on COMPLETED or FAILED; any
// stage error is recorded on the upload before it is returned.
func (p *Pipeline) IngestRows(ctx context.Context, uploadID, clientID snowflake.ID, provider string, headers []string, records []map[string]string) error {
	if _, err := p.uploadSvc.Transition(ctx, uploaddomain.TransitionRequest{
		UploadID: uploadID,
		ToStatus: uploaddomain.StatusProcessing,
	}); err != nil {
		return fmt.Errorf("start processing: %w", err)
	}

	log := p.log.With(
		zap.String("upload_id", uploadID.String()),
		zap.String("client_id", clientID.String()),
		zap.String("provider", provider),
	)

	if err := p.run(ctx, log, uploadID, clientID, provider, headers, records); err != nil {
		p.fail(ctx, log, uploadID, err)
		return err
	}

	if _, err := p.uploadSvc.Transition(ctx, uploaddomain.TransitionRequest{
		UploadID: uploadID,
		ToStatus: uploaddomain.StatusCompleted,
	}); err != nil {
		return fmt.Errorf("complete upload: %w", err)
	}
	log.Info("upload ingested", zap.Int("rows", len(records)))
	return nil
}

func (p *Pipeline) run(ctx context.Context, log *zap.Logger, uploadID, clientID snowflake.ID, provider string, headers []string, records []map[string]string) error {
	folded := canonical.FoldHeaders(headers)

	// Header bookkeeping and suggestions are best-effort: a metadata
	// write failure must not sink the whole upload.
	if err := p.mappingSvc.StoreDetectedColumns(ctx, provider, folded, clientID); err != nil {
		log.Warn("store detected columns failed", zap.Error(err))
	}
	if suggestions := mappingservice.Suggest(provider, folded); len(suggestions) > 0 {
		if err := p.mappingSvc.StoreAutoSuggestions(ctx, provider, uploadID, suggestions, clientID); err != nil {
			log.Warn("store suggestions failed", zap.Error(err))
		}
	}

	mapping, err := p.mappingSvc.LoadResolvedMapping(ctx, provider, folded, clientID)
	if err != nil {
		return fmt.Errorf("resolve mapping: %w", err)
	}
	if len(mapping) == 0 {
		mapping = defaultResolvedMapping(provider, folded)
	}
	if len(mapping) == 0 {
		return fmt.Errorf("no usable column mapping for provider %s", provider)
	}

	rows := make([]canonical.BillingRow, 0, len(records))
	for _, record := range records {
		rows = append(rows, canonical.NormalizeRow(provider, record, mapping))
	}
	obsmetrics.Ingest().AddRowsNormalized(len(rows))

	sets := dimensionservice.Collect(rows)
	err = p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return p.dimensionSvc.BulkUpsert(ctx, tx, sets)
	})
	if err != nil {
		if db.IsConstraintErr(err) {
			return fmt.Errorf("dimension batch violates a constraint, rolled back: %w", err)
		}
		return fmt.Errorf("commit dimensions: %w", err)
	}

	// Dimensions must be committed and visible before fact resolution;
	// the snapshot is taken only after the transaction above returns.
	snapshot, err := p.dimensionSvc.PreloadSnapshot(ctx)
	if err != nil {
		return fmt.Errorf("preload dimension snapshot: %w", err)
	}

	stager := p.factFactory.NewStager(uploadID, clientID)
	for _, row := range rows {
		stager.Push(row, snapshot.Resolve(row))
	}
	inserted, err := stager.Flush(ctx)
	if err != nil {
		return fmt.Errorf("flush facts: %w", err)
	}

	log.Debug("facts staged",
		zap.Int("inserted", inserted),
		zap.Int("dropped", stager.Dropped()),
	)
	return nil
}

func (p *Pipeline) fail(ctx context.Context, log *zap.Logger, uploadID snowflake.ID, cause error) {
	obsmetrics.Ingest().IncUploadFailed()
	if _, err := p.uploadSvc.Transition(ctx, uploaddomain.TransitionRequest{
		UploadID: uploadID,
		ToStatus: uploaddomain.StatusFailed,
		Error:    cause.Error(),
	}); err != nil {
		log.Error("failed to mark upload failed", zap.Error(err), zap.NamedError("cause", cause))
		return
	}
	log.Warn("upload failed", zap.Error(cause))
}

// defaultResolvedMapping seeds a mapping from the provider's known
// aliases when the tenant has not stored one: for each canonical field,
// the first alias present among the folded headers wins.
func defaultResolvedMapping(provider string, folded []string) map[canonical.Field]string {
	aliases := canonical.DefaultAliases(provider)
	if len(aliases) == 0 {
		return nil
	}

	present := make(map[string]struct{}, len(folded))
	for _, h := range folded {
		present[h] = struct{}{}
	}

	mapping := make(map[canonical.Field]string)
	for field, candidates := range aliases {
		for _, candidate := range candidates {
			if _, ok := present[candidate]; ok {
				mapping[field] = candidate
				break
			}
		}
	}
	return mapping
}

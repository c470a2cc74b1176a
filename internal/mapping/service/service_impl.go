package service

import (
	"context"
	"fmt"

	"github.com/bwmarrin/snowflake"
	"github.com/costplane/costplane/internal/canonical"
	mappingdomain "github.com/costplane/costplane/internal/mapping/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  mappingdomain.Repository
}

type service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	repo  mappingdomain.Repository
}

func New(p Params) mappingdomain.Service {
	return &service{
		db:    p.DB,
		log:   p.Log.Named("mapping.service"),
		genID: p.GenID,
		repo:  p.Repo,
	}
}

func (s *service) LoadMapping(ctx context.Context, provider string, clientID snowflake.ID) (map[canonical.Field]string, error) {
	if provider == "" {
		return nil, mappingdomain.ErrInvalidProvider
	}
	if clientID == 0 {
		return nil, mappingdomain.ErrInvalidClient
	}

	rows, err := s.repo.ListMappings(ctx, s.db, clientID, provider)
	if err != nil {
		return nil, fmt.Errorf("list mappings: %w", err)
	}

	mapping := make(map[canonical.Field]string, len(rows))
	for _, row := range rows {
		mapping[canonical.Field(row.Field)] = row.SourceColumn
	}
	return mapping, nil
}

func (s *service) LoadResolvedMapping(ctx context.Context, provider string, headers []string, clientID snowflake.ID) (map[canonical.Field]string, error) {
	mapping, err := s.LoadMapping(ctx, provider, clientID)
	if err != nil {
		return nil, err
	}

	present := make(map[string]struct{}, len(headers))
	for _, h := range canonical.FoldHeaders(headers) {
		present[h] = struct{}{}
	}

	resolved := make(map[canonical.Field]string, len(mapping))
	for field, column := range mapping {
		if _, ok := present[column]; ok {
			resolved[field] = column
		}
	}
	return resolved, nil
}

func (s *service) StoreDetectedColumns(ctx context.Context, provider string, headers []string, clientID snowflake.ID) error {
	if provider == "" {
		return mappingdomain.ErrInvalidProvider
	}
	if clientID == 0 {
		return mappingdomain.ErrInvalidClient
	}

	folded := canonical.FoldHeaders(headers)
	if len(folded) == 0 {
		return nil
	}

	rows := make([]mappingdomain.DetectedColumn, 0, len(folded))
	for _, h := range folded {
		rows = append(rows, mappingdomain.DetectedColumn{
			ID:         s.genID.Generate(),
			ClientID:   clientID,
			Provider:   provider,
			ColumnName: h,
		})
	}
	if err := s.repo.UpsertDetectedColumns(ctx, s.db, rows); err != nil {
		return fmt.Errorf("store detected columns: %w", err)
	}

	s.log.Debug("detected columns stored",
		zap.String("provider", provider),
		zap.Int("columns", len(rows)),
	)
	return nil
}

func (s *service) StoreAutoSuggestions(ctx context.Context, provider string, uploadID snowflake.ID, suggestions []mappingdomain.Suggestion, clientID snowflake.ID) error {
	if provider == "" {
		return mappingdomain.ErrInvalidProvider
	}
	if clientID == 0 {
		return mappingdomain.ErrInvalidClient
	}
	if len(suggestions) == 0 {
		return nil
	}

	audit := make([]mappingdomain.MappingSuggestion, 0, len(suggestions))
	// One mapping row per field: when several headers auto-map onto the
	// same field, the top-scoring one wins.
	topByField := make(map[string]mappingdomain.Suggestion)
	for _, sug := range suggestions {
		audit = append(audit, mappingdomain.MappingSuggestion{
			ID:           s.genID.Generate(),
			ClientID:     clientID,
			UploadID:     uploadID,
			Provider:     provider,
			SourceColumn: sug.SourceColumn,
			Field:        string(sug.Field),
			Score:        sug.Score,
			Reason:       sug.Reason,
			AutoMapped:   sug.AutoMapped,
		})
		if !sug.AutoMapped {
			continue
		}
		if best, ok := topByField[string(sug.Field)]; !ok || sug.Score > best.Score {
			topByField[string(sug.Field)] = sug
		}
	}

	confirmed := make([]mappingdomain.ColumnMapping, 0, len(topByField))
	for field, sug := range topByField {
		confirmed = append(confirmed, mappingdomain.ColumnMapping{
			ID:           s.genID.Generate(),
			ClientID:     clientID,
			Provider:     provider,
			Field:        field,
			SourceColumn: sug.SourceColumn,
			AutoMapped:   true,
		})
	}

	if err := s.repo.InsertSuggestions(ctx, s.db, audit); err != nil {
		return fmt.Errorf("store suggestions: %w", err)
	}
	if err := s.repo.UpsertMappings(ctx, s.db, confirmed); err != nil {
		return fmt.Errorf("confirm auto-mapped suggestions: %w", err)
	}

	s.log.Debug("suggestions stored",
		zap.String("provider", provider),
		zap.String("upload_id", uploadID.String()),
		zap.Int("suggestions", len(audit)),
		zap.Int("auto_mapped", len(confirmed)),
	)
	return nil
}

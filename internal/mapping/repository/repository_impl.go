package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	mappingdomain "github.com/costplane/costplane/internal/mapping/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() mappingdomain.Repository {
	return &repo{}
}

func (r *repo) UpsertMappings(ctx context.Context, db *gorm.DB, rows []mappingdomain.ColumnMapping) error {
	if len(rows) == 0 {
		return nil
	}
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "client_id"}, {Name: "provider"}, {Name: "field"}},
			DoUpdates: clause.AssignmentColumns([]string{"source_column", "auto_mapped", "updated_at"}),
		}).
		Create(&rows).Error
}

func (r *repo) ListMappings(ctx context.Context, db *gorm.DB, clientID snowflake.ID, provider string) ([]mappingdomain.ColumnMapping, error) {
	var rows []mappingdomain.ColumnMapping
	err := db.WithContext(ctx).
		Where("client_id = ? AND provider = ?", clientID, provider).
		Order("field").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repo) UpsertDetectedColumns(ctx context.Context, db *gorm.DB, rows []mappingdomain.DetectedColumn) error {
	if len(rows) == 0 {
		return nil
	}
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "client_id"}, {Name: "provider"}, {Name: "column_name"}},
			DoNothing: true,
		}).
		Create(&rows).Error
}

func (r *repo) InsertSuggestions(ctx context.Context, db *gorm.DB, rows []mappingdomain.MappingSuggestion) error {
	if len(rows) == 0 {
		return nil
	}
	return db.WithContext(ctx).Create(&rows).Error
}

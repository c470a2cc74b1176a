package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	factdomain "github.com/costplane/costplane/internal/fact/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() factdomain.Repository {
	return &repo{}
}

func (r *repo) BatchInsert(ctx context.Context, db *gorm.DB, facts []factdomain.BillingFact, batchSize int) error {
	if len(facts) == 0 {
		return nil
	}
	if batchSize <= 0 {
		batchSize = len(facts)
	}
	return db.WithContext(ctx).CreateInBatches(facts, batchSize).Error
}

func (r *repo) CountByUpload(ctx context.Context, db *gorm.DB, uploadID snowflake.ID) (int64, error) {
	var count int64
	err := db.WithContext(ctx).Model(&factdomain.BillingFact{}).Where("upload_id = ?", uploadID).Count(&count).Error
	return count, err
}

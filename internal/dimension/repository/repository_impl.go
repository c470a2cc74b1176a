package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	dimensiondomain "github.com/costplane/costplane/internal/dimension/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct {
	genID *snowflake.Node
}

func Provide(genID *snowflake.Node) dimensiondomain.Repository {
	return &repo{genID: genID}
}

// BulkUpsert performs one set-based insert-or-update per dimension type.
// Conflicts on the natural key refresh non-key attributes and leave the
// existing surrogate id untouched; the freshly generated id on the
// candidate row is discarded by the database in that case.
func (r *repo) BulkUpsert(ctx context.Context, tx *gorm.DB, sets dimensiondomain.Sets) error {
	now := time.Now().UTC()

	if len(sets.CloudAccounts) > 0 {
		rows := make([]dimensiondomain.CloudAccount, 0, len(sets.CloudAccounts))
		for key, candidate := range sets.CloudAccounts {
			rows = append(rows, dimensiondomain.CloudAccount{
				ID:               r.genID.Generate(),
				Provider:         key.Provider,
				BillingAccountID: key.BillingAccountID,
				Name:             candidate.Name,
				CreatedAt:        now,
				UpdatedAt:        now,
			})
		}
		err := tx.WithContext(ctx).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "provider"}, {Name: "billing_account_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "updated_at"}),
		}).Create(&rows).Error
		if err != nil {
			return fmt.Errorf("upsert cloud accounts: %w", err)
		}
	}

	if len(sets.Services) > 0 {
		rows := make([]dimensiondomain.Service, 0, len(sets.Services))
		for key, candidate := range sets.Services {
			rows = append(rows, dimensiondomain.Service{
				ID:        r.genID.Generate(),
				Provider:  key.Provider,
				Name:      key.Name,
				Category:  candidate.Category,
				CreatedAt: now,
				UpdatedAt: now,
			})
		}
		err := tx.WithContext(ctx).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "provider"}, {Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{"category", "updated_at"}),
		}).Create(&rows).Error
		if err != nil {
			return fmt.Errorf("upsert services: %w", err)
		}
	}

	if len(sets.Regions) > 0 {
		rows := make([]dimensiondomain.Region, 0, len(sets.Regions))
		for key, candidate := range sets.Regions {
			rows = append(rows, dimensiondomain.Region{
				ID:        r.genID.Generate(),
				Provider:  key.Provider,
				RegionID:  key.RegionID,
				Name:      candidate.Name,
				CreatedAt: now,
				UpdatedAt: now,
			})
		}
		err := tx.WithContext(ctx).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "provider"}, {Name: "region_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "updated_at"}),
		}).Create(&rows).Error
		if err != nil {
			return fmt.Errorf("upsert regions: %w", err)
		}
	}

	if len(sets.Skus) > 0 {
		rows := make([]dimensiondomain.Sku, 0, len(sets.Skus))
		for key, candidate := range sets.Skus {
			rows = append(rows, dimensiondomain.Sku{
				ID:         r.genID.Generate(),
				SkuID:      key,
				SkuPriceID: candidate.SkuPriceID,
				Provider:   candidate.Provider,
				CreatedAt:  now,
				UpdatedAt:  now,
			})
		}
		err := tx.WithContext(ctx).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "sku_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"sku_price_id", "provider", "updated_at"}),
		}).Create(&rows).Error
		if err != nil {
			return fmt.Errorf("upsert skus: %w", err)
		}
	}

	if len(sets.Resources) > 0 {
		rows := make([]dimensiondomain.Resource, 0, len(sets.Resources))
		for key, candidate := range sets.Resources {
			rows = append(rows, dimensiondomain.Resource{
				ID:         r.genID.Generate(),
				ResourceID: key,
				Name:       candidate.Name,
				Type:       candidate.Type,
				CreatedAt:  now,
				UpdatedAt:  now,
			})
		}
		err := tx.WithContext(ctx).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "resource_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "type", "updated_at"}),
		}).Create(&rows).Error
		if err != nil {
			return fmt.Errorf("upsert resources: %w", err)
		}
	}

	if len(sets.SubAccounts) > 0 {
		rows := make([]dimensiondomain.SubAccount, 0, len(sets.SubAccounts))
		for key, candidate := range sets.SubAccounts {
			rows = append(rows, dimensiondomain.SubAccount{
				ID:           r.genID.Generate(),
				SubAccountID: key,
				Name:         candidate.Name,
				CreatedAt:    now,
				UpdatedAt:    now,
			})
		}
		err := tx.WithContext(ctx).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "sub_account_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "updated_at"}),
		}).Create(&rows).Error
		if err != nil {
			return fmt.Errorf("upsert sub accounts: %w", err)
		}
	}

	if len(sets.CommitmentDiscounts) > 0 {
		rows := make([]dimensiondomain.CommitmentDiscount, 0, len(sets.CommitmentDiscounts))
		for key, candidate := range sets.CommitmentDiscounts {
			rows = append(rows, dimensiondomain.CommitmentDiscount{
				ID:                   r.genID.Generate(),
				CommitmentDiscountID: key,
				Type:                 candidate.Type,
				Status:               candidate.Status,
				CreatedAt:            now,
				UpdatedAt:            now,
			})
		}
		err := tx.WithContext(ctx).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "commitment_discount_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"type", "status", "updated_at"}),
		}).Create(&rows).Error
		if err != nil {
			return fmt.Errorf("upsert commitment discounts: %w", err)
		}
	}

	return nil
}

func (r *repo) ListCloudAccounts(ctx context.Context, db *gorm.DB) ([]dimensiondomain.CloudAccount, error) {
	var rows []dimensiondomain.CloudAccount
	err := db.WithContext(ctx).Find(&rows).Error
	return rows, err
}

func (r *repo) ListServices(ctx context.Context, db *gorm.DB) ([]dimensiondomain.Service, error) {
	var rows []dimensiondomain.Service
	err := db.WithContext(ctx).Find(&rows).Error
	return rows, err
}

func (r *repo) ListRegions(ctx context.Context, db *gorm.DB) ([]dimensiondomain.Region, error) {
	var rows []dimensiondomain.Region
	err := db.WithContext(ctx).Find(&rows).Error
	return rows, err
}

func (r *repo) ListSkus(ctx context.Context, db *gorm.DB) ([]dimensiondomain.Sku, error) {
	var rows []dimensiondomain.Sku
	err := db.WithContext(ctx).Find(&rows).Error
	return rows, err
}

func (r *repo) ListResources(ctx context.Context, db *gorm.DB) ([]dimensiondomain.Resource, error) {
	var rows []dimensiondomain.Resource
	err := db.WithContext(ctx).Find(&rows).Error
	return rows, err
}

func (r *repo) ListSubAccounts(ctx context.Context, db *gorm.DB) ([]dimensiondomain.SubAccount, error) {
	var rows []dimensiondomain.SubAccount
	err := db.WithContext(ctx).Find(&rows).Error
	return rows, err
}

func (r *repo) ListCommitmentDiscounts(ctx context.Context, db *gorm.DB) ([]dimensiondomain.CommitmentDiscount, error) {
	var rows []dimensiondomain.CommitmentDiscount
	err := db.WithContext(ctx).Find(&rows).Error
	return rows, err
}

package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	// BulkUpsert writes every candidate in sets inside the supplied
	// transaction, insert-or-update keyed by natural key. Errors are
	// returned to the caller for rollback, never swallowed.
	BulkUpsert(ctx context.Context, tx *gorm.DB, sets Sets) error

	ListCloudAccounts(ctx context.Context, db *gorm.DB) ([]CloudAccount, error)
	ListServices(ctx context.Context, db *gorm.DB) ([]Service, error)
	ListRegions(ctx context.Context, db *gorm.DB) ([]Region, error)
	ListSkus(ctx context.Context, db *gorm.DB) ([]Sku, error)
	ListResources(ctx context.Context, db *gorm.DB) ([]Resource, error)
	ListSubAccounts(ctx context.Context, db *gorm.DB) ([]SubAccount, error)
	ListCommitmentDiscounts(ctx context.Context, db *gorm.DB) ([]CommitmentDiscount, error)
}

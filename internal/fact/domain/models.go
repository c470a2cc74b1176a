// Package domain contains the billing usage fact persisted by the
// ingestion pipeline.
package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// BillingFact is one measured usage/cost line, foreign-keyed to the
// dimension surrogate ids. CloudAccountID and ServiceID are required;
// the remaining dimensions are nullable.
type BillingFact struct {
	ID       snowflake.ID `gorm:"primaryKey"`
	UploadID snowflake.ID `gorm:"not null;index"`
	ClientID snowflake.ID `gorm:"not null;index"`

	CloudAccountID       snowflake.ID  `gorm:"not null"`
	ServiceID            snowflake.ID  `gorm:"not null"`
	RegionID             *snowflake.ID
	SkuID                *snowflake.ID
	ResourceID           *snowflake.ID
	SubAccountID         *snowflake.ID
	CommitmentDiscountID *snowflake.ID

	ChargePeriodStart time.Time `gorm:"not null;index"`
	ChargePeriodEnd   time.Time
	ChargeCategory    string    `gorm:"type:text"`
	ChargeClass       string    `gorm:"type:text"`
	ChargeDescription string    `gorm:"type:text"`

	BilledCost       decimal.Decimal `gorm:"type:decimal(20,10);not null"`
	EffectiveCost    decimal.Decimal `gorm:"type:decimal(20,10);not null"`
	ListCost         decimal.Decimal `gorm:"type:decimal(20,10);not null"`
	ConsumedQuantity decimal.Decimal `gorm:"type:decimal(24,10);not null"`
	ConsumedUnit     string          `gorm:"type:text"`
	BillingCurrency  string          `gorm:"type:text"`

	Tags datatypes.JSONMap `gorm:"type:jsonb"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (BillingFact) TableName() string { return "fact_billing_usage" }

// HasRequiredDimensions reports whether every NOT NULL dimension
// foreign key is set.
func (f *BillingFact) HasRequiredDimensions() bool {
	return f.CloudAccountID != 0 && f.ServiceID != 0
}

type Repository interface {
	BatchInsert(ctx context.Context, db *gorm.DB, facts []BillingFact, batchSize int) error
	CountByUpload(ctx context.Context, db *gorm.DB, uploadID snowflake.ID) (int64, error)
}

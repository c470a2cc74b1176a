// Package domain contains the dimension entities of the billing star
// schema. Each entity carries a provider-scoped natural key with a
// unique index and a snowflake surrogate id that is stable once
// assigned.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// CloudAccount is the billing account a charge was invoiced under.
type CloudAccount struct {
	ID               snowflake.ID `gorm:"primaryKey"`
	Provider         string       `gorm:"type:text;not null;check:provider <> '';uniqueIndex:ux_cloud_accounts_natural,priority:1"`
	BillingAccountID string       `gorm:"type:text;not null;check:billing_account_id <> '';uniqueIndex:ux_cloud_accounts_natural,priority:2"`
	Name             string       `gorm:"type:text"`
	CreatedAt        time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt        time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (CloudAccount) TableName() string { return "dim_cloud_accounts" }

// Service is the provider service (EC2, BigQuery, ...) that produced a charge.
type Service struct {
	ID        snowflake.ID `gorm:"primaryKey"`
	Provider  string       `gorm:"type:text;not null;check:provider <> '';uniqueIndex:ux_services_natural,priority:1"`
	Name      string       `gorm:"type:text;not null;check:name <> '';uniqueIndex:ux_services_natural,priority:2"`
	Category  string       `gorm:"type:text"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Service) TableName() string { return "dim_services" }

// Region is the provider region a charge was metered in.
type Region struct {
	ID        snowflake.ID `gorm:"primaryKey"`
	Provider  string       `gorm:"type:text;not null;check:provider <> '';uniqueIndex:ux_regions_natural,priority:1"`
	RegionID  string       `gorm:"type:text;not null;check:region_id <> '';uniqueIndex:ux_regions_natural,priority:2"`
	Name      string       `gorm:"type:text"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Region) TableName() string { return "dim_regions" }

// Sku identifies the priced unit of a charge. Keyed by the bare SKU id.
type Sku struct {
	ID         snowflake.ID `gorm:"primaryKey"`
	SkuID      string       `gorm:"type:text;not null;check:sku_id <> '';uniqueIndex:ux_skus_natural"`
	SkuPriceID string       `gorm:"type:text"`
	Provider   string       `gorm:"type:text"`
	CreatedAt  time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt  time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Sku) TableName() string { return "dim_skus" }

// Resource is the individual cloud resource a charge is attributed to.
type Resource struct {
	ID         snowflake.ID `gorm:"primaryKey"`
	ResourceID string       `gorm:"type:text;not null;check:resource_id <> '';uniqueIndex:ux_resources_natural"`
	Name       string       `gorm:"type:text"`
	Type       string       `gorm:"type:text"`
	CreatedAt  time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt  time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Resource) TableName() string { return "dim_resources" }

// SubAccount is the usage account / subscription / project under the
// billing account.
type SubAccount struct {
	ID           snowflake.ID `gorm:"primaryKey"`
	SubAccountID string       `gorm:"type:text;not null;check:sub_account_id <> '';uniqueIndex:ux_sub_accounts_natural"`
	Name         string       `gorm:"type:text"`
	CreatedAt    time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt    time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (SubAccount) TableName() string { return "dim_sub_accounts" }

// CommitmentDiscount is a savings plan / reservation / CUD a charge was
// covered by.
type CommitmentDiscount struct {
	ID                   snowflake.ID `gorm:"primaryKey"`
	CommitmentDiscountID string       `gorm:"type:text;not null;check:commitment_discount_id <> '';uniqueIndex:ux_commitment_discounts_natural"`
	Type                 string       `gorm:"type:text"`
	Status               string       `gorm:"type:text"`
	CreatedAt            time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt            time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (CommitmentDiscount) TableName() string { return "dim_commitment_discounts" }

// Composite natural keys for the provider-scoped dimensions.
type (
	CloudAccountKey struct{ Provider, BillingAccountID string }
	ServiceKey      struct{ Provider, Name string }
	RegionKey       struct{ Provider, RegionID string }
)

// Sets holds the deduplicated dimension candidates collected from one
// batch of normalized rows, keyed by natural key. Values carry the
// attribute set last seen for the key within the batch.
type Sets struct {
	CloudAccounts       map[CloudAccountKey]CloudAccount
	Services            map[ServiceKey]Service
	Regions             map[RegionKey]Region
	Skus                map[string]Sku
	Resources           map[string]Resource
	SubAccounts         map[string]SubAccount
	CommitmentDiscounts map[string]CommitmentDiscount
}

func NewSets() Sets {
	return Sets{
		CloudAccounts:       make(map[CloudAccountKey]CloudAccount),
		Services:            make(map[ServiceKey]Service),
		Regions:             make(map[RegionKey]Region),
		Skus:                make(map[string]Sku),
		Resources:           make(map[string]Resource),
		SubAccounts:         make(map[string]SubAccount),
		CommitmentDiscounts: make(map[string]CommitmentDiscount),
	}
}

// ResolvedIDs carries the surrogate ids a fact row points to. A nil
// entry means the natural key was absent from the preloaded snapshot.
type ResolvedIDs struct {
	CloudAccountID       *snowflake.ID
	ServiceID            *snowflake.ID
	RegionID             *snowflake.ID
	SkuID                *snowflake.ID
	ResourceID           *snowflake.ID
	SubAccountID         *snowflake.ID
	CommitmentDiscountID *snowflake.ID
}

package service

import (
	"github.com/costplane/costplane/internal/canonical"
	dimensiondomain "github.com/costplane/costplane/internal/dimension/domain"
)

// Collect scans a batch of normalized rows and returns the deduplicated
// dimension candidates keyed by natural key. Pure function, no I/O.
// Within a batch the attribute set last seen for a key wins. A row
// contributes a candidate only when every required business identifier
// of that dimension type is non-empty.
func Collect(rows []canonical.BillingRow) dimensiondomain.Sets {
	sets := dimensiondomain.NewSets()

	for _, row := range rows {
		if row.ProviderName != "" && row.BillingAccountID != "" {
			key := dimensiondomain.CloudAccountKey{Provider: row.ProviderName, BillingAccountID: row.BillingAccountID}
			sets.CloudAccounts[key] = dimensiondomain.CloudAccount{Name: row.BillingAccountName}
		}

		if row.ProviderName != "" && row.ServiceName != "" {
			key := dimensiondomain.ServiceKey{Provider: row.ProviderName, Name: row.ServiceName}
			sets.Services[key] = dimensiondomain.Service{Category: row.ServiceCategory}
		}

		if row.ProviderName != "" && row.RegionID != "" {
			key := dimensiondomain.RegionKey{Provider: row.ProviderName, RegionID: row.RegionID}
			sets.Regions[key] = dimensiondomain.Region{Name: row.RegionName}
		}

		if row.SkuID != "" {
			sets.Skus[row.SkuID] = dimensiondomain.Sku{SkuPriceID: row.SkuPriceID, Provider: row.ProviderName}
		}

		if row.ResourceID != "" {
			sets.Resources[row.ResourceID] = dimensiondomain.Resource{Name: row.ResourceName, Type: row.ResourceType}
		}

		if row.SubAccountID != "" {
			sets.SubAccounts[row.SubAccountID] = dimensiondomain.SubAccount{Name: row.SubAccountName}
		}

		if row.CommitmentDiscountID != "" {
			sets.CommitmentDiscounts[row.CommitmentDiscountID] = dimensiondomain.CommitmentDiscount{
				Type:   row.CommitmentDiscountType,
				Status: row.CommitmentDiscountStatus,
			}
		}
	}

	return sets
}

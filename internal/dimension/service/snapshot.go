package service

import (
	"github.com/bwmarrin/snowflake"
	"github.com/costplane/costplane/internal/canonical"
	dimensiondomain "github.com/costplane/costplane/internal/dimension/domain"
)

// Snapshot holds the natural-key to surrogate-id maps for every
// dimension type, built from full-table reads. It is an immutable value
// taken once per ingest batch, after the dimension upsert transaction
// commits. Dimensions written after the snapshot is taken are not
// visible through it; callers must take a fresh snapshot per batch.
type Snapshot struct {
	cloudAccounts       map[dimensiondomain.CloudAccountKey]snowflake.ID
	services            map[dimensiondomain.ServiceKey]snowflake.ID
	regions             map[dimensiondomain.RegionKey]snowflake.ID
	skus                map[string]snowflake.ID
	resources           map[string]snowflake.ID
	subAccounts         map[string]snowflake.ID
	commitmentDiscounts map[string]snowflake.ID
}

// Resolve looks up the surrogate id for each dimension natural key
// derived from the row. Keys absent from the snapshot resolve to nil
// rather than erroring; the fact stager decides what to do with
// incomplete rows.
func (s *Snapshot) Resolve(row canonical.BillingRow) dimensiondomain.ResolvedIDs {
	var ids dimensiondomain.ResolvedIDs
	if s == nil {
		return ids
	}

	if row.ProviderName != "" && row.BillingAccountID != "" {
		key := dimensiondomain.CloudAccountKey{Provider: row.ProviderName, BillingAccountID: row.BillingAccountID}
		if id, ok := s.cloudAccounts[key]; ok {
			ids.CloudAccountID = &id
		}
	}

	if row.ProviderName != "" && row.ServiceName != "" {
		key := dimensiondomain.ServiceKey{Provider: row.ProviderName, Name: row.ServiceName}
		if id, ok := s.services[key]; ok {
			ids.ServiceID = &id
		}
	}

	if row.ProviderName != "" && row.RegionID != "" {
		key := dimensiondomain.RegionKey{Provider: row.ProviderName, RegionID: row.RegionID}
		if id, ok := s.regions[key]; ok {
			ids.RegionID = &id
		}
	}

	if id, ok := s.skus[row.SkuID]; ok && row.SkuID != "" {
		ids.SkuID = &id
	}
	if id, ok := s.resources[row.ResourceID]; ok && row.ResourceID != "" {
		ids.ResourceID = &id
	}
	if id, ok := s.subAccounts[row.SubAccountID]; ok && row.SubAccountID != "" {
		ids.SubAccountID = &id
	}
	if id, ok := s.commitmentDiscounts[row.CommitmentDiscountID]; ok && row.CommitmentDiscountID != "" {
		ids.CommitmentDiscountID = &id
	}

	return ids
}

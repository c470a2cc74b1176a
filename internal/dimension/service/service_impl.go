package service

import (
	"context"
	"fmt"

	"github.com/bwmarrin/snowflake"
	dimensiondomain "github.com/costplane/costplane/internal/dimension/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB   *gorm.DB
	Log  *zap.Logger
	Repo dimensiondomain.Repository
}

type Service struct {
	db   *gorm.DB
	log  *zap.Logger
	repo dimensiondomain.Repository
}

func New(p Params) *Service {
	return &Service{
		db:   p.DB,
		log:  p.Log.Named("dimension.service"),
		repo: p.Repo,
	}
}

// BulkUpsert persists every dimension candidate inside tx. All-or-
// nothing: any constraint violation propagates so the caller rolls the
// whole transaction back.
func (s *Service) BulkUpsert(ctx context.Context, tx *gorm.DB, sets dimensiondomain.Sets) error {
	if err := s.repo.BulkUpsert(ctx, tx, sets); err != nil {
		return fmt.Errorf("bulk upsert dimensions: %w", err)
	}
	s.log.Debug("dimensions upserted",
		zap.Int("cloud_accounts", len(sets.CloudAccounts)),
		zap.Int("services", len(sets.Services)),
		zap.Int("regions", len(sets.Regions)),
		zap.Int("skus", len(sets.Skus)),
		zap.Int("resources", len(sets.Resources)),
		zap.Int("sub_accounts", len(sets.SubAccounts)),
		zap.Int("commitment_discounts", len(sets.CommitmentDiscounts)),
	)
	return nil
}

// PreloadSnapshot loads every persisted dimension row into in-memory
// natural-key maps. Intended to run once per ingest batch so per-row
// resolution stays off the database.
func (s *Service) PreloadSnapshot(ctx context.Context) (*Snapshot, error) {
	cloudAccounts, err := s.repo.ListCloudAccounts(ctx, s.db)
	if err != nil {
		return nil, fmt.Errorf("preload cloud accounts: %w", err)
	}
	services, err := s.repo.ListServices(ctx, s.db)
	if err != nil {
		return nil, fmt.Errorf("preload services: %w", err)
	}
	regions, err := s.repo.ListRegions(ctx, s.db)
	if err != nil {
		return nil, fmt.Errorf("preload regions: %w", err)
	}
	skus, err := s.repo.ListSkus(ctx, s.db)
	if err != nil {
		return nil, fmt.Errorf("preload skus: %w", err)
	}
	resources, err := s.repo.ListResources(ctx, s.db)
	if err != nil {
		return nil, fmt.Errorf("preload resources: %w", err)
	}
	subAccounts, err := s.repo.ListSubAccounts(ctx, s.db)
	if err != nil {
		return nil, fmt.Errorf("preload sub accounts: %w", err)
	}
	commitments, err := s.repo.ListCommitmentDiscounts(ctx, s.db)
	if err != nil {
		return nil, fmt.Errorf("preload commitment discounts: %w", err)
	}

	snap := &Snapshot{
		cloudAccounts:       make(map[dimensiondomain.CloudAccountKey]snowflake.ID, len(cloudAccounts)),
		services:            make(map[dimensiondomain.ServiceKey]snowflake.ID, len(services)),
		regions:             make(map[dimensiondomain.RegionKey]snowflake.ID, len(regions)),
		skus:                make(map[string]snowflake.ID, len(skus)),
		resources:           make(map[string]snowflake.ID, len(resources)),
		subAccounts:         make(map[string]snowflake.ID, len(subAccounts)),
		commitmentDiscounts: make(map[string]snowflake.ID, len(commitments)),
	}
	for _, row := range cloudAccounts {
		snap.cloudAccounts[dimensiondomain.CloudAccountKey{Provider: row.Provider, BillingAccountID: row.BillingAccountID}] = row.ID
	}
	for _, row := range services {
		snap.services[dimensiondomain.ServiceKey{Provider: row.Provider, Name: row.Name}] = row.ID
	}
	for _, row := range regions {
		snap.regions[dimensiondomain.RegionKey{Provider: row.Provider, RegionID: row.RegionID}] = row.ID
	}
	for _, row := range skus {
		snap.skus[row.SkuID] = row.ID
	}
	for _, row := range resources {
		snap.resources[row.ResourceID] = row.ID
	}
	for _, row := range subAccounts {
		snap.subAccounts[row.SubAccountID] = row.ID
	}
	for _, row := range commitments {
		snap.commitmentDiscounts[row.CommitmentDiscountID] = row.ID
	}

	return snap, nil
}

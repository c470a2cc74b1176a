package service

import (
	"context"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/costplane/costplane/internal/canonical"
	mappingdomain "github.com/costplane/costplane/internal/mapping/domain"
	"github.com/costplane/costplane/internal/mapping/repository"
	"github.com/costplane/costplane/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupMapping(t *testing.T) (*gorm.DB, mappingdomain.Service, *snowflake.Node) {
	t.Helper()

	dbConn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, dbConn.AutoMigrate(
		&mappingdomain.ColumnMapping{},
		&mappingdomain.DetectedColumn{},
		&mappingdomain.MappingSuggestion{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	svc := New(Params{DB: dbConn, Log: zap.NewNop(), GenID: node, Repo: repository.Provide()})
	return dbConn, svc, node
}

func autoMapped(column string, field canonical.Field) mappingdomain.Suggestion {
	return mappingdomain.Suggestion{
		SourceColumn: column,
		Field:        field,
		Score:        1,
		Reason:       "matches provider alias",
		AutoMapped:   true,
	}
}

func TestService_TenantIsolation(t *testing.T) {
	_, svc, node := setupMapping(t)
	ctx := context.Background()

	clientA := node.Generate()
	clientB := node.Generate()
	uploadID := node.Generate()

	require.NoError(t, svc.StoreAutoSuggestions(ctx, canonical.ProviderAWS, uploadID,
		[]mappingdomain.Suggestion{autoMapped("lineitem/unblendedcost", canonical.FieldBilledCost)}, clientA))
	require.NoError(t, svc.StoreAutoSuggestions(ctx, canonical.ProviderAWS, uploadID,
		[]mappingdomain.Suggestion{autoMapped("pricing/publicondemandcost", canonical.FieldBilledCost)}, clientB))

	mappingA, err := svc.LoadMapping(ctx, canonical.ProviderAWS, clientA)
	require.NoError(t, err)
	mappingB, err := svc.LoadMapping(ctx, canonical.ProviderAWS, clientB)
	require.NoError(t, err)

	assert.Equal(t, "lineitem/unblendedcost", mappingA[canonical.FieldBilledCost])
	assert.Equal(t, "pricing/publicondemandcost", mappingB[canonical.FieldBilledCost])
}

func TestService_LoadResolvedMappingFiltersAbsentHeaders(t *testing.T) {
	_, svc, node := setupMapping(t)
	ctx := context.Background()

	clientID := node.Generate()
	require.NoError(t, svc.StoreAutoSuggestions(ctx, canonical.ProviderAWS, node.Generate(),
		[]mappingdomain.Suggestion{
			autoMapped("lineitem/unblendedcost", canonical.FieldBilledCost),
			autoMapped("product/region", canonical.FieldRegionID),
		}, clientID))

	resolved, err := svc.LoadResolvedMapping(ctx, canonical.ProviderAWS,
		[]string{"lineItem/UnblendedCost", "lineItem/UsageAmount"}, clientID)
	require.NoError(t, err)

	assert.Equal(t, "lineitem/unblendedcost", resolved[canonical.FieldBilledCost])
	assert.NotContains(t, resolved, canonical.FieldRegionID)
}

func TestService_StoreDetectedColumns(t *testing.T) {
	dbConn, svc, node := setupMapping(t)
	ctx := context.Background()
	clientID := node.Generate()

	// Empty header list writes nothing.
	require.NoError(t, svc.StoreDetectedColumns(ctx, canonical.ProviderAzure, nil, clientID))
	var count int64
	require.NoError(t, dbConn.Model(&mappingdomain.DetectedColumn{}).Count(&count).Error)
	assert.Zero(t, count)

	// Headers are folded and deduplicated.
	require.NoError(t, svc.StoreDetectedColumns(ctx, canonical.ProviderAzure,
		[]string{" MeterCategory ", "metercategory", "Quantity"}, clientID))
	require.NoError(t, dbConn.Model(&mappingdomain.DetectedColumn{}).Count(&count).Error)
	assert.EqualValues(t, 2, count)

	// Re-storing the same headers is idempotent.
	require.NoError(t, svc.StoreDetectedColumns(ctx, canonical.ProviderAzure,
		[]string{"MeterCategory", "Quantity"}, clientID))
	require.NoError(t, dbConn.Model(&mappingdomain.DetectedColumn{}).Count(&count).Error)
	assert.EqualValues(t, 2, count)
}

func TestService_StoreAutoSuggestions(t *testing.T) {
	dbConn, svc, node := setupMapping(t)
	ctx := context.Background()
	clientID := node.Generate()
	uploadID := node.Generate()

	suggestions := []mappingdomain.Suggestion{
		autoMapped("cost", canonical.FieldBilledCost),
		{SourceColumn: "cost_type", Field: canonical.FieldChargeCategory, Score: 0.7, Reason: "near miss"},
	}
	require.NoError(t, svc.StoreAutoSuggestions(ctx, canonical.ProviderGCP, uploadID, suggestions, clientID))

	var audits int64
	require.NoError(t, dbConn.Model(&mappingdomain.MappingSuggestion{}).Count(&audits).Error)
	assert.EqualValues(t, 2, audits)

	// Only the auto-mapped suggestion was confirmed.
	mapping, err := svc.LoadMapping(ctx, canonical.ProviderGCP, clientID)
	require.NoError(t, err)
	assert.Equal(t, map[canonical.Field]string{canonical.FieldBilledCost: "cost"}, mapping)

	// A later auto-mapped suggestion overwrites the source column, not
	// duplicating the mapping row.
	require.NoError(t, svc.StoreAutoSuggestions(ctx, canonical.ProviderGCP, node.Generate(),
		[]mappingdomain.Suggestion{autoMapped("billedcost", canonical.FieldBilledCost)}, clientID))
	var mappings int64
	require.NoError(t, dbConn.Model(&mappingdomain.ColumnMapping{}).Count(&mappings).Error)
	assert.EqualValues(t, 1, mappings)
	mapping, err = svc.LoadMapping(ctx, canonical.ProviderGCP, clientID)
	require.NoError(t, err)
	assert.Equal(t, "billedcost", mapping[canonical.FieldBilledCost])
}

func TestService_InputValidation(t *testing.T) {
	_, svc, node := setupMapping(t)
	ctx := context.Background()

	_, err := svc.LoadMapping(ctx, "", node.Generate())
	assert.ErrorIs(t, err, mappingdomain.ErrInvalidProvider)

	_, err = svc.LoadMapping(ctx, canonical.ProviderAWS, 0)
	assert.ErrorIs(t, err, mappingdomain.ErrInvalidClient)

	err = svc.StoreDetectedColumns(ctx, canonical.ProviderAWS, []string{"cost"}, 0)
	assert.ErrorIs(t, err, mappingdomain.ErrInvalidClient)
}

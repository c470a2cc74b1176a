package canonical

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFoldHeaders(t *testing.T) {
	headers := []string{" LineItem/UsageAccountId ", "lineitem/usageaccountid", "", "Product/Region"}
	folded := FoldHeaders(headers)
	assert.Equal(t, []string{"lineitem/usageaccountid", "product/region"}, folded)
}

func TestNormalizeRow_MappedAndExtras(t *testing.T) {
	record := map[string]string{
		"lineitem/usageaccountid":  "acct-1001",
		"lineitem/productcode":     "AmazonEC2",
		"product/region":           "us-east-1",
		"lineitem/unblendedcost":   "2.50",
		"lineitem/usageamount":     "12",
		"lineitem/usagestartdate":  "2026-08-01T00:00:00Z",
		"lineitem/usageenddate":    "2026-08-01T01:00:00Z",
		"resourcetags":             `{"team":"data","tier":"gold"}`,
		"lineitem/operation":       "RunInstances",
	}
	mapping := map[Field]string{
		FieldBillingAccountID:  "lineitem/usageaccountid",
		FieldServiceName:       "lineitem/productcode",
		FieldRegionID:          "product/region",
		FieldBilledCost:        "lineitem/unblendedcost",
		FieldConsumedQuantity:  "lineitem/usageamount",
		FieldChargePeriodStart: "lineitem/usagestartdate",
		FieldChargePeriodEnd:   "lineitem/usageenddate",
		FieldTags:              "resourcetags",
	}

	row := NormalizeRow(ProviderAWS, record, mapping)

	assert.Equal(t, ProviderAWS, row.ProviderName)
	assert.Equal(t, "acct-1001", row.BillingAccountID)
	assert.Equal(t, "AmazonEC2", row.ServiceName)
	assert.Equal(t, "us-east-1", row.RegionID)
	assert.Equal(t, "2.5", row.BilledCost.String())
	assert.Equal(t, "12", row.ConsumedQuantity.String())
	assert.Equal(t, time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC), row.ChargePeriodStart)
	assert.Equal(t, "data", row.Tags["team"])

	// Unmapped columns stay in the opaque side channel.
	assert.Equal(t, "RunInstances", row.Extras["lineitem/operation"])
	assert.NotContains(t, row.Extras, "lineitem/productcode")
}

func TestNormalizeRow_BadValuesDegrade(t *testing.T) {
	record := map[string]string{
		"cost": "not-a-number",
		"date": "garbage",
		"tags": "plain text",
	}
	mapping := map[Field]string{
		FieldBilledCost:        "cost",
		FieldChargePeriodStart: "date",
		FieldTags:              "tags",
	}

	row := NormalizeRow(ProviderAzure, record, mapping)

	assert.True(t, row.BilledCost.IsZero())
	assert.True(t, row.ChargePeriodStart.IsZero())
	assert.Equal(t, "plain text", row.Tags["raw"])
}

func TestDefaultAliases_FocusIsIdentity(t *testing.T) {
	aliases := DefaultAliases(ProviderFOCUS)
	assert.Equal(t, []string{"billedcost"}, aliases[FieldBilledCost])
	assert.Len(t, aliases, len(Fields))
	assert.Nil(t, DefaultAliases("oracle"))
}

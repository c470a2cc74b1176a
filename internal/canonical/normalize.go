package canonical

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// FoldHeader normalizes a raw source column header for matching.
func FoldHeader(header string) string {
	return strings.ToLower(strings.TrimSpace(header))
}

// FoldHeaders folds and deduplicates a raw header list, preserving the
// first occurrence order and dropping empties.
func FoldHeaders(headers []string) []string {
	seen := make(map[string]struct{}, len(headers))
	out := make([]string, 0, len(headers))
	for _, h := range headers {
		folded := FoldHeader(h)
		if folded == "" {
			continue
		}
		if _, ok := seen[folded]; ok {
			continue
		}
		seen[folded] = struct{}{}
		out = append(out, folded)
	}
	return out
}

var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
	"01/02/2006",
}

// NormalizeRow maps one raw record (keyed by folded source header) onto
// the canonical schema using the resolved mapping. Source columns not
// covered by the mapping land in Extras untouched.
func NormalizeRow(provider string, record map[string]string, mapping map[Field]string) BillingRow {
	row := BillingRow{ProviderName: provider}

	mapped := make(map[string]struct{}, len(mapping))
	for field, column := range mapping {
		value, ok := record[column]
		if !ok {
			continue
		}
		mapped[column] = struct{}{}
		row.set(field, strings.TrimSpace(value))
	}

	for column, value := range record {
		if _, ok := mapped[column]; ok {
			continue
		}
		if row.Extras == nil {
			row.Extras = make(map[string]string)
		}
		row.Extras[column] = value
	}

	return row
}

func (r *BillingRow) set(field Field, value string) {
	switch field {
	case FieldProviderName:
		if value != "" {
			r.ProviderName = FoldHeader(value)
		}
	case FieldBillingAccountID:
		r.BillingAccountID = value
	case FieldBillingAccountName:
		r.BillingAccountName = value
	case FieldSubAccountID:
		r.SubAccountID = value
	case FieldSubAccountName:
		r.SubAccountName = value
	case FieldServiceName:
		r.ServiceName = value
	case FieldServiceCategory:
		r.ServiceCategory = value
	case FieldRegionID:
		r.RegionID = value
	case FieldRegionName:
		r.RegionName = value
	case FieldAvailabilityZone:
		r.AvailabilityZone = value
	case FieldSkuID:
		r.SkuID = value
	case FieldSkuPriceID:
		r.SkuPriceID = value
	case FieldResourceID:
		r.ResourceID = value
	case FieldResourceName:
		r.ResourceName = value
	case FieldResourceType:
		r.ResourceType = value
	case FieldCommitmentDiscountID:
		r.CommitmentDiscountID = value
	case FieldCommitmentDiscountType:
		r.CommitmentDiscountType = value
	case FieldCommitmentDiscountStatus:
		r.CommitmentDiscountStatus = value
	case FieldBilledCost:
		r.BilledCost = parseDecimal(value)
	case FieldEffectiveCost:
		r.EffectiveCost = parseDecimal(value)
	case FieldListCost:
		r.ListCost = parseDecimal(value)
	case FieldConsumedQuantity:
		r.ConsumedQuantity = parseDecimal(value)
	case FieldConsumedUnit:
		r.ConsumedUnit = value
	case FieldChargePeriodStart:
		r.ChargePeriodStart = parseTime(value)
	case FieldChargePeriodEnd:
		r.ChargePeriodEnd = parseTime(value)
	case FieldChargeCategory:
		r.ChargeCategory = value
	case FieldChargeClass:
		r.ChargeClass = value
	case FieldChargeDescription:
		r.ChargeDescription = value
	case FieldBillingCurrency:
		r.BillingCurrency = value
	case FieldTags:
		r.Tags = parseTags(value)
	}
}

func parseDecimal(value string) decimal.Decimal {
	if value == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func parseTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

// parseTags accepts a JSON object blob; non-JSON input is kept whole
// under a single "raw" key so no tag data is dropped.
func parseTags(value string) map[string]string {
	if value == "" {
		return nil
	}
	var raw map[string]any
	if err := json.Unmarshal([]byte(value), &raw); err != nil {
		return map[string]string{"raw": value}
	}
	tags := make(map[string]string, len(raw))
	for k, v := range raw {
		if s, ok := v.(string); ok {
			tags[k] = s
			continue
		}
		encoded, err := json.Marshal(v)
		if err != nil {
			continue
		}
		tags[k] = string(encoded)
	}
	return tags
}

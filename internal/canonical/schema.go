// Package canonical defines the provider-neutral billing schema that raw
// export rows are normalized into before dimension and fact extraction.
package canonical

import (
	"time"

	"github.com/shopspring/decimal"
)

// Field identifies one canonical column of the normalized billing schema.
// Keys follow FOCUS naming, lower-cased.
type Field string

const (
	FieldProviderName             Field = "providername"
	FieldBillingAccountID         Field = "billingaccountid"
	FieldBillingAccountName       Field = "billingaccountname"
	FieldSubAccountID             Field = "subaccountid"
	FieldSubAccountName           Field = "subaccountname"
	FieldServiceName              Field = "servicename"
	FieldServiceCategory          Field = "servicecategory"
	FieldRegionID                 Field = "regionid"
	FieldRegionName               Field = "regionname"
	FieldAvailabilityZone         Field = "availabilityzone"
	FieldSkuID                    Field = "skuid"
	FieldSkuPriceID               Field = "skupriceid"
	FieldResourceID               Field = "resourceid"
	FieldResourceName             Field = "resourcename"
	FieldResourceType             Field = "resourcetype"
	FieldCommitmentDiscountID     Field = "commitmentdiscountid"
	FieldCommitmentDiscountType   Field = "commitmentdiscounttype"
	FieldCommitmentDiscountStatus Field = "commitmentdiscountstatus"
	FieldBilledCost               Field = "billedcost"
	FieldEffectiveCost            Field = "effectivecost"
	FieldListCost                 Field = "listcost"
	FieldConsumedQuantity         Field = "consumedquantity"
	FieldConsumedUnit             Field = "consumedunit"
	FieldChargePeriodStart        Field = "chargeperiodstart"
	FieldChargePeriodEnd          Field = "chargeperiodend"
	FieldChargeCategory           Field = "chargecategory"
	FieldChargeClass              Field = "chargeclass"
	FieldChargeDescription        Field = "chargedescription"
	FieldBillingCurrency          Field = "billingcurrency"
	FieldTags                     Field = "tags"
)

// Fields lists every canonical field in schema order.
var Fields = []Field{
	FieldProviderName,
	FieldBillingAccountID,
	FieldBillingAccountName,
	FieldSubAccountID,
	FieldSubAccountName,
	FieldServiceName,
	FieldServiceCategory,
	FieldRegionID,
	FieldRegionName,
	FieldAvailabilityZone,
	FieldSkuID,
	FieldSkuPriceID,
	FieldResourceID,
	FieldResourceName,
	FieldResourceType,
	FieldCommitmentDiscountID,
	FieldCommitmentDiscountType,
	FieldCommitmentDiscountStatus,
	FieldBilledCost,
	FieldEffectiveCost,
	FieldListCost,
	FieldConsumedQuantity,
	FieldConsumedUnit,
	FieldChargePeriodStart,
	FieldChargePeriodEnd,
	FieldChargeCategory,
	FieldChargeClass,
	FieldChargeDescription,
	FieldBillingCurrency,
	FieldTags,
}

// BillingRow is one normalized billing line. Unmapped source columns are
// carried in Extras as an opaque side channel, never mixed into the
// typed fields.
type BillingRow struct {
	ProviderName             string
	BillingAccountID         string
	BillingAccountName       string
	SubAccountID             string
	SubAccountName           string
	ServiceName              string
	ServiceCategory          string
	RegionID                 string
	RegionName               string
	AvailabilityZone         string
	SkuID                    string
	SkuPriceID               string
	ResourceID               string
	ResourceName             string
	ResourceType             string
	CommitmentDiscountID     string
	CommitmentDiscountType   string
	CommitmentDiscountStatus string
	BilledCost               decimal.Decimal
	EffectiveCost            decimal.Decimal
	ListCost                 decimal.Decimal
	ConsumedQuantity         decimal.Decimal
	ConsumedUnit             string
	ChargePeriodStart        time.Time
	ChargePeriodEnd          time.Time
	ChargeCategory           string
	ChargeClass              string
	ChargeDescription        string
	BillingCurrency          string
	Tags                     map[string]string
	Extras                   map[string]string
}

// Provider identifiers accepted by the ingestion pipeline.
const (
	ProviderAWS   = "aws"
	ProviderAzure = "azure"
	ProviderGCP   = "gcp"
	ProviderFOCUS = "focus"
)

// DefaultAliases maps each canonical field to the source column names a
// provider's export is known to use, folded. Used to seed mappings when
// a tenant has not stored one and to score auto-suggestions.
func DefaultAliases(provider string) map[Field][]string {
	switch provider {
	case ProviderAWS:
		return map[Field][]string{
			FieldBillingAccountID:     {"bill/payeraccountid", "lineitem/usageaccountid"},
			FieldBillingAccountName:   {"bill/billingentity"},
			FieldSubAccountID:         {"lineitem/usageaccountid"},
			FieldServiceName:          {"lineitem/productcode", "product/servicename"},
			FieldServiceCategory:      {"product/productfamily"},
			FieldRegionID:             {"product/region", "lineitem/availabilityzone"},
			FieldRegionName:           {"product/location"},
			FieldAvailabilityZone:     {"lineitem/availabilityzone"},
			FieldSkuID:                {"product/sku"},
			FieldSkuPriceID:           {"pricing/rateid"},
			FieldResourceID:           {"lineitem/resourceid"},
			FieldCommitmentDiscountID: {"savingsplan/savingsplanarn", "reservation/reservationarn"},
			FieldBilledCost:           {"lineitem/unblendedcost"},
			FieldEffectiveCost:        {"lineitem/netunblendedcost", "savingsplan/savingsplaneffectivecost"},
			FieldListCost:             {"pricing/publicondemandcost"},
			FieldConsumedQuantity:     {"lineitem/usageamount"},
			FieldConsumedUnit:         {"pricing/unit"},
			FieldChargePeriodStart:    {"lineitem/usagestartdate"},
			FieldChargePeriodEnd:      {"lineitem/usageenddate"},
			FieldChargeCategory:       {"lineitem/lineitemtype"},
			FieldChargeDescription:    {"lineitem/lineitemdescription"},
			FieldBillingCurrency:      {"lineitem/currencycode"},
			FieldTags:                 {"resourcetags"},
		}
	case ProviderAzure:
		return map[Field][]string{
			FieldBillingAccountID:     {"billingaccountid"},
			FieldBillingAccountName:   {"billingaccountname"},
			FieldSubAccountID:         {"subscriptionid"},
			FieldSubAccountName:       {"subscriptionname"},
			FieldServiceName:          {"metercategory", "servicename"},
			FieldServiceCategory:      {"metersubcategory"},
			FieldRegionID:             {"resourcelocation"},
			FieldRegionName:           {"location"},
			FieldSkuID:                {"meterid"},
			FieldSkuPriceID:           {"productorderid"},
			FieldResourceID:           {"resourceid", "instanceid"},
			FieldResourceName:         {"resourcename"},
			FieldCommitmentDiscountID: {"benefitid", "reservationid"},
			FieldBilledCost:           {"costinbillingcurrency", "pretaxcost"},
			FieldEffectiveCost:        {"effectiveprice"},
			FieldListCost:             {"paygprice"},
			FieldConsumedQuantity:     {"quantity"},
			FieldConsumedUnit:         {"unitofmeasure"},
			FieldChargePeriodStart:    {"date", "serviceperiodstartdate"},
			FieldChargePeriodEnd:      {"serviceperiodenddate"},
			FieldChargeCategory:       {"chargetype"},
			FieldChargeDescription:    {"productname"},
			FieldBillingCurrency:      {"billingcurrency", "billingcurrencycode"},
			FieldTags:                 {"tags"},
		}
	case ProviderGCP:
		return map[Field][]string{
			FieldBillingAccountID:     {"billing_account_id"},
			FieldSubAccountID:         {"project.id", "project_id"},
			FieldSubAccountName:       {"project.name", "project_name"},
			FieldServiceName:          {"service.description", "service_description"},
			FieldRegionID:             {"location.region", "location_region"},
			FieldAvailabilityZone:     {"location.zone", "location_zone"},
			FieldSkuID:                {"sku.id", "sku_id"},
			FieldResourceID:           {"resource.name", "resource_name"},
			FieldResourceName:         {"resource.global_name"},
			FieldCommitmentDiscountID: {"subscription.instance_id"},
			FieldBilledCost:           {"cost"},
			FieldConsumedQuantity:     {"usage.amount", "usage_amount"},
			FieldConsumedUnit:         {"usage.unit", "usage_unit"},
			FieldChargePeriodStart:    {"usage_start_time"},
			FieldChargePeriodEnd:      {"usage_end_time"},
			FieldChargeCategory:       {"cost_type"},
			FieldBillingCurrency:      {"currency"},
			FieldTags:                 {"labels"},
		}
	case ProviderFOCUS:
		aliases := make(map[Field][]string, len(Fields))
		for _, f := range Fields {
			aliases[f] = []string{string(f)}
		}
		return aliases
	default:
		return nil
	}
}

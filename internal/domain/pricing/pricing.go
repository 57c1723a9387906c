package pricing

import (
	"strings"

	"github.com/oponmeta/service-checkout/internal/domain"
	"github.com/oponmeta/service-checkout/internal/domain/money"
	"github.com/shopspring/decimal"
)

// RegionRule discounts prices for buyers in any of its regions.
// Multipliers never raise a price: 0 < Multiplier <= 1.
type RegionRule struct {
	RegionCodes []string        `json:"region_codes"`
	Multiplier  decimal.Decimal `json:"multiplier"`
}

// NewRegionRule builds a validated rule. Region codes are upper-cased.
func NewRegionRule(multiplier decimal.Decimal, regions ...string) (RegionRule, error) {
	codes := make([]string, 0, len(regions))
	for _, r := range regions {
		r = normalizeRegion(r)
		if r == "" {
			continue
		}
		codes = append(codes, r)
	}
	rule := RegionRule{RegionCodes: codes, Multiplier: multiplier}
	if err := rule.Validate(); err != nil {
		return RegionRule{}, err
	}
	return rule, nil
}

// Validate checks the multiplier range and that the rule names at least one region.
func (r RegionRule) Validate() error {
	if !r.Multiplier.IsPositive() || r.Multiplier.GreaterThan(decimal.NewFromInt(1)) {
		return domain.NewInvalidPricingRuleError("multiplier %s outside (0, 1]", r.Multiplier.String())
	}
	if len(r.RegionCodes) == 0 {
		return domain.NewInvalidPricingRuleError("rule has no region codes")
	}
	return nil
}

// Matches reports whether the rule covers the region.
func (r RegionRule) Matches(region string) bool {
	region = normalizeRegion(region)
	for _, code := range r.RegionCodes {
		if normalizeRegion(code) == region {
			return true
		}
	}
	return false
}

// ValidateRules checks every rule in the table.
func ValidateRules(rules []RegionRule) error {
	for _, r := range rules {
		if err := r.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// ResolveLocalPrice returns the price a buyer in region pays for base.
// The first matching rule wins; with no match the base price is returned unchanged.
func ResolveLocalPrice(base money.Money, region string, rules []RegionRule) (money.Money, error) {
	if err := ValidateRules(rules); err != nil {
		return money.Money{}, err
	}
	for _, r := range rules {
		if r.Matches(region) {
			return base.Mul(r.Multiplier).Rounded(), nil
		}
	}
	return base, nil
}

// GatewayTable binds currencies to payment gateway names.
type GatewayTable map[string]string

// ResolveGateway looks up the gateway for a currency. It never falls back to a default.
func ResolveGateway(currency string, table GatewayTable) (string, error) {
	currency = money.NormalizeCurrency(currency)
	gw, ok := table[currency]
	if !ok || gw == "" {
		return "", domain.NewUnsupportedCurrencyError(currency)
	}
	return gw, nil
}

func normalizeRegion(r string) string {
	return strings.ToUpper(strings.TrimSpace(r))
}

package application

import (
	"errors"

	"github.com/oponmeta/service-checkout/internal/domain"
	"github.com/oponmeta/service-checkout/internal/domain/pricing"
)

// GatewayPolicy picks a gateway for a currency, falling back to Default
// only when the table has no entry.
type GatewayPolicy struct {
	Table   pricing.GatewayTable
	Default string
}

// Select returns the gateway name and whether the default was used.
func (p GatewayPolicy) Select(currency string) (string, bool, error) {
	name, err := pricing.ResolveGateway(currency, p.Table)
	if err == nil {
		return name, false, nil
	}
	if errors.Is(err, domain.ErrUnsupportedCurrency) && p.Default != "" {
		return p.Default, true, nil
	}
	return "", false, err
}

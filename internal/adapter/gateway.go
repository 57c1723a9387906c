package adapter

import (
	"context"
	"fmt"
	"sort"

	"github.com/oponmeta/service-checkout/internal/domain/money"
)

// ChargeRequest is what the checkout hands to a payment gateway.
type ChargeRequest struct {
	Reference     string
	Amount        money.Money
	CustomerEmail string
	// PaymentMethod is a gateway-side token collected by the client, if any.
	PaymentMethod string
	Metadata      map[string]string
}

// ChargeResult is the gateway's answer. Succeeded false means the charge was
// declined; transport failures are returned as errors instead.
type ChargeResult struct {
	Succeeded     bool
	TransactionID string
	Message       string
}

// Gateway defines the Anti-Corruption Layer for external payment providers.
type Gateway interface {
	Name() string
	Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error)
	// Cancel voids a charge that must not stand, e.g. when a later checkout step fails.
	Cancel(ctx context.Context, transactionID string) error
}

// Registry maps gateway names to clients.
type Registry struct {
	gateways map[string]Gateway
}

// NewRegistry registers the given gateways under their names.
func NewRegistry(gateways ...Gateway) *Registry {
	r := &Registry{gateways: make(map[string]Gateway, len(gateways))}
	for _, g := range gateways {
		r.gateways[g.Name()] = g
	}
	return r
}

// Get returns the gateway registered as name.
func (r *Registry) Get(name string) (Gateway, error) {
	g, ok := r.gateways[name]
	if !ok {
		return nil, fmt.Errorf("payment gateway %q is not configured", name)
	}
	return g, nil
}

// Names lists registered gateways in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.gateways))
	for n := range r.gateways {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// FreeGateway settles zero-amount checkouts without calling a provider.
type FreeGateway struct{}

// Name returns "free".
func (FreeGateway) Name() string { return "free" }

// Charge approves the checkout. Only zero amounts are accepted.
func (FreeGateway) Charge(_ context.Context, req ChargeRequest) (*ChargeResult, error) {
	if !req.Amount.IsZero() {
		return nil, fmt.Errorf("free gateway cannot charge %s", req.Amount)
	}
	return &ChargeResult{Succeeded: true, TransactionID: "free_" + req.Reference}, nil
}

// Cancel is a no-op.
func (FreeGateway) Cancel(context.Context, string) error { return nil }

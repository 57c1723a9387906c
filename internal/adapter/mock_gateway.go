package adapter

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MockGateway is a development implementation of Gateway. It approves every
// charge and hands out fake transaction ids in the provider's style.
type MockGateway struct {
	name   string
	prefix string
	logger *zap.Logger
}

// NewMockGateway creates a mock gateway called name.
func NewMockGateway(name string, logger *zap.Logger) *MockGateway {
	prefix := map[string]string{
		"stripe":      "pi_mock_",
		"paystack":    "pstk_mock_",
		"flutterwave": "flw_mock_",
	}[name]
	if prefix == "" {
		prefix = name + "_mock_"
	}
	return &MockGateway{name: name, prefix: prefix, logger: logger}
}

// Name returns the gateway name.
func (m *MockGateway) Name() string { return m.name }

// Charge simulates a successful charge.
func (m *MockGateway) Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error) {
	txID := fmt.Sprintf("%s%s", m.prefix, uuid.New().String()[:8])

	m.logger.Info("[MOCK GATEWAY] charge approved",
		zap.String("gateway", m.name),
		zap.String("transaction_id", txID),
		zap.String("reference", req.Reference),
		zap.String("amount", req.Amount.String()),
		zap.String("customer_email", req.CustomerEmail),
	)
	return &ChargeResult{Succeeded: true, TransactionID: txID}, nil
}

// Cancel simulates voiding a charge.
func (m *MockGateway) Cancel(ctx context.Context, transactionID string) error {
	m.logger.Info("[MOCK GATEWAY] charge cancelled",
		zap.String("gateway", m.name),
		zap.String("transaction_id", transactionID),
	)
	return nil
}

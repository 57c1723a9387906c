package adapter

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v83"
	"github.com/stripe/stripe-go/v83/paymentintent"
	"go.uber.org/zap"
)

// StripeGateway charges through Stripe PaymentIntents.
type StripeGateway struct {
	intents paymentintent.Client
	logger  *zap.Logger
}

// NewStripeGateway creates a live Stripe client for secretKey.
func NewStripeGateway(secretKey string, logger *zap.Logger) *StripeGateway {
	return &StripeGateway{
		intents: paymentintent.Client{B: stripe.GetBackend(stripe.APIBackend), Key: secretKey},
		logger:  logger,
	}
}

// Name returns "stripe".
func (s *StripeGateway) Name() string { return "stripe" }

// Charge creates and confirms a PaymentIntent for the amount in minor units.
func (s *StripeGateway) Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error) {
	params := &stripe.PaymentIntentParams{
		Amount:       stripe.Int64(req.Amount.MinorUnits()),
		Currency:     stripe.String(strings.ToLower(req.Amount.Currency)),
		ReceiptEmail: stripe.String(req.CustomerEmail),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled:        stripe.Bool(true),
			AllowRedirects: stripe.String("never"),
		},
	}
	params.Context = ctx
	params.SetIdempotencyKey(req.Reference)
	params.AddMetadata("reference", req.Reference)
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}
	if req.PaymentMethod != "" {
		params.PaymentMethod = stripe.String(req.PaymentMethod)
		params.Confirm = stripe.Bool(true)
	}

	intent, err := s.intents.New(params)
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) && stripeErr.Type == stripe.ErrorTypeCard {
			s.logger.Info("stripe charge declined",
				zap.String("reference", req.Reference),
				zap.String("decline_code", string(stripeErr.DeclineCode)),
			)
			return &ChargeResult{Succeeded: false, Message: stripeErr.Msg}, nil
		}
		return nil, fmt.Errorf("stripe create payment intent: %w", err)
	}

	s.logger.Info("stripe payment intent created",
		zap.String("payment_intent_id", intent.ID),
		zap.String("status", string(intent.Status)),
		zap.String("reference", req.Reference),
	)
	return intentResult(intent), nil
}

// Cancel cancels a PaymentIntent that has not completed.
func (s *StripeGateway) Cancel(ctx context.Context, transactionID string) error {
	params := &stripe.PaymentIntentCancelParams{}
	params.Context = ctx
	if _, err := s.intents.Cancel(transactionID, params); err != nil {
		return fmt.Errorf("stripe cancel payment intent: %w", err)
	}
	return nil
}

// intentResult maps a PaymentIntent status to pass or fail. Processing and
// requires_capture count as accepted.
func intentResult(pi *stripe.PaymentIntent) *ChargeResult {
	switch pi.Status {
	case stripe.PaymentIntentStatusSucceeded,
		stripe.PaymentIntentStatusProcessing,
		stripe.PaymentIntentStatusRequiresCapture:
		return &ChargeResult{Succeeded: true, TransactionID: pi.ID}
	default:
		return &ChargeResult{
			Succeeded:     false,
			TransactionID: pi.ID,
			Message:       "payment intent " + string(pi.Status),
		}
	}
}

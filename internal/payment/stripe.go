package payment

import (
	"context"
	"errors"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"

	apperrors "marketplace/internal/errors"
)

// StripeProcessor creates Stripe customers and charges.
type StripeProcessor struct {
	api *client.API
}

// NewStripeProcessor creates a processor for secretKey. A nil backends value uses Stripe's API.
func NewStripeProcessor(secretKey string, backends *stripe.Backends) *StripeProcessor {
	return &StripeProcessor{api: client.New(secretKey, backends)}
}

func (p *StripeProcessor) CreateCustomer(ctx context.Context, req CustomerRequest) (string, error) {
	params := &stripe.CustomerParams{
		Email:  stripe.String(req.Email),
		Source: stripe.String(req.Token),
	}
	params.Context = ctx
	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey)
	}

	cus, err := p.api.Customers.New(params)
	if err != nil {
		return "", wrapStripeError("create customer", err)
	}
	return cus.ID, nil
}

func (p *StripeProcessor) Charge(ctx context.Context, req ChargeRequest) (string, error) {
	params := &stripe.ChargeParams{
		Amount:      stripe.Int64(req.AmountMinor),
		Currency:    stripe.String(req.Currency),
		Customer:    stripe.String(req.CustomerRef),
		Description: stripe.String(req.Description),
	}
	params.Context = ctx
	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey)
	}

	ch, err := p.api.Charges.New(params)
	if err != nil {
		return "", wrapStripeError("create charge", err)
	}
	return ch.ID, nil
}

func wrapStripeError(op string, err error) error {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) && stripeErr.Msg != "" {
		return apperrors.Payment(stripeErr.Msg, err)
	}
	return apperrors.Payment(op+" failed", err)
}

var _ Processor = (*StripeProcessor)(nil)

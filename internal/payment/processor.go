package payment

import "context"

// CustomerRequest registers the buyer with the processor using a tokenised card.
type CustomerRequest struct {
	Email          string
	Token          string
	IdempotencyKey string
}

// ChargeRequest charges a customer in minor currency units.
type ChargeRequest struct {
	CustomerRef    string
	AmountMinor    int64
	Currency       string
	Description    string
	IdempotencyKey string
}

// Processor is the external payment processor.
type Processor interface {
	CreateCustomer(ctx context.Context, req CustomerRequest) (string, error)
	Charge(ctx context.Context, req ChargeRequest) (string, error)
}

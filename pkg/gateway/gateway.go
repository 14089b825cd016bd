package gateway

import "context"

// Verification is the single typed outcome of a gateway check: a verified
// external transaction id, or an error.
type Verification struct {
	TransactionID string
	Status        string
}

// Verifier checks whether the gateway settled the payment for an order. The
// core never retries a failed verification; failure is surfaced to the caller.
type Verifier interface {
	Verify(ctx context.Context, orderID string) (*Verification, error)
}

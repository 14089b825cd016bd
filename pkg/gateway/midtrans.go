package gateway

import (
	"context"
	"fmt"
	"time"

	midtrans "github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/coreapi"

	"github.com/noah-isme/school-fees-api/pkg/config"
	appErrors "github.com/noah-isme/school-fees-api/pkg/errors"
)

// settled transaction statuses per the Midtrans status lifecycle.
var settledStatuses = map[string]bool{
	"capture":    true,
	"settlement": true,
}

// MidtransVerifier verifies online payments against the Midtrans core API
// with a bounded timeout per check.
type MidtransVerifier struct {
	client  coreapi.Client
	timeout time.Duration
}

// NewMidtransVerifier constructs a verifier from gateway configuration.
func NewMidtransVerifier(cfg config.GatewayConfig) *MidtransVerifier {
	env := midtrans.Sandbox
	if cfg.Production {
		env = midtrans.Production
	}
	var client coreapi.Client
	client.New(cfg.ServerKey, env)

	timeout := cfg.VerifyTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &MidtransVerifier{client: client, timeout: timeout}
}

// Verify checks the transaction status for the order. Pending or failed
// transactions and gateway errors all surface as upstream failures; the
// caller decides whether to re-attempt.
func (v *MidtransVerifier) Verify(ctx context.Context, orderID string) (*Verification, error) {
	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	type result struct {
		resp *coreapi.TransactionStatusResponse
		err  error
	}
	done := make(chan result, 1)
	go func() {
		resp, midErr := v.client.CheckTransaction(orderID)
		if midErr != nil {
			done <- result{err: midErr}
			return
		}
		done <- result{resp: resp}
	}()

	select {
	case <-ctx.Done():
		return nil, appErrors.Wrap(ctx.Err(), appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "gateway verification timed out")
	case r := <-done:
		if r.err != nil {
			return nil, appErrors.Wrap(r.err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "gateway verification failed")
		}
		if !settledStatuses[r.resp.TransactionStatus] {
			return nil, appErrors.Clone(appErrors.ErrUpstream, fmt.Sprintf("transaction not settled: %s", r.resp.TransactionStatus))
		}
		return &Verification{TransactionID: r.resp.TransactionID, Status: r.resp.TransactionStatus}, nil
	}
}

package identity

import (
	"context"
	"fmt"
	"time"
)

type timeoutVerifier struct {
	next    Verifier
	timeout time.Duration
}

// WithTimeout bounds every verification. A verification that does not finish
// in time is rejected as an invalid token.
func WithTimeout(v Verifier, d time.Duration) Verifier {
	if d <= 0 {
		return v
	}
	return &timeoutVerifier{next: v, timeout: d}
}

func (t *timeoutVerifier) Verify(ctx context.Context, token string) (*Identity, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	type result struct {
		id  *Identity
		err error
	}
	ch := make(chan result, 1)
	go func() {
		id, err := t.next.Verify(ctx, token)
		ch <- result{id: id, err: err}
	}()

	select {
	case r := <-ch:
		return r.id, r.err
	case <-ctx.Done():
		return nil, invalid(fmt.Errorf("verification aborted: %w", ctx.Err()))
	}
}

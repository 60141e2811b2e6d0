package stripegateway

import (
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v75"
)

var (
	// ErrRejected: the processor understood the request and refused it
	// (bad price id, malformed params). Retrying the same call cannot help.
	ErrRejected = errors.New("gateway rejected request")

	// ErrUnavailable: network failure, timeout or a processor 5xx. The call
	// may be retried at the caller's discretion.
	ErrUnavailable = errors.New("gateway unavailable")
)

// classify maps a stripe-go error onto the two failure classes. Anything
// that never reached a well-formed processor response counts as unavailable.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var sErr *stripe.Error
	if errors.As(err, &sErr) {
		if sErr.HTTPStatusCode >= 400 && sErr.HTTPStatusCode < 500 {
			return fmt.Errorf("%w: %s", ErrRejected, sErr.Code)
		}
		return fmt.Errorf("%w: status %d", ErrUnavailable, sErr.HTTPStatusCode)
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}

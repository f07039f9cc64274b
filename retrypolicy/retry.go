package retrypolicy

import (
	"context"
	"database/sql/driver"
	"net"
	"time"

	"github.com/avast/retry-go"
	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"google.golang.org/api/googleapi"
)

// Policy bounds retries of gateway and store I/O: exponential backoff starting
// at Delay, capped at 60s, up to Attempts tries. Only transient errors are
// retried; business failures pass through untouched.
type Policy struct {
	Attempts uint
	Delay    time.Duration
}

// Do runs fn under the policy. The last error is returned once attempts are
// exhausted; callers decide how to degrade (empty result, false, ...).
func (p Policy) Do(ctx context.Context, op string, fn func() error) error {
	attempts := p.Attempts
	if attempts == 0 {
		attempts = 1
	}
	return retry.Do(
		fn,
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.Delay(p.Delay),
		retry.DelayType(retry.BackOffDelay),
		retry.MaxDelay(60*time.Second),
		retry.RetryIf(IsTransient),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			logrus.Warnf("%s: attempt %d failed: %v", op, n+1, err)
		}),
	)
}

// IsTransient reports whether err looks like a recoverable I/O failure:
// timeouts, dropped connections and overloaded upstreams. Context
// cancellation and business errors are not transient.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, mysqldriver.ErrInvalidConn) {
		return true
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code == 429 || apiErr.Code >= 500
	}

	return false
}

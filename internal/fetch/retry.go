package fetch

import (
	"net/http"
	"time"
)

// RetryPolicy controls how failed tracking requests are repeated. Only
// transport failures and RetryableStatus responses are retried.
type RetryPolicy struct {
	// MaxRetries is the number of attempts after the first one.
	MaxRetries int
	// Delay is multiplied by the attempt number: Delay, 2*Delay, 3*Delay...
	Delay time.Duration
}

// Backoff returns the wait before the given retry attempt (1-based).
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	if attempt < 1 || p.Delay <= 0 {
		return 0
	}
	return p.Delay * time.Duration(attempt)
}

// RetryableStatus reports whether a response status is worth retrying:
// 429 and every 5xx.
func RetryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

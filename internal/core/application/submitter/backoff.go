package submitter

import (
	"time"

	"github.com/cenkalti/backoff/v4"
)

// BackoffPolicy is a capped exponential backoff without jitter.
type BackoffPolicy struct {
	Base time.Duration
	Cap  time.Duration
}

var (
	DefaultBackoff          = BackoffPolicy{Base: time.Second, Cap: 8 * time.Second}
	DefaultRateLimitBackoff = BackoffPolicy{Base: 2 * time.Second, Cap: 30 * time.Second}
)

// NewBackOff returns a sequence of delays doubling from Base up to Cap that
// never stops.
func (b BackoffPolicy) NewBackOff() backoff.BackOff {
	initial := b.Base
	if initial > b.Cap {
		initial = b.Cap
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = initial
	bo.MaxInterval = b.Cap
	bo.Multiplier = 2
	bo.RandomizationFactor = 0
	bo.MaxElapsedTime = 0
	bo.Reset()
	return bo
}

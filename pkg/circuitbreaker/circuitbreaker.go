package circuitbreaker

import (
	log "github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
)

var (
	// MaxNumOfFailingRequests is the number of requests to observe before the
	// breaker may trip.
	MaxNumOfFailingRequests = 10
	// FailingRatio is the ratio of failed requests that trips the breaker.
	FailingRatio = 0.6
)

// NewCircuitBreaker returns a *gobreaker.CircuitBreaker that trips once more
// than MaxNumOfFailingRequests requests have been observed and at least
// FailingRatio of them failed. State changes are logged with the given name.
func NewCircuitBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name: name,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return int(counts.Requests) > MaxNumOfFailingRequests && ratio >= FailingRatio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			if to == gobreaker.StateOpen {
				log.Warnf("%s seems down, stop allowing requests", name)
			}
			if from == gobreaker.StateOpen && to == gobreaker.StateHalfOpen {
				log.Infof("checking %s status", name)
			}
			if from == gobreaker.StateHalfOpen && to == gobreaker.StateClosed {
				log.Infof("%s seems ok, restart allowing requests", name)
			}
		},
	})
}

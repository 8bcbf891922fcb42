package submitter_test

import (
	"testing"
	"time"

	"github.com/slab-network/oracled/internal/core/application/submitter"
	"github.com/slab-network/oracled/pkg/explorer"
	"github.com/stretchr/testify/require"
)

func TestBackoffDelay(t *testing.T) {
	tests := []struct {
		name   string
		policy submitter.BackoffPolicy
		want   []time.Duration
	}{
		{
			"default",
			submitter.DefaultBackoff,
			[]time.Duration{
				time.Second, 2 * time.Second, 4 * time.Second,
				8 * time.Second, 8 * time.Second,
			},
		},
		{
			"rate limited",
			submitter.DefaultRateLimitBackoff,
			[]time.Duration{
				2 * time.Second, 4 * time.Second, 8 * time.Second,
				16 * time.Second, 30 * time.Second, 30 * time.Second,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bo := tt.policy.NewBackOff()
			for attempt, want := range tt.want {
				require.Equal(t, want, bo.NextBackOff(), attempt)
			}
		})
	}
}

func TestRateLimitBackoffIsMonotonicAndCapped(t *testing.T) {
	policy := submitter.DefaultRateLimitBackoff
	bo := policy.NewBackOff()
	prev := time.Duration(0)
	for attempt := 0; attempt < 100; attempt++ {
		delay := bo.NextBackOff()
		require.LessOrEqual(t, delay, policy.Cap)
		if prev < policy.Cap {
			require.Greater(t, delay, prev)
		} else {
			require.Equal(t, policy.Cap, delay)
		}
		prev = delay
	}
}

func TestBackoffBaseAboveCap(t *testing.T) {
	policy := submitter.BackoffPolicy{Base: 10 * time.Second, Cap: 3 * time.Second}
	bo := policy.NewBackOff()
	require.Equal(t, 3*time.Second, bo.NextBackOff())
	require.Equal(t, 3*time.Second, bo.NextBackOff())
}

func TestPriorityFee(t *testing.T) {
	fees := func(values ...uint64) []explorer.PrioritizationFee {
		out := make([]explorer.PrioritizationFee, 0, len(values))
		for i, v := range values {
			out = append(out, explorer.PrioritizationFee{Slot: uint64(i), PrioritizationFee: v})
		}
		return out
	}

	tests := []struct {
		name string
		fees []explorer.PrioritizationFee
		min  uint64
		want uint64
	}{
		{"no fees", nil, 1000, 1000},
		{"single", fees(5000), 1000, 5000},
		{"p75 of four", fees(400, 100, 300, 200), 0, 300},
		{"p75 of eight", fees(8, 1, 7, 2, 6, 3, 5, 4), 0, 6},
		{"floored", fees(10, 20, 30, 40), 1000, 1000},
		{"all zero", fees(0, 0, 0), 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, submitter.PriorityFee(tt.fees, tt.min))
		})
	}
}

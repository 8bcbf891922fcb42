package submitter

import (
	"math"
	"sort"

	"github.com/slab-network/oracled/pkg/explorer"
)

const feePercentile = 0.75

// PriorityFee returns the 75th percentile of the recent per-compute-unit fees,
// never lower than minFee.
func PriorityFee(fees []explorer.PrioritizationFee, minFee uint64) uint64 {
	if len(fees) <= 0 {
		return minFee
	}

	values := make([]uint64, 0, len(fees))
	for _, f := range fees {
		values = append(values, f.PrioritizationFee)
	}
	sort.Slice(values, func(i, j int) bool { return values[i] < values[j] })

	idx := int(math.Ceil(feePercentile*float64(len(values)))) - 1
	if idx < 0 {
		idx = 0
	}
	if fee := values[idx]; fee > minFee {
		return fee
	}
	return minFee
}

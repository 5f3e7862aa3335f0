// Package valuation capitalizes reported revenue streams into a lump-sum
// valuation and scores how diversified a revenue mix is.
package valuation

import "github.com/okian/royalty/internal/domain/revenue"

// Adjustment factors applied on top of the category multiplier.
const (
	highConfidenceFactor   = 1.10
	mediumConfidenceFactor = 1.00
	lowConfidenceFactor    = 0.80
	nonRecurringFactor     = 0.60
)

// Result is the outcome of valuing a set of revenue sources.
type Result struct {
	TotalValuation    float64                  `json:"total_valuation"`
	Breakdown         map[revenue.Type]float64 `json:"breakdown"`
	AverageMultiplier float64                  `json:"average_multiplier"`
}

// ConfidenceFactor returns the valuation adjustment for a reporting
// confidence level. Levels are validated at the boundary; anything else
// is treated as medium.
func ConfidenceFactor(c revenue.Confidence) float64 {
	switch c {
	case revenue.High:
		return highConfidenceFactor
	case revenue.Low:
		return lowConfidenceFactor
	default:
		return mediumConfidenceFactor
	}
}

// RecurrenceFactor returns the adjustment for recurring versus one-off income.
func RecurrenceFactor(recurring bool) float64 {
	if recurring {
		return 1
	}
	return nonRecurringFactor
}

// SourceValuation values a single source: multiplier, then confidence,
// then recurrence. The second result is false for unknown revenue types.
func SourceValuation(src revenue.Source) (float64, bool) {
	info, ok := revenue.Lookup(src.Type)
	if !ok {
		return 0, false
	}
	v := src.AnnualRevenue * info.Multiplier
	v *= ConfidenceFactor(src.Confidence)
	v *= RecurrenceFactor(src.Recurring)
	return v, true
}

// Valuate capitalizes every known source and sums the result. Sources with
// an unknown revenue type contribute nothing.
func Valuate(sources []revenue.Source) Result {
	res := Result{Breakdown: make(map[revenue.Type]float64)}
	var annual float64
	for _, src := range sources {
		v, ok := SourceValuation(src)
		if !ok {
			continue
		}
		res.TotalValuation += v
		res.Breakdown[src.Type] += v
		annual += src.AnnualRevenue
	}
	if annual > 0 {
		res.AverageMultiplier = res.TotalValuation / annual
	}
	return res
}

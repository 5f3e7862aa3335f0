package valuation

import "github.com/okian/royalty/internal/domain/revenue"

// maxDiversificationBonus is the bonus a fully diversified portfolio earns.
const maxDiversificationBonus = 0.2

// DiversificationScore returns the share of catalog categories present in
// types, capped at 1. Duplicates count once.
func DiversificationScore(types []revenue.Type) float64 {
	distinct := make(map[revenue.Type]struct{}, len(types))
	for _, t := range types {
		distinct[t] = struct{}{}
	}
	return min(float64(len(distinct))/revenue.Count, 1)
}

// DiversificationBonus converts a diversification score into a valuation
// uplift fraction (0 to 0.2).
func DiversificationBonus(score float64) float64 {
	return score * maxDiversificationBonus
}

// SourceTypes lists the revenue types of sources, in input order.
func SourceTypes(sources []revenue.Source) []revenue.Type {
	out := make([]revenue.Type, len(sources))
	for i, src := range sources {
		out[i] = src.Type
	}
	return out
}

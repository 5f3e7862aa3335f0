package pipeline

import (
	"fmt"
	"math"
	"slices"
	"strings"
)

// Default policy values.
const (
	DefaultVersion                  = "2024-01"
	DefaultBaseRate                 = 250.0
	DefaultRatePerCompletenessPoint = 10.0
	DefaultVerifiedBonus            = 250.0
	DefaultCompletenessThreshold    = 0.7
	DefaultResidualFloor            = 0.10
)

// GapDiscounts holds the fraction of the base estimate lost to each kind of
// registration gap. Discounts compound.
type GapDiscounts struct {
	MissingISWC     float64 `koanf:"missing_iswc" json:"missing_iswc" yaml:"missing_iswc"`
	MissingPRO      float64 `koanf:"missing_pro" json:"missing_pro" yaml:"missing_pro"`
	LowCompleteness float64 `koanf:"low_completeness" json:"low_completeness" yaml:"low_completeness"`
	MissingSplits   float64 `koanf:"missing_splits" json:"missing_splits" yaml:"missing_splits"`
}

// SplitWeights apportions a song's estimate across income types. Weights
// are normalized before use.
type SplitWeights struct {
	Performance float64 `koanf:"performance" json:"performance" yaml:"performance"`
	Mechanical  float64 `koanf:"mechanical" json:"mechanical" yaml:"mechanical"`
	Sync        float64 `koanf:"sync" json:"sync" yaml:"sync"`
}

// Sum returns the total of all weights.
func (w SplitWeights) Sum() float64 {
	return w.Performance + w.Mechanical + w.Sync
}

// Normalized returns weights scaled to sum to 1. A zero sum yields zero
// weights.
func (w SplitWeights) Normalized() SplitWeights {
	sum := w.Sum()
	if sum <= 0 {
		return SplitWeights{}
	}
	return SplitWeights{
		Performance: w.Performance / sum,
		Mechanical:  w.Mechanical / sum,
		Sync:        w.Sync / sum,
	}
}

// Config is the commercial policy behind the pipeline estimate. It is
// versioned external configuration; the estimator only reads it.
type Config struct {
	Version                  string       `koanf:"version" json:"version" yaml:"version"`
	BaseRate                 float64      `koanf:"base_rate" json:"base_rate" yaml:"base_rate"`
	RatePerCompletenessPoint float64      `koanf:"rate_per_completeness_point" json:"rate_per_completeness_point" yaml:"rate_per_completeness_point"`
	VerifiedBonus            float64      `koanf:"verified_bonus" json:"verified_bonus" yaml:"verified_bonus"`
	VerifiedStatuses         []string     `koanf:"verified_statuses" json:"verified_statuses" yaml:"verified_statuses"`
	CompletenessThreshold    float64      `koanf:"completeness_threshold" json:"completeness_threshold" yaml:"completeness_threshold"`
	GapDiscounts             GapDiscounts `koanf:"gap_discounts" json:"gap_discounts" yaml:"gap_discounts"`
	ResidualFloor            float64      `koanf:"residual_floor" json:"residual_floor" yaml:"residual_floor"`
	SplitWeights             SplitWeights `koanf:"split_weights" json:"split_weights" yaml:"split_weights"`
}

// DefaultConfig returns the default pipeline policy.
func DefaultConfig() Config {
	return Config{
		Version:                  DefaultVersion,
		BaseRate:                 DefaultBaseRate,
		RatePerCompletenessPoint: DefaultRatePerCompletenessPoint,
		VerifiedBonus:            DefaultVerifiedBonus,
		VerifiedStatuses:         []string{"verified", "mlc_verified", "pro_verified", "manually_verified"},
		CompletenessThreshold:    DefaultCompletenessThreshold,
		GapDiscounts: GapDiscounts{
			MissingISWC:     0.35,
			MissingPRO:      0.40,
			LowCompleteness: 0.20,
			MissingSplits:   0,
		},
		ResidualFloor: DefaultResidualFloor,
		SplitWeights: SplitWeights{
			Performance: 0.50,
			Mechanical:  0.35,
			Sync:        0.15,
		},
	}
}

// Validate checks that the policy is internally consistent.
func (c Config) Validate() error {
	var errs []string

	if !finite(c.BaseRate, c.RatePerCompletenessPoint, c.VerifiedBonus, c.CompletenessThreshold,
		c.GapDiscounts.MissingISWC, c.GapDiscounts.MissingPRO, c.GapDiscounts.LowCompleteness,
		c.GapDiscounts.MissingSplits, c.ResidualFloor,
		c.SplitWeights.Performance, c.SplitWeights.Mechanical, c.SplitWeights.Sync) {
		errs = append(errs, "values must be finite numbers")
	}
	if c.BaseRate <= 0 {
		errs = append(errs, "base_rate must be > 0")
	}
	if c.RatePerCompletenessPoint < 0 {
		errs = append(errs, "rate_per_completeness_point must be >= 0")
	}
	if c.VerifiedBonus < 0 {
		errs = append(errs, "verified_bonus must be >= 0")
	}
	if c.CompletenessThreshold < 0 || c.CompletenessThreshold > 1 {
		errs = append(errs, "completeness_threshold must be between 0 and 1")
	}

	discounts := map[string]float64{
		"missing_iswc":     c.GapDiscounts.MissingISWC,
		"missing_pro":      c.GapDiscounts.MissingPRO,
		"low_completeness": c.GapDiscounts.LowCompleteness,
		"missing_splits":   c.GapDiscounts.MissingSplits,
	}
	for name, d := range discounts {
		if d < 0 || d >= 1 {
			errs = append(errs, fmt.Sprintf("gap_discounts.%s must be in [0, 1)", name))
		}
	}

	if c.ResidualFloor <= 0 || c.ResidualFloor > 1 {
		errs = append(errs, "residual_floor must be in (0, 1]")
	}

	w := c.SplitWeights
	if w.Performance < 0 || w.Mechanical < 0 || w.Sync < 0 {
		errs = append(errs, "split_weights must be >= 0")
	}
	if w.Sum() <= 0 || math.IsInf(w.Sum(), 0) {
		errs = append(errs, "split_weights must sum to a positive number")
	}

	if len(errs) > 0 {
		// Map iteration order is random; keep messages stable.
		slices.Sort(errs)
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(errs, "; "))
	}
	return nil
}

// verified reports whether status is one of the configured verified
// statuses (case-insensitive).
func (c Config) verified(status string) bool {
	status = strings.ToLower(strings.TrimSpace(status))
	if status == "" {
		return false
	}
	for _, s := range c.VerifiedStatuses {
		if strings.ToLower(strings.TrimSpace(s)) == status {
			return true
		}
	}
	return false
}

func finite(values ...float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

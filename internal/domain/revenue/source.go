package revenue

import (
	"fmt"
	"math"
	"strings"
)

// Level is a three-step ordinal used for both risk levels and reporting
// confidence.
type Level string

// Level values.
const (
	Low    Level = "low"
	Medium Level = "medium"
	High   Level = "high"
)

// Confidence is the reporting confidence attached to a revenue source.
type Confidence = Level

// ParseLevel validates a raw level string (case-insensitive).
func ParseLevel(s string) (Level, error) {
	switch Level(strings.ToLower(strings.TrimSpace(s))) {
	case Low:
		return Low, nil
	case Medium:
		return Medium, nil
	case High:
		return High, nil
	}
	return "", fmt.Errorf("%w: level %q", ErrInvalidEnum, s)
}

// ParseConfidence validates a raw confidence string.
func ParseConfidence(s string) (Confidence, error) {
	return ParseLevel(s)
}

// Source is one reported income stream. Sources are validated on
// construction and never mutated by the valuation functions.
type Source struct {
	Type          Type       `json:"revenue_type"`
	AnnualRevenue float64    `json:"annual_revenue"`
	Confidence    Confidence `json:"confidence_level"`
	Recurring     bool       `json:"is_recurring"`
}

// RawSource mirrors untyped external input (API bodies, CSV rows).
type RawSource struct {
	RevenueType     string   `json:"revenue_type"`
	AnnualRevenue   *float64 `json:"annual_revenue"`
	ConfidenceLevel string   `json:"confidence_level"`
	IsRecurring     *bool    `json:"is_recurring"`
}

// Parse validates r and converts it into a Source. A missing amount counts
// as zero and a missing recurrence flag as non-recurring. Unknown revenue
// types pass through untouched.
func (r RawSource) Parse() (Source, error) {
	conf, err := ParseConfidence(r.ConfidenceLevel)
	if err != nil {
		return Source{}, fmt.Errorf("confidence_level: %w", err)
	}
	var amount float64
	if r.AnnualRevenue != nil {
		amount = *r.AnnualRevenue
	}
	if amount < 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return Source{}, fmt.Errorf("%w: annual_revenue %v", ErrInvalidAmount, amount)
	}
	recurring := r.IsRecurring != nil && *r.IsRecurring
	return Source{
		Type:          Type(strings.ToLower(strings.TrimSpace(r.RevenueType))),
		AnnualRevenue: amount,
		Confidence:    conf,
		Recurring:     recurring,
	}, nil
}

// ParseSources converts a batch, reporting the index of the first bad record.
func ParseSources(raw []RawSource) ([]Source, error) {
	out := make([]Source, 0, len(raw))
	for i, r := range raw {
		src, err := r.Parse()
		if err != nil {
			return nil, fmt.Errorf("sources[%d]: %w", i, err)
		}
		out = append(out, src)
	}
	return out, nil
}

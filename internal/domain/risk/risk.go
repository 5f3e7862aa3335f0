// Package risk classifies a revenue portfolio by category risk, reporting
// confidence and diversification.
package risk

import (
	"math"

	"github.com/okian/royalty/internal/domain/revenue"
)

// Tier thresholds and weights.
const (
	lowTierCeiling        = 0.3
	mediumTierCeiling     = 0.6
	maxComponentScore     = 6 // risk weight (1..3) + confidence weight (1..3)
	diversificationRelief = 0.3

	// Diversification cutoffs that trigger recommendations.
	concentratedCutoff = 0.3
	narrowCutoff       = 0.4
	moderateCutoff     = 0.6
)

// Recommendation texts.
const (
	RecStable            = "Revenue base is stable and well documented; maintain current registrations and reporting."
	RecBroaden           = "Broaden the revenue mix with additional income categories to further reduce concentration."
	RecImproveConfidence = "Improve reporting confidence on uncertain income streams with statements or contracts."
	RecDiversify         = "Revenue is concentrated in too few categories; diversify income streams to reduce risk."
	RecVerify            = "Prioritize verifying reported income; a large share of value rests on uncertain or volatile streams."
	RecLowerRiskTypes    = "Add lower-risk revenue types such as publishing, mechanical or performance royalties."
	RecLowConfidence     = "Document low-confidence revenue streams before relying on them in a valuation."
	RecNoRevenue         = "No reported revenue for recognized categories; add revenue sources to assess risk."
)

// Assessment is the risk classification of a portfolio.
type Assessment struct {
	Level                revenue.Level `json:"risk_level"`
	Score                int           `json:"score"`
	Recommendations      []string      `json:"recommendations"`
	DiversificationScore float64       `json:"diversification_score"`
}

// Input is the subset of a revenue source the assessor reads.
type Input struct {
	Type          revenue.Type
	AnnualRevenue float64
	Confidence    revenue.Confidence
}

// FromSources projects revenue sources onto assessor inputs.
func FromSources(sources []revenue.Source) []Input {
	out := make([]Input, len(sources))
	for i, s := range sources {
		out[i] = Input{Type: s.Type, AnnualRevenue: s.AnnualRevenue, Confidence: s.Confidence}
	}
	return out
}

func levelWeight(l revenue.Level) float64 {
	switch l {
	case revenue.Low:
		return 1
	case revenue.High:
		return 3
	default:
		return 2
	}
}

// confidenceWeight is inverted: low reporting confidence carries the most risk.
func confidenceWeight(c revenue.Confidence) float64 {
	switch c {
	case revenue.Low:
		return 3
	case revenue.High:
		return 1
	default:
		return 2
	}
}

// Assess scores a portfolio. An empty portfolio is maximally risky.
func Assess(in []Input) Assessment {
	if len(in) == 0 {
		return Assessment{Level: revenue.High, Score: 0, Recommendations: []string{}}
	}

	var (
		weighted     float64
		totalRevenue float64
		lowConf      bool
		types        = make(map[revenue.Type]struct{})
	)
	for _, src := range in {
		info, ok := revenue.Lookup(src.Type)
		if !ok {
			continue
		}
		weighted += (levelWeight(info.RiskLevel) + confidenceWeight(src.Confidence)) * src.AnnualRevenue
		totalRevenue += src.AnnualRevenue
		types[src.Type] = struct{}{}
		if src.Confidence == revenue.Low {
			lowConf = true
		}
	}

	diversification := float64(len(types)) / revenue.Count
	if totalRevenue <= 0 {
		return Assessment{
			Level:                revenue.High,
			Score:                0,
			Recommendations:      []string{RecNoRevenue},
			DiversificationScore: diversification,
		}
	}

	avg := weighted / totalRevenue / maxComponentScore
	final := avg * (1 - diversification*diversificationRelief)

	a := Assessment{
		Level:                Tier(final),
		Score:                int(math.Round((1 - final) * 100)),
		DiversificationScore: diversification,
	}
	a.Recommendations = recommend(a.Level, diversification, lowConf)
	return a
}

// AssessSources is Assess over full revenue source records.
func AssessSources(sources []revenue.Source) Assessment {
	return Assess(FromSources(sources))
}

// Tier maps a normalized 0..1 risk score to a risk level.
func Tier(score float64) revenue.Level {
	switch {
	case score < lowTierCeiling:
		return revenue.Low
	case score < mediumTierCeiling:
		return revenue.Medium
	default:
		return revenue.High
	}
}

func recommend(level revenue.Level, diversification float64, lowConf bool) []string {
	recs := []string{}
	switch level {
	case revenue.Low:
		recs = append(recs, RecStable)
		if diversification < narrowCutoff {
			recs = append(recs, RecBroaden)
		}
	case revenue.Medium:
		recs = append(recs, RecImproveConfidence)
		switch {
		case diversification < concentratedCutoff:
			recs = append(recs, RecDiversify)
		case diversification < narrowCutoff:
			recs = append(recs, RecBroaden)
		}
	default:
		recs = append(recs, RecVerify)
		switch {
		case diversification < concentratedCutoff:
			recs = append(recs, RecDiversify)
		case diversification < moderateCutoff:
			recs = append(recs, RecLowerRiskTypes)
		}
	}
	if lowConf {
		recs = append(recs, RecLowConfidence)
	}
	return recs
}

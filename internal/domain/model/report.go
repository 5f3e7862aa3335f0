package model

import (
	"maps"
	"slices"
	"time"

	"github.com/okian/royalty/internal/domain/pipeline"
	"github.com/okian/royalty/internal/domain/revenue"
	"github.com/okian/royalty/internal/domain/risk"
	"github.com/okian/royalty/internal/domain/valuation"
)

// Band is a valuation range around the point estimate.
type Band struct {
	Low  float64 `json:"low"`
	High float64 `json:"high"`
}

// SongStats summarizes the distribution of per-song pipeline estimates.
type SongStats struct {
	Count    int     `json:"count"`
	Mean     float64 `json:"mean"`
	StdDev   float64 `json:"std_dev"`
	TopShare float64 `json:"top_share"`
}

// Report is the full appraisal of one catalog.
type Report struct {
	CatalogID            string           `json:"catalog_id"`
	Name                 string           `json:"name,omitempty"`
	GrossValuation       float64          `json:"gross_valuation"`
	PipelineValuation    float64          `json:"pipeline_valuation"`
	AdditionalValuation  float64          `json:"additional_valuation"`
	Band                 Band             `json:"valuation_band"`
	Confidence           int              `json:"confidence"`
	ConfidenceTier       revenue.Level    `json:"confidence_tier"`
	DiversificationScore float64          `json:"diversification_score"`
	DiversificationBonus float64          `json:"diversification_bonus"`
	MissingImpact        float64          `json:"missing_impact"`
	MissingImpactValue   float64          `json:"missing_impact_value"`
	Pipeline             pipeline.Result  `json:"pipeline"`
	Revenue              valuation.Result `json:"revenue"`
	Risk                 risk.Assessment  `json:"risk"`
	SongStats            SongStats        `json:"song_stats"`
	PolicyVersion        string           `json:"policy_version"`
	GeneratedAt          time.Time        `json:"generated_at"`
}

// Clone returns a copy of r that shares no maps or slices with it.
func (r Report) Clone() Report {
	out := r
	out.Revenue.Breakdown = maps.Clone(r.Revenue.Breakdown)
	out.Risk.Recommendations = slices.Clone(r.Risk.Recommendations)
	if r.Pipeline.SongResults != nil {
		out.Pipeline.SongResults = make([]pipeline.SongResult, len(r.Pipeline.SongResults))
		for i, sr := range r.Pipeline.SongResults {
			sr.Gaps = slices.Clone(sr.Gaps)
			out.Pipeline.SongResults[i] = sr
		}
	}
	return out
}

// RankedEntry is one row of the catalog ranking.
type RankedEntry struct {
	Rank           int           `json:"rank"`
	CatalogID      string        `json:"catalog_id"`
	Name           string        `json:"name,omitempty"`
	GrossValuation float64       `json:"gross_valuation"`
	Confidence     int           `json:"confidence"`
	RiskLevel      revenue.Level `json:"risk_level"`
}

// Entry projects a report onto a ranking row without a rank.
func (r Report) Entry() RankedEntry {
	return RankedEntry{
		CatalogID:      r.CatalogID,
		Name:           r.Name,
		GrossValuation: r.GrossValuation,
		Confidence:     r.Confidence,
		RiskLevel:      r.Risk.Level,
	}
}

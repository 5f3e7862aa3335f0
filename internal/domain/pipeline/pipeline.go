// Package pipeline estimates the annual royalty pipeline of a catalog from
// song registration metadata and quantifies the income lost to missing
// registrations.
//
// The estimator is a pure function of its inputs and the policy Config; it
// performs no I/O and keeps no state, so it is safe for concurrent use.
package pipeline

import (
	"math"

	"github.com/okian/royalty/internal/domain/revenue"
)

// Income types a song's pipeline is split across.
const (
	IncomePerformance = "performance"
	IncomeMechanical  = "mechanical"
	IncomeSync        = "sync"
)

// completenessPoints is the number of points a completeness score of 1.0 is worth.
const completenessPoints = 100

// Confidence tier cutoffs on the 0..100 confidence score.
const (
	highConfidenceCutoff   = 80
	mediumConfidenceCutoff = 60
)

// Breakdown is an amount split by income type.
type Breakdown struct {
	Performance float64 `json:"performance"`
	Mechanical  float64 `json:"mechanical"`
	Sync        float64 `json:"sync"`
}

// Total returns the sum of all income types.
func (b Breakdown) Total() float64 {
	return b.Performance + b.Mechanical + b.Sync
}

// Map returns the breakdown keyed by income type name.
func (b Breakdown) Map() map[string]float64 {
	return map[string]float64{
		IncomePerformance: b.Performance,
		IncomeMechanical:  b.Mechanical,
		IncomeSync:        b.Sync,
	}
}

// RevenueTypes maps each income type onto its revenue catalog category.
func (Breakdown) RevenueTypes() map[string]revenue.Type {
	return map[string]revenue.Type{
		IncomePerformance: revenue.Performance,
		IncomeMechanical:  revenue.Mechanical,
		IncomeSync:        revenue.Sync,
	}
}

func (b *Breakdown) add(o Breakdown) {
	b.Performance += o.Performance
	b.Mechanical += o.Mechanical
	b.Sync += o.Sync
}

// SongResult is the estimate for one song.
type SongResult struct {
	ID               string    `json:"id"`
	BasePipeline     float64   `json:"base_pipeline"`
	AdjustedPipeline float64   `json:"adjusted_pipeline"`
	Realization      float64   `json:"realization"`
	Gaps             []Gap     `json:"gaps"`
	Breakdown        Breakdown `json:"breakdown"`
}

// Result is the catalog-level pipeline estimate.
type Result struct {
	Total           float64      `json:"total"`
	BaseTotal       float64      `json:"base_total"`
	MissingImpact   float64      `json:"missing_impact"`
	Breakdown       Breakdown    `json:"breakdown"`
	ConfidenceScore int          `json:"confidence_score"`
	SongResults     []SongResult `json:"song_results"`
	PolicyVersion   string       `json:"policy_version"`
}

// Estimator computes pipeline estimates under a fixed policy.
type Estimator struct {
	cfg     Config
	weights SplitWeights
}

// NewEstimator returns an estimator for cfg. The policy is not validated
// here; callers validate configuration where it enters the process.
func NewEstimator(cfg Config) *Estimator {
	return &Estimator{cfg: cfg, weights: cfg.SplitWeights.Normalized()}
}

// Config returns the policy the estimator runs with.
func (e *Estimator) Config() Config {
	return e.cfg
}

// Compute estimates the catalog pipeline for songs.
func Compute(songs []Song, cfg Config) Result {
	return NewEstimator(cfg).Compute(songs)
}

// Compute estimates the catalog pipeline for songs.
func (e *Estimator) Compute(songs []Song) Result {
	res := Result{
		SongResults:   make([]SongResult, 0, len(songs)),
		PolicyVersion: e.cfg.Version,
	}
	if len(songs) == 0 {
		return res
	}

	var credit float64
	for _, s := range songs {
		sr := e.Song(s)
		res.SongResults = append(res.SongResults, sr)
		res.Total += sr.AdjustedPipeline
		res.BaseTotal += sr.BasePipeline
		res.Breakdown.add(sr.Breakdown)
		credit += e.confidenceCredit(s)
	}

	res.MissingImpact = math.Max(res.BaseTotal-res.Total, 0)
	res.ConfidenceScore = int(math.Round(credit / float64(len(songs)) * 100))
	return res
}

// Song estimates a single song.
func (e *Estimator) Song(s Song) SongResult {
	base := e.BasePipeline(s)
	gaps := e.Gaps(s)
	realization := e.Realization(gaps)
	adjusted := base * realization

	return SongResult{
		ID:               s.ID,
		BasePipeline:     base,
		AdjustedPipeline: adjusted,
		Realization:      realization,
		Gaps:             gaps,
		Breakdown: Breakdown{
			Performance: adjusted * e.weights.Performance,
			Mechanical:  adjusted * e.weights.Mechanical,
			Sync:        adjusted * e.weights.Sync,
		},
	}
}

// BasePipeline is the undiscounted annual estimate for s.
func (e *Estimator) BasePipeline(s Song) float64 {
	completeness := clamp01(s.CompletenessScore())
	base := e.cfg.BaseRate + e.cfg.RatePerCompletenessPoint*completeness*completenessPoints
	if e.cfg.verified(s.VerificationStatus) {
		base += e.cfg.VerifiedBonus
	}
	return base
}

// Gaps lists the registration gaps of s in a fixed order.
func (e *Estimator) Gaps(s Song) []Gap {
	gaps := []Gap{}
	if !s.HasISWC() {
		gaps = append(gaps, GapMissingISWC)
	}
	if !s.HasPRO() {
		gaps = append(gaps, GapMissingPRO)
	}
	if s.CompletenessScore() < e.cfg.CompletenessThreshold {
		gaps = append(gaps, GapLowCompleteness)
	}
	if !s.HasSplits() {
		gaps = append(gaps, GapMissingSplits)
	}
	return gaps
}

// Realization is the share of the base estimate a song with gaps is
// expected to collect. It never drops below the residual floor.
func (e *Estimator) Realization(gaps []Gap) float64 {
	r := 1.0
	for _, g := range gaps {
		r *= 1 - e.discount(g)
	}
	return math.Min(math.Max(r, e.cfg.ResidualFloor), 1)
}

func (e *Estimator) discount(g Gap) float64 {
	d := e.cfg.GapDiscounts
	switch g {
	case GapMissingISWC:
		return d.MissingISWC
	case GapMissingPRO:
		return d.MissingPRO
	case GapLowCompleteness:
		return d.LowCompleteness
	case GapMissingSplits:
		return d.MissingSplits
	}
	return 0
}

// confidenceCredit is 1 for a verified song above the completeness
// threshold, 0.5 when only one holds, 0 otherwise.
func (e *Estimator) confidenceCredit(s Song) float64 {
	var credit float64
	if e.cfg.verified(s.VerificationStatus) {
		credit += 0.5
	}
	if s.CompletenessScore() >= e.cfg.CompletenessThreshold {
		credit += 0.5
	}
	return credit
}

// ConfidenceTier maps a 0..100 confidence score onto a tier.
func ConfidenceTier(score int) revenue.Level {
	switch {
	case score >= highConfidenceCutoff:
		return revenue.High
	case score >= mediumConfidenceCutoff:
		return revenue.Medium
	default:
		return revenue.Low
	}
}

func clamp01(x float64) float64 {
	return math.Min(math.Max(x, 0), 1)
}

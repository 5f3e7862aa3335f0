// Package appraisal combines the pipeline estimate, the additional-revenue
// valuation, diversification and risk into a single catalog report with a
// confidence band.
package appraisal

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/okian/royalty/internal/domain/model"
	"github.com/okian/royalty/internal/domain/pipeline"
	"github.com/okian/royalty/internal/domain/revenue"
	"github.com/okian/royalty/internal/domain/risk"
	"github.com/okian/royalty/internal/domain/valuation"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// DefaultBandSpread is the band half-width at zero confidence.
const DefaultBandSpread = 0.5

// Source confidence on the 0..100 scale.
const (
	highSourceConfidence   = 100
	mediumSourceConfidence = 70
	lowSourceConfidence    = 40
)

// ErrInvalidConfig is returned by Config.Validate.
var ErrInvalidConfig = errors.New("invalid appraisal config")

// Config is the appraisal policy.
type Config struct {
	Pipeline   pipeline.Config `koanf:"pipeline" json:"pipeline" yaml:"pipeline"`
	BandSpread float64         `koanf:"band_spread" json:"band_spread" yaml:"band_spread"`
}

// DefaultConfig returns the default appraisal policy.
func DefaultConfig() Config {
	return Config{Pipeline: pipeline.DefaultConfig(), BandSpread: DefaultBandSpread}
}

// Validate checks the policy.
func (c Config) Validate() error {
	if !(c.BandSpread >= 0 && c.BandSpread <= 1) {
		return fmt.Errorf("%w: band_spread must be between 0 and 1", ErrInvalidConfig)
	}
	return c.Pipeline.Validate()
}

// Appraiser produces catalog reports. It holds no mutable state and is
// safe for concurrent use.
type Appraiser struct {
	est    *pipeline.Estimator
	spread float64
	now    func() time.Time
}

// Option configures an Appraiser.
type Option func(*Appraiser)

// WithClock sets the clock used to stamp reports.
func WithClock(now func() time.Time) Option {
	return func(a *Appraiser) {
		if now != nil {
			a.now = now
		}
	}
}

// New returns an Appraiser for cfg.
func New(cfg Config, opts ...Option) *Appraiser {
	a := &Appraiser{
		est:    pipeline.NewEstimator(cfg.Pipeline),
		spread: cfg.BandSpread,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Estimator returns the pipeline estimator the appraiser uses.
func (a *Appraiser) Estimator() *pipeline.Estimator {
	return a.est
}

// Appraise values catalog c.
func (a *Appraiser) Appraise(c model.Catalog) model.Report {
	pr := a.est.Compute(c.Songs)
	rev := valuation.Valuate(c.Sources)

	pipelineValue := PipelineValuation(pr.Breakdown)
	divScore := valuation.DiversificationScore(incomeTypes(pr.Breakdown, c.Sources))
	bonus := valuation.DiversificationBonus(divScore)
	gross := (pipelineValue + rev.TotalValuation) * (1 + bonus)

	confidence := blendConfidence(pr.ConfidenceScore, pipelineValue, SourceConfidence(c.Sources), rev.TotalValuation)
	spread := (1 - float64(confidence)/100) * a.spread

	return model.Report{
		CatalogID:            c.ID,
		Name:                 c.Name,
		GrossValuation:       gross,
		PipelineValuation:    pipelineValue,
		AdditionalValuation:  rev.TotalValuation,
		Band:                 model.Band{Low: gross * (1 - spread), High: gross * (1 + spread)},
		Confidence:           confidence,
		ConfidenceTier:       pipeline.ConfidenceTier(confidence),
		DiversificationScore: divScore,
		DiversificationBonus: bonus,
		MissingImpact:        pr.MissingImpact,
		MissingImpactValue:   pr.MissingImpact * a.BlendedMultiplier(),
		Pipeline:             pr,
		Revenue:              rev,
		Risk:                 risk.AssessSources(c.Sources),
		SongStats:            songStats(pr.SongResults),
		PolicyVersion:        pr.PolicyVersion,
		GeneratedAt:          a.now().UTC(),
	}
}

// incomeOrder fixes the summation order of pipeline income types.
var incomeOrder = []string{pipeline.IncomePerformance, pipeline.IncomeMechanical, pipeline.IncomeSync}

// PipelineValuation capitalizes an annual pipeline breakdown with the
// catalog multiplier of each income type.
func PipelineValuation(b pipeline.Breakdown) float64 {
	var v float64
	amounts, types := b.Map(), b.RevenueTypes()
	for _, income := range incomeOrder {
		v += amounts[income] * revenue.Multiplier(types[income])
	}
	return v
}

// BlendedMultiplier is the split-weighted multiplier of one unit of
// pipeline income.
func (a *Appraiser) BlendedMultiplier() float64 {
	w := a.est.Config().SplitWeights.Normalized()
	return w.Performance*revenue.Multiplier(revenue.Performance) +
		w.Mechanical*revenue.Multiplier(revenue.Mechanical) +
		w.Sync*revenue.Multiplier(revenue.Sync)
}

// SourceConfidence is the revenue-weighted reporting confidence of the
// known sources on a 0..100 scale. It is 0 when there is no known revenue.
func SourceConfidence(sources []revenue.Source) float64 {
	var weighted, total float64
	for _, s := range sources {
		if !revenue.Known(s.Type) {
			continue
		}
		weighted += s.AnnualRevenue * confidencePoints(s.Confidence)
		total += s.AnnualRevenue
	}
	if total <= 0 {
		return 0
	}
	return weighted / total
}

func confidencePoints(c revenue.Confidence) float64 {
	switch c {
	case revenue.High:
		return highSourceConfidence
	case revenue.Low:
		return lowSourceConfidence
	default:
		return mediumSourceConfidence
	}
}

func blendConfidence(pipelineScore int, pipelineValue, sourceScore, sourceValue float64) int {
	total := pipelineValue + sourceValue
	if total <= 0 {
		return 0
	}
	blended := (float64(pipelineScore)*pipelineValue + sourceScore*sourceValue) / total
	return int(math.Round(min(max(blended, 0), 100)))
}

// incomeTypes is the union of reported source types and the pipeline
// income types that carry a positive amount.
func incomeTypes(b pipeline.Breakdown, sources []revenue.Source) []revenue.Type {
	out := valuation.SourceTypes(sources)
	amounts, types := b.Map(), b.RevenueTypes()
	for _, income := range incomeOrder {
		if amounts[income] > 0 {
			out = append(out, types[income])
		}
	}
	return out
}

func songStats(results []pipeline.SongResult) model.SongStats {
	if len(results) == 0 {
		return model.SongStats{}
	}
	values := make([]float64, len(results))
	for i, r := range results {
		values[i] = r.AdjustedPipeline
	}
	st := model.SongStats{Count: len(values), Mean: stat.Mean(values, nil)}
	if len(values) > 1 {
		st.StdDev = stat.StdDev(values, nil)
	}
	if sum := floats.Sum(values); sum > 0 {
		st.TopShare = floats.Max(values) / sum
	}
	return st
}

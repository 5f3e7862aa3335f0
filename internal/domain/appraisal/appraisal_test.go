package appraisal_test

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/okian/royalty/internal/domain/appraisal"
	"github.com/okian/royalty/internal/domain/model"
	"github.com/okian/royalty/internal/domain/pipeline"
	"github.com/okian/royalty/internal/domain/revenue"
	. "github.com/smartystreets/goconvey/convey"
)

func ptr[T any](v T) *T { return &v }

var fixed = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func registeredSong(id string) pipeline.Song {
	return pipeline.Song{
		ID:               id,
		Completeness:     ptr(1.0),
		ISWC:             ptr("T-000.000.001-0"),
		PRORegistrations: map[string]string{"bmi": "9"},
	}
}

func TestAppraise(t *testing.T) {
	a := appraisal.New(appraisal.DefaultConfig(), appraisal.WithClock(func() time.Time { return fixed }))

	Convey("Given an appraiser with the default policy", t, func() {
		Convey("When the catalog is empty", func() {
			r := a.Appraise(model.Catalog{ID: "empty"})

			Convey("Then the report should be zero valued and high risk", func() {
				So(r.CatalogID, ShouldEqual, "empty")
				So(r.GrossValuation, ShouldEqual, 0)
				So(r.Band, ShouldResemble, model.Band{})
				So(r.Confidence, ShouldEqual, 0)
				So(r.ConfidenceTier, ShouldEqual, revenue.Low)
				So(r.Risk.Level, ShouldEqual, revenue.High)
				So(r.SongStats, ShouldResemble, model.SongStats{})
				So(r.GeneratedAt, ShouldEqual, fixed)
			})
		})

		Convey("When a catalog has one registered song and a publishing stream", func() {
			r := a.Appraise(model.Catalog{
				ID:    "cat-1",
				Songs: []pipeline.Song{registeredSong("s1")},
				Sources: []revenue.Source{
					{Type: revenue.Publishing, AnnualRevenue: 75000, Confidence: revenue.Medium, Recurring: true},
				},
			})

			Convey("Then the pipeline should be capitalized per income type", func() {
				So(r.PipelineValuation, ShouldAlmostEqual, 13687.5, 1e-6)
				So(r.AdditionalValuation, ShouldAlmostEqual, 1350000, 1e-6)
			})

			Convey("Then diversification should count sources and pipeline income", func() {
				So(r.DiversificationScore, ShouldAlmostEqual, 4.0/9.0, 1e-9)
				So(r.DiversificationBonus, ShouldAlmostEqual, 0.8/9.0, 1e-9)
				So(r.GrossValuation, ShouldAlmostEqual, (13687.5+1350000)*(1+0.8/9.0), 1e-6)
			})

			Convey("Then the band should widen with lower confidence", func() {
				So(r.Confidence, ShouldEqual, 70)
				So(r.ConfidenceTier, ShouldEqual, revenue.Medium)
				So(r.Band.Low, ShouldAlmostEqual, r.GrossValuation*0.85, 1e-6)
				So(r.Band.High, ShouldAlmostEqual, r.GrossValuation*1.15, 1e-6)
			})

			Convey("Then song statistics should describe the single song", func() {
				So(r.SongStats.Count, ShouldEqual, 1)
				So(r.SongStats.Mean, ShouldEqual, 1250)
				So(r.SongStats.StdDev, ShouldEqual, 0)
				So(r.SongStats.TopShare, ShouldEqual, 1)
			})
		})

		Convey("When songs are missing registrations", func() {
			r := a.Appraise(model.Catalog{ID: "gaps", Songs: []pipeline.Song{{ID: "bare"}}})

			Convey("Then the lost income should be valued at the blended multiplier", func() {
				So(a.BlendedMultiplier(), ShouldAlmostEqual, 10.95, 1e-9)
				So(r.MissingImpact, ShouldAlmostEqual, 172, 1e-9)
				So(r.MissingImpactValue, ShouldAlmostEqual, 172*10.95, 1e-6)
			})
		})

		Convey("When several songs are appraised", func() {
			r := a.Appraise(model.Catalog{ID: "many", Songs: []pipeline.Song{registeredSong("a"), registeredSong("b"), {ID: "c"}}})

			Convey("Then the top song share should reflect concentration", func() {
				So(r.SongStats.Count, ShouldEqual, 3)
				So(r.SongStats.TopShare, ShouldAlmostEqual, 1250.0/2578.0, 1e-9)
				So(r.SongStats.StdDev, ShouldBeGreaterThan, 0)
			})
		})
	})
}

func TestSourceConfidence(t *testing.T) {
	Convey("Given reported sources", t, func() {
		So(appraisal.SourceConfidence(nil), ShouldEqual, 0)
		So(appraisal.SourceConfidence([]revenue.Source{
			{Type: revenue.Sync, AnnualRevenue: 100, Confidence: revenue.High},
			{Type: revenue.Touring, AnnualRevenue: 300, Confidence: revenue.Low},
			{Type: "unknown", AnnualRevenue: 1000, Confidence: revenue.High},
		}), ShouldAlmostEqual, 55, 1e-9)
	})
}

func TestConfigValidate(t *testing.T) {
	Convey("Given an appraisal policy", t, func() {
		So(appraisal.DefaultConfig().Validate(), ShouldBeNil)

		cfg := appraisal.DefaultConfig()
		cfg.BandSpread = 2
		So(errors.Is(cfg.Validate(), appraisal.ErrInvalidConfig), ShouldBeTrue)

		cfg = appraisal.DefaultConfig()
		cfg.Pipeline.ResidualFloor = 0
		So(errors.Is(cfg.Validate(), pipeline.ErrInvalidConfig), ShouldBeTrue)
	})
}

func TestPipelineValuation(t *testing.T) {
	Convey("Given pipeline breakdowns split by the default weights", t, func() {
		for _, x := range []float64{0.1, 0.2, 1.7, 1234.56} {
			b := pipeline.Breakdown{Performance: x * 0.5, Mechanical: x * 0.35, Sync: x * 0.15}
			want := b.Performance*revenue.Multiplier(revenue.Performance) +
				b.Mechanical*revenue.Multiplier(revenue.Mechanical) +
				b.Sync*revenue.Multiplier(revenue.Sync)

			Convey(fmt.Sprintf("Then repeated valuations of %v should be bit-identical", x), func() {
				first := appraisal.PipelineValuation(b)
				So(first, ShouldAlmostEqual, want, 1e-9)
				for range 200 {
					So(appraisal.PipelineValuation(b), ShouldEqual, first)
				}
			})
		}
	})
}
